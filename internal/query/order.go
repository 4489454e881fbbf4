package query

// Column is an ORDER BY target. Only values from the allow-list below exist.
type Column string

type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

func DirectionOf(desc bool) Direction {
	if desc {
		return Desc
	}
	return Asc
}

// columns maps an order key to the column of the pattern variable it sorts on.
// Keys are looked up against the entity variable "e" or, for traversal
// patterns, the related variable "x".
var columns = map[string]string{
	"name":       "name",
	"phase_name": "name",
	"created":    "created",
	"modified":   "modified",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// OrderColumn resolves key on the pattern variable alias ("e" or "x").
func OrderColumn(alias, key string) (Column, bool) {
	col, ok := columns[key]
	if !ok || (alias != "e" && alias != "x") {
		return "", false
	}
	return Column(alias + "." + col), true
}
