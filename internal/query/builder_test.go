package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderPlaceholders(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{"postgres numbers placeholders", Postgres, "SELECT * FROM entities WHERE name = $1 AND stix_id IN ($2, $3) LIMIT $4 OFFSET $5"},
		{"sqlite uses question marks", SQLite, "SELECT * FROM entities WHERE name = ? AND stix_id IN (?, ?) LIMIT ? OFFSET ?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := New(tt.dialect).
				SQL("SELECT * FROM entities WHERE name = ").Param("x").
				SQL(" AND stix_id IN (").Params("a", "b").SQL(")").
				Limit(10, 20).
				Build()

			assert.Equal(t, tt.expected, stmt.SQL)
			assert.Equal(t, []any{"x", "a", "b", 10, 20}, stmt.Args)
		})
	}
}

func TestBuilderNeverInterpolatesValues(t *testing.T) {
	hostile := `"; DROP TABLE entities; --`
	stmt := New(Postgres).SQL("SELECT 1 WHERE name = ").Param(hostile).Build()

	assert.NotContains(t, stmt.SQL, "DROP TABLE")
	require.Len(t, stmt.Args, 1)
	assert.Equal(t, hostile, stmt.Args[0])
}

func TestBuilderTypedParams(t *testing.T) {
	ts := time.Date(2024, 3, 5, 7, 8, 9, 10, time.FixedZone("CET", 3600))

	pg := New(Postgres).SQL("SELECT ").Text("a").SQL(", ").Timestamp(ts).Build()
	assert.Equal(t, "SELECT $1::text, $2::timestamptz", pg.SQL)
	assert.Equal(t, "2024-03-05T06:08:09.000000010Z", pg.Args[1])

	lite := New(SQLite).SQL("SELECT ").Text("a").SQL(", ").Timestamp(ts).Build()
	assert.Equal(t, "SELECT ?, ?", lite.SQL)
}

func TestFormatTimestampSortsLexically(t *testing.T) {
	earlier := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 500, time.UTC))
	later := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 5000, time.UTC))
	assert.Less(t, earlier, later)
	assert.Len(t, earlier, len(later))
}

func TestOrderColumn(t *testing.T) {
	col, ok := OrderColumn("e", "name")
	assert.True(t, ok)
	assert.Equal(t, Column("e.name"), col)

	col, ok = OrderColumn("x", "phase_name")
	assert.True(t, ok)
	assert.Equal(t, Column("x.name"), col)

	_, ok = OrderColumn("e", "name; DROP TABLE entities")
	assert.False(t, ok)

	_, ok = OrderColumn("r", "name")
	assert.False(t, ok)

	stmt := New(SQLite).SQL("SELECT e.name FROM entities e").OrderBy(col, DirectionOf(true)).Build()
	assert.Equal(t, "SELECT e.name FROM entities e ORDER BY x.name DESC", stmt.SQL)
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, SQLite, DialectFor("sqlite"))
	assert.Equal(t, SQLite, DialectFor("sqlite3"))
	assert.Equal(t, Postgres, DialectFor("postgres"))
	assert.Equal(t, "sqlite", SQLite.String())
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"trims whitespace", "  T1059  ", "T1059"},
		{"drops NUL", "attack\x00pattern", "attackpattern"},
		{"keeps newline and tab", "line1\n\tline2", "line1\n\tline2"},
		{"keeps quotes", `say "hi"`, `say "hi"`},
		{"keeps unicode", "Фишинг", "Фишинг"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Sanitize(tt.input))
		})
	}
}

func TestSanitizeAll(t *testing.T) {
	assert.Nil(t, SanitizeAll(nil))
	assert.Equal(t, []string{"windows", "linux"}, SanitizeAll([]string{" windows", "\x00", "linux "}))
}
