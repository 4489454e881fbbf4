// Package query builds parameterized SQL statements. Statement text only
// grows from Fragment values; every caller-supplied value becomes a bind
// parameter rendered in the dialect's placeholder syntax.
package query

import (
	"strconv"
	"strings"
	"time"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) Dialect {
	switch driver {
	case "sqlite", "sqlite3":
		return SQLite
	default:
		return Postgres
	}
}

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

// Fragment is trusted statement text. Untyped string constants convert to it
// implicitly; runtime strings need an explicit conversion, which is where a
// reviewer should look.
type Fragment string

// TimestampLayout is fixed width so text comparison matches time order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type Statement struct {
	SQL  string
	Args []any
}

type Builder struct {
	dialect Dialect
	sb      strings.Builder
	args    []any
}

func New(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

func (b *Builder) SQL(f Fragment) *Builder {
	b.sb.WriteString(string(f))
	return b
}

// Param appends a placeholder bound to v.
func (b *Builder) Param(v any) *Builder {
	b.args = append(b.args, v)
	b.writePlaceholder()
	return b
}

// Params appends a comma separated placeholder list.
func (b *Builder) Params(values ...any) *Builder {
	for i, v := range values {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.Param(v)
	}
	return b
}

// Timestamp binds t as fixed-width UTC text, cast back to timestamptz on Postgres.
func (b *Builder) Timestamp(t time.Time) *Builder {
	b.Param(FormatTimestamp(t))
	if b.dialect == Postgres {
		b.sb.WriteString("::timestamptz")
	}
	return b
}

// Text binds s with an explicit text type so Postgres can resolve
// parameters that appear in a SELECT list.
func (b *Builder) Text(s string) *Builder {
	b.Param(s)
	if b.dialect == Postgres {
		b.sb.WriteString("::text")
	}
	return b
}

func (b *Builder) OrderBy(c Column, d Direction) *Builder {
	b.sb.WriteString(" ORDER BY ")
	b.sb.WriteString(string(c))
	b.sb.WriteString(" ")
	b.sb.WriteString(string(d))
	return b
}

func (b *Builder) Limit(limit, offset int) *Builder {
	b.sb.WriteString(" LIMIT ")
	b.Param(limit)
	b.sb.WriteString(" OFFSET ")
	b.Param(offset)
	return b
}

func (b *Builder) Build() Statement {
	args := make([]any, len(b.args))
	copy(args, b.args)
	return Statement{SQL: b.sb.String(), Args: args}
}

func (b *Builder) writePlaceholder() {
	if b.dialect == SQLite {
		b.sb.WriteString("?")
		return
	}
	b.sb.WriteString("$")
	b.sb.WriteString(strconv.Itoa(len(b.args)))
}
