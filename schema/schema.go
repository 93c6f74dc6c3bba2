// Package schema describes destination tables as ordered column lists and
// derives the SQL that creates and fills them.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is a strict SQLite column type.
type Type int

const (
	Text Type = iota
	Integer
	// Boolean is stored as an INTEGER restricted to 0 and 1.
	Boolean
)

// MaxVariables is SQLite's default bound-parameter limit per statement.
const MaxVariables = 32766

// Column maps one field of R to a table column.
type Column[R any] struct {
	Key     string
	Type    Type
	Extract func(*R) string
}

// Schema is immutable after New. Its clauses list columns in the order they
// were given, which is also the order Values binds them.
type Schema[R any] struct {
	name    string
	columns []Column[R]
	defs    string
	names   string
}

func New[R any](name string, columns ...Column[R]) *Schema[R] {
	cols := make([]Column[R], len(columns))
	copy(cols, columns)

	defs := make([]string, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Key
		switch c.Type {
		case Text:
			defs[i] = c.Key + " TEXT"
		case Integer:
			defs[i] = c.Key + " INTEGER"
		case Boolean:
			defs[i] = fmt.Sprintf("%s INTEGER CHECK (%s IN (0,1))", c.Key, c.Key)
		}
	}

	return &Schema[R]{
		name:    name,
		columns: cols,
		defs:    strings.Join(defs, ","),
		names:   strings.Join(names, ","),
	}
}

func (s *Schema[R]) Name() string { return s.name }

// Len is the number of columns.
func (s *Schema[R]) Len() int { return len(s.columns) }

// Keys returns the column names in order.
func (s *Schema[R]) Keys() []string {
	keys := make([]string, len(s.columns))
	for i, c := range s.columns {
		keys[i] = c.Key
	}
	return keys
}

// Definitions is the column definition clause, e.g. "id TEXT,score INTEGER".
func (s *Schema[R]) Definitions() string { return s.defs }

// InsertColumns is the column list of an INSERT, e.g. "id,score".
func (s *Schema[R]) InsertColumns() string { return s.names }

// CreateTable returns the STRICT table definition for the schema's own name.
func (s *Schema[R]) CreateTable() string {
	return s.CreateTableAs(s.name)
}

// CreateTableAs returns the STRICT table definition under another name.
func (s *Schema[R]) CreateTableAs(table string) string {
	return "CREATE TABLE IF NOT EXISTS " + table + " (" + s.defs + ") STRICT"
}

// Insert returns a multi-row INSERT with rows value tuples.
func (s *Schema[R]) Insert(rows int) string {
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(s.columns)), ",") + ")"

	var b strings.Builder
	b.Grow(len(s.name) + len(s.names) + rows*(len(tuple)+1) + 32)
	b.WriteString("INSERT INTO ")
	b.WriteString(s.name)
	b.WriteString(" (")
	b.WriteString(s.names)
	b.WriteString(") VALUES ")
	for i := 0; i < rows; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tuple)
	}
	return b.String()
}

// Values appends the extracted column values of r to dst.
func (s *Schema[R]) Values(dst []any, r *R) []any {
	for _, c := range s.columns {
		dst = append(dst, c.Extract(r))
	}
	return dst
}

// Int formats an integer column value.
func Int[T ~int | ~int64](v T) string {
	return strconv.FormatInt(int64(v), 10)
}

// Bool formats a Boolean column value.
func Bool(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
