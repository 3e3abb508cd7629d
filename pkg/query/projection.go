// Package query builds parameterized PostgreSQL SELECT statements over a
// projection of logical field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

// Projection maps logical field names to qualified columns of one table.
type Projection struct {
	table   string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjection creates a Projection over table referenced as alias.
func NewProjection(table, alias string) *Projection {
	return &Projection{
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps field to column. Columns are selected in projection order.
func (p *Projection) Project(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// Column returns the qualified column for field.
func (p *Projection) Column(field string) (string, error) {
	col, ok := p.columns[field]
	if !ok {
		return "", fmt.Errorf("unknown field %q", field)
	}
	return col, nil
}

// Columns returns the select list.
func (p *Projection) Columns() string {
	return strings.Join(p.order, ", ")
}

// From returns the table reference with its alias.
func (p *Projection) From() string {
	return p.table + " " + p.alias
}
