package query

import (
	"errors"
	"fmt"
	"strings"
)

// SortField orders results by a projected field.
type SortField struct {
	Field      string
	Descending bool
}

// ParseSort parses "field,-other" into SortFields; a leading "-" sorts descending.
func ParseSort(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

type predicate struct {
	// sql uses ? for each argument; placeholders are numbered on build.
	sql  string
	args []any
}

// Builder accumulates conditions and ordering for a Projection.
// Unknown fields are collected and reported by the Build methods.
type Builder struct {
	proj  *Projection
	where []predicate
	sort  []SortField
	errs  []error
}

// NewBuilder starts a query over proj ordered by sort unless overridden.
func NewBuilder(proj *Projection, sort ...SortField) *Builder {
	return &Builder{proj: proj, sort: sort}
}

// Equals adds field = value. Empty strings and nil pointers are ignored.
func (b *Builder) Equals(field string, value any) *Builder {
	if absent(value) {
		return b
	}
	return b.add(field, "%s = ?", value)
}

// Contains adds a case-insensitive substring match. Empty values are ignored.
func (b *Builder) Contains(field, value string) *Builder {
	if value == "" {
		return b
	}
	return b.add(field, "%s ILIKE ?", "%"+value+"%")
}

// Range adds field >= from AND field < to. Nil bounds are ignored.
func (b *Builder) Range(field string, from, to any) *Builder {
	if !absent(from) {
		b.add(field, "%s >= ?", from)
	}
	if !absent(to) {
		b.add(field, "%s < ?", to)
	}
	return b
}

// OrderBy replaces the default ordering when fields is non-empty.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	if len(fields) > 0 {
		b.sort = fields
	}
	return b
}

// Select returns the full filtered and ordered query.
func (b *Builder) Select() (string, []any, error) {
	return b.build("SELECT "+b.proj.Columns(), true, "")
}

// Count returns a COUNT(*) over the filtered rows.
func (b *Builder) Count() (string, []any, error) {
	return b.build("SELECT COUNT(*)", false, "")
}

// Page returns the filtered query limited to one page.
func (b *Builder) Page(limit, offset int) (string, []any, error) {
	return b.build("SELECT "+b.proj.Columns(), true, fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))
}

func (b *Builder) add(field, format string, value any) *Builder {
	col, err := b.proj.Column(field)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.where = append(b.where, predicate{sql: fmt.Sprintf(format, col), args: []any{value}})
	return b
}

func (b *Builder) build(head string, ordered bool, tail string) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString(" FROM ")
	sb.WriteString(b.proj.From())

	var args []any
	for i, p := range b.where {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		next := 0
		for _, r := range p.sql {
			if r != '?' {
				sb.WriteRune(r)
				continue
			}
			args = append(args, p.args[next])
			next++
			fmt.Fprintf(&sb, "$%d", len(args))
		}
	}

	if ordered && len(b.sort) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, s := range b.sort {
			col, err := b.proj.Column(s.Field)
			if err != nil {
				b.errs = append(b.errs, err)
				continue
			}
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(col)
			if s.Descending {
				sb.WriteString(" DESC")
			}
		}
	}

	sb.WriteString(tail)

	if err := errors.Join(b.errs...); err != nil {
		return "", nil, err
	}
	return sb.String(), args, nil
}

func absent(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case *string:
		return x == nil || *x == ""
	case *bool:
		return x == nil
	case *int:
		return x == nil
	}
	return false
}
