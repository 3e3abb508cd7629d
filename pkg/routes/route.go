// Package routes declares handler tables as nested groups and registers
// them on a Go 1.22 ServeMux.
package routes

import "net/http"

// Route is one "METHOD pattern" entry. Pattern is relative to the
// enclosing groups and may be empty to address the group prefix itself.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

func (r Route) pattern(prefix string) string {
	return r.Method + " " + prefix + r.Pattern
}
