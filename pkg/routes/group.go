package routes

import "net/http"

// Group prefixes its routes and every child group.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in groups to mux. ServeMux panics on
// conflicting patterns, so overlaps surface at startup.
func Register(mux *http.ServeMux, groups ...Group) {
	walk(groups, "", func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, h)
	})
}

// Patterns lists the full "METHOD /path" patterns Register would add, in
// declaration order.
func Patterns(groups ...Group) []string {
	var out []string
	walk(groups, "", func(pattern string, _ http.HandlerFunc) {
		out = append(out, pattern)
	})
	return out
}

func walk(groups []Group, parent string, fn func(string, http.HandlerFunc)) {
	for _, g := range groups {
		prefix := parent + g.Prefix
		for _, r := range g.Routes {
			fn(r.pattern(prefix), r.Handler)
		}
		walk(g.Children, prefix, fn)
	}
}
