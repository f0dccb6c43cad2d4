package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
)

// Access marks whether a route needs an authenticated principal.
type Access int

const (
	// Protected routes require a valid access token. It is the zero value so
	// a route that forgets to say otherwise is protected.
	Protected Access = iota
	Public
)

// Route is one entry of the route table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler echo.HandlerFunc
}

// Table is the declarative list of routes. It registers them on echo and
// answers the guard's public/protected question from the same data.
type Table struct {
	routes []Route
	access map[string]Access
	// paths maps a pattern to true when every method registered on it is public.
	paths map[string]bool
}

func NewTable(routes ...Route) *Table {
	t := &Table{access: make(map[string]Access), paths: make(map[string]bool)}
	for _, r := range routes {
		t.Add(r)
	}
	return t
}

// Add appends a route.
func (t *Table) Add(r Route) {
	t.routes = append(t.routes, r)
	t.access[routeKey(r.Method, r.Path)] = r.Access
	allPublic, seen := t.paths[r.Path]
	t.paths[r.Path] = r.Access == Public && (!seen || allPublic)
}

// IsPublic reports whether method+path (the registered pattern, as returned
// by echo.Context.Path) is a public route. A method not registered on a
// path whose routes are all public counts as public so echo can answer 405.
// Unknown paths are not public.
func (t *Table) IsPublic(method, path string) bool {
	if a, ok := t.access[routeKey(method, path)]; ok {
		return a == Public
	}
	return t.paths[path]
}

// Routes returns a copy of the table entries.
func (t *Table) Routes() []Route {
	return append([]Route(nil), t.routes...)
}

// Register adds every route to e.
func (t *Table) Register(e *echo.Echo) {
	for _, r := range t.routes {
		e.Add(r.Method, r.Path, r.Handler)
	}
}

func routeKey(method, path string) string { return method + " " + path }
