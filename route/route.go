// Package route implements the HTTP route table: registration of
// (method, pattern, handler) tuples and first-match path-parameter lookup.
package route

import "strings"

// Method is an HTTP method. Unknown methods map to MethodUnknown and never
// match a route.
type Method string

// Supported methods, per spec.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodUnknown Method = "UNKNOWN"
)

// ParseMethod maps a request-line token to a Method, returning
// MethodUnknown for anything not in the supported set.
func ParseMethod(token string) Method {
	switch Method(token) {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions:
		return Method(token)
	default:
		return MethodUnknown
	}
}

// Route is one registered (method, pattern) tuple with its handler and
// opaque user data, carried unchanged to every invocation.
type Route struct {
	Method   Method
	Pattern  string
	Handler  any
	UserData any
}

// Table is an append-only set of routes, consulted in registration order.
// A Table must not be mutated concurrently with Match; the runtime
// discipline is writer-once (before the reactor starts) then reader-only.
type Table struct {
	routes []Route
}

// New creates an empty route table.
func New() *Table {
	return &Table{}
}

// Register appends a route. Patterns are immutable once registered; the
// table itself never removes or reorders entries.
func (t *Table) Register(method Method, pattern string, handler, userData any) {
	t.routes = append(t.routes, Route{
		Method:   method,
		Pattern:  pattern,
		Handler:  handler,
		UserData: userData,
	})
}

// Match returns the first registered route (in registration order) whose
// method equals method and whose pattern matches path, along with the
// path parameters bound during matching. ok is false on a miss.
func (t *Table) Match(method Method, path string) (route Route, params map[string]string, ok bool) {
	for _, r := range t.routes {
		if r.Method != method {
			continue
		}
		if p, matched := matchPattern(r.Pattern, path); matched {
			return r, p, true
		}
	}
	return Route{}, nil, false
}

// matchPattern walks pattern and path segment-by-segment. A literal segment
// must byte-equal; a ":name" segment matches any non-empty segment and
// binds its text to name. Both sequences must exhaust together.
func matchPattern(pattern, path string) (map[string]string, bool) {
	patternSegs := strings.Split(strings.TrimPrefix(pattern, "/"), "/")
	pathSegs := strings.Split(strings.TrimPrefix(path, "/"), "/")

	if len(patternSegs) != len(pathSegs) {
		return nil, false
	}

	var params map[string]string
	for i, patternSeg := range patternSegs {
		pathSeg := pathSegs[i]

		if name, isParam := strings.CutPrefix(patternSeg, ":"); isParam {
			if name == "" || pathSeg == "" {
				return nil, false
			}
			if params == nil {
				params = make(map[string]string)
			}
			params[name] = pathSeg
		} else if patternSeg != pathSeg {
			return nil, false
		}
	}

	return params, true
}
