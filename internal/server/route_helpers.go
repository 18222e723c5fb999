package server

import (
	"net/http"
	"strings"
)

// RouteHandler is the function type every route ends up as.
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps an HTTP method to its handler.
type MethodRouter map[string]RouteHandler

// RouteByMethod dispatches on r.Method, answering 405 for anything not
// registered.
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

// PathSuffixRouter checks whether a path's suffix (after prefix) matches
// Suffix and, if so, dispatches to Handler.
type PathSuffixRouter struct {
	Suffix  string
	Handler RouteHandler
}

// RouteByPathSuffix dispatches requests whose path, with prefix removed,
// ends with one of routes' suffixes. Returns true if a route matched.
func RouteByPathSuffix(w http.ResponseWriter, r *http.Request, prefix string, routes []PathSuffixRouter) bool {
	path := r.URL.Path
	if len(path) <= len(prefix) {
		return false
	}
	pathSuffix := path[len(prefix):]
	for _, route := range routes {
		if strings.HasSuffix(pathSuffix, route.Suffix) || pathSuffix == route.Suffix {
			route.Handler(w, r)
			return true
		}
	}
	return false
}

// pathID extracts the path segment following prefix, for routes shaped
// like "/pipeline/job/{id}".
func pathID(r *http.Request, prefix string) string {
	return strings.TrimPrefix(r.URL.Path, prefix)
}
