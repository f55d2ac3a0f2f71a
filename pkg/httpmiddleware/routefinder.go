package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteFinder returns the route pattern serving r.
type RouteFinder func(r *http.Request) (string, bool)

// MakeRouteFinder builds a RouteFinder over a chi router, so metrics and logs
// are labeled with "/orders/{id}" instead of the raw path.
func MakeRouteFinder(routes chi.Routes) RouteFinder {
	return func(r *http.Request) (string, bool) {
		rctx := chi.NewRouteContext()
		if !routes.Match(rctx, r.Method, r.URL.Path) {
			return "", false
		}
		return rctx.RoutePattern(), true
	}
}
