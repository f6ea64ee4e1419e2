package httpapi

import (
	"context"
	"net/http"
)

type contextKey string

const routeContextKey contextKey = "matched_route"

// routeLabel is filled in by the mux wrapper once the request has been
// matched, so outer middleware can label metrics by pattern instead of path.
type routeLabel struct {
	pattern string
}

func withRouteLabel(ctx context.Context) (context.Context, *routeLabel) {
	label := &routeLabel{}
	return context.WithValue(ctx, routeContextKey, label), label
}

func routeLabelFromContext(ctx context.Context) (*routeLabel, bool) {
	label, ok := ctx.Value(routeContextKey).(*routeLabel)
	return label, ok
}

func captureRoute(next *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if label, ok := routeLabelFromContext(r.Context()); ok && r.Pattern != "" {
			label.pattern = r.Pattern
		}
	})
}
