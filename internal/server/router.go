package server

import (
	"net/http"
	"sort"
	"strings"
)

var _ Router = (*BasicRouter)(nil)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [http.ServeMux] internally for routing. Several methods may be registered on one path;
// any other method gets 405 with an Allow header. GET routes also answer HEAD.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
	methods     map[string]map[string]http.Handler
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{
		mux:         http.NewServeMux(),
		middlewares: []Middleware{},
		methods:     make(map[string]map[string]http.Handler),
	}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware only wraps handlers registered after the call.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified HTTP method and path.
//
// The handler is wrapped with all registered middleware.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	method = strings.ToUpper(method)

	byMethod, ok := r.methods[path]
	if !ok {
		byMethod = make(map[string]http.Handler)
		r.methods[path] = byMethod
		r.mux.Handle(path, r.Apply(r.dispatch(path)))
	}
	byMethod[method] = handler
}

// Handler registers a custom Handler implementation on every route it reports.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.Apply(handler)

	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware.
//
// Middleware is applied in reverse order (last added wraps first).
func (r *BasicRouter) Apply(handler http.Handler) http.Handler {
	wrapped := handler

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}

	return wrapped
}

func (r *BasicRouter) dispatch(path string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		byMethod := r.methods[path]

		method := req.Method
		if method == http.MethodHead {
			if _, ok := byMethod[http.MethodHead]; !ok {
				method = http.MethodGet
			}
		}

		if h, ok := byMethod[method]; ok {
			h.ServeHTTP(w, req)
			return
		}

		w.Header().Set("Allow", allowed(byMethod))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
}

func allowed(byMethod map[string]http.Handler) string {
	methods := make([]string, 0, len(byMethod)+1)
	for m := range byMethod {
		methods = append(methods, m)
	}
	if _, ok := byMethod[http.MethodGet]; ok {
		if _, ok := byMethod[http.MethodHead]; !ok {
			methods = append(methods, http.MethodHead)
		}
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
