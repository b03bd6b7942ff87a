package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mux is a [Router] backed by [chi.Mux].
//
// Middleware must be registered with [Mux.Use] before any route, as chi requires.
type Mux struct {
	mux *chi.Mux
}

// NewMux creates a new [Mux] instance.
func NewMux() *Mux {
	m := chi.NewRouter()
	m.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return &Mux{mux: m}
}

// Use adds [Middleware] to the router's stack, applied in the order it's added.
func (m *Mux) Use(middleware ...Middleware) {
	for _, mw := range middleware {
		if mw == nil {
			continue
		}
		m.mux.Use(mw)
	}
}

// Handle registers handler for the specified HTTP method and path.
func (m *Mux) Handle(method, path string, handler http.Handler) {
	m.mux.Method(method, path, handler)
}

// Handler registers every route returned by [Handler.Routes].
func (m *Mux) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		m.Handle(route.Method, route.Path, route.Handler)
	}
}

// NotFound sets the handler for unmatched paths.
func (m *Mux) NotFound(handler http.Handler) {
	m.mux.NotFound(handler.ServeHTTP)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (m *Mux) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	m.mux.ServeHTTP(w, req)
}
