// Package web implements the server-rendered yard tracker: account pages, the dashboard, container placement, and
// search.
//
// # Routes
//
//	GET  /          → landing page, shows the username when logged in
//	GET  /register  → registration form
//	POST /register  → create account, start session, redirect to /dashboard
//	GET  /login     → login form
//	POST /login     → verify credentials, start session, redirect to /dashboard
//	GET  /logout    → end session, redirect to /login
//	GET  /dashboard → container table and yard grid (requires auth)
//	GET  /add       → placement form over the yard grid (requires auth)
//	POST /add       → create container, redirect to /dashboard (requires auth)
//	GET  /search    → search form, or results when ?number= is given (requires auth)
//	POST /search    → look up a container by number (requires auth)
//	GET  /healthz   → database ping, 200 or 503
//
// # Sessions
//
// The session token travels in an HttpOnly, SameSite=Lax cookie whose expiry matches the session. Protected routes
// resolve the token through the [Gate] and redirect anonymous callers to /login with 303 See Other. The resolved
// identity is available to handlers through [IdentityFrom].
//
// # Errors
//
// Store and gate errors map to status codes: duplicate keys 409, validation 422, bad credentials 401, throttled
// logins 429. Forms are re-rendered with a message and the submitted values. Anything else logs with the request id
// and renders a generic 500 page.
package web

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/yard/internal/auth"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/server"
	"github.com/desertthunder/yard/internal/shared"
)

const (
	defaultCookieName = "yard_session"
	maxFormBytes      = 64 << 10
)

// Store is the part of the entity store the pages read and write.
type Store interface {
	Grid() models.Grid
	CreateContainer(ctx context.Context, fields models.ContainerFields) (*models.Container, error)
	ListContainers(ctx context.Context) ([]*models.Container, error)
	FindContainerByNumber(ctx context.Context, number string) (*models.Container, error)
	Ping(ctx context.Context) error
}

// Gate authenticates users and resolves session tokens.
type Gate interface {
	Register(ctx context.Context, username, credential string) (*auth.Session, error)
	Login(ctx context.Context, username, credential string) (*auth.Session, error)
	Logout(ctx context.Context, token string) error
	RequireAuthenticated(ctx context.Context, token string) (models.Identity, error)
}

// Options configures a [Handler].
type Options struct {
	CookieName   string
	CookieSecure bool
	// FormLimit wraps POST /login and POST /register, typically a per-IP rate limit.
	FormLimit server.Middleware
	Logger    *log.Logger
}

// Handler serves the yard web pages.
type Handler struct {
	store     Store
	gate      Gate
	pages     map[string]*template.Template
	cookie    string
	secure    bool
	formLimit server.Middleware
	logger    *log.Logger
}

// New creates a [Handler] and parses its templates.
func New(store Store, gate Gate, opts Options) (*Handler, error) {
	if opts.CookieName == "" {
		opts.CookieName = defaultCookieName
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Handler{
		store:     store,
		gate:      gate,
		pages:     pages,
		cookie:    opts.CookieName,
		secure:    opts.CookieSecure,
		formLimit: opts.FormLimit,
		logger:    opts.Logger.With("component", "web"),
	}, nil
}

// Routes implements [server.Handler].
func (h *Handler) Routes() []server.Route {
	public := func(fn http.HandlerFunc) http.Handler { return fn }
	limited := func(fn http.HandlerFunc) http.Handler { return server.Chain(fn, h.formLimit) }
	protected := func(fn http.HandlerFunc) http.Handler { return server.Chain(fn, h.requireAuth) }

	return []server.Route{
		{Method: http.MethodGet, Path: "/", Handler: public(h.index)},
		{Method: http.MethodGet, Path: "/register", Handler: public(h.registerForm)},
		{Method: http.MethodPost, Path: "/register", Handler: limited(h.register)},
		{Method: http.MethodGet, Path: "/login", Handler: public(h.loginForm)},
		{Method: http.MethodPost, Path: "/login", Handler: limited(h.login)},
		{Method: http.MethodGet, Path: "/logout", Handler: public(h.logout)},
		{Method: http.MethodGet, Path: "/dashboard", Handler: protected(h.dashboard)},
		{Method: http.MethodGet, Path: "/add", Handler: protected(h.addForm)},
		{Method: http.MethodPost, Path: "/add", Handler: protected(h.add)},
		{Method: http.MethodGet, Path: "/search", Handler: protected(h.searchForm)},
		{Method: http.MethodPost, Path: "/search", Handler: protected(h.search)},
		{Method: http.MethodGet, Path: "/healthz", Handler: public(h.health)},
	}
}

// NotFound renders the not-found page.
func (h *Handler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.render(w, r, http.StatusNotFound, "error.html", page{Title: "Not found", Error: "Page not found"})
	})
}
