package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/yard/internal/auth"
	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/server"
	"github.com/desertthunder/yard/internal/shared"
	th "github.com/desertthunder/yard/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	srv    *httptest.Server
	client *http.Client
}

func newApp(t *testing.T, store Store, gateOpts auth.GateOptions, opts Options) *app {
	t.Helper()
	return newAppWithSessions(t, store, auth.NewMemoryStore(), gateOpts, opts)
}

func newAppWithSessions(t *testing.T, store Store, sessions auth.SessionStore, gateOpts auth.GateOptions, opts Options) *app {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	if store == nil {
		store = th.NewStore(t)
	}
	accounts, ok := store.(auth.Accounts)
	if !ok {
		accounts = th.NewStore(t)
	}

	gateOpts.Logger = logger
	gate := auth.NewSessionGate(accounts, sessions, gateOpts)

	opts.Logger = logger
	h, err := New(store, gate, opts)
	require.NoError(t, err)

	mux := server.NewMux()
	mux.Use(server.Defaults(5 * time.Second)...)
	mux.Handler(h)
	mux.NotFound(h.NotFound())

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &app{
		srv: srv,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (a *app) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.Get(a.srv.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (a *app) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := a.client.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func credentials(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func container(number, row, col string) url.Values {
	return url.Values{
		"number":      {number},
		"origin":      {"Rotterdam"},
		"destination": {"Singapore"},
		"rowPos":      {row},
		"colPos":      {col},
		"owner":       {"Maersk"},
	}
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestPublicPages(t *testing.T) {
	a := newApp(t, nil, auth.GateOptions{}, Options{})

	tc := []struct {
		path string
		want string
	}{
		{"/", "create an account"},
		{"/login", `action="/login"`},
		{"/register", `action="/register"`},
	}

	for _, c := range tc {
		t.Run(c.path, func(t *testing.T) {
			resp, body := a.get(t, c.path)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
			assert.Contains(t, body, c.want)
		})
	}

	t.Run("not found", func(t *testing.T) {
		resp, body := a.get(t, "/nowhere")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, body, "Page not found")
	})

	t.Run("health", func(t *testing.T) {
		resp, body := a.get(t, "/healthz")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok\n", body)
	})
}

func TestGuard(t *testing.T) {
	a := newApp(t, nil, auth.GateOptions{}, Options{})

	for _, path := range []string{"/dashboard", "/add", "/search", "/search?number=CNT001"} {
		resp, _ := a.get(t, path)
		assertRedirect(t, resp, "/login")
	}

	for _, path := range []string{"/add", "/search"} {
		resp, _ := a.post(t, path, container("CNT001", "1", "1"))
		assertRedirect(t, resp, "/login")
	}

	t.Run("stale cookie is cleared", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, a.srv.URL+"/dashboard", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: defaultCookieName, Value: "forged"})

		resp, err := a.client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assertRedirect(t, resp, "/login")
		require.Len(t, resp.Cookies(), 1)
		assert.Equal(t, -1, resp.Cookies()[0].MaxAge)
	})
}

func TestAccountFlow(t *testing.T) {
	a := newApp(t, nil, auth.GateOptions{}, Options{})

	t.Run("register sets session cookie", func(t *testing.T) {
		resp, _ := a.post(t, "/register", credentials("bob", "pw1"))
		assertRedirect(t, resp, "/dashboard")

		cookies := resp.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, defaultCookieName, cookies[0].Name)
		assert.NotEmpty(t, cookies[0].Value)
		assert.True(t, cookies[0].HttpOnly)
		assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
		assert.WithinDuration(t, time.Now().Add(auth.DefaultTTL), cookies[0].Expires, time.Minute)

		resp, body := a.get(t, "/dashboard")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Signed in as <strong>bob</strong>")
		assert.Contains(t, body, "No containers yet")
	})

	t.Run("landing page knows the user", func(t *testing.T) {
		_, body := a.get(t, "/")
		assert.Contains(t, body, "Welcome back, bob")
	})

	t.Run("duplicate registration", func(t *testing.T) {
		resp, body := a.post(t, "/register", credentials("bob", "pw2"))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, msgUsernameTaken)
	})

	t.Run("invalid registration", func(t *testing.T) {
		resp, body := a.post(t, "/register", credentials("   ", "pw"))
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, body, msgInvalidInput)
	})

	t.Run("logout", func(t *testing.T) {
		resp, _ := a.get(t, "/logout")
		assertRedirect(t, resp, "/login")

		resp, _ = a.get(t, "/dashboard")
		assertRedirect(t, resp, "/login")

		resp, _ = a.get(t, "/logout")
		assertRedirect(t, resp, "/login")
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := a.post(t, "/login", credentials("bob", "pw2"))
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Contains(t, body, msgInvalidCredentials)
	})

	t.Run("login normalizes username", func(t *testing.T) {
		resp, _ := a.post(t, "/login", credentials(" BOB ", "pw1"))
		assertRedirect(t, resp, "/dashboard")

		resp, _ = a.get(t, "/dashboard")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

// unsavableSessions reads and deletes normally but cannot store new sessions.
type unsavableSessions struct {
	*auth.MemoryStore
}

func (unsavableSessions) Save(context.Context, auth.Session) error {
	return errors.New("session backend down")
}

func TestRegisterWithoutSession(t *testing.T) {
	a := newAppWithSessions(t, nil, unsavableSessions{auth.NewMemoryStore()}, auth.GateOptions{}, Options{})

	resp, _ := a.post(t, "/register", credentials("bob", "pw1"))
	assertRedirect(t, resp, "/login?registered=1")
	assert.Empty(t, resp.Cookies())

	resp, body := a.get(t, "/login?registered=1")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, msgRegistered)

	_, body = a.get(t, "/login")
	assert.NotContains(t, body, msgRegistered)

	resp, body = a.post(t, "/register", credentials("bob", "pw1"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, msgUsernameTaken)
}

func TestLoginThrottle(t *testing.T) {
	a := newApp(t, nil, auth.GateOptions{Throttle: auth.NewThrottle(1, time.Hour)}, Options{})

	resp, _ := a.post(t, "/login", credentials("bob", "nope"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := a.post(t, "/login", credentials("bob", "nope"))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, body, "Too many login attempts")
}

func TestFormLimit(t *testing.T) {
	var hits atomic.Int32
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			next.ServeHTTP(w, r)
		})
	}

	a := newApp(t, nil, auth.GateOptions{}, Options{FormLimit: limit})

	a.post(t, "/register", credentials("carol", "pw"))
	a.post(t, "/login", credentials("carol", "pw"))
	a.get(t, "/login")
	a.get(t, "/register")

	assert.Equal(t, int32(2), hits.Load(), "only form submissions are limited")
}

func TestContainers(t *testing.T) {
	a := newApp(t, nil, auth.GateOptions{}, Options{})

	resp, _ := a.post(t, "/register", credentials("bob", "pw1"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	t.Run("add form renders the grid", func(t *testing.T) {
		resp, body := a.get(t, "/add")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, 25, strings.Count(body, "data-row="))
		assert.Contains(t, body, `name="rowPos"`)
		assert.Contains(t, body, `name="colPos"`)
	})

	t.Run("add and list", func(t *testing.T) {
		resp, _ := a.post(t, "/add", container("CNT001", "2", "3"))
		assertRedirect(t, resp, "/dashboard")

		_, body := a.get(t, "/dashboard")
		assert.Contains(t, body, "<td>CNT001</td>")
		assert.Contains(t, body, `class="occupied"`)
		assert.Equal(t, 1, strings.Count(body, "<td>CNT001</td>"))
	})

	t.Run("duplicate number", func(t *testing.T) {
		resp, body := a.post(t, "/add", container("CNT001", "4", "4"))
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, body, msgNumberTaken)
		assert.Contains(t, body, `value="Rotterdam"`, "submitted values are kept")

		_, body = a.get(t, "/dashboard")
		assert.Equal(t, 1, strings.Count(body, "<td>CNT001</td>"))
	})

	tc := []struct {
		name string
		form url.Values
		want string
	}{
		{"non-integer row", container("CNT002", "two", "1"), msgBadPosition},
		{"missing column", container("CNT002", "1", ""), msgBadPosition},
		{"outside the yard", container("CNT002", "9", "1"), "outside the 5x5 yard"},
		{"empty number", container("  ", "1", "1"), "Number is required"},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			resp, body := a.post(t, "/add", c.form)
			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, body, c.want)
		})
	}

	t.Run("markup is escaped", func(t *testing.T) {
		form := container("CNT003", "1", "1")
		form.Set("origin", "<script>alert(1)</script>")

		resp, _ := a.post(t, "/add", form)
		assertRedirect(t, resp, "/dashboard")

		_, body := a.get(t, "/dashboard")
		assert.NotContains(t, body, "<script>alert(1)</script>")
		assert.Contains(t, body, "&lt;script&gt;")
	})

	t.Run("search found", func(t *testing.T) {
		resp, body := a.post(t, "/search", url.Values{"number": {" CNT001 "}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "<td>CNT001</td>")
		assert.Contains(t, body, "Row 2, column 3")
	})

	t.Run("search by query", func(t *testing.T) {
		resp, body := a.get(t, "/search?number=CNT001")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "Row 2, column 3")
	})

	t.Run("search not found", func(t *testing.T) {
		resp, body := a.post(t, "/search", url.Values{"number": {"CNT999"}})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body, "No container found")
	})

	t.Run("search form", func(t *testing.T) {
		_, body := a.get(t, "/search")
		assert.NotContains(t, body, "No container found")
	})
}

type brokenStore struct{}

func (brokenStore) Grid() models.Grid { return models.DefaultGrid }
func (brokenStore) CreateContainer(context.Context, models.ContainerFields) (*models.Container, error) {
	return nil, errors.New("disk on fire")
}
func (brokenStore) ListContainers(context.Context) ([]*models.Container, error) {
	return nil, errors.New("disk on fire")
}
func (brokenStore) FindContainerByNumber(context.Context, string) (*models.Container, error) {
	return nil, errors.New("disk on fire")
}
func (brokenStore) Ping(context.Context) error { return errors.New("disk on fire") }

func TestServerErrors(t *testing.T) {
	a := newApp(t, brokenStore{}, auth.GateOptions{}, Options{})

	resp, _ := a.post(t, "/register", credentials("bob", "pw1"))
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	for _, path := range []string{"/dashboard", "/add", "/search?number=CNT001"} {
		resp, body := a.get(t, path)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode, path)
		assert.Contains(t, body, "Something went wrong")
		assert.NotContains(t, body, "disk on fire")
	}

	resp, body := a.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable\n", body)
}

func TestValidationMessage(t *testing.T) {
	assert.Equal(t, "Number is required", validationMessage(fmt.Errorf("%w: number is required", shared.ErrValidation)))
	assert.Equal(t, msgInvalidInput, validationMessage(shared.ErrValidation))
}
