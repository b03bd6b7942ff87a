package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/desertthunder/yard/internal/models"
	"github.com/desertthunder/yard/internal/shared"
)

const (
	msgInvalidInput       = "Invalid input"
	msgUsernameTaken      = "Username already exists"
	msgInvalidCredentials = "Invalid username or password"
	msgTooManyAttempts    = "Too many login attempts. Try again later."
	msgNumberTaken        = "Container number already exists"
	msgSlotTaken          = "That yard slot is already occupied"
	msgBadPosition        = "Row and column must be whole numbers"
	msgRegistered         = "Account created. Please log in."
)

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	data := page{Title: "Container Yard"}
	if id, ok := h.identity(r); ok {
		data.Username = id.Username
	}
	h.render(w, r, http.StatusOK, "index.html", data)
}

func (h *Handler) registerForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register.html", page{Title: "Register"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", page{Title: "Register", Error: msgInvalidInput})
		return
	}

	session, err := h.gate.Register(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, shared.ErrDuplicateKey):
		h.render(w, r, http.StatusConflict, "register.html", page{Title: "Register", Error: msgUsernameTaken})
		return
	case errors.Is(err, shared.ErrValidation):
		h.render(w, r, http.StatusUnprocessableEntity, "register.html", page{Title: "Register", Error: msgInvalidInput})
		return
	case errors.Is(err, shared.ErrSessionUnavailable):
		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	h.setSession(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) loginForm(w http.ResponseWriter, r *http.Request) {
	data := page{Title: "Log in"}
	if r.URL.Query().Get("registered") != "" {
		data.Notice = msgRegistered
	}
	h.render(w, r, http.StatusOK, "login.html", data)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "login.html", page{Title: "Log in", Error: msgInvalidInput})
		return
	}

	session, err := h.gate.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		h.render(w, r, http.StatusUnauthorized, "login.html", page{Title: "Log in", Error: msgInvalidCredentials})
		return
	case errors.Is(err, shared.ErrTooManyAttempts):
		h.render(w, r, http.StatusTooManyRequests, "login.html", page{Title: "Log in", Error: msgTooManyAttempts})
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	h.setSession(w, session)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gate.Logout(r.Context(), h.token(r)); err != nil {
		h.logger.Warn("logout failed", "error", err)
	}

	h.clearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	containers, err := h.store.ListContainers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	grid := h.store.Grid()
	h.render(w, r, http.StatusOK, "dashboard.html", page{
		Title:      "Dashboard",
		Containers: models.Views(containers),
		Cells:      grid.Layout(containers),
	})
}

func (h *Handler) addForm(w http.ResponseWriter, r *http.Request) {
	h.renderAdd(w, r, http.StatusOK, containerForm{}, "")
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.renderAdd(w, r, http.StatusUnprocessableEntity, containerForm{}, msgInvalidInput)
		return
	}

	form := containerForm{
		Number:      r.PostFormValue("number"),
		Origin:      r.PostFormValue("origin"),
		Destination: r.PostFormValue("destination"),
		RowPos:      r.PostFormValue("rowPos"),
		ColPos:      r.PostFormValue("colPos"),
		Owner:       r.PostFormValue("owner"),
	}

	row, rowErr := strconv.Atoi(strings.TrimSpace(form.RowPos))
	col, colErr := strconv.Atoi(strings.TrimSpace(form.ColPos))
	if rowErr != nil || colErr != nil {
		h.renderAdd(w, r, http.StatusUnprocessableEntity, form, msgBadPosition)
		return
	}

	_, err := h.store.CreateContainer(r.Context(), models.ContainerFields{
		Number:      form.Number,
		Origin:      form.Origin,
		Destination: form.Destination,
		RowPos:      row,
		ColPos:      col,
		Owner:       form.Owner,
	})
	switch {
	case errors.Is(err, shared.ErrSlotOccupied):
		h.renderAdd(w, r, http.StatusConflict, form, msgSlotTaken)
		return
	case errors.Is(err, shared.ErrDuplicateKey):
		h.renderAdd(w, r, http.StatusConflict, form, msgNumberTaken)
		return
	case errors.Is(err, shared.ErrValidation):
		h.renderAdd(w, r, http.StatusUnprocessableEntity, form, validationMessage(err))
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderAdd(w http.ResponseWriter, r *http.Request, status int, form containerForm, msg string) {
	containers, err := h.store.ListContainers(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	grid := h.store.Grid()
	h.render(w, r, status, "add.html", page{
		Title: "Add container",
		Error: msg,
		Form:  form,
		Cells: grid.Layout(containers),
		Rows:  grid.RowNumbers(),
		Cols:  grid.ColNumbers(),
	})
}

func (h *Handler) searchForm(w http.ResponseWriter, r *http.Request) {
	if number := r.URL.Query().Get("number"); number != "" {
		h.lookup(w, r, number)
		return
	}
	h.render(w, r, http.StatusOK, "search.html", page{Title: "Search"})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(w, r); err != nil {
		h.render(w, r, http.StatusUnprocessableEntity, "search.html", page{Title: "Search", Error: msgInvalidInput})
		return
	}
	h.lookup(w, r, r.PostFormValue("number"))
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request, number string) {
	c, err := h.store.FindContainerByNumber(r.Context(), number)
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	data := page{Title: "Search", Searched: true, Query: strings.TrimSpace(number)}
	if c != nil {
		view := c.View()
		data.Result = &view
	}
	h.render(w, r, http.StatusOK, "search.html", data)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("unavailable\n"))
		return
	}
	w.Write([]byte("ok\n"))
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	return r.ParseForm()
}

// validationMessage strips the sentinel prefix and capitalizes what remains.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), shared.ErrValidation.Error()+": ")
	if msg == "" || msg == shared.ErrValidation.Error() {
		return msgInvalidInput
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
