package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/desertthunder/yard/internal/models"
	"github.com/go-chi/chi/v5/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutTemplate = "templates/layout.html"
	gridTemplate   = "templates/grid.html"
)

// page carries everything a template may render.
type page struct {
	Title      string
	Username   string
	Error      string
	Notice     string
	Containers []models.ContainerView
	Cells      [][]models.Cell
	Rows       []int
	Cols       []int
	Form       containerForm
	Searched   bool
	Query      string
	Result     *models.ContainerView
}

// containerForm echoes submitted placement values back into the form.
type containerForm struct {
	Number      string
	Origin      string
	Destination string
	RowPos      string
	ColPos      string
	Owner       string
}

func parsePages() (map[string]*template.Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		if name == layoutTemplate || name == gridTemplate {
			continue
		}

		t, err := template.New(path.Base(name)).ParseFS(templateFS, layoutTemplate, gridTemplate, name)
		if err != nil {
			return nil, err
		}
		pages[path.Base(name)] = t
	}
	return pages, nil
}

// render executes the named page into a buffer so template failures never leave a half-written response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data page) {
	if data.Username == "" {
		if id, ok := IdentityFrom(r.Context()); ok {
			data.Username = id.Username
		}
	}

	t, ok := h.pages[name]
	if !ok {
		h.logger.Error("unknown template", "name", name, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render template", "name", name, "error", err, "request_id", middleware.GetReqID(r.Context()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// serverError logs err with the request id and renders a generic error page.
func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", middleware.GetReqID(r.Context()))
	h.render(w, r, http.StatusInternalServerError, "error.html", page{
		Title: "Error",
		Error: "Something went wrong. Please try again.",
	})
}
