package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"

	"clubroster/internal/adapters/http/middleware"
	"clubroster/internal/application/formfields"
	"clubroster/internal/application/listutil"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutTemplate   = "templates/layout.html"
	partialsTemplate = "templates/partials.html"
)

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "error", err.Error())
	}
}

// noContent answers a successful htmx form post. The dialog closes on an
// empty response and listeners of the named events refresh themselves.
func noContent(w http.ResponseWriter, events ...string) {
	if len(events) > 0 {
		w.Header().Set("HX-Trigger", strings.Join(events, ", "))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) funcMap(r *http.Request) template.FuncMap {
	sess, ok := middleware.GetSessionFromContext(r.Context())
	return template.FuncMap{
		"csrfToken":    func() string { return csrf.Token(r) },
		"isLoggedIn":   func() bool { return ok },
		"currentEmail": func() string { return sess.Email },
		"isAdmin":      func() bool { return ok && sess.Actor().IsAdmin() },
		"fieldAttrs":   fieldAttrs,
		"pageURL":      pageURL,
		"sortURL":      sortURL,
		"sortMark":     sortMark,
		"add":          func(a, b int) int { return a + b },
		"countries":    func() []string { return citizenshipChoices },
	}
}

// render executes a full page: the layout around the page's "content".
func (a *app) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	a.execute(w, r, status, "layout", []string{layoutTemplate, partialsTemplate, "templates/" + page}, data)
}

// renderPartial executes one fragment from partials.html for an htmx swap.
func (a *app) renderPartial(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	a.execute(w, r, status, name, []string{partialsTemplate}, data)
}

func (a *app) execute(w http.ResponseWriter, r *http.Request, status int, name string, files []string, data any) {
	tpl, err := template.New("").Funcs(a.funcMap(r)).ParseFS(templateFS, files...)
	if err != nil {
		internalError(w, err)
		return
	}
	// Render to a buffer so a template error still yields a clean 500.
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fieldAttrs renders the disabled/readonly attributes of a form input.
func fieldAttrs(fields map[string]formfields.FieldState, name string) template.HTMLAttr {
	st := fields[name]
	switch {
	case st.Disabled:
		return "disabled"
	case st.ReadOnlyLook:
		return `readonly class="readonly-look"`
	default:
		return ""
	}
}

func pageURL(p listutil.ListParams, page int) template.URL {
	p.Page = page
	return template.URL("?" + p.Query().Encode())
}

// sortURL toggles the direction when col is already the sort column.
func sortURL(p listutil.ListParams, col string) template.URL {
	dir := listutil.DirAsc
	if p.Sort == col && p.Dir == listutil.DirAsc {
		dir = listutil.DirDesc
	}
	p.Sort, p.Dir, p.Page = col, dir, 1
	return template.URL("?" + p.Query().Encode())
}

func sortMark(p listutil.ListParams, col string) string {
	if p.Sort != col {
		return ""
	}
	if p.Dir == listutil.DirDesc {
		return "▼"
	}
	return "▲"
}
