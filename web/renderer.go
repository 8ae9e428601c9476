// Package web holds the HTML templates and the echo renderer serving them.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/anonto42/tracle/internal/auth"
	"github.com/anonto42/tracle/pkg/config"
	"github.com/labstack/echo/v4"
)

//go:embed templates
var templateFS embed.FS

// Renderer renders pages inside the shared layout and standalone emails.
type Renderer struct {
	pages  map[string]*template.Template
	emails map[string]*template.Template
}

var funcs = template.FuncMap{
	"date":    func(t time.Time) string { return t.Format("Jan 2, 2006") },
	"percent": func(f float64) string { return fmt.Sprintf("%.0f", f) },
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	return newRenderer(templateFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{pages: map[string]*template.Template{}, emails: map[string]*template.Template{}}

	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, p := range pages {
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(fsys, "templates/layout.html", "templates/partials/*.html", p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.pages[path.Base(p)] = t
	}

	emails, err := fs.Glob(fsys, "templates/emails/*.html")
	if err != nil {
		return nil, err
	}
	for _, p := range emails {
		t, err := template.New(path.Base(p)).Funcs(funcs).ParseFS(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", p, err)
		}
		r.emails[path.Base(p)] = t
	}
	return r, nil
}

// Render implements echo.Renderer. Map data is extended with the viewer and
// CSRF token so the layout can use them.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "base", withRequest(data, c))
}

// RenderEmail renders a standalone email template to a string.
func (r *Renderer) RenderEmail(name string, data interface{}) (string, error) {
	t, ok := r.emails[name]
	if !ok {
		return "", fmt.Errorf("email template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Pages lists the names of the loaded page templates.
func (r *Renderer) Pages() []string {
	names := make([]string, 0, len(r.pages))
	for n := range r.pages {
		names = append(names, n)
	}
	return names
}

func withRequest(data interface{}, c echo.Context) map[string]interface{} {
	out := map[string]interface{}{}
	switch d := data.(type) {
	case echo.Map:
		for k, v := range d {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range d {
			out[k] = v
		}
	case nil:
	default:
		out["data"] = d
	}
	if c == nil {
		return out
	}
	if _, ok := out["viewer"]; !ok {
		out["viewer"] = auth.IdentityFrom(c)
	}
	if token, ok := c.Get(config.CSRFContextKey).(string); ok {
		out["csrf_token"] = token
	}
	out["request_path"] = c.Request().URL.Path
	return out
}
