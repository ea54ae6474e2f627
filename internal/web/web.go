// Package web holds the embedded page templates and the gin renderer that serves them.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin/render"

	"github.com/noah-isme/sma-adp-web/pkg/export"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "templates/layout.html"

// Renderer implements gin's HTMLRender with one template set per page, each
// sharing the layout. Page "students_list" comes from templates/students_list.html.
type Renderer struct {
	pages map[string]*template.Template
}

var _ render.HTMLRender = (*Renderer)(nil)

// NewRenderer parses every page template against the layout.
func NewRenderer() (*Renderer, error) {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(path.Base(layoutFile)).Funcs(Funcs()).ParseFS(templateFS, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Instance satisfies render.HTMLRender. Unknown pages panic, which the recovery middleware reports.
func (r *Renderer) Instance(name string, data interface{}) render.Render {
	tmpl, ok := r.pages[name]
	if !ok {
		panic(fmt.Sprintf("web: unknown page %q", name))
	}
	return render.HTML{Template: tmpl, Name: "layout", Data: data}
}

// Funcs returns the helpers available in every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"money": export.Money,
		"date":  export.Date,
		"opt":   export.Opt,
		"datetime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("2006-01-02 15:04")
		},
		"optdate": func(t *time.Time) string {
			if t == nil {
				return ""
			}
			return export.Date(*t)
		},
		"title": func(s string) string {
			s = strings.ReplaceAll(s, "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"percent": func(ratio float64) string {
			return fmt.Sprintf("%.1f%%", ratio*100)
		},
		"year": func() int { return time.Now().Year() },
	}
}
