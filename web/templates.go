package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Ryan-Har/gymsync/pkg/controller"
	"github.com/Ryan-Har/gymsync/pkg/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{"login", "register", "dashboard"}

// pageData is what every template receives.
type pageData struct {
	Title         string
	Identity      models.Identity
	Authenticated bool
	Notice        string
	Error         string
	Username      string // form prefill
	State         controller.Snapshot
	Selected      map[int64]bool
}

type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *renderer) render(w io.Writer, page string, data pageData) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return t.ExecuteTemplate(w, "layout", data)
}
