package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/shopspring/decimal"

	"mealhq/internal/models"
)

//go:embed templates
var templateFS embed.FS

// Page carries the fields the shared layout needs. Handler view models embed
// it and add their own.
type Page struct {
	Title     string
	GroupName string
	User      *models.User
	Flash     string
	Error     string
	CSRFField template.HTML
}

var funcMap = template.FuncMap{
	"money": func(amount decimal.Decimal) string {
		return amount.StringFixed(2)
	},
	"percent": func(amount decimal.Decimal) string {
		return amount.StringFixed(1) + "%"
	},
}

type Renderer struct {
	templates map[string]*template.Template
}

// New parses every page template against the shared layout once at startup,
// so a malformed template fails the boot rather than the first request.
func New() (*Renderer, error) {
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("globbing page templates: %w", err)
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimSuffix(path.Base(page), ".html")
		parsed, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		templates[name] = parsed
	}

	return &Renderer{templates: templates}, nil
}

// Render executes the named page into a buffer first so a template error
// cannot leave a half-written response.
func (renderer *Renderer) Render(w http.ResponseWriter, status int, page string, data any) {
	parsed, ok := renderer.templates[page]
	if !ok {
		slog.Error("rendering unknown page", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := parsed.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		slog.Error("rendering page", "page", page, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
