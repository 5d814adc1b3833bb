package panel

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"
)

//go:embed web/*
var content embed.FS

const templateName = "status.html.tmpl"

// RefreshSeconds is the meta-refresh period of the status page.
const RefreshSeconds = 10

// Status is the data shown on the page.
type Status struct {
	NodeName    string
	HasReading  bool
	Temperature float64
	Pressure    float64

	// Connection is the supervisor's state label ("Connected", "Cool-down", ...).
	Connection string

	// Pending is the offline queue depth; the badge is hidden at zero.
	Pending int

	UpdatedAt time.Time
}

// Page renders the status page.
//
// Thread Safety: safe for concurrent use once constructed.
type Page struct {
	tmpl *template.Template
}

// New parses the status page template.
//
// When dir is non-empty and contains the template, it is loaded from the
// filesystem (handy while editing the page on a bench node). Otherwise the
// embedded copy is used.
func New(dir string) (*Page, error) {
	var source fs.FS
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			if _, err := fs.Stat(os.DirFS(dir), templateName); err == nil {
				source = os.DirFS(dir)
			}
		}
	}
	if source == nil {
		sub, err := fs.Sub(content, "web")
		if err != nil {
			return nil, fmt.Errorf("panel: loading embedded template: %w", err)
		}
		source = sub
	}

	tmpl, err := template.New(templateName).Funcs(template.FuncMap{
		"oneDP": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"clock": func(t time.Time) string {
			if t.IsZero() {
				return "never"
			}
			return t.UTC().Format("15:04:05")
		},
	}).ParseFS(source, templateName)
	if err != nil {
		return nil, fmt.Errorf("panel: parsing template: %w", err)
	}
	return &Page{tmpl: tmpl}, nil
}

// Render writes the page for s to w.
func (p *Page) Render(w io.Writer, s Status) error {
	data := struct {
		Status
		RefreshSeconds  int
		ConnectionClass string
	}{
		Status:          s,
		RefreshSeconds:  RefreshSeconds,
		ConnectionClass: connectionClass(s.Connection),
	}
	if err := p.tmpl.ExecuteTemplate(w, templateName, data); err != nil {
		return fmt.Errorf("panel: rendering: %w", err)
	}
	return nil
}

// Bytes renders the page into memory.
func (p *Page) Bytes(s Status) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.Render(&buf, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// connectionClass maps a label to its CSS class ("Cool-down" -> "cooldown").
func connectionClass(label string) string {
	return strings.ReplaceAll(strings.ToLower(label), "-", "")
}
