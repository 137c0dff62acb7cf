// Package views renders the HTML pages of the application.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var files embed.FS

// ErrResponseStarted wraps failures that happen after the status line was
// written; the response can no longer be replaced.
var ErrResponseStarted = errors.New("response already started")

// Model is the data handed to a view.
type Model map[string]any

// Renderer executes named view templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("").ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes view name with the given model and status. The template is
// executed into a buffer first so a failing template never produces a
// partial page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, model Model) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, model); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrResponseStarted, name, err)
	}
	return nil
}
