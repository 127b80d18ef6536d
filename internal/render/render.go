// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render provides HTML template rendering for the admin interface,
// the public site and the embed page. Admin pages support full-page and
// HTMX partial rendering, detected via the HX-Request header. Public pages
// render to bytes so handlers can store them in the page cache.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"tourcms/internal/middleware"
	"tourcms/internal/session"
)

//go:embed templates/admin/*.html templates/public/*.html
var templateFS embed.FS

// PageData holds all data passed to admin templates.
type PageData struct {
	Title     string         // Page title for <title> tag
	Section   string         // Active sidebar section (e.g., "dashboard", "tours")
	Session   *session.Data  // Current user session (nil if unauthenticated)
	CSRFToken string         // CSRF token for forms and HTMX headers
	Data      map[string]any // Page-specific data
	Flashes   []Flash        // One-time notification messages
}

// Flash represents a one-time notification message displayed to the user.
type Flash struct {
	Type    string // "success", "error", "warning", "info"
	Message string
}

// SiteData holds the data passed to public templates.
type SiteData struct {
	Title       string
	Description string
	Section     string // "home", "tours", "articles"
	Data        map[string]any
}

// Renderer handles template parsing and execution.
type Renderer struct {
	admin   map[string]*template.Template
	public  map[string]*template.Template
	funcMap template.FuncMap
}

// templateSet describes one directory of templates sharing a layout.
type templateSet struct {
	dir        string
	standalone map[string]bool
}

// standaloneTemplates lists templates that render as full HTML pages
// without the base layout (they have their own <html>, <head>, etc.).
var (
	adminSet = templateSet{
		dir: "templates/admin",
		standalone: map[string]bool{
			"login":      true,
			"2fa_setup":  true,
			"2fa_verify": true,
		},
	}
	publicSet = templateSet{
		dir:        "templates/public",
		standalone: map[string]bool{"embed": true},
	}
)

// New creates a Renderer by parsing all templates from the embedded
// filesystem. Each page template is paired with its set's base layout.
// When devMode is true, admin templates use CDN-hosted TailwindCSS;
// when false, they reference the compiled local stylesheet.
func New(devMode bool) (*Renderer, error) {
	r := &Renderer{
		funcMap: template.FuncMap{
			"activeClass": func(current, target string) string {
				if current == target {
					return "bg-gray-900 text-white"
				}
				return "text-gray-300 hover:bg-gray-700 hover:text-white"
			},
			// deref safely dereferences a string pointer for use in templates.
			"deref": func(s *string) string {
				if s == nil {
					return ""
				}
				return *s
			},
			"isDev": func() bool {
				return devMode
			},
			// uuidEq compares a *uuid.UUID pointer with a uuid.UUID value.
			"uuidEq": func(ptr *uuid.UUID, val uuid.UUID) bool {
				return ptr != nil && *ptr == val
			},
			// json embeds a value in a <script> block.
			"json": func(v any) (template.JS, error) {
				b, err := json.Marshal(v)
				if err != nil {
					return "", err
				}
				return template.JS(b), nil
			},
			"date": func(t time.Time) string {
				return t.Format("Jan 2, 2006")
			},
			"join": strings.Join,
			"add": func(a, b int) int { return a + b },
			"sub": func(a, b int) int { return a - b },
		},
	}

	var err error
	if r.admin, err = r.parseSet(adminSet); err != nil {
		return nil, err
	}
	if r.public, err = r.parseSet(publicSet); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Renderer) parseSet(set templateSet) (map[string]*template.Template, error) {
	entries, err := templateFS.ReadDir(set.dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded templates: %w", err)
	}

	out := make(map[string]*template.Template)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == "base.html" || !strings.HasSuffix(name, ".html") {
			continue
		}
		tmplName := strings.TrimSuffix(name, ".html")

		var tmpl *template.Template
		if set.standalone[tmplName] {
			tmpl, err = template.New(name).Funcs(r.funcMap).ParseFS(templateFS, set.dir+"/"+name)
		} else {
			tmpl, err = template.New("base.html").Funcs(r.funcMap).ParseFS(
				templateFS, set.dir+"/base.html", set.dir+"/"+name,
			)
		}
		if err != nil {
			return nil, fmt.Errorf("parse template %s/%s: %w", set.dir, name, err)
		}
		out[tmplName] = tmpl
	}
	return out, nil
}

// Page renders a full admin page or an HTMX partial, depending on the
// request headers. For HTMX requests, only the "content" block is sent.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	rn.PageStatus(w, r, http.StatusOK, name, data)
}

// PageStatus is Page with an explicit status code, used to re-render
// forms after validation errors.
func (rn *Renderer) PageStatus(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := rn.admin[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	// Inject CSRF token from context (set by CSRF middleware).
	data.CSRFToken = middleware.CSRFTokenFromCtx(r.Context())

	if data.Session == nil {
		data.Session = middleware.SessionFromCtx(r.Context())
	}

	execName := "base.html"
	switch {
	case adminSet.standalone[name]:
		execName = name + ".html"
	case isHTMX(r):
		execName = "content"
	}

	// Buffer so a failing template never produces a half-written 200.
	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Public renders a public page to bytes.
func (rn *Renderer) Public(name string, data *SiteData) ([]byte, error) {
	tmpl, ok := rn.public[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	execName := "base.html"
	if publicSet.standalone[name] {
		execName = name + ".html"
	}

	var buf bytes.Buffer
	if err := executeTemplate(&buf, tmpl, execName, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// executeTemplate wraps template execution with error handling.
func executeTemplate(w io.Writer, tmpl *template.Template, name string, data any) error {
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX returns true if the request was made by HTMX (has HX-Request header).
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
