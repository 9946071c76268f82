package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jonathan/jobprep/internal/logger"
	"github.com/jonathan/jobprep/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// recentLinks is how many links the overview page lists.
const recentLinks = 10

type adminPage struct {
	Title     string
	Analytics store.Analytics
	Links     []store.SavedLink
	LinkCount int
}

func parseTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin templates: %w", err)
	}
	return tmpl, nil
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadAdminPage(r, "Overview")
	if err != nil {
		s.adminError(w, err)
		return
	}
	page.LinkCount = len(page.Links)
	if len(page.Links) > recentLinks {
		page.Links = page.Links[:recentLinks]
	}
	s.render(w, "overview.html", page)
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadAdminPage(r, "Analytics")
	if err != nil {
		s.adminError(w, err)
		return
	}
	s.render(w, "analytics.html", page)
}

func (s *Server) handleAdminLinks(w http.ResponseWriter, r *http.Request) {
	page, err := s.loadAdminPage(r, "Saved links")
	if err != nil {
		s.adminError(w, err)
		return
	}
	page.LinkCount = len(page.Links)
	s.render(w, "links.html", page)
}

// loadAdminPage reads the counter and the links, newest first.
func (s *Server) loadAdminPage(r *http.Request, title string) (adminPage, error) {
	analytics, err := s.store.Analytics(r.Context())
	if err != nil {
		return adminPage{}, fmt.Errorf("load analytics: %w", err)
	}
	links, err := s.store.Links(r.Context())
	if err != nil {
		return adminPage{}, fmt.Errorf("load links: %w", err)
	}

	newest := make([]store.SavedLink, len(links))
	for i, link := range links {
		newest[len(links)-1-i] = link
	}

	return adminPage{Title: title, Analytics: analytics, Links: newest}, nil
}

// render buffers the page so a template error can still become a 500.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.adminError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

func (s *Server) adminError(w http.ResponseWriter, err error) {
	s.log.Error("Admin page failed", logger.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
