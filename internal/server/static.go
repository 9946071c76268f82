package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/jonathan/jobprep/internal/logger"
)

// contentTypes is the fixed extension table for static files.
var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".mjs":   "application/javascript; charset=utf-8",
	".json":  "application/json; charset=utf-8",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".txt":   "text/plain; charset=utf-8",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".map":   "application/json; charset=utf-8",
}

const defaultContentType = "application/octet-stream"

// ContentType returns the content type for name by extension.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}

// handleIndex serves index.html and counts the visit.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	f, info, ok := s.openPublic("/index.html")
	if !ok {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	if _, err := s.store.RecordVisit(r.Context()); err != nil {
		s.log.Warn("Failed to record visit", logger.Error(err))
	}

	w.Header().Set("Content-Type", ContentType(info.Name()))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleStatic serves any other file under the public directory.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	f, info, ok := s.openPublic(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", ContentType(info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// openPublic opens a regular file under PublicDir. Paths that escape the
// directory, directories and missing files report false.
func (s *Server) openPublic(urlPath string) (*os.File, os.FileInfo, bool) {
	if s.cfg.PublicDir == "" || strings.Contains(urlPath, "\x00") {
		return nil, nil, false
	}

	root, err := filepath.Abs(s.cfg.PublicDir)
	if err != nil {
		return nil, nil, false
	}
	full := filepath.Join(root, filepath.FromSlash(path.Clean("/"+urlPath)))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, nil, false
	}

	f, err := os.Open(full)
	if err != nil {
		return nil, nil, false
	}
	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, false
	}
	return f, info, true
}
