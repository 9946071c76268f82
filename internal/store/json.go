package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jonathan/jobprep/internal/logger"
)

// File names under the data directory.
const (
	AnalyticsFile = "analytics.json"
	LinksFile     = "job-links.json"
)

// JSONStore keeps both aggregates in memory and rewrites the matching file on
// every mutation.
type JSONStore struct {
	dir string
	log logger.Logger
	now func() time.Time

	mu        sync.Mutex
	analytics Analytics
	links     []SavedLink
}

// NewJSONStore loads the aggregates from dir, creating it if needed. Missing
// or corrupt files start from zero.
func NewJSONStore(dir string, log logger.Logger) (*JSONStore, error) {
	if log == nil {
		log = logger.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &JSONStore{
		dir:   dir,
		log:   log,
		now:   time.Now,
		links: []SavedLink{},
	}
	s.load(AnalyticsFile, &s.analytics)
	s.load(LinksFile, &s.links)
	if s.links == nil {
		s.links = []SavedLink{}
	}
	return s, nil
}

func (s *JSONStore) load(name string, v any) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return
	}
	if err != nil {
		s.log.Warn("Failed to read store file, starting empty", logger.String("path", path), logger.Error(err))
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("Corrupt store file, starting empty", logger.String("path", path), logger.Error(err))
		switch target := v.(type) {
		case *Analytics:
			*target = Analytics{}
		case *[]SavedLink:
			*target = []SavedLink{}
		}
	}
}

// RecordVisit increments the visit counter.
func (s *JSONStore) RecordVisit(_ context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := Analytics{
		TotalVisits: s.analytics.TotalVisits + 1,
		LastUpdated: timestamp(s.now()),
	}
	if err := s.write(AnalyticsFile, next); err != nil {
		return s.analytics, err
	}
	s.analytics = next
	return next, nil
}

// Analytics returns the current counter.
func (s *JSONStore) Analytics(_ context.Context) (Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analytics, nil
}

// AppendLink adds a saved link.
func (s *JSONStore) AppendLink(_ context.Context, link SavedLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]SavedLink, len(s.links), len(s.links)+1)
	copy(next, s.links)
	next = append(next, link)
	if err := s.write(LinksFile, next); err != nil {
		return err
	}
	s.links = next
	return nil
}

// Links returns a copy of the saved links, oldest first.
func (s *JSONStore) Links(_ context.Context) ([]SavedLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SavedLink, len(s.links))
	copy(out, s.links)
	return out, nil
}

// Close is a no-op; every mutation is already on disk.
func (s *JSONStore) Close() error {
	return nil
}

// write replaces name atomically via a temp file in the same directory.
func (s *JSONStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}
