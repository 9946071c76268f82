// Package store persists the visit counter and the list of analyzed job links.
package store

import (
	"context"
	"time"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Analytics is the site visit counter.
type Analytics struct {
	TotalVisits int64   `json:"totalVisits"`
	LastUpdated *string `json:"lastUpdated"`
}

// SavedLink records one URL that was analyzed.
type SavedLink struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	CreatedAt   string `json:"createdAt"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// NewSavedLink stamps a link with the current time.
func NewSavedLink(title, url string, now time.Time) SavedLink {
	return SavedLink{
		Title:       title,
		URL:         url,
		CreatedAt:   now.UTC().Format(time.RFC3339Nano),
		CreatedAtMs: now.UnixMilli(),
	}
}

// Store is the persistence boundary used by the server.
type Store interface {
	// RecordVisit increments the visit counter and returns the new value.
	RecordVisit(ctx context.Context) (Analytics, error)
	Analytics(ctx context.Context) (Analytics, error)
	AppendLink(ctx context.Context, link SavedLink) error
	// Links returns saved links oldest first.
	Links(ctx context.Context) ([]SavedLink, error)
	Close() error
}

func timestamp(now time.Time) *string {
	s := now.UTC().Format(time.RFC3339Nano)
	return &s
}
