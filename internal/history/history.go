// Package history records completed scrape requests so past lookups can
// be listed and exported. The pipeline itself holds no state; everything
// process-wide lives behind the Store interface here.
package history

import (
	"context"
	"time"
)

// Entry is one recorded scrape.
type Entry struct {
	ID        string    `json:"id"`
	RequestID string    `json:"requestId"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Store     string    `json:"store"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists scrape history. Implementations: in-memory (tests,
// ephemeral runs), SQLite (single-binary deployments), Postgres (shared
// deployments).
type Store interface {
	Add(ctx context.Context, e Entry) (*Entry, error)
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Migrate(ctx context.Context) error
	Close() error
}

const defaultRecentLimit = 50
