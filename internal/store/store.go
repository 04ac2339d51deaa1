package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nhle/jobportal/internal/model"
)

// CachedPage is the last payload fetched for one page of a resource.
type CachedPage struct {
	ID        string
	Resource  string
	Page      int
	Count     int
	Payload   json.RawMessage
	FetchedAt time.Time
}

// Decode unmarshals the cached payload into v.
func (p *CachedPage) Decode(v interface{}) error {
	return json.Unmarshal(p.Payload, v)
}

// Store defines the local persistence used by the client: a read-through
// page cache and an outbox for watch progress that failed to send.
type Store interface {
	// === Page cache ===

	// PutPage stores the latest payload for (resource, page).
	PutPage(ctx context.Context, resource string, page, count int, payload interface{}) error
	// GetPage returns nil, nil on a miss.
	GetPage(ctx context.Context, resource string, page int) (*CachedPage, error)
	// InvalidateResource drops every cached page of resource.
	InvalidateResource(ctx context.Context, resource string) error

	// === Watch progress outbox ===

	QueueProgress(ctx context.Context, p model.WatchProgress) error
	PendingProgress(ctx context.Context, limit int) ([]model.WatchProgress, error)
	// AckProgress removes an entry unless a newer one was queued meanwhile.
	AckProgress(ctx context.Context, p model.WatchProgress) error
	PendingProgressCount(ctx context.Context) (int, error)

	Close() error
}
