package ui

import (
	"context"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/store"
)

// PageCache is the part of the local store paginated views read through.
type PageCache interface {
	PutPage(ctx context.Context, resource string, page, count int, payload interface{}) error
	GetPage(ctx context.Context, resource string, page int) (*store.CachedPage, error)
	InvalidateResource(ctx context.Context, resource string) error
}

// ReadCached returns the cached items and count for (resource, page). ok
// is false on a miss, a read error or a nil cache.
func ReadCached[T any](cache PageCache, resource string, page int) (items []T, count int, ok bool) {
	if cache == nil {
		return nil, 0, false
	}
	cp, err := cache.GetPage(context.Background(), resource, page)
	if err != nil {
		logger.Warn().Err(err).Str("resource", resource).Int("page", page).Msg("page cache read failed")
		return nil, 0, false
	}
	if cp == nil {
		return nil, 0, false
	}
	if err := cp.Decode(&items); err != nil {
		logger.Warn().Err(err).Str("resource", resource).Msg("page cache decode failed")
		return nil, 0, false
	}
	return items, cp.Count, true
}

// WriteCached stores a freshly fetched page. Failures are logged only.
func WriteCached(cache PageCache, resource string, page, count int, items interface{}) {
	if cache == nil {
		return
	}
	if err := cache.PutPage(context.Background(), resource, page, count, items); err != nil {
		logger.Warn().Err(err).Str("resource", resource).Int("page", page).Msg("page cache write failed")
	}
}

// Invalidate drops every cached page of resource.
func Invalidate(cache PageCache, resource string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateResource(context.Background(), resource); err != nil {
		logger.Warn().Err(err).Str("resource", resource).Msg("page cache invalidate failed")
	}
}
