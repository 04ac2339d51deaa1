package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/jobportal/internal/logger"
	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/portal"
)

// CountClient is the subset of the portal client the unread feed needs.
type CountClient interface {
	UnreadCount(ctx context.Context, userID model.ID) (int, error)
	UnseenAlertCount(ctx context.Context, userID model.ID) (int, error)
}

// ProgressTracker delivers watch progress to the backend.
type ProgressTracker interface {
	TrackWatch(ctx context.Context, p model.WatchProgress) error
}

// ProgressQueue is the outbox side of the local store.
type ProgressQueue interface {
	PendingProgress(ctx context.Context, limit int) ([]model.WatchProgress, error)
	AckProgress(ctx context.Context, p model.WatchProgress) error
	PendingProgressCount(ctx context.Context) (int, error)
}

// UnreadFeed reports unread notifications plus unseen job alerts. The
// alert half is best effort: recruiters and older backends do not
// expose it, so only auth failures there are fatal.
func UnreadFeed(c CountClient, userID model.ID, interval time.Duration) Feed {
	return Feed{
		Name:     FeedUnread,
		Interval: interval,
		Fetch: func(ctx context.Context) (int, error) {
			n, err := c.UnreadCount(ctx, userID)
			if err != nil {
				return 0, err
			}
			alerts, err := c.UnseenAlertCount(ctx, userID)
			if err != nil {
				if portal.IsAuthError(err) {
					return 0, err
				}
				logger.Debug().Err(err).Msg("unseen alert count unavailable")
				return n, nil
			}
			return n + alerts, nil
		},
	}
}

// flushBatch bounds how many queued entries one flush sends.
const flushBatch = 25

// ProgressFlushFeed drains the watch-progress outbox. Its value is the
// number of entries still queued afterwards.
func ProgressFlushFeed(t ProgressTracker, q ProgressQueue, interval time.Duration) Feed {
	return Feed{
		Name:     FeedProgressFlush,
		Interval: interval,
		Fetch: func(ctx context.Context) (int, error) {
			return FlushProgress(ctx, t, q)
		},
	}
}

// FlushProgress sends queued progress oldest first. It stops at the
// first delivery failure so ordering is preserved.
func FlushProgress(ctx context.Context, t ProgressTracker, q ProgressQueue) (int, error) {
	pending, err := q.PendingProgress(ctx, flushBatch)
	if err != nil {
		return 0, err
	}

	for _, p := range pending {
		if err := t.TrackWatch(ctx, p); err != nil {
			remaining, _ := q.PendingProgressCount(ctx)
			return remaining, fmt.Errorf("flushing watch progress: %w", err)
		}
		if err := q.AckProgress(ctx, p); err != nil {
			return 0, err
		}
	}

	return q.PendingProgressCount(ctx)
}
