package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/jobportal/internal/model"
	"github.com/nhle/jobportal/internal/store"
	"github.com/nhle/jobportal/tests/testutil"
)

func TestMigrations_Applied(t *testing.T) {
	s := testutil.NewTestStore(t)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestMigrations_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := store.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = store.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestPageCache_PutGetReplace(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	miss, err := s.GetPage(ctx, "jobs/saved/1", 1)
	require.NoError(t, err)
	assert.Nil(t, miss)

	jobs := []model.Job{{ID: "1", Title: "Go Dev"}, {ID: "2", Title: "SRE"}}
	require.NoError(t, s.PutPage(ctx, "jobs/saved/1", 1, 8, jobs))

	got, err := s.GetPage(ctx, "jobs/saved/1", 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 8, got.Count)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.FetchedAt.IsZero())

	var decoded []model.Job
	require.NoError(t, got.Decode(&decoded))
	assert.Equal(t, jobs, decoded)

	require.NoError(t, s.PutPage(ctx, "jobs/saved/1", 1, 7, jobs[:1]))
	got, err = s.GetPage(ctx, "jobs/saved/1", 1)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Count)
	require.NoError(t, got.Decode(&decoded))
	assert.Len(t, decoded, 1)
}

func TestPageCache_Invalidate(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutPage(ctx, "alerts/1", 1, 3, []int{1}))
	require.NoError(t, s.PutPage(ctx, "alerts/1", 2, 3, []int{2}))
	require.NoError(t, s.PutPage(ctx, "jobs/saved/1", 1, 1, []int{3}))

	require.NoError(t, s.InvalidateResource(ctx, "alerts/1"))

	got, err := s.GetPage(ctx, "alerts/1", 2)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.GetPage(ctx, "jobs/saved/1", 1)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestProgress_KeepsFurthestAndStickyCompletion(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	t0 := time.UnixMilli(1_700_000_000_000)

	require.NoError(t, s.QueueProgress(ctx, model.WatchProgress{
		UserID: "1", VideoID: "v1", PositionSec: 120, Completed: true, RecordedAt: t0,
	}))
	require.NoError(t, s.QueueProgress(ctx, model.WatchProgress{
		UserID: "1", VideoID: "v1", PositionSec: 30, RecordedAt: t0.Add(time.Second),
	}))

	pending, err := s.PendingProgress(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 120, pending[0].PositionSec)
	assert.True(t, pending[0].Completed)
	assert.Equal(t, t0.Add(time.Second).UnixMilli(), pending[0].RecordedAt.UnixMilli())
}

func TestProgress_AckSparesNewerEntries(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	t0 := time.UnixMilli(1_700_000_000_000)

	first := model.WatchProgress{UserID: "1", VideoID: "v1", PositionSec: 10, RecordedAt: t0}
	other := model.WatchProgress{UserID: "1", VideoID: "v2", PositionSec: 5, RecordedAt: t0.Add(time.Minute)}
	require.NoError(t, s.QueueProgress(ctx, first))
	require.NoError(t, s.QueueProgress(ctx, other))

	pending, err := s.PendingProgress(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, model.ID("v1"), pending[0].VideoID)

	// v1 advances after it was read for delivery.
	require.NoError(t, s.QueueProgress(ctx, model.WatchProgress{
		UserID: "1", VideoID: "v1", PositionSec: 40, RecordedAt: t0.Add(2 * time.Minute),
	}))

	require.NoError(t, s.AckProgress(ctx, pending[0]))
	require.NoError(t, s.AckProgress(ctx, pending[1]))

	n, err := s.PendingProgressCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err = s.PendingProgress(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 40, pending[0].PositionSec)
}
