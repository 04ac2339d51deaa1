package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/jobportal/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SchemaVersion returns the highest applied migration.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var v int
	if err := s.db.Get(&v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// PutPage inserts or replaces the cached payload for (resource, page).
func (s *SQLiteStore) PutPage(
	ctx context.Context,
	resource string,
	page, count int,
	payload interface{},
) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling page payload: %w", err)
	}

	const query = `
		INSERT INTO page_cache (id, resource, page, total_count, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(resource, page) DO UPDATE SET
			total_count = excluded.total_count,
			payload     = excluded.payload,
			fetched_at  = excluded.fetched_at`

	_, err = s.db.ExecContext(ctx, query,
		uuid.NewString(), resource, page, count, string(data), s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("caching %s page %d: %w", resource, page, err)
	}
	return nil
}

// pageRow is the scan target for page_cache.
type pageRow struct {
	ID        string `db:"id"`
	Resource  string `db:"resource"`
	Page      int    `db:"page"`
	Count     int    `db:"total_count"`
	Payload   string `db:"payload"`
	FetchedAt int64  `db:"fetched_at"`
}

// GetPage returns the cached page, or nil when nothing is cached.
func (s *SQLiteStore) GetPage(ctx context.Context, resource string, page int) (*CachedPage, error) {
	var row pageRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, resource, page, total_count, payload, fetched_at
		FROM page_cache WHERE resource = ? AND page = ?`, resource, page)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cached %s page %d: %w", resource, page, err)
	}

	return &CachedPage{
		ID:        row.ID,
		Resource:  row.Resource,
		Page:      row.Page,
		Count:     row.Count,
		Payload:   json.RawMessage(row.Payload),
		FetchedAt: time.UnixMilli(row.FetchedAt),
	}, nil
}

// InvalidateResource drops all cached pages of resource.
func (s *SQLiteStore) InvalidateResource(ctx context.Context, resource string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM page_cache WHERE resource = ?", resource); err != nil {
		return fmt.Errorf("invalidating %s: %w", resource, err)
	}
	return nil
}

// progressRow is the scan target for watch_progress.
type progressRow struct {
	UserID      string `db:"user_id"`
	VideoID     string `db:"video_id"`
	PositionSec int    `db:"position_sec"`
	Completed   bool   `db:"completed"`
	RecordedAt  int64  `db:"recorded_at"`
}

// QueueProgress records progress for later delivery. Only the furthest
// position per (user, video) is kept, and completion is sticky.
func (s *SQLiteStore) QueueProgress(ctx context.Context, p model.WatchProgress) error {
	if p.RecordedAt.IsZero() {
		p.RecordedAt = s.now()
	}

	const query = `
		INSERT INTO watch_progress (user_id, video_id, position_sec, completed, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, video_id) DO UPDATE SET
			position_sec = MAX(position_sec, excluded.position_sec),
			completed    = MAX(completed, excluded.completed),
			recorded_at  = MAX(recorded_at, excluded.recorded_at)`

	_, err := s.db.ExecContext(ctx, query,
		p.UserID.String(), p.VideoID.String(), p.PositionSec, p.Completed, p.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("queueing progress for video %s: %w", p.VideoID, err)
	}
	return nil
}

// PendingProgress returns queued progress, oldest first.
func (s *SQLiteStore) PendingProgress(ctx context.Context, limit int) ([]model.WatchProgress, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []progressRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT user_id, video_id, position_sec, completed, recorded_at
		FROM watch_progress ORDER BY recorded_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing queued progress: %w", err)
	}

	out := make([]model.WatchProgress, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.WatchProgress{
			UserID:      model.ID(r.UserID),
			VideoID:     model.ID(r.VideoID),
			PositionSec: r.PositionSec,
			Completed:   r.Completed,
			RecordedAt:  time.UnixMilli(r.RecordedAt),
		})
	}
	return out, nil
}

// AckProgress removes a delivered entry. A row updated after p was read
// survives so the newer position is sent on the next flush.
func (s *SQLiteStore) AckProgress(ctx context.Context, p model.WatchProgress) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watch_progress
		WHERE user_id = ? AND video_id = ? AND recorded_at <= ?`,
		p.UserID.String(), p.VideoID.String(), p.RecordedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("acknowledging progress for video %s: %w", p.VideoID, err)
	}
	return nil
}

// PendingProgressCount returns how many entries await delivery.
func (s *SQLiteStore) PendingProgressCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM watch_progress"); err != nil {
		return 0, fmt.Errorf("counting queued progress: %w", err)
	}
	return n, nil
}
