package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"conveyor/internal/config"
)

// Store manages pipeline persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the pipeline database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.LogDir, "conveyor.db"))
}

// OpenPath opens the database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	// Pragmas ride on the DSN so that every connection in the pool gets
	// them. Running PRAGMA statements through db.Exec only configures the
	// one connection that happens to execute them, leaving the rest
	// without a busy timeout under concurrent writes.
	dsn := "file:" + dbPath +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=foreign_keys(ON)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RegisterItem inserts a new content item for a fingerprint, or reports
// DuplicateContentError when the fingerprint is already claimed. The insert
// relies on the fingerprint's UNIQUE index so concurrent ingestions of
// identical content cannot both succeed.
func (s *Store) RegisterItem(ctx context.Context, fingerprint, sourcePath, title string) (*Item, error) {
	if fingerprint == "" {
		return nil, errors.New("fingerprint is required")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	id := uuid.NewString()

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO content_items (
            id, fingerprint, source_path, title, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (fingerprint) DO NOTHING`,
		id,
		fingerprint,
		nullableString(sourcePath),
		nullableString(title),
		StatusIngested,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if inserted == 0 {
		original, err := s.FindByFingerprint(ctx, fingerprint)
		if err != nil {
			return nil, err
		}
		if original == nil {
			return nil, fmt.Errorf("fingerprint %s registered but original item missing", fingerprint)
		}
		return nil, &DuplicateContentError{Fingerprint: fingerprint, OriginalID: original.ID}
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a content item by identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM content_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// FindByFingerprint returns the item registered for a fingerprint.
func (s *Store) FindByFingerprint(ctx context.Context, fingerprint string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE fingerprint = ? LIMIT 1`,
		fingerprint,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find by fingerprint: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing content item. Fingerprint and
// created_at are immutable and never written here.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE content_items
         SET source_path = ?, title = ?, metadata_json = ?, transcript_json = ?,
             status = ?, error_message = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(item.SourcePath),
		nullableString(item.Title),
		nullableString(item.MetadataJSON),
		nullableString(item.TranscriptJSON),
		item.Status,
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(item.LastHeartbeat),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM content_items`
	orderClause := ` ORDER BY created_at`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM content_items WHERE status IN (` + placeholders + `) ORDER BY created_at LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ClaimNextForStatuses atomically moves the oldest matching item into the
// provided processing status and returns it. Returns nil when no item is
// waiting. The single UPDATE keeps concurrent item workers from claiming the
// same item twice.
func (s *Store) ClaimNextForStatuses(ctx context.Context, processing Status, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, 0, len(statuses)+3)
	args = append(args, processing, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano))
	for _, status := range statuses {
		args = append(args, status)
	}

	row := s.db.QueryRowContext(
		ctx,
		`UPDATE content_items
         SET status = ?, last_heartbeat = ?, updated_at = ?, error_message = NULL
         WHERE id = (
             SELECT id FROM content_items WHERE status IN (`+placeholders+`)
             ORDER BY created_at LIMIT 1
         )
         RETURNING `+itemColumns,
		args...,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim next item: %w", err)
	}
	return item, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight item.
func (s *Store) UpdateHeartbeat(ctx context.Context, id string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE content_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ReclaimStaleProcessing rewinds items stuck in a processing status to the
// stage's start status when heartbeats expire (e.g. after a crash).
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time, rollbacks map[Status]Status) (int64, error) {
	var total int64
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for processing, restart := range rollbacks {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE content_items
             SET status = ?, progress_stage = 'Reclaimed from stale processing',
                 progress_percent = 0, progress_message = NULL,
                 last_heartbeat = NULL, updated_at = ?
             WHERE status = ? AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
			restart,
			now,
			processing,
			cutoff.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return total, fmt.Errorf("reclaim stale items: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += affected
	}
	return total, nil
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM content_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health summarizes queue state for CLI inspection.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	var summary HealthSummary
	for status, count := range stats {
		summary.Total += count
		switch {
		case status == StatusPublished:
			summary.Published += count
		case status == StatusFailed:
			summary.Failed += count
		case IsProcessingStatus(status):
			summary.Processing += count
		default:
			summary.Waiting += count
		}
	}
	return summary, nil
}

// RetryFailed rewinds failed items to the start of the stage they failed in.
// When ids are provided only those items are retried; otherwise every failed
// item is rescheduled.
func (s *Store) RetryFailed(ctx context.Context, restartFor func(*Item) Status, ids ...string) (int, error) {
	items, err := s.List(ctx, StatusFailed)
	if err != nil {
		return 0, err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	retried := 0
	for _, item := range items {
		if len(wanted) > 0 && !wanted[item.ID] {
			continue
		}
		restart := StatusIngested
		if restartFor != nil {
			restart = restartFor(item)
		}
		item.Status = restart
		item.ErrorMessage = ""
		item.LastHeartbeat = nil
		item.SetProgress("Retry scheduled", "", 0)
		if err := s.Update(ctx, item); err != nil {
			return retried, err
		}
		retried++
	}
	return retried, nil
}

// Clear removes every row from the database. Used by 'conveyor queue clear'.
func (s *Store) Clear(ctx context.Context) error {
	for _, table := range []string{"metrics_snapshots", "audit_log", "publication_results", "drafts", "content_items"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}
