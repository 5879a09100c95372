package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AppendMetrics records one performance reading for a published platform.
// Snapshots accumulate over time; the newest row per platform is the current
// reading.
func (s *Store) AppendMetrics(ctx context.Context, snapshot *MetricsSnapshot) error {
	if snapshot == nil {
		return errors.New("metrics snapshot is nil")
	}
	if snapshot.ItemID == "" || snapshot.Platform == "" {
		return errors.New("metrics snapshot requires item id and platform")
	}
	if snapshot.FetchedAt.IsZero() {
		snapshot.FetchedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO metrics_snapshots (item_id, platform, views, engagement, raw_json, fetched_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		snapshot.ItemID,
		snapshot.Platform,
		snapshot.Views,
		snapshot.Engagement,
		nullableString(snapshot.RawJSON),
		snapshot.FetchedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append metrics snapshot: %w", err)
	}
	snapshot.ID, _ = res.LastInsertId()
	return nil
}

// MetricsForItem returns stored snapshots for an item, oldest first.
func (s *Store) MetricsForItem(ctx context.Context, itemID string) ([]*MetricsSnapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, item_id, platform, views, engagement, raw_json, fetched_at
         FROM metrics_snapshots WHERE item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list metrics snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*MetricsSnapshot
	for rows.Next() {
		var (
			snapshot  MetricsSnapshot
			rawJSON   sql.NullString
			fetchedAt string
		)
		if err := rows.Scan(&snapshot.ID, &snapshot.ItemID, &snapshot.Platform, &snapshot.Views, &snapshot.Engagement, &rawJSON, &fetchedAt); err != nil {
			return nil, err
		}
		snapshot.RawJSON = rawJSON.String
		if snapshot.FetchedAt, err = parseTimeString(fetchedAt); err != nil {
			return nil, fmt.Errorf("parse fetched_at: %w", err)
		}
		snapshots = append(snapshots, &snapshot)
	}
	return snapshots, rows.Err()
}
