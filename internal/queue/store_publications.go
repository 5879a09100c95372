package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const publicationColumns = `item_id, platform, status, external_ref, attempts, last_error, updated_at`

// UpsertPublication records the outcome of a publish attempt for one platform.
func (s *Store) UpsertPublication(ctx context.Context, result *PublicationResult) error {
	if result == nil {
		return errors.New("publication result is nil")
	}
	if result.ItemID == "" || result.Platform == "" {
		return errors.New("publication result requires item id and platform")
	}
	result.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO publication_results (`+publicationColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (item_id, platform) DO UPDATE SET
             status = excluded.status,
             external_ref = excluded.external_ref,
             attempts = excluded.attempts,
             last_error = excluded.last_error,
             updated_at = excluded.updated_at`,
		result.ItemID,
		result.Platform,
		result.Status,
		nullableString(result.ExternalRef),
		result.Attempts,
		nullableString(result.LastError),
		result.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert publication result: %w", err)
	}
	return nil
}

// PublicationsForItem returns every per-platform publish record for an item.
func (s *Store) PublicationsForItem(ctx context.Context, itemID string) ([]*PublicationResult, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+publicationColumns+` FROM publication_results WHERE item_id = ? ORDER BY platform`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list publication results: %w", err)
	}
	defer rows.Close()

	var results []*PublicationResult
	for rows.Next() {
		result, err := scanPublication(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// SucceededPublications returns the publish records that reached an external
// platform, which are the ones the measurement stage polls.
func (s *Store) SucceededPublications(ctx context.Context, itemID string) ([]*PublicationResult, error) {
	results, err := s.PublicationsForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	succeeded := results[:0]
	for _, result := range results {
		if result.Status == PublicationSucceeded {
			succeeded = append(succeeded, result)
		}
	}
	return succeeded, nil
}

func scanPublication(row rowScanner) (*PublicationResult, error) {
	var (
		result      PublicationResult
		externalRef sql.NullString
		lastError   sql.NullString
		updatedAt   string
	)

	err := row.Scan(
		&result.ItemID,
		&result.Platform,
		&result.Status,
		&externalRef,
		&result.Attempts,
		&lastError,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	result.ExternalRef = externalRef.String
	result.LastError = lastError.String
	if result.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &result, nil
}
