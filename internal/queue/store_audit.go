package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AppendAudit writes one stage-transition record. The audit log is append
// only; nothing in the pipeline updates or deletes rows once written.
func (s *Store) AppendAudit(ctx context.Context, itemID string, stage Status, outcome, reason string) error {
	if itemID == "" {
		return errors.New("audit record requires item id")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO audit_log (item_id, stage, outcome, reason, created_at) VALUES (?, ?, ?, ?, ?)`,
		itemID,
		stage,
		outcome,
		nullableString(reason),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

// AuditForItem returns the item's transition history in insertion order.
func (s *Store) AuditForItem(ctx context.Context, itemID string) ([]*AuditRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, item_id, stage, outcome, reason, created_at
         FROM audit_log WHERE item_id = ? ORDER BY id`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var records []*AuditRecord
	for rows.Next() {
		var (
			record    AuditRecord
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&record.ID, &record.ItemID, &record.Stage, &record.Outcome, &reason, &createdAt); err != nil {
			return nil, err
		}
		record.Reason = reason.String
		if record.CreatedAt, err = parseTimeString(createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
