package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const draftColumns = `item_id, platform, title, body, tags_json, categories_json, summary,
    call_to_action, scores_json, outcome, reject_reason, artifact_path, render_state,
    created_at, updated_at`

// UpsertDraft stores a platform draft for an item, replacing any prior draft
// for the same platform.
func (s *Store) UpsertDraft(ctx context.Context, draft *Draft) error {
	if draft == nil {
		return errors.New("draft is nil")
	}
	if draft.ItemID == "" || draft.Platform == "" {
		return errors.New("draft requires item id and platform")
	}

	tagsJSON, err := json.Marshal(draft.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}
	categoriesJSON, err := json.Marshal(draft.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	scoresJSON, err := json.Marshal(draft.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	now := time.Now().UTC()
	if draft.CreatedAt.IsZero() {
		draft.CreatedAt = now
	}
	draft.UpdatedAt = now
	if draft.Outcome == "" {
		draft.Outcome = OutcomePending
	}
	if draft.RenderState == "" {
		draft.RenderState = RenderPending
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO drafts (`+draftColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (item_id, platform) DO UPDATE SET
             title = excluded.title,
             body = excluded.body,
             tags_json = excluded.tags_json,
             categories_json = excluded.categories_json,
             summary = excluded.summary,
             call_to_action = excluded.call_to_action,
             scores_json = excluded.scores_json,
             outcome = excluded.outcome,
             reject_reason = excluded.reject_reason,
             artifact_path = excluded.artifact_path,
             render_state = excluded.render_state,
             updated_at = excluded.updated_at`,
		draft.ItemID,
		draft.Platform,
		draft.Title,
		draft.Body,
		string(tagsJSON),
		string(categoriesJSON),
		nullableString(draft.Summary),
		nullableString(draft.CallToAction),
		string(scoresJSON),
		draft.Outcome,
		nullableString(draft.RejectReason),
		nullableString(draft.ArtifactPath),
		draft.RenderState,
		draft.CreatedAt.Format(time.RFC3339Nano),
		draft.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

// DraftsForItem returns every platform draft stored for an item.
func (s *Store) DraftsForItem(ctx context.Context, itemID string) ([]*Draft, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE item_id = ? ORDER BY platform`,
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*Draft
	for rows.Next() {
		draft, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, draft)
	}
	return drafts, rows.Err()
}

// DraftFor returns one platform draft, or nil when none exists.
func (s *Store) DraftFor(ctx context.Context, itemID, platform string) (*Draft, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE item_id = ? AND platform = ?`,
		itemID,
		platform,
	)
	draft, err := scanDraft(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

func scanDraft(row rowScanner) (*Draft, error) {
	var (
		draft          Draft
		tagsJSON       string
		categoriesJSON string
		summary        sql.NullString
		callToAction   sql.NullString
		scoresJSON     string
		rejectReason   sql.NullString
		artifactPath   sql.NullString
		createdAt      string
		updatedAt      string
	)

	err := row.Scan(
		&draft.ItemID,
		&draft.Platform,
		&draft.Title,
		&draft.Body,
		&tagsJSON,
		&categoriesJSON,
		&summary,
		&callToAction,
		&scoresJSON,
		&draft.Outcome,
		&rejectReason,
		&artifactPath,
		&draft.RenderState,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &draft.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &draft.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	if err := json.Unmarshal([]byte(scoresJSON), &draft.Scores); err != nil {
		return nil, fmt.Errorf("unmarshal scores: %w", err)
	}
	draft.Summary = summary.String
	draft.CallToAction = callToAction.String
	draft.RejectReason = rejectReason.String
	draft.ArtifactPath = artifactPath.String
	if draft.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if draft.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &draft, nil
}
