package queue

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const itemColumns = `id, fingerprint, source_path, title, metadata_json, transcript_json,
    status, error_message, progress_stage, progress_percent, progress_message,
    created_at, updated_at, last_heartbeat`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item            Item
		sourcePath      sql.NullString
		title           sql.NullString
		metadataJSON    sql.NullString
		transcriptJSON  sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdAt       string
		updatedAt       string
		lastHeartbeat   sql.NullString
	)

	err := row.Scan(
		&item.ID,
		&item.Fingerprint,
		&sourcePath,
		&title,
		&metadataJSON,
		&transcriptJSON,
		&item.Status,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdAt,
		&updatedAt,
		&lastHeartbeat,
	)
	if err != nil {
		return nil, err
	}

	item.SourcePath = sourcePath.String
	item.Title = title.String
	item.MetadataJSON = metadataJSON.String
	item.TranscriptJSON = transcriptJSON.String
	item.ErrorMessage = errorMessage.String
	item.ProgressStage = progressStage.String
	item.ProgressPercent = progressPercent.Float64
	item.ProgressMessage = progressMessage.String

	if item.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if lastHeartbeat.Valid {
		heartbeat, err := parseTimeString(lastHeartbeat.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_heartbeat: %w", err)
		}
		item.LastHeartbeat = &heartbeat
	}

	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format %q", value)
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
