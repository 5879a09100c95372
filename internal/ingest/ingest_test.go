package ingest_test

import (
	"context"
	"path/filepath"
	"testing"

	"conveyor/internal/ingest"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/testsupport"
)

func stubProbe(ctx context.Context, binary, path string) (queue.MediaMetadata, error) {
	return queue.MediaMetadata{
		DurationSeconds: 90,
		Format:          "mov,mp4,m4a",
		Codec:           "h264",
		MediaKind:       "video",
	}, nil
}

func TestIngestFileRegistersItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := ingest.New(store, cfg, logging.NewNop(), stubProbe)

	source := testsupport.WriteSource(t, cfg.Paths.WatchDir, "morning_routine-episode_01.mp4", []byte("source bytes"))
	result, err := ing.IngestFile(context.Background(), source)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if result.Duplicate {
		t.Fatal("first ingest should not be a duplicate")
	}
	if result.Item == nil || result.Item.Status != queue.StatusIngested {
		t.Fatalf("expected ingested item, got %+v", result.Item)
	}
	if result.Item.Title != "Morning Routine Episode 01" {
		t.Fatalf("unexpected derived title: %q", result.Item.Title)
	}
	if len(result.Fingerprint) != 64 {
		t.Fatalf("expected sha-256 hex fingerprint, got %q", result.Fingerprint)
	}

	meta, err := result.Item.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.DurationSeconds != 90 || meta.Codec != "h264" {
		t.Fatalf("probe metadata not stored: %+v", meta)
	}

	audit, err := store.AuditForItem(context.Background(), result.Item.ID)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(audit) != 1 || audit[0].Outcome != "registered" {
		t.Fatalf("expected registration audit record, got %+v", audit)
	}
}

func TestIngestFileRejectsDuplicateBytes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := ingest.New(store, cfg, logging.NewNop(), stubProbe)
	ctx := context.Background()

	first := testsupport.WriteSource(t, cfg.Paths.WatchDir, "original.mp4", []byte("identical bytes"))
	copied := testsupport.WriteSource(t, cfg.Paths.WatchDir, "renamed_copy.mp4", []byte("identical bytes"))

	original, err := ing.IngestFile(ctx, first)
	if err != nil {
		t.Fatalf("ingest original: %v", err)
	}

	// Same bytes under a different name must be rejected.
	duplicate, err := ing.IngestFile(ctx, copied)
	if err != nil {
		t.Fatalf("duplicate ingest should not error: %v", err)
	}
	if !duplicate.Duplicate {
		t.Fatal("expected duplicate outcome")
	}
	if duplicate.OriginalID != original.Item.ID {
		t.Fatalf("expected original id %s, got %s", original.Item.ID, duplicate.OriginalID)
	}
	if duplicate.Item != nil {
		t.Fatal("duplicate must not create an item")
	}
}

func TestIngestFileSurvivesProbeFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	failingProbe := func(ctx context.Context, binary, path string) (queue.MediaMetadata, error) {
		return queue.MediaMetadata{MediaKind: "video"}, context.DeadlineExceeded
	}
	ing := ingest.New(store, cfg, logging.NewNop(), failingProbe)

	source := testsupport.WriteSource(t, cfg.Paths.WatchDir, "broken_probe.mp4", []byte("bytes"))
	result, err := ing.IngestFile(context.Background(), source)
	if err != nil {
		t.Fatalf("probe failure must not fail ingest: %v", err)
	}
	meta, err := result.Item.Metadata()
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta.MediaKind != "video" {
		t.Fatalf("expected extension-derived kind, got %+v", meta)
	}
}

func TestScanWatchDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ing := ingest.New(store, cfg, logging.NewNop(), stubProbe)

	testsupport.WriteSource(t, cfg.Paths.WatchDir, "one.mp4", []byte("one"))
	testsupport.WriteSource(t, cfg.Paths.WatchDir, "two.mp3", []byte("two"))
	testsupport.WriteSource(t, cfg.Paths.WatchDir, ".hidden.mp4", []byte("hidden"))
	testsupport.WriteSource(t, filepath.Join(cfg.Paths.WatchDir, "nested"), "three.mov", []byte("three"))

	results, err := ing.ScanWatchDir(context.Background())
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 ingested files, got %d", len(results))
	}

	items, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 registered items, got %d", len(items))
	}
}

func TestTitleForPath(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"/watch/my_video-take.2.mp4", "My Video Take 2"},
		{"/watch/ALREADY NAMED.mov", "Already Named"},
		{"/watch/.mp4", "Untitled"},
	}
	for _, tc := range cases {
		if got := ingest.TitleForPath(tc.path); got != tc.want {
			t.Errorf("TitleForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
