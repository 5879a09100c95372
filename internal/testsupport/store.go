package testsupport

import (
	"context"
	"testing"

	"conveyor/internal/config"
	"conveyor/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RegisterItem registers a content item for tests using the provided store.
func RegisterItem(t testing.TB, store *queue.Store, fingerprint, sourcePath, title string) *queue.Item {
	t.Helper()

	item, err := store.RegisterItem(context.Background(), fingerprint, sourcePath, title)
	if err != nil {
		t.Fatalf("store.RegisterItem: %v", err)
	}
	return item
}

// SeedTranscript attaches a small fixed transcript to an item and persists it.
func SeedTranscript(t testing.TB, store *queue.Store, item *queue.Item) *queue.Transcript {
	t.Helper()

	transcript := &queue.Transcript{
		Language: "en",
		Segments: []queue.Segment{
			{Start: 0, End: 6, Text: "Welcome back, today we are looking at a surprising result."},
			{Start: 6, End: 14, Text: "The secret is that most pipelines fail at the handoff points."},
			{Start: 14, End: 23, Text: "Here is how to fix the handoff without rewriting everything."},
			{Start: 23, End: 30, Text: "First, make every stage idempotent and record its outcome."},
			{Start: 30, End: 41, Text: "Second, never let two workers own the same item at once."},
		},
	}
	if err := item.SetTranscript(transcript); err != nil {
		t.Fatalf("set transcript: %v", err)
	}
	if err := store.Update(context.Background(), item); err != nil {
		t.Fatalf("persist transcript: %v", err)
	}
	return transcript
}
