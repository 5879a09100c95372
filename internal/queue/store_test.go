package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "conveyor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestRegisterItemRejectsDuplicateFingerprint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	original, err := store.RegisterItem(ctx, "fp-alpha", "/watch/a.mp4", "First upload")
	if err != nil {
		t.Fatalf("register original: %v", err)
	}
	if original.Status != StatusIngested {
		t.Fatalf("expected status %s, got %s", StatusIngested, original.Status)
	}
	if original.ID == "" {
		t.Fatal("expected generated item id")
	}

	_, err = store.RegisterItem(ctx, "fp-alpha", "/watch/a-copy.mp4", "Second upload")
	if !errors.Is(err, ErrDuplicateContent) {
		t.Fatalf("expected ErrDuplicateContent, got %v", err)
	}
	var dup *DuplicateContentError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateContentError, got %T", err)
	}
	if dup.OriginalID != original.ID {
		t.Fatalf("duplicate should reference original %s, got %s", original.ID, dup.OriginalID)
	}

	// The duplicate must leave no trace in the queue.
	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after duplicate rejection, got %d", len(items))
	}
}

func TestRegisterItemConcurrentSameFingerprint(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Racing registrations of identical content must resolve to exactly
	// one winner; the losers get a duplicate rejection, never a busy
	// database error. Each goroutine exercises its own pooled connection.
	const racers = 8
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := store.RegisterItem(ctx, "fp-race", "/watch/race.mp4", "Race")
			errs[slot] = err
		}(i)
	}
	wg.Wait()

	wins, dups := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrDuplicateContent):
			dups++
		default:
			t.Fatalf("unexpected registration error: %v", err)
		}
	}
	if wins != 1 || dups != racers-1 {
		t.Fatalf("expected 1 winner and %d duplicates, got %d/%d", racers-1, wins, dups)
	}

	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected a single item after the race, got %d", len(items))
	}
}

func TestRegisterItemDistinctFingerprints(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.RegisterItem(ctx, "fp-one", "/watch/one.mp4", "One")
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	second, err := store.RegisterItem(ctx, "fp-two", "/watch/two.mp4", "Two")
	if err != nil {
		t.Fatalf("register second: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("expected distinct ids for distinct fingerprints")
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-update", "/watch/u.mp4", "Update me")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	item.Status = StatusTranscribed
	item.TranscriptJSON = `{"language":"en","segments":[]}`
	item.SetProgress("Transcribed", "42 segments", 40)
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != StatusTranscribed {
		t.Fatalf("expected %s, got %s", StatusTranscribed, loaded.Status)
	}
	if loaded.TranscriptJSON != item.TranscriptJSON {
		t.Fatalf("transcript mismatch: %q", loaded.TranscriptJSON)
	}
	if loaded.ProgressStage != "Transcribed" || loaded.ProgressPercent != 40 {
		t.Fatalf("progress mismatch: %+v", loaded)
	}
}

func TestClaimNextForStatusesOrdersByCreation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.RegisterItem(ctx, "fp-c1", "/watch/c1.mp4", "c1")
	if err != nil {
		t.Fatalf("register first: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, err := store.RegisterItem(ctx, "fp-c2", "/watch/c2.mp4", "c2"); err != nil {
		t.Fatalf("register second: %v", err)
	}

	claimed, err := store.ClaimNextForStatuses(ctx, StatusTranscribing, StatusIngested)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed == nil || claimed.ID != first.ID {
		t.Fatalf("expected oldest item %s, got %+v", first.ID, claimed)
	}
	if claimed.Status != StatusTranscribing {
		t.Fatalf("expected claimed status %s, got %s", StatusTranscribing, claimed.Status)
	}
	if claimed.LastHeartbeat == nil {
		t.Fatal("claim should stamp a heartbeat")
	}

	// The claimed item no longer matches its start status.
	next, err := store.ClaimNextForStatuses(ctx, StatusTranscribing, StatusIngested)
	if err != nil {
		t.Fatalf("claim second: %v", err)
	}
	if next == nil || next.ID == claimed.ID {
		t.Fatalf("expected the remaining item, got %+v", next)
	}

	empty, err := store.ClaimNextForStatuses(ctx, StatusTranscribing, StatusIngested)
	if err != nil {
		t.Fatalf("claim empty: %v", err)
	}
	if empty != nil {
		t.Fatalf("expected empty queue, got %+v", empty)
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-stale", "/watch/s.mp4", "stale")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	stale := time.Now().UTC().Add(-10 * time.Minute)
	item.Status = StatusTranscribing
	item.LastHeartbeat = &stale
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	reclaimed, err := store.ReclaimStaleProcessing(ctx, time.Now().Add(-2*time.Minute), map[Status]Status{
		StatusTranscribing: StatusIngested,
	})
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed != 1 {
		t.Fatalf("expected 1 reclaimed item, got %d", reclaimed)
	}

	loaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != StatusIngested {
		t.Fatalf("expected rewind to %s, got %s", StatusIngested, loaded.Status)
	}
	if loaded.LastHeartbeat != nil {
		t.Fatal("reclaim should clear the heartbeat")
	}
}

func TestRetryFailed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-failed", "/watch/f.mp4", "failed")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	item.SetFailed("transcription attempts exhausted")
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}

	retried, err := store.RetryFailed(ctx, func(*Item) Status { return StatusTranscribed })
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried != 1 {
		t.Fatalf("expected 1 retried item, got %d", retried)
	}

	loaded, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Status != StatusTranscribed {
		t.Fatalf("expected restart status %s, got %s", StatusTranscribed, loaded.Status)
	}
	if loaded.ErrorMessage != "" {
		t.Fatalf("expected cleared error message, got %q", loaded.ErrorMessage)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-draft", "/watch/d.mp4", "draft source")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	draft := &Draft{
		ItemID:   item.ID,
		Platform: "wordpress",
		Title:    "How pipelines fail",
		Body:     "Long form body text.",
		Tags:     []string{"automation", "pipelines"},
		Summary:  "Short summary.",
		Scores:   map[string]float64{"hook": 0.8, "seo": 0.6},
	}
	if err := store.UpsertDraft(ctx, draft); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	loaded, err := store.DraftFor(ctx, item.ID, "wordpress")
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected stored draft")
	}
	if loaded.Outcome != OutcomePending || loaded.RenderState != RenderPending {
		t.Fatalf("expected pending defaults, got %+v", loaded)
	}
	if len(loaded.Tags) != 2 || loaded.Tags[0] != "automation" {
		t.Fatalf("tags mismatch: %v", loaded.Tags)
	}
	if loaded.Scores["hook"] != 0.8 {
		t.Fatalf("scores mismatch: %v", loaded.Scores)
	}

	// Upserting again replaces the prior draft for the platform.
	draft.Outcome = OutcomeRejected
	draft.RejectReason = "readability below floor"
	if err := store.UpsertDraft(ctx, draft); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	drafts, err := store.DraftsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("list drafts: %v", err)
	}
	if len(drafts) != 1 {
		t.Fatalf("expected 1 draft, got %d", len(drafts))
	}
	if drafts[0].Outcome != OutcomeRejected || drafts[0].RejectReason == "" {
		t.Fatalf("expected rejected draft, got %+v", drafts[0])
	}
}

func TestPublicationUpsertAndFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-pub", "/watch/p.mp4", "publish source")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	records := []*PublicationResult{
		{ItemID: item.ID, Platform: "wordpress", Status: PublicationSucceeded, ExternalRef: "post-42", Attempts: 1},
		{ItemID: item.ID, Platform: "youtube", Status: PublicationFailed, Attempts: 3, LastError: "quota exceeded"},
	}
	for _, record := range records {
		if err := store.UpsertPublication(ctx, record); err != nil {
			t.Fatalf("upsert %s: %v", record.Platform, err)
		}
	}

	all, err := store.PublicationsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}

	succeeded, err := store.SucceededPublications(ctx, item.ID)
	if err != nil {
		t.Fatalf("succeeded: %v", err)
	}
	if len(succeeded) != 1 || succeeded[0].Platform != "wordpress" {
		t.Fatalf("expected wordpress success only, got %+v", succeeded)
	}
}

func TestAuditLogPreservesOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-audit", "/watch/a.mp4", "audit source")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	transitions := []struct {
		stage   Status
		outcome string
	}{
		{StatusTranscribing, "started"},
		{StatusTranscribed, "completed"},
		{StatusGenerating, "started"},
		{StatusGenerated, "completed"},
	}
	for _, tr := range transitions {
		if err := store.AppendAudit(ctx, item.ID, tr.stage, tr.outcome, ""); err != nil {
			t.Fatalf("append %s: %v", tr.stage, err)
		}
	}

	records, err := store.AuditForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(records) != len(transitions) {
		t.Fatalf("expected %d records, got %d", len(transitions), len(records))
	}
	for i, record := range records {
		if record.Stage != transitions[i].stage || record.Outcome != transitions[i].outcome {
			t.Fatalf("record %d out of order: %+v", i, record)
		}
	}
}

func TestMetricsSnapshotsAccumulate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.RegisterItem(ctx, "fp-metrics", "/watch/m.mp4", "metrics source")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	for i, views := range []int64{100, 450} {
		err := store.AppendMetrics(ctx, &MetricsSnapshot{
			ItemID:     item.ID,
			Platform:   "youtube",
			Views:      views,
			Engagement: float64(i) * 0.1,
		})
		if err != nil {
			t.Fatalf("append snapshot %d: %v", i, err)
		}
	}

	snapshots, err := store.MetricsForItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("list snapshots: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected snapshots to accumulate, got %d", len(snapshots))
	}
	if snapshots[1].Views != 450 {
		t.Fatalf("expected newest snapshot last, got %+v", snapshots[1])
	}
}

func TestHealthSummaryBuckets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []struct {
		fingerprint string
		status      Status
	}{
		{"fp-h1", StatusIngested},
		{"fp-h2", StatusTranscribing},
		{"fp-h3", StatusPublished},
		{"fp-h4", StatusFailed},
	}
	for _, entry := range seed {
		item, err := store.RegisterItem(ctx, entry.fingerprint, "", "")
		if err != nil {
			t.Fatalf("register %s: %v", entry.fingerprint, err)
		}
		if entry.status != StatusIngested {
			item.Status = entry.status
			if err := store.Update(ctx, item); err != nil {
				t.Fatalf("update %s: %v", entry.fingerprint, err)
			}
		}
	}

	summary, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if summary.Total != 4 || summary.Waiting != 1 || summary.Processing != 1 || summary.Published != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}
