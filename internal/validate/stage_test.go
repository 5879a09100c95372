package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/testsupport"
)

func TestStageScoresPendingDrafts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.RegisterItem(t, store, "fp-validate-1", "/tmp/source.mp4", "Pipeline walkthrough")

	strongBody := "### Findings\n\n" +
		strings.Repeat("Each stage records its outcome so recovery can resume from the last durable checkpoint without losing work. ", 8) +
		"\n\nThe **handoff** points deserve the most scrutiny.\n\nIdempotent stages keep retries safe."
	seedDraft(t, store, &queue.Draft{
		ItemID:     item.ID,
		Platform:   "wordpress",
		Title:      "The Secret Method Behind Resilient Content Pipelines, Proven in Production",
		Body:       strongBody,
		Tags:       []string{"pipelines", "automation", "reliability"},
		Categories: []string{"engineering"},
		Summary:    "A practical walkthrough of checkpointed content pipelines and the handoff failures they prevent.",
	})
	seedDraft(t, store, &queue.Draft{
		ItemID:   item.ID,
		Platform: "youtube",
		Title:    "Notes",
		Body:     "",
	})

	validator := NewStage(cfg, store, logging.NewNop(), nil)
	if err := validator.Prepare(context.Background(), item); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := validator.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	accepted, err := store.DraftFor(context.Background(), item.ID, "wordpress")
	if err != nil {
		t.Fatalf("DraftFor wordpress: %v", err)
	}
	if accepted.Outcome != queue.OutcomeAccepted {
		t.Fatalf("wordpress outcome = %s (%s), want accepted", accepted.Outcome, accepted.RejectReason)
	}
	if len(accepted.Scores) != 5 {
		t.Fatalf("scores = %v, want all five dimensions", accepted.Scores)
	}

	rejected, err := store.DraftFor(context.Background(), item.ID, "youtube")
	if err != nil {
		t.Fatalf("DraftFor youtube: %v", err)
	}
	if rejected.Outcome != queue.OutcomeRejected {
		t.Fatalf("youtube outcome = %s, want rejected", rejected.Outcome)
	}
	if rejected.RejectReason == "" {
		t.Fatal("rejected draft missing reject reason")
	}

	records, err := store.AuditForItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("AuditForItem: %v", err)
	}
	found := false
	for _, record := range records {
		if record.Outcome == queue.ReasonValidationRejected && strings.Contains(record.Reason, "youtube") {
			found = true
		}
	}
	if !found {
		t.Fatalf("audit log missing rejection record: %+v", records)
	}
}

func TestStageRejectionsDoNotFailItem(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.RegisterItem(t, store, "fp-validate-2", "/tmp/source.mp4", "Weak drafts")

	seedDraft(t, store, &queue.Draft{ItemID: item.ID, Platform: "wordpress", Title: "x", Body: "y."})
	seedDraft(t, store, &queue.Draft{ItemID: item.ID, Platform: "youtube", Title: "x", Body: "y."})

	validator := NewStage(cfg, store, logging.NewNop(), nil)
	if err := validator.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute should succeed even when every draft is rejected: %v", err)
	}

	drafts, err := store.DraftsForItem(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("DraftsForItem: %v", err)
	}
	for _, draft := range drafts {
		if draft.Outcome != queue.OutcomeRejected {
			t.Fatalf("%s outcome = %s, want rejected", draft.Platform, draft.Outcome)
		}
	}
}

func TestStageSkipsAlreadyDecidedDrafts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.RegisterItem(t, store, "fp-validate-3", "/tmp/source.mp4", "Replayed item")

	decided := &queue.Draft{
		ItemID:      item.ID,
		Platform:    "wordpress",
		Title:       "x",
		Body:        "y.",
		Outcome:     queue.OutcomeAccepted,
		RenderState: queue.RenderPending,
	}
	seedDraft(t, store, decided)

	validator := NewStage(cfg, store, logging.NewNop(), nil)
	if err := validator.Execute(context.Background(), item); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	after, err := store.DraftFor(context.Background(), item.ID, "wordpress")
	if err != nil {
		t.Fatalf("DraftFor: %v", err)
	}
	if after.Outcome != queue.OutcomeAccepted {
		t.Fatalf("outcome = %s, rerun must not overturn an earlier decision", after.Outcome)
	}
}

func TestStageFailsWithoutDrafts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	item := testsupport.RegisterItem(t, store, "fp-validate-4", "/tmp/source.mp4", "No drafts")

	validator := NewStage(cfg, store, logging.NewNop(), nil)
	err := validator.Execute(context.Background(), item)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
}

func TestStageHealthCheck(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	validator := NewStage(cfg, store, logging.NewNop(), nil)
	if health := validator.HealthCheck(context.Background()); !health.Ready {
		t.Fatalf("health = %+v, want ready", health)
	}
}

func seedDraft(t *testing.T, store *queue.Store, draft *queue.Draft) {
	t.Helper()
	if err := store.UpsertDraft(context.Background(), draft); err != nil {
		t.Fatalf("UpsertDraft %s: %v", draft.Platform, err)
	}
}
