package daemon

import (
	"context"
	"testing"

	"conveyor/internal/logging"
	"conveyor/internal/measure"
	"conveyor/internal/queue"
	"conveyor/internal/stage"
	"conveyor/internal/testsupport"
	"conveyor/internal/workflow"
)

type idleHandler struct{ name string }

func (h idleHandler) Prepare(ctx context.Context, item *queue.Item) error { return nil }
func (h idleHandler) Execute(ctx context.Context, item *queue.Item) error { return nil }
func (h idleHandler) HealthCheck(ctx context.Context) stage.Health        { return stage.Healthy(h.name) }

func newTestDaemon(t *testing.T) (*Daemon, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	manager := workflow.NewManager(cfg, store, logger)
	manager.ConfigureStages(workflow.StageSet{
		Transcriber: idleHandler{name: "transcriber"},
		Generator:   idleHandler{name: "generator"},
		Validator:   idleHandler{name: "validator"},
		Renderer:    idleHandler{name: "renderer"},
		Publisher:   idleHandler{name: "publisher"},
	})
	poller := measure.NewPoller(cfg, store, logger, nil)

	daemon, err := New(cfg, store, logger, manager, poller)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return daemon, store
}

func TestDaemonStartStop(t *testing.T) {
	daemon, _ := newTestDaemon(t)

	if err := daemon.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	status := daemon.Status(context.Background())
	if !status.Running {
		t.Fatal("daemon should report running")
	}
	if !status.Workflow.Running {
		t.Fatal("workflow should report running")
	}

	daemon.Stop()
	if daemon.Status(context.Background()).Running {
		t.Fatal("daemon should report stopped")
	}
}

func TestDaemonSecondInstanceRejected(t *testing.T) {
	first, _ := newTestDaemon(t)
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer first.Stop()

	if err := first.Start(context.Background()); err == nil {
		t.Fatal("second Start on a running daemon should fail")
	}
}

func TestDaemonRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}
