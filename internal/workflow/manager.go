package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"conveyor/internal/config"
	"conveyor/internal/notifications"
	"conveyor/internal/queue"
)

// Manager coordinates queue processing using registered stage handlers. It
// is the only writer of item status: stages mutate progress and their own
// side tables, the manager performs every status transition and appends the
// audit record for it.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	logger       *slog.Logger
	notifier     notifications.Service
	pollInterval time.Duration

	heartbeat *HeartbeatMonitor

	stages    []pipelineStage
	rollbacks map[queue.Status]queue.Status

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a workflow manager. Call ConfigureStages before Start.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		notifier:     notifications.NewService(cfg),
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
	}
}
