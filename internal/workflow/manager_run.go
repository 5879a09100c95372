package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"conveyor/internal/logging"
	"conveyor/internal/queue"
)

// Start begins background processing with the configured worker count.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	workers := m.cfg.Workflow.ItemWorkers
	if workers <= 0 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(workers)
	m.mu.Unlock()

	// Items abandoned by a previous daemon run roll back to their start
	// status before workers begin claiming.
	if err := m.heartbeat.ReclaimStaleItems(runCtx, m.logger, m.rollbacks); err != nil {
		m.logger.Warn("startup reclaim failed; stuck items may remain", slog.String("error", err.Error()))
	}

	for i := 0; i < workers; i++ {
		go m.runWorker(runCtx, i)
	}
	go func() {
		if err := m.notifier.NotifyPipelineStarted(runCtx, workers); err != nil {
			m.logger.Warn("startup notification failed", slog.String("error", err.Error()))
		}
	}()
	return nil
}

// Stop terminates background processing and waits for workers to drain.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) runWorker(ctx context.Context, index int) {
	defer m.wg.Done()

	logger := m.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.With(
		slog.String(logging.FieldComponent, "workflow-worker"),
		slog.Int("worker", index),
	)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if index == 0 {
			if err := m.heartbeat.ReclaimStaleItems(ctx, logger, m.rollbacks); err != nil {
				logger.Warn("reclaim stale processing failed; stuck items may remain",
					slog.String("error", err.Error()),
				)
			}
		}

		item, stg, err := m.claimNext(ctx)
		if err != nil {
			m.handleClaimError(ctx, logger, err)
			continue
		}
		if item == nil {
			m.waitForItemOrShutdown(ctx)
			continue
		}

		if err := m.processItem(ctx, logger, stg, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
		}
	}
}

// claimNext walks the stage table in pipeline order and atomically claims
// the oldest waiting item for the first stage that has one. The claim is a
// single conditional update, so concurrent workers never share an item.
func (m *Manager) claimNext(ctx context.Context) (*queue.Item, pipelineStage, error) {
	for _, stg := range m.stageTable() {
		item, err := m.store.ClaimNextForStatuses(ctx, stg.processingStatus, stg.startStatus)
		if err != nil {
			return nil, pipelineStage{}, err
		}
		if item != nil {
			return item, stg, nil
		}
	}
	return nil, pipelineStage{}, nil
}

func (m *Manager) handleClaimError(ctx context.Context, logger *slog.Logger, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	logger.Error("failed to claim next queue item",
		slog.String("error", err.Error()),
		slog.String(logging.FieldEventType, "queue_claim_failed"),
	)
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second):
	}
}

func (m *Manager) waitForItemOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}
