package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
)

type loggerAware interface {
	SetLogger(*slog.Logger)
}

func (m *Manager) processItem(ctx context.Context, workerLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	requestID := uuid.NewString()
	stageCtx := withStageContext(ctx, stg.name, item, requestID)
	stageLogger := logging.WithContext(stageCtx, workerLogger)
	if aware, ok := stg.handler.(loggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	m.setLastItem(item)
	m.appendAudit(stageCtx, stageLogger, item.ID, stg.processingStatus, "started", "")

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		slog.String(logging.FieldEventType, "stage_start"),
		slog.String("processing_status", string(stg.processingStatus)),
		slog.String("source_file", item.SourcePath),
	)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stageLogger, stg, item, err)
		m.setLastError(err)
		return err
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage preparation: %w", err)
		stageLogger.Error("failed to persist stage preparation", slog.String("error", wrapped.Error()))
		m.setLastError(wrapped)
		return wrapped
	}

	execErr := m.executeWithHeartbeat(ctx, stg, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stageLogger, stg, item, execErr)
		m.setLastError(execErr)
		return execErr
	}

	item.Status = stg.doneStatus
	item.ErrorMessage = ""
	item.LastHeartbeat = nil
	if item.Status == queue.StatusPublished {
		item.SetProgress("Published", "All platform work finished", 100)
	}
	if err := m.store.Update(ctx, item); err != nil {
		wrapped := fmt.Errorf("persist stage result: %w", err)
		stageLogger.Error("failed to persist stage result", slog.String("error", wrapped.Error()))
		m.setLastError(wrapped)
		return wrapped
	}
	m.appendAudit(ctx, stageLogger, item.ID, stg.doneStatus, "completed", "")
	if item.Status == queue.StatusPublished {
		m.notifyPublished(ctx, stageLogger, item)
	}

	stageLogger.Info("stage completed",
		slog.String(logging.FieldEventType, "stage_complete"),
		slog.String("next_status", string(item.Status)),
		slog.String("progress_message", item.ProgressMessage),
		slog.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastItem(item)
	return nil
}

// executeWithHeartbeat runs the handler while a background loop keeps the
// item's heartbeat fresh so other workers never reclaim live work.
func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, item *queue.Item) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	execErr := stg.handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) notifyPublished(ctx context.Context, logger *slog.Logger, item *queue.Item) {
	platforms := 0
	if succeeded, err := m.store.SucceededPublications(ctx, item.ID); err == nil {
		platforms = len(succeeded)
	}
	if err := m.notifier.NotifyItemPublished(ctx, item.Title, platforms); err != nil {
		logger.Warn("publish notification failed", slog.String("error", err.Error()))
	}
}

func (m *Manager) appendAudit(ctx context.Context, logger *slog.Logger, itemID string, stage queue.Status, outcome, reason string) {
	if err := m.store.AppendAudit(ctx, itemID, stage, outcome, reason); err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("failed to append audit record", slog.String("error", err.Error()))
		}
	}
}

func withStageContext(ctx context.Context, stageName string, item *queue.Item, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if item != nil {
		ctx = services.WithItemID(ctx, item.ID)
	}
	if stageName != "" {
		ctx = services.WithStage(ctx, stageName)
	}
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}
