package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *queue.Item, stageErr error) {
	message := classifyStageFailure(stg.name, stageErr)
	item.SetFailed(message)

	details := services.Detail(stageErr)
	stageLogger.Error("stage failed",
		slog.String(logging.FieldEventType, "stage_failure"),
		slog.String("error_message", message),
		slog.String("error", errorText(details.Cause, stageErr)),
	)

	if err := m.store.Update(ctx, item); err != nil {
		if errors.Is(err, context.Canceled) {
			stageLogger.Debug("daemon shutting down, could not persist stage failure")
		} else {
			stageLogger.Error("failed to persist stage failure", slog.String("error", err.Error()))
		}
	}

	m.appendAudit(ctx, stageLogger, item.ID, queue.StatusFailed, "failed", failureReason(stg, stageErr))
	if err := m.notifier.NotifyItemFailed(ctx, item.Title, message); err != nil {
		stageLogger.Warn("failure notification failed", slog.String("error", err.Error()))
	}
	m.setLastItem(item)
}

// failureReason maps a terminal stage error onto the audit reason. External
// service exhaustion gets the stage's named reason; everything else carries
// the classified message.
func failureReason(stg pipelineStage, stageErr error) string {
	if stg.exhaustedReason != "" && errors.Is(stageErr, services.ErrExternalService) {
		return stg.exhaustedReason
	}
	return classifyStageFailure(stg.name, stageErr)
}

func classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	details := services.Detail(stageErr)
	if message := strings.TrimSpace(details.Message); message != "" {
		return message
	}
	if message := strings.TrimSpace(stageErr.Error()); message != "" {
		return message
	}
	return stageName + " failed"
}

func errorText(cause, fallback error) string {
	if cause != nil {
		return cause.Error()
	}
	if fallback != nil {
		return fallback.Error()
	}
	return ""
}
