package validate

import (
	"context"
	"fmt"
	"log/slog"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/stage"
)

const progressStageValidating = "Validating"

// Stage scores every pending draft across the five quality dimensions and
// records an accept or reject outcome per draft. Rejections never fail the
// item; rejected drafts simply drop out of the render and publish fan-out.
type Stage struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	registry *Registry
	policy   Policy
}

// NewStage constructs the validation workflow stage. A nil registry uses the
// built-in heuristic scorers.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, registry *Registry) *Stage {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Stage{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "validate"),
		registry: registry,
		policy:   PolicyFromConfig(cfg.Validation),
	}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "validate")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "validate", "prepare", "Validation stage is not configured", nil)
	}
	item.SetProgress(progressStageValidating, "Scoring platform drafts", 55)
	return s.store.Update(ctx, item)
}

// Execute scores each pending draft and persists the decision. The stage
// fails only when no drafts exist to score.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, "validate", "execute", "Queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	drafts, err := s.store.DraftsForItem(ctx, item.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "validate", "load drafts", "Failed to load drafts for scoring", err)
	}
	if len(drafts) == 0 {
		return services.Wrap(services.ErrValidation, "validate", "load drafts",
			"No drafts available to validate", nil)
	}

	accepted := 0
	for _, draft := range drafts {
		if draft.Outcome != queue.OutcomePending {
			if draft.Outcome == queue.OutcomeAccepted {
				accepted++
			}
			continue
		}

		decision := s.policy.Evaluate(s.registry.ScoreDraft(draft))
		draft.Scores = decision.Scores
		draft.Outcome = decision.Outcome
		draft.RejectReason = decision.RejectReason
		if err := s.store.UpsertDraft(ctx, draft); err != nil {
			return services.Wrap(services.ErrTransient, "validate", "store decision", "Failed to persist draft decision", err)
		}

		if decision.Outcome == queue.OutcomeAccepted {
			accepted++
			logger.Info("draft accepted",
				slog.String(logging.FieldPlatform, draft.Platform),
				slog.Float64("aggregate", decision.Aggregate),
			)
			continue
		}
		logger.Info("draft rejected",
			slog.String(logging.FieldPlatform, draft.Platform),
			slog.Float64("aggregate", decision.Aggregate),
			slog.String("reason", decision.RejectReason),
		)
		if err := s.store.AppendAudit(ctx, item.ID, queue.StatusValidating, queue.ReasonValidationRejected,
			fmt.Sprintf("%s: %s", draft.Platform, decision.RejectReason)); err != nil {
			logger.Warn("audit append failed", slog.String("error", err.Error()))
		}
	}

	item.SetProgress(progressStageValidating,
		fmt.Sprintf("%d/%d drafts accepted", accepted, len(drafts)), 60)
	return nil
}

// HealthCheck reports on the scorer registry.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.registry == nil || len(s.registry.Dimensions()) == 0 {
		return stage.Unhealthy("validator", "no scorers registered")
	}
	return stage.Healthy("validator")
}
