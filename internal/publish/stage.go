package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/stage"
)

const (
	progressStagePublishing = "Publishing"

	defaultPublishAttempts = 3
	retryBaseDelay         = 1 * time.Second
	retryMaxDelay          = 15 * time.Second
)

// Stage fans accepted, rendered drafts out to their platform adapters.
// Platform dispatches are independent: the item publishes when at least one
// platform succeeds, and fails only when every platform exhausts retries.
type Stage struct {
	store     *queue.Store
	cfg       *config.Config
	logger    *slog.Logger
	registry  *Registry
	baseDelay time.Duration
	maxDelay  time.Duration
}

// Option customizes the stage.
type Option func(*Stage)

// WithRetryBackoff overrides the retry backoff delays (useful for tests).
func WithRetryBackoff(base, max time.Duration) Option {
	return func(s *Stage) {
		s.baseDelay = base
		s.maxDelay = max
	}
}

// NewStage constructs the publish workflow stage. A nil registry builds the
// adapter set from configuration.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, registry *Registry, opts ...Option) *Stage {
	if registry == nil {
		registry = NewRegistry(cfg.Publishers)
	}
	publisher := &Stage{
		store:     store,
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "publish"),
		registry:  registry,
		baseDelay: retryBaseDelay,
		maxDelay:  retryMaxDelay,
	}
	for _, opt := range opts {
		opt(publisher)
	}
	return publisher
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "publish")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "publish", "prepare", "Publish stage is not configured", nil)
	}
	item.SetProgress(progressStagePublishing, "Dispatching to platform adapters", 75)
	return s.store.Update(ctx, item)
}

// Execute dispatches every publishable draft to its platform adapter with
// bounded retries, records a publication result per platform, and fails
// only when nothing reached any platform.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, "publish", "execute", "Queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	drafts, err := s.store.DraftsForItem(ctx, item.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "publish", "load drafts", "Failed to load drafts for publishing", err)
	}

	var publishable []*queue.Draft
	for _, draft := range drafts {
		if draft.Outcome != queue.OutcomeAccepted {
			continue
		}
		if draft.RenderState != queue.RenderDone && draft.RenderState != queue.RenderSkipped {
			continue
		}
		publishable = append(publishable, draft)
	}
	if len(publishable) == 0 {
		return services.Wrap(services.ErrValidation, "publish", "select drafts",
			"No accepted drafts available to publish", nil)
	}

	workers := s.cfg.Workflow.PlatformWorkers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu        sync.Mutex
		succeeded int
		failures  []error
		failed    []string
	)

	// Group members always return nil so one platform's failure never
	// cancels the siblings.
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for _, draft := range publishable {
		draft := draft
		grp.Go(func() error {
			result := s.publishDraft(gctx, item, draft)
			if err := s.store.UpsertPublication(gctx, result); err != nil {
				logger.Warn("publication record write failed",
					slog.String(logging.FieldPlatform, draft.Platform),
					slog.String("error", err.Error()),
				)
			}
			mu.Lock()
			defer mu.Unlock()
			if result.Status == queue.PublicationSucceeded {
				succeeded++
				return nil
			}
			failures = append(failures, fmt.Errorf("%s: %s", draft.Platform, result.LastError))
			failed = append(failed, draft.Platform)
			return nil
		})
	}
	_ = grp.Wait()

	if succeeded == 0 {
		return services.Wrap(services.ErrExternalService, "publish", "fan out",
			"All platform publications failed", errors.Join(failures...))
	}
	for _, platform := range failed {
		if err := s.store.AppendAudit(ctx, item.ID, queue.StatusPublishing, queue.ReasonPublishPartialFailure, platform); err != nil {
			logger.Warn("audit append failed", slog.String("error", err.Error()))
		}
	}

	item.SetProgress(progressStagePublishing,
		fmt.Sprintf("%d/%d platforms published", succeeded, len(publishable)), 90)
	return nil
}

// HealthCheck reports whether any platform adapter is configured.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.registry == nil || len(s.registry.Names()) == 0 {
		return stage.Unhealthy("publisher", "no platform adapters configured")
	}
	return stage.Healthy("publisher")
}

// publishDraft runs one platform dispatch with bounded backoff and returns
// the final publication record, success or not.
func (s *Stage) publishDraft(ctx context.Context, item *queue.Item, draft *queue.Draft) *queue.PublicationResult {
	logger := logging.WithContext(ctx, s.logger)
	result := &queue.PublicationResult{
		ItemID:   item.ID,
		Platform: draft.Platform,
	}

	adapter, ok := s.registry.Adapter(draft.Platform)
	if !ok {
		result.Status = queue.PublicationFailed
		result.LastError = "no adapter configured for platform"
		return result
	}

	attempts := s.cfg.Publishers.MaxAttempts
	if attempts <= 0 {
		attempts = defaultPublishAttempts
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.baseDelay
	expo.MaxInterval = s.maxDelay
	expo.MaxElapsedTime = 0

	input := Input{
		Title:        draft.Title,
		Body:         draft.Body,
		Summary:      draft.Summary,
		Tags:         draft.Tags,
		Categories:   draft.Categories,
		CallToAction: draft.CallToAction,
		ArtifactPath: draft.ArtifactPath,
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)
	externalRef, err := backoff.RetryWithData(func() (string, error) {
		result.Attempts++
		ref, err := adapter.Publish(ctx, input)
		if err != nil {
			result.Status = queue.PublicationRetrying
			result.LastError = err.Error()
			logger.Warn("publish attempt failed",
				slog.String(logging.FieldPlatform, draft.Platform),
				slog.Int("attempt", result.Attempts),
				slog.String("error", err.Error()),
			)
			if !retryablePublish(err) {
				return "", backoff.Permanent(err)
			}
		}
		return ref, err
	}, policy)
	if err != nil {
		result.Status = queue.PublicationFailed
		result.LastError = err.Error()
		return result
	}

	result.Status = queue.PublicationSucceeded
	result.ExternalRef = externalRef
	result.LastError = ""
	logger.Info("platform published",
		slog.String(logging.FieldPlatform, draft.Platform),
		slog.String("external_ref", externalRef),
		slog.Int("attempts", result.Attempts),
	)
	return result
}
