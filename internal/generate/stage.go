package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/stage"
)

const progressStageGenerating = "Generating"

// Service is the completion dependency the stage executes against. *Client
// satisfies it; tests substitute fakes.
type Service interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Stage produces one platform draft per enabled target platform.
type Stage struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client Service
}

// NewStage constructs the generation workflow stage. A nil client builds the
// HTTP client from configuration.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Service) *Stage {
	if client == nil {
		client = NewClient(cfg.Generator)
	}
	return &Stage{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "generate"),
		client: client,
	}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "generate")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "generate", "prepare", "Generation stage is not configured", nil)
	}
	platforms := s.cfg.EnabledPlatforms()
	if len(platforms) == 0 {
		return services.Wrap(services.ErrConfiguration, "generate", "prepare",
			"No target platforms enabled; set generator.platforms", nil)
	}
	item.SetProgress(progressStageGenerating,
		fmt.Sprintf("Generating drafts for %d platforms", len(platforms)), 35)
	return s.store.Update(ctx, item)
}

// Execute fans one generation request out per platform. Platform failures
// are independent: the stage succeeds when at least one draft lands, and
// fails only when every platform fails.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, "generate", "execute", "Queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	transcript, err := stage.RequireTranscript(item)
	if err != nil {
		return err
	}
	platforms := s.cfg.EnabledPlatforms()
	if len(platforms) == 0 {
		return services.Wrap(services.ErrConfiguration, "generate", "execute",
			"No target platforms enabled; set generator.platforms", nil)
	}

	workers := s.cfg.Workflow.PlatformWorkers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		drafted  int
		failures []error
	)

	// Group members always return nil so one platform's failure never
	// cancels the siblings.
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for _, platform := range platforms {
		platform := platform
		grp.Go(func() error {
			draft, genErr := s.generateDraft(gctx, item, platform, transcript)
			if genErr != nil {
				logger.Warn("platform generation failed",
					slog.String(logging.FieldPlatform, platform),
					slog.String("error", genErr.Error()),
				)
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", platform, genErr))
				mu.Unlock()
				return nil
			}
			if err := s.store.UpsertDraft(gctx, draft); err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: store draft: %w", platform, err))
				mu.Unlock()
				return nil
			}
			logger.Info("platform draft generated",
				slog.String(logging.FieldPlatform, platform),
				slog.Int("body_runes", len([]rune(draft.Body))),
				slog.Int("tags", len(draft.Tags)),
			)
			mu.Lock()
			drafted++
			mu.Unlock()
			return nil
		})
	}
	_ = grp.Wait()

	if drafted == 0 {
		return services.Wrap(services.ErrExternalService, "generate", "fan out",
			"All platform generations failed", errors.Join(failures...))
	}

	item.SetProgress(progressStageGenerating,
		fmt.Sprintf("%d/%d platform drafts generated", drafted, len(platforms)), 50)
	return nil
}

// HealthCheck verifies the completion endpoint is reachable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.client == nil {
		return stage.Unhealthy("generator", "client not configured")
	}
	if err := s.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("generator", err.Error())
	}
	return stage.Healthy("generator")
}

func (s *Stage) generateDraft(ctx context.Context, item *queue.Item, platform string, transcript *queue.Transcript) (*queue.Draft, error) {
	content, err := s.client.CompleteJSON(ctx, SystemPrompt(platform), UserPrompt(platform, item.Title, transcript))
	if err != nil {
		return nil, err
	}

	var payload draftPayload
	if err := DecodeModelJSON(content, &payload); err != nil {
		return nil, fmt.Errorf("parse payload: %w", err)
	}
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Body = strings.TrimSpace(payload.Body)
	if payload.Title == "" || payload.Body == "" {
		return nil, errors.New("payload missing title or body")
	}

	return &queue.Draft{
		ItemID:       item.ID,
		Platform:     platform,
		Title:        payload.Title,
		Body:         payload.Body,
		Tags:         cleanList(payload.Tags),
		Categories:   cleanList(payload.Categories),
		Summary:      strings.TrimSpace(payload.Summary),
		CallToAction: strings.TrimSpace(payload.CallToAction),
		Outcome:      queue.OutcomePending,
		RenderState:  queue.RenderPending,
	}, nil
}

func cleanList(values []string) []string {
	var cleaned []string
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
