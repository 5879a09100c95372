package measure

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/publish"
	"conveyor/internal/queue"
	"conveyor/internal/services"
)

const defaultCollectTimeout = 60 * time.Second

// Poller periodically reads performance numbers for published items from
// their platform adapters and appends a metrics snapshot per platform.
// Collection is read-only with respect to the pipeline: it never changes an
// item's stage.
type Poller struct {
	store    *queue.Store
	cfg      *config.Config
	logger   *slog.Logger
	registry *publish.Registry
	cron     *cron.Cron
}

// NewPoller constructs the metrics poller. A nil registry builds the
// adapter set from configuration.
func NewPoller(cfg *config.Config, store *queue.Store, logger *slog.Logger, registry *publish.Registry) *Poller {
	if registry == nil {
		registry = publish.NewRegistry(cfg.Publishers)
	}
	return &Poller{
		store:    store,
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "measure"),
		registry: registry,
	}
}

// Start schedules collection according to the configured cron expression.
// Disabled metrics config is not an error, just a no-op poller.
func (p *Poller) Start() error {
	if !p.cfg.Metrics.Enabled {
		p.logger.Info("metrics collection disabled")
		return nil
	}

	schedule := p.cfg.Metrics.Schedule
	runner := cron.New()
	_, err := runner.AddFunc(schedule, func() {
		timeout := defaultCollectTimeout
		if p.cfg.Metrics.TimeoutSeconds > 0 {
			timeout = time.Duration(p.cfg.Metrics.TimeoutSeconds) * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := p.Collect(ctx); err != nil {
			p.logger.Error("metrics collection failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "measure", "schedule",
			fmt.Sprintf("Invalid metrics schedule %q", schedule), err)
	}

	runner.Start()
	p.cron = runner
	p.logger.Info("metrics collection scheduled", slog.String("schedule", schedule))
	return nil
}

// Stop halts the schedule and waits for an in-flight collection to finish.
func (p *Poller) Stop() {
	if p == nil || p.cron == nil {
		return
	}
	ctx := p.cron.Stop()
	<-ctx.Done()
	p.cron = nil
}

// Collect walks every published item and appends one snapshot per platform
// that reached the external service. Per-platform read failures are logged
// and skipped so one platform's outage never blocks the others.
func (p *Poller) Collect(ctx context.Context) error {
	items, err := p.store.List(ctx, queue.StatusPublished)
	if err != nil {
		return services.Wrap(services.ErrTransient, "measure", "list items", "Failed to list published items", err)
	}

	collected := 0
	for _, item := range items {
		publications, err := p.store.SucceededPublications(ctx, item.ID)
		if err != nil {
			p.logger.Warn("publication lookup failed",
				slog.String(logging.FieldItemID, item.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, publication := range publications {
			if err := ctx.Err(); err != nil {
				return err
			}
			if p.collectOne(ctx, item, publication) {
				collected++
			}
		}
	}

	p.logger.Info("metrics collection pass finished",
		slog.Int("items", len(items)),
		slog.Int("snapshots", collected),
	)
	return nil
}

func (p *Poller) collectOne(ctx context.Context, item *queue.Item, publication *queue.PublicationResult) bool {
	adapter, ok := p.registry.Adapter(publication.Platform)
	if !ok {
		p.logger.Warn("no adapter for published platform",
			slog.String(logging.FieldItemID, item.ID),
			slog.String(logging.FieldPlatform, publication.Platform),
		)
		return false
	}

	metrics, err := adapter.FetchMetrics(ctx, publication.ExternalRef)
	if err != nil {
		p.logger.Warn("metrics fetch failed",
			slog.String(logging.FieldItemID, item.ID),
			slog.String(logging.FieldPlatform, publication.Platform),
			slog.String("error", err.Error()),
		)
		return false
	}

	snapshot := &queue.MetricsSnapshot{
		ItemID:     item.ID,
		Platform:   publication.Platform,
		Views:      metrics.Views,
		Engagement: metrics.Engagement,
		RawJSON:    metrics.RawJSON,
	}
	if err := p.store.AppendMetrics(ctx, snapshot); err != nil {
		p.logger.Warn("metrics snapshot write failed",
			slog.String(logging.FieldItemID, item.ID),
			slog.String(logging.FieldPlatform, publication.Platform),
			slog.String("error", err.Error()),
		)
		return false
	}
	return true
}
