package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"conveyor/internal/config"
	"conveyor/internal/fileutil"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/stage"
)

const (
	progressStageRendering = "Rendering"

	// Caps how many highlight spans are considered per item.
	maxClipCandidates = 5
)

// Extractor cuts one clip out of the source media. ExtractClip is the
// production implementation; tests substitute fakes.
type Extractor func(ctx context.Context, ffmpegBinary, source string, startSec, durationSec float64, dest string) error

// Stage renders a short vertical clip for every accepted draft. Rejected
// drafts are skipped without error, and one draft's render failure never
// fails its siblings or the item.
type Stage struct {
	store   *queue.Store
	cfg     *config.Config
	logger  *slog.Logger
	extract Extractor
}

// NewStage constructs the render workflow stage. A nil extractor uses ffmpeg.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, extract Extractor) *Stage {
	if extract == nil {
		extract = ExtractClip
	}
	return &Stage{
		store:   store,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "render"),
		extract: extract,
	}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "render")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "render", "prepare", "Render stage is not configured", nil)
	}
	item.SetProgress(progressStageRendering, "Selecting highlight clips", 65)
	return s.store.Update(ctx, item)
}

// Execute picks the highlight span that best matches each accepted draft
// and cuts it into a vertical short. Drafts whose render fails are marked
// failed individually; the stage itself fails only on store errors or a
// missing transcript.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, "render", "execute", "Queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	transcript, err := stage.RequireTranscript(item)
	if err != nil {
		return err
	}
	drafts, err := s.store.DraftsForItem(ctx, item.ID)
	if err != nil {
		return services.Wrap(services.ErrTransient, "render", "load drafts", "Failed to load drafts for rendering", err)
	}

	clips := SelectClips(
		DetectHighlights(transcript),
		float64(s.cfg.Render.MinClipSeconds),
		float64(s.cfg.Render.MaxClipSeconds),
		maxClipCandidates,
	)

	rendered, skipped := 0, 0
	for _, draft := range drafts {
		if draft.RenderState != queue.RenderPending {
			continue
		}

		if draft.Outcome != queue.OutcomeAccepted {
			draft.RenderState = queue.RenderSkipped
			if err := s.store.UpsertDraft(ctx, draft); err != nil {
				return services.Wrap(services.ErrTransient, "render", "store state", "Failed to persist render state", err)
			}
			skipped++
			continue
		}

		clip, ok := BestClipFor(draft, clips)
		if !ok {
			logger.Info("no qualifying highlight, skipping render",
				slog.String(logging.FieldPlatform, draft.Platform),
			)
			draft.RenderState = queue.RenderSkipped
			if err := s.store.UpsertDraft(ctx, draft); err != nil {
				return services.Wrap(services.ErrTransient, "render", "store state", "Failed to persist render state", err)
			}
			skipped++
			continue
		}

		dest, renderErr := s.renderClip(ctx, item, draft.Platform, clip)
		if renderErr != nil {
			logger.Warn("clip render failed",
				slog.String(logging.FieldPlatform, draft.Platform),
				slog.String("error", renderErr.Error()),
			)
			draft.RenderState = queue.RenderFailed
			if err := s.store.UpsertDraft(ctx, draft); err != nil {
				return services.Wrap(services.ErrTransient, "render", "store state", "Failed to persist render state", err)
			}
			if err := s.store.AppendAudit(ctx, item.ID, queue.StatusRendering, queue.ReasonRenderFailed,
				fmt.Sprintf("%s: %s", draft.Platform, renderErr.Error())); err != nil {
				logger.Warn("audit append failed", slog.String("error", err.Error()))
			}
			continue
		}

		draft.RenderState = queue.RenderDone
		draft.ArtifactPath = dest
		if err := s.store.UpsertDraft(ctx, draft); err != nil {
			return services.Wrap(services.ErrTransient, "render", "store state", "Failed to persist render state", err)
		}
		logger.Info("clip rendered",
			slog.String(logging.FieldPlatform, draft.Platform),
			slog.Float64("start", clip.Start),
			slog.Float64("duration", clip.Duration()),
			slog.String("artifact", dest),
		)
		rendered++
	}

	item.SetProgress(progressStageRendering,
		fmt.Sprintf("%d clips rendered, %d drafts skipped", rendered, skipped), 70)
	return nil
}

// HealthCheck verifies the ffmpeg binary is resolvable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.cfg == nil {
		return stage.Unhealthy("renderer", "not configured")
	}
	return stage.Healthy("renderer")
}

// renderClip extracts into the staging directory first, then moves the
// verified clip into the artifact directory. A crash mid-extract leaves
// only staging debris, never a truncated artifact.
func (s *Stage) renderClip(ctx context.Context, item *queue.Item, platform string, clip Highlight) (string, error) {
	stagingDir := filepath.Join(s.cfg.Paths.StagingDir, item.ID)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	staged := filepath.Join(stagingDir, platform+"_short.mp4")
	if err := s.extract(ctx, s.cfg.Render.FFmpegBinary, item.SourcePath, clip.Start, clip.Duration(), staged); err != nil {
		return "", err
	}

	dest := filepath.Join(s.cfg.Paths.ArtifactDir, item.ID, platform+"_short.mp4")
	if err := fileutil.MoveVerified(staged, dest); err != nil {
		return "", fmt.Errorf("promote clip to artifact dir: %w", err)
	}
	return dest, nil
}
