package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
	"conveyor/internal/services"
	"conveyor/internal/stage"
)

const progressStageTranscribing = "Transcribing"

// Service is the transcription dependency the stage executes against.
// *Client satisfies it; tests substitute fakes.
type Service interface {
	Transcribe(ctx context.Context, sourcePath string) (*queue.Transcript, error)
	HealthCheck(ctx context.Context) error
}

// Stage turns an ingested item into a transcribed one.
type Stage struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	client Service
}

// NewStage constructs the transcription workflow stage. A nil client builds
// the HTTP client from configuration.
func NewStage(cfg *config.Config, store *queue.Store, logger *slog.Logger, client Service) *Stage {
	if client == nil {
		client = NewClient(cfg.Transcriber)
	}
	return &Stage{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "transcribe"),
		client: client,
	}
}

// SetLogger allows the workflow manager to route stage logs into the item-scoped log.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "transcribe")
}

// Prepare primes queue progress fields before executing the stage.
func (s *Stage) Prepare(ctx context.Context, item *queue.Item) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "transcribe", "prepare", "Transcription stage is not configured", nil)
	}
	item.SetProgress(progressStageTranscribing, "Uploading source to transcriber", 10)
	return s.store.Update(ctx, item)
}

// Execute transcribes the item's source file and stores the transcript with
// derived chapters and subtitle artifacts.
func (s *Stage) Execute(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return services.Wrap(services.ErrValidation, "transcribe", "execute", "Queue item is nil", nil)
	}
	logger := logging.WithContext(ctx, s.logger)

	if _, err := os.Stat(item.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribe", "stat source",
			"Source file is missing; re-ingest the content", err)
	}

	transcript, err := s.client.Transcribe(ctx, item.SourcePath)
	if err != nil {
		if !services.Retryable(err) {
			return err
		}
		return services.Wrap(services.ErrExternalService, "transcribe", "transcribe source",
			"Transcription attempts exhausted", err)
	}

	transcript.Chapters = DeriveChapters(transcript.Segments)
	if err := item.SetTranscript(transcript); err != nil {
		return err
	}

	// Subtitle artifacts are derived data; failing to write them is not
	// worth failing the item over.
	if err := s.writeSubtitles(item, transcript); err != nil {
		logger.Warn("failed to write subtitle artifacts", slog.String("error", err.Error()))
	}

	item.SetProgress(progressStageTranscribing,
		fmt.Sprintf("%d segments, %d chapters", len(transcript.Segments), len(transcript.Chapters)), 30)

	logger.Info("transcription complete",
		slog.String("language", transcript.Language),
		slog.Int("segments", len(transcript.Segments)),
		slog.Int("chapters", len(transcript.Chapters)),
		slog.Int("words", transcript.WordCount()),
	)
	return nil
}

// HealthCheck verifies the transcriber endpoint is reachable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	if s == nil || s.client == nil {
		return stage.Unhealthy("transcriber", "client not configured")
	}
	if err := s.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("transcriber", err.Error())
	}
	return stage.Healthy("transcriber")
}

func (s *Stage) writeSubtitles(item *queue.Item, transcript *queue.Transcript) error {
	dir := filepath.Join(s.cfg.Paths.ArtifactDir, item.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure artifact dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "transcript.srt"), []byte(FormatSRT(transcript)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "transcript.vtt"), []byte(FormatVTT(transcript)), 0o644); err != nil {
		return fmt.Errorf("write vtt: %w", err)
	}
	return nil
}
