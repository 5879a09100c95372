package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"conveyor/internal/config"
	"conveyor/internal/ingest"
	"conveyor/internal/logging"
)

// watchLoop periodically scans the watch directory for new source media.
// Duplicate files are filtered by fingerprint inside the ingestor, so a
// rescan of unchanged files is a no-op.
type watchLoop struct {
	ingestor *ingest.Ingestor
	logger   *slog.Logger
	interval time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWatchLoop(ingestor *ingest.Ingestor, cfg *config.Config, logger *slog.Logger, intervalSeconds int) *watchLoop {
	if intervalSeconds <= 0 {
		intervalSeconds = 30
	}
	return &watchLoop{
		ingestor: ingestor,
		logger:   logging.NewComponentLogger(logger, "watch"),
		interval: time.Duration(intervalSeconds) * time.Second,
	}
}

func (w *watchLoop) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(loopCtx)
	}()
}

func (w *watchLoop) Stop() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.wg.Wait()
}

func (w *watchLoop) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *watchLoop) scan(ctx context.Context) {
	results, err := w.ingestor.ScanWatchDir(ctx)
	if err != nil {
		w.logger.Warn("watch directory scan failed", logging.Error(err))
		return
	}
	for _, result := range results {
		if result.Item != nil {
			w.logger.Info("registered source media",
				logging.String(logging.FieldItemID, result.Item.ID),
				logging.String("source_path", result.Item.SourcePath))
		}
	}
}
