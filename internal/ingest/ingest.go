package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"conveyor/internal/config"
	"conveyor/internal/logging"
	"conveyor/internal/queue"
)

// Prober extracts media metadata from a source file. media.Probe satisfies
// this; tests substitute a stub.
type Prober func(ctx context.Context, binary, path string) (queue.MediaMetadata, error)

// Ingestor registers source files into the pipeline queue.
type Ingestor struct {
	store  *queue.Store
	cfg    *config.Config
	logger *slog.Logger
	probe  Prober
}

// Result reports how a single source file was handled.
type Result struct {
	Item        *queue.Item
	Fingerprint string
	Duplicate   bool
	OriginalID  string
}

// New constructs an Ingestor backed by the given store and configuration.
func New(store *queue.Store, cfg *config.Config, logger *slog.Logger, probe Prober) *Ingestor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Ingestor{
		store:  store,
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "ingest"),
		probe:  probe,
	}
}

// IngestFile fingerprints a source file and registers it, or reports the
// original item when the content was seen before. A duplicate is an expected
// outcome and returns a Result, not an error.
func (ing *Ingestor) IngestFile(ctx context.Context, path string) (*Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("source %s is a directory", abs)
	}

	fingerprint, err := Fingerprint(abs)
	if err != nil {
		return nil, err
	}

	item, err := ing.store.RegisterItem(ctx, fingerprint, abs, TitleForPath(abs))
	if err != nil {
		var dup *queue.DuplicateContentError
		if errors.As(err, &dup) {
			ing.logger.Info("duplicate content rejected",
				slog.String("source", abs),
				slog.String("fingerprint", shortFingerprint(fingerprint)),
				slog.String("original_id", dup.OriginalID),
			)
			return &Result{Fingerprint: fingerprint, Duplicate: true, OriginalID: dup.OriginalID}, nil
		}
		return nil, err
	}

	meta, probeErr := ing.probeMetadata(ctx, abs)
	if probeErr != nil {
		ing.logger.Warn("metadata probe failed, continuing with extension-derived metadata",
			slog.String("source", abs),
			slog.String("error", probeErr.Error()),
		)
	}
	if err := item.SetMetadata(meta); err != nil {
		return nil, err
	}
	item.SetProgress("Ingested", "Registered and fingerprinted", 5)
	if err := ing.store.Update(ctx, item); err != nil {
		return nil, err
	}
	if err := ing.store.AppendAudit(ctx, item.ID, queue.StatusIngested, "registered", ""); err != nil {
		return nil, err
	}

	ing.logger.Info("content item registered",
		slog.String(logging.FieldItemID, item.ID),
		slog.String("source", abs),
		slog.String("fingerprint", shortFingerprint(fingerprint)),
		slog.String("media_kind", meta.MediaKind),
	)
	return &Result{Item: item, Fingerprint: fingerprint}, nil
}

// ScanWatchDir ingests every regular file under the configured watch
// directory. Hidden files and per-file failures are skipped so one bad file
// cannot block the scan.
func (ing *Ingestor) ScanWatchDir(ctx context.Context) ([]*Result, error) {
	watchDir := strings.TrimSpace(ing.cfg.Paths.WatchDir)
	if watchDir == "" {
		return nil, nil
	}
	if _, err := os.Stat(watchDir); err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}

	var results []*Result
	err := filepath.WalkDir(watchDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		name := entry.Name()
		if entry.IsDir() {
			if strings.HasPrefix(name, ".") && path != watchDir {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !entry.Type().IsRegular() {
			return nil
		}

		result, ingestErr := ing.IngestFile(ctx, path)
		if ingestErr != nil {
			ing.logger.Warn("skipping source file",
				slog.String("source", path),
				slog.String("error", ingestErr.Error()),
			)
			return nil
		}
		results = append(results, result)
		return nil
	})
	if err != nil {
		return results, err
	}
	return results, nil
}

func (ing *Ingestor) probeMetadata(ctx context.Context, path string) (queue.MediaMetadata, error) {
	if ing.probe == nil {
		return queue.MediaMetadata{}, nil
	}
	binary := ""
	if ing.cfg != nil {
		binary = ing.cfg.Render.FFprobeBinary
	}
	return ing.probe(ctx, binary, path)
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) <= 12 {
		return fingerprint
	}
	return fingerprint[:12]
}
