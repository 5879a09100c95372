package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"conveyor/internal/config"
	"conveyor/internal/ingest"
	"conveyor/internal/logging"
	"conveyor/internal/media"
	"conveyor/internal/queue"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "ingest [file...]",
		Short: "Register source media files for processing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !scan && len(args) == 0 {
				return fmt.Errorf("provide at least one file, or --scan to sweep the watch directory")
			}
			return ctx.withStore(func(cfg *config.Config, store *queue.Store) error {
				logger, err := logging.NewFromConfig(cfg)
				if err != nil {
					return err
				}
				ingestor := ingest.New(store, cfg, logger, media.Probe)
				out := cmd.OutOrStdout()

				if scan {
					results, err := ingestor.ScanWatchDir(cmd.Context())
					if err != nil {
						return err
					}
					registered := 0
					for _, result := range results {
						if reportIngestResult(out, result) {
							registered++
						}
					}
					fmt.Fprintf(out, "Scan complete: %d new item(s) from %s\n", registered, cfg.Paths.WatchDir)
					return nil
				}

				for _, path := range args {
					result, err := ingestor.IngestFile(cmd.Context(), path)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					reportIngestResult(out, result)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&scan, "scan", false, "Scan the configured watch directory instead of named files")
	return cmd
}

func reportIngestResult(out io.Writer, result *ingest.Result) bool {
	if result.Duplicate {
		fmt.Fprintf(out, "duplicate: already registered as %s\n", result.OriginalID)
		return false
	}
	fmt.Fprintf(out, "registered %s  %s\n", result.Item.ID, result.Item.SourcePath)
	return true
}
