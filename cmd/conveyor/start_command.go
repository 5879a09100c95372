package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"conveyor/internal/daemon"
	"conveyor/internal/generate"
	"conveyor/internal/ingest"
	"conveyor/internal/logging"
	"conveyor/internal/measure"
	"conveyor/internal/media"
	"conveyor/internal/preflight"
	"conveyor/internal/publish"
	"conveyor/internal/queue"
	"conveyor/internal/render"
	"conveyor/internal/transcribe"
	"conveyor/internal/validate"
	"conveyor/internal/workflow"
)

func newStartCommand(ctx *commandContext) *cobra.Command {
	var watchInterval int

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the processing daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			for _, result := range preflight.RunAll(cmd.Context(), cfg) {
				if result.Passed {
					logger.Info("preflight check passed",
						logging.String("check", result.Name), logging.String("detail", result.Detail))
					continue
				}
				logger.Warn("preflight check failed",
					logging.String("check", result.Name), logging.String("detail", result.Detail))
			}

			store, err := queue.Open(cfg)
			if err != nil {
				return fmt.Errorf("open queue database: %w", err)
			}

			registry := publish.NewRegistry(cfg.Publishers)

			manager := workflow.NewManager(cfg, store, logger)
			manager.ConfigureStages(workflow.StageSet{
				Transcriber: transcribe.NewStage(cfg, store, logger, transcribe.NewClient(cfg.Transcriber)),
				Generator:   generate.NewStage(cfg, store, logger, generate.NewClient(cfg.Generator)),
				Validator:   validate.NewStage(cfg, store, logger, nil),
				Renderer:    render.NewStage(cfg, store, logger, nil),
				Publisher:   publish.NewStage(cfg, store, logger, registry),
			})

			poller := measure.NewPoller(cfg, store, logger, registry)

			d, err := daemon.New(cfg, store, logger, manager, poller)
			if err != nil {
				store.Close()
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if err := d.Start(signalCtx); err != nil {
				d.Close()
				return err
			}

			ingestor := ingest.New(store, cfg, logger, media.Probe)
			watcher := newWatchLoop(ingestor, cfg, logger, watchInterval)
			watcher.Start(signalCtx)

			fmt.Fprintln(cmd.OutOrStdout(), "conveyor daemon running; press Ctrl+C to stop")
			<-signalCtx.Done()

			watcher.Stop()
			d.Close()
			return nil
		},
	}

	cmd.Flags().IntVar(&watchInterval, "watch-interval", 30, "Seconds between watch directory scans")
	return cmd
}
