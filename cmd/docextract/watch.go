package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/ingest"
)

var (
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Extract PDFs as they appear under one or more directories",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		q := async.NewProcessorQueue(a.Processor, logger,
			async.WithWorkers(cfg.Extract.Workers),
			async.WithQueueSize(cfg.Extract.QueueSize),
			async.WithRetry(3, 2*time.Second),
		)

		events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       args,
			InitialScan: watchInitial,
			Debounce:    watchDebounce,
		}, logger)
		if err != nil {
			return err
		}
		logger.Info("watching", "roots", args)

	loop:
		for {
			select {
			case p, ok := <-events:
				if !ok {
					break loop
				}
				if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
					break loop
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("watch error", "error", err)
			case <-ctx.Done():
				break loop
			}
		}

		drainCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		q.Shutdown(drainCtx)
		return nil
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "also extract PDFs already present")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "wait for writes to settle")
}
