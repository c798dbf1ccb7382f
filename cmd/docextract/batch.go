package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/async"
	"github.com/joseph-ayodele/docextract/internal/ingest"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

var (
	batchWorkers    int
	batchRetries    uint
	batchDelay      time.Duration
	batchTimeout    time.Duration
	batchSkipHidden bool
)

type batchItem struct {
	Path         string      `json:"path"`
	ExtractionID string      `json:"extraction_id,omitempty"`
	Attempts     uint        `json:"attempts"`
	ParsedData   *llm.Result `json:"parsed_data,omitempty"`
	ErrorKind    string      `json:"error_kind,omitempty"`
	Error        string      `json:"error,omitempty"`
}

type batchSummary struct {
	Scanned   uint32      `json:"scanned"`
	Matched   uint32      `json:"matched"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Items     []batchItem `json:"items"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Extract every PDF under a directory using a worker pool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		paths, stats, err := ingest.ScanDirectory(args[0], batchSkipHidden)
		if err != nil {
			return err
		}
		logger.Info("batch.scan.ok", "root", args[0], "scanned", stats.Scanned, "matched", stats.Matched)

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		workers := batchWorkers
		if workers <= 0 {
			workers = cfg.Extract.Workers
		}

		var (
			mu    sync.Mutex
			items []batchItem
		)
		q := async.NewProcessorQueue(a.Processor, logger,
			async.WithWorkers(workers),
			async.WithQueueSize(cfg.Extract.QueueSize),
			async.WithProcessTimeout(batchTimeout),
			async.WithRetry(batchRetries+1, batchDelay),
			async.WithOnDone(func(c async.Completion) {
				mu.Lock()
				defer mu.Unlock()
				items = append(items, completionItem(c))
			}),
		)

		for _, p := range paths {
			if err := q.Enqueue(ctx, async.Job{Path: p}); err != nil {
				logger.Warn("batch.enqueue.stopped", "path", p, "error", err)
				break
			}
		}
		q.Shutdown(ctx)

		mu.Lock()
		defer mu.Unlock()
		sum := batchSummary{Scanned: stats.Scanned, Matched: stats.Matched, Items: items}
		for _, it := range items {
			if it.Error == "" {
				sum.Succeeded++
			} else {
				sum.Failed++
			}
		}
		if err := printJSON(sum); err != nil {
			return err
		}
		if sum.Failed > 0 {
			fmt.Fprintf(os.Stderr, "%d of %d documents failed\n", sum.Failed, len(items))
		}
		return nil
	},
}

func completionItem(c async.Completion) batchItem {
	it := batchItem{Path: c.Job.Path, Attempts: c.Attempts, ParsedData: c.Outcome.Result}
	if c.Outcome.ExtractionID != uuid.Nil {
		it.ExtractionID = c.Outcome.ExtractionID.String()
	}
	if c.Err != nil {
		it.ErrorKind = llm.ErrorKind(c.Err)
		it.Error = c.Err.Error()
		it.ParsedData = nil
	}
	return it
}

func init() {
	batchCmd.Flags().IntVar(&batchWorkers, "workers", 0, "concurrent extractions (default: BATCH_WORKERS)")
	batchCmd.Flags().UintVar(&batchRetries, "retries", 2, "retries per document on transport errors, 429 and 5xx")
	batchCmd.Flags().DurationVar(&batchDelay, "retry-delay", 2*time.Second, "initial delay between retries")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 3*time.Minute, "per-document deadline across all attempts")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip dot files and directories")
}
