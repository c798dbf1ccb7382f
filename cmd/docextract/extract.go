package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/llm"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
)

var (
	extractRetries uint
	extractDelay   time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract fields from one PDF and print them as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		a, err := app.New(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		var out pipeline.Outcome
		err = retry.Do(
			func() error {
				var err error
				out, err = a.Processor.ProcessDocument(ctx, filepath.Base(path), data)
				return err
			},
			retry.Context(ctx),
			retry.Attempts(extractRetries+1),
			retry.Delay(extractDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
			retry.RetryIf(llm.Retryable),
			retry.OnRetry(func(n uint, err error) {
				logger.Warn("retrying extraction", "attempt", n+1, "kind", llm.ErrorKind(err), "error", err)
			}),
		)
		if err != nil {
			return fmt.Errorf("%s: %w", llm.ErrorKind(err), err)
		}
		return printJSON(map[string]any{"parsed_data": out.Result})
	},
}

func init() {
	extractCmd.Flags().UintVar(&extractRetries, "retries", 0, "retries on transport errors, 429 and 5xx")
	extractCmd.Flags().DurationVar(&extractDelay, "retry-delay", 2*time.Second, "initial delay between retries")
}
