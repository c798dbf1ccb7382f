package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/export"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

var (
	historyStatus string
	historyTask   string
	listLimit     int
	exportLimit   int
	historyOut    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded extractions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent extractions as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, repo, err := app.OpenHistory(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close(logger)
		}
		recs, err := repo.List(cmd.Context(), historyFilter(listLimit))
		if err != nil {
			return err
		}
		return printJSON(recs)
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write recorded extractions to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, repo, err := app.OpenHistory(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if db != nil {
			defer db.Close(logger)
		}
		b, err := export.NewService(repo, logger).ExportXLSX(cmd.Context(), historyFilter(exportLimit))
		if err != nil {
			return err
		}
		if err := os.WriteFile(historyOut, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", historyOut, err)
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", historyOut)
		return nil
	},
}

func historyFilter(limit int) repository.ListFilter {
	return repository.ListFilter{
		Status: constants.ExtractionStatus(historyStatus),
		Task:   historyTask,
		Limit:  limit,
	}
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd} {
		c.Flags().StringVar(&historyStatus, "status", "", "filter by status (RUNNING, SUCCEEDED, FAILED)")
		c.Flags().StringVar(&historyTask, "task", "", "filter by task name")
	}
	historyListCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows")
	historyExportCmd.Flags().IntVar(&exportLimit, "limit", 10000, "maximum rows")
	historyExportCmd.Flags().StringVar(&historyOut, "out", "extractions.xlsx", "output path")
	historyCmd.AddCommand(historyListCmd, historyExportCmd)
}
