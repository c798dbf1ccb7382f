package main

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/common"
)

var (
	envFile    string
	schemaFile string
	mode       string
	provider   string
	dbDriver   string

	cfg    *common.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docextract",
	Short: "Extract structured fields from PDF documents with an LLM",
	Long: `docextract reads the text layer of PDF documents and asks a chat-completions
model to fill a declared set of fields through a single tool call.

Configuration comes from the environment (and an optional .env file);
flags override the matching variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := common.LoadDotEnv(envFile); err != nil {
			return err
		}
		cfg = common.LoadConfig()
		if schemaFile != "" {
			cfg.Extract.SchemaFile = schemaFile
		}
		if mode != "" {
			cfg.Extract.Mode = mode
		}
		if provider != "" {
			cfg.LLM.Provider = provider
		}
		if dbDriver != "" {
			cfg.Database.Driver = dbDriver
		}
		logger = app.NewLogger(cfg.LogLevel)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file to load if present")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "YAML schema file (default: built-in DocumentExtraction)")
	rootCmd.PersistentFlags().StringVar(&mode, "mode", "", "extraction mode: tool or prompt")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "provider client: http or sdk")
	rootCmd.PersistentFlags().StringVar(&dbDriver, "db", "", "history store: sqlite, postgres or none")

	rootCmd.AddCommand(extractCmd, batchCmd, watchCmd, schemaCmd, historyCmd)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
