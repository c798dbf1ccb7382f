package main

import (
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/docextract/internal/app"
	"github.com/joseph-ayodele/docextract/internal/llm"
)

var schemaNotes bool

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the tool definition (or outline and notes) sent to the provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, task, err := app.LoadSchema(cfg, logger)
		if err != nil {
			return err
		}
		if schemaNotes {
			outline, notes := llm.TranslateWithNotes(s)
			return printJSON(map[string]any{"outline": outline, "notes": notes})
		}
		return printJSON(llm.Translate(s, task))
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&schemaNotes, "notes", false, "print the schema-with-notes translation")
}
