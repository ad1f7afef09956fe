package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/parsing"
)

func newParseCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Extract a profile from resume text without calling a model",
		Long: `Runs the deterministic fallback extractor on resume text and prints the
profile as JSON. Reads the file argument, --input, or stdin when given "-".
No API key is required.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := input
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("a file argument or --input must be provided")
			}

			text, err := ingestion.ReadText(path, a.stdin)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			out, err := parsing.FallbackParse(text).JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.stdout, out)
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", `Path to resume text, or "-" for stdin`)
	return cmd
}
