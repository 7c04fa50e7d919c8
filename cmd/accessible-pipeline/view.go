package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/accessible-pipeline/internal/app"
)

// NewViewCmd creates the view command.
func NewViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show a report file or a live event stream",
		Long: `View renders the results of a run.

With --file it reads a report written by "run". With --streaming it reads the
NDJSON events of "run --streaming" from stdin and prints each page as it is
checked, then the full report.`,
		Args: cobra.NoArgs,
		RunE: runViewCmd,
	}

	cmd.Flags().StringP("file", "f", "", "Report file to show")
	cmd.Flags().Bool("streaming", false, "Read NDJSON events from stdin")
	cmd.Flags().BoolP("markdown", "m", false, "Render the report file as Markdown")

	return cmd
}

func runViewCmd(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("file")
	streaming, _ := cmd.Flags().GetBool("streaming")
	markdown, _ := cmd.Flags().GetBool("markdown")

	switch {
	case file != "" && streaming:
		return fmt.Errorf("--file and --streaming are mutually exclusive")
	case streaming:
		if markdown {
			return fmt.Errorf("--markdown needs --file")
		}
		return app.ViewStream(cmd.OutOrStdout(), cmd.InOrStdin(), true)
	case file != "":
		format := app.ViewText
		if markdown {
			format = app.ViewMarkdown
		}
		return app.ViewReport(cmd.OutOrStdout(), file, format)
	default:
		return fmt.Errorf("one of --file or --streaming is required")
	}
}
