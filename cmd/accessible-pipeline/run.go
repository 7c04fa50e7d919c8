package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/accessible-pipeline/internal/app"
	"github.com/samvad-hq/accessible-pipeline/internal/config"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [url]",
		Short: "Crawl a site and audit its pages",
		Long: `Run crawls from the given URL, following same-origin links breadth-first,
and audits every page it visits.

When it finishes it writes report-<id>.json (page results) and
state-<id>.json (what was visited and what was still queued) to --outDir.
A run can be continued later with --resume, given a state file or a run id
from "history".

Examples:
  # Audit up to 20 pages
  accessible-pipeline run https://example.com

  # Audit one page per route pattern
  accessible-pipeline run --routeManifestPath routes.json https://example.com

  # Fail a CI job when any page has violations
  accessible-pipeline run --ci --pageLimit 50 https://example.com

  # Stream NDJSON events into a live viewer
  accessible-pipeline run --streaming https://example.com | accessible-pipeline view --streaming

  # Continue where a previous run stopped
  accessible-pipeline run --resume state-1700000000000.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRunCmd,
	}

	cmd.Flags().Int("pageLimit", config.DefaultPageLimit, "Maximum number of pages to audit in this run")
	cmd.Flags().Int("maxRetries", config.DefaultMaxRetries, "Attempts per page before giving up on it")
	cmd.Flags().String("routeManifestPath", "", "JSON or YAML list of route patterns such as /users/:id; one page is audited per route")
	cmd.Flags().Bool("ignoreFragmentLinks", false, "Skip links that carry a #fragment")
	cmd.Flags().StringSlice("ignoreExtensions", nil, "Skip links whose path ends with one of these extensions (e.g. .pdf,.zip)")
	cmd.Flags().Int64("requestDelay", 0, "Delay between page visits in milliseconds")

	cmd.Flags().Bool("streaming", false, "Write NDJSON events to stdout (mutually exclusive with --ci)")
	cmd.Flags().Bool("ci", false, "Print a summary and exit 1 when any page has violations (mutually exclusive with --streaming)")
	cmd.Flags().String("resume", "", "State file or run id of a previous run to continue")

	cmd.Flags().String("renderer", config.RendererRod, "Page renderer: rod (headless Chromium) or http (static HTML)")
	cmd.Flags().String("auditor", config.AuditorAxe, "Page auditor: axe (needs rod) or static")
	cmd.Flags().String("axeScript", "", "Path to axe.min.js")
	cmd.Flags().StringArray("chromeArg", nil, "Extra Chromium flag, repeatable (e.g. --chromeArg=--lang=en)")
	cmd.Flags().String("outDir", "", "Directory for report and state files")
	cmd.Flags().String("publishers", "", "Publishers file (YAML or JSON) for event fan-out")

	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	resume, _ := cmd.Flags().GetString("resume")
	var entry string
	if len(args) > 0 {
		entry = args[0]
	}
	if entry == "" && resume == "" {
		return fmt.Errorf("a url or --resume is required")
	}

	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg, log, app.WithStdout(cmd.OutOrStdout()))
	if err != nil {
		logger.ErrorObj("failed to initialize pipeline", "error", err.Error())
		return err
	}
	defer func() {
		if cerr := pipeline.Close(); cerr != nil {
			logger.ErrorObj("pipeline close failed", "error", cerr.Error())
		}
	}()

	if _, err := pipeline.Run(ctx, app.RunRequest{Entry: entry, Resume: resume}); err != nil {
		return err
	}
	return nil
}
