package main

import (
	"github.com/spf13/cobra"

	"github.com/samvad-hq/accessible-pipeline/internal/app"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		Long: `History lists the runs kept in the local run database, newest first.
Any listed run id can be passed to "run --resume".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			return app.History(cmd.OutOrStdout(), cfg, limit)
		},
	}

	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show (0 shows all)")

	return cmd
}
