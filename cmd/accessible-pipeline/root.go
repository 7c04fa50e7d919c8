package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/accessible-pipeline/internal/config"
	"github.com/samvad-hq/accessible-pipeline/internal/logger"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Crawl a site and audit every page for accessibility problems",
		Long: `accessible-pipeline walks a website breadth-first from an entry URL,
renders each same-origin page, runs an accessibility audit on it and reports
the violations it finds.

Configuration is read from flags, A11Y_* environment variables, configs/.env
and config.yaml (current directory or the XDG config directory).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Configuration file path")
	cmd.PersistentFlags().String("logLevel", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewViewCmd())
	cmd.AddCommand(NewHistoryCmd())

	return cmd
}

// loadConfig merges the command's flags over the other config sources and
// starts the logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *logger.ZapLogger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(config.LoadOptions{
		Flags:      cmd.Flags(),
		ConfigFile: configFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, log, nil
}
