package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"ContentRefresher/internal/app"
	"ContentRefresher/internal/config"
	"ContentRefresher/internal/logging"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "contentrefresher",
		Short:         "Refresh stored articles from top-ranking competitor content",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	root.AddCommand(newServeCommand(), newRefreshCommand())
	return root
}

// buildApplication loads configuration and wires every adapter.
func buildApplication(ctx context.Context) (*app.Application, *slog.Logger, error) {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return application, logger, nil
}
