package main

import (
	"github.com/spf13/cobra"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the job worker and the scheduled refresh",
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, logger, err := buildApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			logger.Info("content refresher starting", "addr", application.Config().Server.Addr)
			if err := application.Serve(cmd.Context()); err != nil {
				logger.Error("application stopped", "error", err)
				return err
			}
			logger.Info("content refresher stopped")
			return nil
		},
	}
}
