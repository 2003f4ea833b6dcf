package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"ContentRefresher/internal/domain"
)

// errRefreshFailed makes the process exit non-zero after the table is printed.
var errRefreshFailed = errors.New("refresh failed")

func newRefreshCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh articles once and print the results",
	}
	cmd.AddCommand(newRefreshArticleCommand(), newRefreshAllCommand(), newRefreshStatusCommand())
	return cmd
}

func newRefreshArticleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "article <id> [id...]",
		Short: "Refresh one or more articles by id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}

			application, _, err := buildApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if len(ids) == 1 {
				result := application.Pipeline.RefreshArticle(cmd.Context(), ids[0])
				renderResults(cmd.OutOrStdout(), []domain.RefreshResult{result})
				if !result.Success {
					return fmt.Errorf("article %d: %w", ids[0], errRefreshFailed)
				}
				return nil
			}

			renderResults(cmd.OutOrStdout(), application.Batch.RefreshMany(cmd.Context(), ids))
			return nil
		},
	}
}

func newRefreshAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Refresh every stored article",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			application, _, err := buildApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			results, err := application.Batch.RefreshAll(cmd.Context())
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func newRefreshStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [status]",
		Short: "Refresh every article in a status (default scraped)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := domain.StatusScraped
			if len(args) == 1 {
				status = domain.Status(args[0])
			}
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}

			application, _, err := buildApplication(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			results, err := application.Batch.RefreshByStatus(cmd.Context(), status)
			if err != nil {
				return err
			}
			renderResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid article id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
