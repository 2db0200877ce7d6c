package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/naka-gawa/issue-snapshot/internal/config"
	"github.com/naka-gawa/issue-snapshot/internal/domain"
	"github.com/naka-gawa/issue-snapshot/internal/gateway"
	"github.com/naka-gawa/issue-snapshot/internal/repository"
	"github.com/naka-gawa/issue-snapshot/internal/usecase"
)

func runSnapshot(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	repo, err := domain.ParseRepoID(cfg.GitHub.Repository)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.RunTimeout)
		defer cancel()
	}

	// Inject dependencies and run the main business logic.
	counter, err := newCounter(cfg.GitHub, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	recorder := repository.NewConnectingRecorder(cfg.Database, logger)

	result, err := usecase.NewSnapshotter(counter, recorder, logger).Run(ctx, repo)
	if err != nil {
		logger.Error("Snapshot failed.", zap.Error(err))
		return err
	}

	return printJSON(cmd, result)
}

// newCounter selects the GitHub API used to enumerate issues.
func newCounter(cfg config.GitHub, logger *zap.Logger) (gateway.Counter, error) {
	if cfg.API == config.APIGraphQL {
		g, err := gateway.NewGraphQLGateway(cfg.Token, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	g, err := gateway.NewGitHubGateway(cfg.Token, cfg.IncludePullRequests, logger)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// printJSON writes v to the command's stdout as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
	return nil
}
