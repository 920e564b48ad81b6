package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/naka-gawa/github-stats-badges/internal/config"
	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/naka-gawa/github-stats-badges/internal/gateway"
	"github.com/naka-gawa/github-stats-badges/internal/logger"
	"github.com/naka-gawa/github-stats-badges/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// runEnv holds everything a command needs after configuration has been loaded.
type runEnv struct {
	cfg     config.Config
	logger  *logrus.Logger
	fetcher gateway.Fetcher
}

func setup(cmd *cobra.Command) (*runEnv, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	verbose, _ := cmd.Flags().GetBool("verbose")

	loader := config.NewLoader()
	loader.EnvFiles = []string{envFile}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("log-json") {
		cfg.LogJSON, _ = cmd.Flags().GetBool("log-json")
	}

	log := logger.Setup(os.Stderr, cfg.LogLevel, cfg.LogJSON, verbose)
	githubGateway, err := gateway.NewGitHubGateway(cfg.AccessToken, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return &runEnv{cfg: cfg, logger: log, fetcher: githubGateway}, nil
}

// aggregate runs the fold loop and, when withHistory is set, the history collectors.
func (e *runEnv) aggregate(ctx context.Context, withHistory bool) (*domain.Stats, error) {
	aggregator := usecase.NewAggregator(e.fetcher, e.logger, usecase.Options{
		Login:               e.cfg.Actor,
		ExcludeRepos:        e.cfg.ExcludedRepoSet(),
		ExcludeLangs:        e.cfg.ExcludedLangSet(),
		ConsiderForkedRepos: e.cfg.ConsiderForkedRepos(),
	})
	stats, err := aggregator.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stats: %w", err)
	}
	if !withHistory {
		return stats, nil
	}
	stats, err = usecase.NewHistoryCollector(e.fetcher, e.logger, e.cfg.Workers).Collect(ctx, e.cfg.Actor, stats)
	if err != nil {
		return nil, fmt.Errorf("failed to collect contribution history: %w", err)
	}
	return stats, nil
}
