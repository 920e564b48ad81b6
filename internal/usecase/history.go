package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/naka-gawa/github-stats-badges/internal/gateway"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// HistoryCollector adds contribution history to finalized stats: all-time
// contributions, lines changed and repository views.
type HistoryCollector struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
	workers int
}

// NewHistoryCollector creates a HistoryCollector that runs at most workers requests at a time.
func NewHistoryCollector(fetcher gateway.Fetcher, logger logrus.FieldLogger, workers int) *HistoryCollector {
	if workers <= 0 {
		workers = 1
	}
	return &HistoryCollector{fetcher: fetcher, logger: logger, workers: workers}
}

// Collect returns a copy of s with the history fields filled in.
func (h *HistoryCollector) Collect(ctx context.Context, login string, s *domain.Stats) (*domain.Stats, error) {
	h.logger.Info("Usecase: Collecting contribution history...")
	result := *s

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		result.Contributions, err = h.totalContributions(egCtx, login)
		return err
	})
	eg.Go(func() error {
		var err error
		result.LinesAdded, result.LinesDeleted, result.Views, err = h.repoHistory(egCtx, login, s.Repos)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	h.logger.WithFields(logrus.Fields{
		"contributions": result.Contributions,
		"lines_added":   result.LinesAdded,
		"lines_deleted": result.LinesDeleted,
		"views":         result.Views,
	}).Info("Usecase: Contribution history collected.")
	return &result, nil
}

func (h *HistoryCollector) totalContributions(ctx context.Context, login string) (int, error) {
	years, err := h.fetcher.FetchContributionYears(ctx, login)
	if err != nil {
		return 0, err
	}

	var (
		mu    sync.Mutex
		total int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(h.workers)
	for _, year := range years {
		year := year
		eg.Go(func() error {
			n, err := h.fetcher.FetchContributionsInYear(egCtx, login, year)
			if err != nil {
				return err
			}
			mu.Lock()
			total += n
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}
	return total, nil
}

// repoHistory sums lines changed and views over repos. Repositories the token
// cannot inspect, or whose statistics are not ready, count as zero.
func (h *HistoryCollector) repoHistory(ctx context.Context, login string, repos []string) (int, int, int, error) {
	var (
		mu                          sync.Mutex
		additions, deletions, views int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(h.workers)
	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			added, deleted, err := h.fetcher.FetchLinesChanged(egCtx, repo, login)
			if err != nil {
				if !h.tolerable(err) {
					return err
				}
				h.logger.WithField("repo", repo).WithError(err).Warn("skipping lines changed")
			}
			viewed, err := h.fetcher.FetchViews(egCtx, repo)
			if err != nil {
				if !h.tolerable(err) {
					return err
				}
				h.logger.WithField("repo", repo).WithError(err).Debug("skipping views")
			}
			mu.Lock()
			additions += added
			deletions += deleted
			views += viewed
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, 0, 0, err
	}
	return additions, deletions, views, nil
}

func (h *HistoryCollector) tolerable(err error) bool {
	return errors.Is(err, gateway.ErrStatsNotReady) || gateway.IsPermissionError(err)
}
