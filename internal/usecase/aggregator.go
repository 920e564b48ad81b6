// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/naka-gawa/github-stats-badges/internal/gateway"
	"github.com/sirupsen/logrus"
)

// Options is the filter and policy configuration of one aggregation run.
type Options struct {
	Login               string
	ExcludeRepos        map[string]struct{}
	ExcludeLangs        map[string]struct{}
	ConsiderForkedRepos bool
}

// Aggregator is the use case for aggregating GitHub stats.
// It drives the overview pagination and folds every repository into the totals exactly once.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  logrus.FieldLogger
	opts    Options
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger logrus.FieldLogger, opts Options) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
		opts:    opts,
	}
}

type languageTotal struct {
	size        int
	occurrences int
	color       string
}

// aggregateState is only touched by the fold loop of a single Aggregate call.
type aggregateState struct {
	name         string
	stargazers   int
	forks        int
	languages    map[string]*languageTotal
	seenRepos    map[string]struct{}
	ignoredRepos map[string]struct{}
}

func newAggregateState() *aggregateState {
	return &aggregateState{
		languages:    make(map[string]*languageTotal),
		seenRepos:    make(map[string]struct{}),
		ignoredRepos: make(map[string]struct{}),
	}
}

// Aggregate fetches every overview page and returns the finalized stats.
// Any fetch error aborts the run and no stats are returned.
func (a *Aggregator) Aggregate(ctx context.Context) (*domain.Stats, error) {
	a.logger.Info("Usecase: Starting repository aggregation...")

	state := newAggregateState()
	req := gateway.PageRequest{
		Login:        a.opts.Login,
		IncludeForks: a.opts.ConsiderForkedRepos,
	}
	for pageNum := 1; ; pageNum++ {
		page, err := a.fetcher.FetchPage(ctx, req)
		if err != nil {
			return nil, err
		}
		a.logger.WithField("page", pageNum).Debug("folding overview page")
		state.name = page.Name
		a.fold(state, page)

		if !page.Owned.HasNextPage && !page.Contributed.HasNextPage {
			break
		}
		if page.Owned.HasNextPage {
			req.OwnedCursor = cursor(page.Owned.EndCursor)
		}
		if page.Contributed.HasNextPage {
			req.ContribCursor = cursor(page.Contributed.EndCursor)
		}
	}

	result := a.finalize(state)
	a.logger.WithFields(logrus.Fields{
		"repos":     result.TotalRepos(),
		"languages": len(result.Languages),
		"ignored":   len(state.ignoredRepos),
	}).Info("Usecase: Aggregation complete.")
	return result, nil
}

func (a *Aggregator) fold(state *aggregateState, page *domain.Page) {
	repos := page.Owned.Repos
	if a.opts.ConsiderForkedRepos {
		repos = append(repos[:len(repos):len(repos)], page.Contributed.Repos...)
	} else {
		owned := make(map[string]struct{}, len(page.Owned.Repos))
		for _, repo := range page.Owned.Repos {
			owned[repo.NameWithOwner] = struct{}{}
		}
		for _, repo := range page.Contributed.Repos {
			name := repo.NameWithOwner
			if has(state.ignoredRepos, name) || has(a.opts.ExcludeRepos, name) || has(state.seenRepos, name) || has(owned, name) {
				continue
			}
			state.ignoredRepos[name] = struct{}{}
			a.logger.WithField("repo", name).Debug("ignoring contributed repository")
		}
	}

	for _, repo := range repos {
		name := repo.NameWithOwner
		if has(state.seenRepos, name) || has(state.ignoredRepos, name) || has(a.opts.ExcludeRepos, name) {
			continue
		}
		state.seenRepos[name] = struct{}{}
		state.stargazers += repo.Stargazers
		state.forks += repo.Forks

		for _, lang := range repo.Languages {
			if lang.Name == domain.NotebookLanguage || has(a.opts.ExcludeLangs, lang.Name) {
				continue
			}
			if total, ok := state.languages[lang.Name]; ok {
				total.size += lang.Size
				total.occurrences++
				continue
			}
			state.languages[lang.Name] = &languageTotal{size: lang.Size, occurrences: 1, color: lang.Color}
		}
	}
}

// finalize freezes the state into Stats and computes the language proportions.
func (a *Aggregator) finalize(state *aggregateState) *domain.Stats {
	result := &domain.Stats{
		Name:       state.name,
		Stargazers: state.stargazers,
		Forks:      state.forks,
		Repos:      make([]string, 0, len(state.seenRepos)),
		Languages:  make(map[string]domain.Language),
	}
	for name := range state.seenRepos {
		result.Repos = append(result.Repos, name)
	}
	sort.Strings(result.Repos)

	sizes := make(stats.Float64Data, 0, len(state.languages))
	for _, total := range state.languages {
		sizes = append(sizes, float64(total.size))
	}
	totalSize, err := stats.Sum(sizes)
	if err != nil || totalSize <= 0 {
		return result
	}
	for name, total := range state.languages {
		result.Languages[name] = domain.Language{
			Size:        total.size,
			Occurrences: total.occurrences,
			Color:       total.color,
			Prop:        100 * float64(total.size) / totalSize,
		}
	}
	return result
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func cursor(endCursor string) *string {
	return &endCursor
}
