// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/github-stats-badges/internal/domain"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// ErrStatsNotReady is returned when GitHub is still computing contributor statistics
// after every polling attempt has been used.
var ErrStatsNotReady = errors.New("contributor statistics are not ready yet")

// PageRequest identifies one overview page. A nil cursor asks for the first page
// of that collection.
type PageRequest struct {
	Login         string
	IncludeForks  bool
	OwnedCursor   *string
	ContribCursor *string
}

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchPage(ctx context.Context, req PageRequest) (*domain.Page, error)
	FetchContributionYears(ctx context.Context, login string) ([]int, error)
	FetchContributionsInYear(ctx context.Context, login string, year int) (int, error)
	FetchLinesChanged(ctx context.Context, nameWithOwner, login string) (additions, deletions int, err error)
	FetchViews(ctx context.Context, nameWithOwner string) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	statsEvery    time.Duration
	statsAttempts int
	logger        logrus.FieldLogger
}

type repoNode struct {
	NameWithOwner string
	Stargazers    struct {
		TotalCount int
	}
	ForkCount int
	Languages struct {
		Edges []struct {
			Size int
			Node *struct {
				Name  string
				Color *string
			}
		}
	} `graphql:"languages(first: 10, orderBy: {field: SIZE, direction: DESC})"`
}

type repoConnection struct {
	PageInfo struct {
		HasNextPage bool
		EndCursor   githubv4.String
	}
	Nodes []*repoNode
}

// reposOverviewQuery fetches one page of owned and one page of contributed repositories.
type reposOverviewQuery struct {
	User *struct {
		Login                     string
		Name                      *string
		Repositories              repoConnection `graphql:"repositories(first: 100, ownerAffiliations: [OWNER], isFork: $isFork, orderBy: {field: UPDATED_AT, direction: DESC}, after: $ownedCursor)"`
		RepositoriesContributedTo repoConnection `graphql:"repositoriesContributedTo(first: 100, includeUserRepositories: false, orderBy: {field: UPDATED_AT, direction: DESC}, contributionTypes: [COMMIT, PULL_REQUEST, REPOSITORY, PULL_REQUEST_REVIEW], after: $contribCursor)"`
	} `graphql:"user(login: $login)"`
}

type contributionYearsQuery struct {
	User *struct {
		ContributionsCollection struct {
			ContributionYears []int
		}
	} `graphql:"user(login: $login)"`
}

type contributionsInYearQuery struct {
	User *struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// Option configures a GitHubGateway.
type Option func(*GitHubGateway)

// WithStatsPolling sets how often and how many times contributor statistics are
// requested while GitHub answers 202 Accepted.
func WithStatsPolling(interval time.Duration, attempts int) Option {
	return func(g *GitHubGateway) {
		if interval > 0 {
			g.statsEvery = interval
		}
		if attempts > 0 {
			g.statsAttempts = attempts
		}
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger logrus.FieldLogger, opts ...Option) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return newGateway(github.NewClient(httpClient), githubv4.NewClient(httpClient), logger, opts...), nil
}

func newGateway(restClient *github.Client, graphqlClient *githubv4.Client, logger logrus.FieldLogger, opts ...Option) *GitHubGateway {
	g := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		statsEvery:    2 * time.Second,
		statsAttempts: 10,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// FetchPage runs one overview query. Cursors of exhausted collections may be
// passed again; GitHub then answers with the same or an empty page.
func (g *GitHubGateway) FetchPage(ctx context.Context, req PageRequest) (*domain.Page, error) {
	variables := map[string]interface{}{
		"login":         githubv4.String(req.Login),
		"isFork":        githubv4.NewBoolean(false),
		"ownedCursor":   stringPtr(req.OwnedCursor),
		"contribCursor": stringPtr(req.ContribCursor),
	}
	if req.IncludeForks {
		variables["isFork"] = (*githubv4.Boolean)(nil)
	}

	var q reposOverviewQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, &domain.TransportError{Op: "repositories overview query", Err: err}
	}
	if q.User == nil {
		return nil, &domain.TransportError{Op: "repositories overview query", Err: fmt.Errorf("user %q not found in response", req.Login)}
	}

	page := &domain.Page{
		Name:        q.User.Login,
		Owned:       g.toCollection(q.User.Repositories, domain.OriginOwned),
		Contributed: g.toCollection(q.User.RepositoriesContributedTo, domain.OriginContributed),
	}
	if q.User.Name != nil && *q.User.Name != "" {
		page.Name = *q.User.Name
	}
	g.logger.WithFields(logrus.Fields{
		"owned":            len(page.Owned.Repos),
		"contributed":      len(page.Contributed.Repos),
		"owned_next":       page.Owned.HasNextPage,
		"contributed_next": page.Contributed.HasNextPage,
	}).Debug("fetched repositories overview page")
	return page, nil
}

func (g *GitHubGateway) toCollection(conn repoConnection, origin domain.Origin) domain.Collection {
	c := domain.Collection{
		Repos:       make([]domain.RepositoryRecord, 0, len(conn.Nodes)),
		HasNextPage: conn.PageInfo.HasNextPage,
		EndCursor:   string(conn.PageInfo.EndCursor),
	}
	for _, node := range conn.Nodes {
		if node == nil || node.NameWithOwner == "" {
			g.warnShape(&domain.DataShapeError{Field: "repository node"})
			continue
		}
		record := domain.RepositoryRecord{
			NameWithOwner: node.NameWithOwner,
			Stargazers:    node.Stargazers.TotalCount,
			Forks:         node.ForkCount,
			Origin:        origin,
		}
		for _, edge := range node.Languages.Edges {
			lang := domain.LanguageEdge{Name: domain.DefaultLanguageName, Size: edge.Size, Color: domain.DefaultLanguageColor}
			if edge.Node == nil {
				g.warnShape(&domain.DataShapeError{Repo: node.NameWithOwner, Field: "language node"})
			} else {
				if edge.Node.Name != "" {
					lang.Name = edge.Node.Name
				}
				if edge.Node.Color != nil && *edge.Node.Color != "" {
					lang.Color = *edge.Node.Color
				} else {
					g.logger.WithField("repo", node.NameWithOwner).WithField("language", lang.Name).Debug("language has no color, using default")
				}
			}
			record.Languages = append(record.Languages, lang)
		}
		c.Repos = append(c.Repos, record)
	}
	return c
}

func (g *GitHubGateway) warnShape(err *domain.DataShapeError) {
	g.logger.WithError(err).Warn("substituting default for malformed page element")
}

// FetchContributionYears returns every year in which the user has contributions.
func (g *GitHubGateway) FetchContributionYears(ctx context.Context, login string) ([]int, error) {
	var q contributionYearsQuery
	variables := map[string]interface{}{"login": githubv4.String(login)}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, &domain.TransportError{Op: "contribution years query", Err: err}
	}
	if q.User == nil {
		return nil, &domain.TransportError{Op: "contribution years query", Err: fmt.Errorf("user %q not found in response", login)}
	}
	return q.User.ContributionsCollection.ContributionYears, nil
}

// FetchContributionsInYear returns the contribution calendar total for one calendar year.
func (g *GitHubGateway) FetchContributionsInYear(ctx context.Context, login string, year int) (int, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: from.AddDate(1, 0, 0)},
	}
	var q contributionsInYearQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return 0, &domain.TransportError{Op: fmt.Sprintf("contributions query for %d", year), Err: err}
	}
	if q.User == nil {
		return 0, &domain.TransportError{Op: fmt.Sprintf("contributions query for %d", year), Err: fmt.Errorf("user %q not found in response", login)}
	}
	return q.User.ContributionsCollection.ContributionCalendar.TotalContributions, nil
}

// FetchLinesChanged sums the weekly additions and deletions of login in a repository.
// GitHub computes contributor statistics lazily, so 202 answers are polled again
// until the statistics are ready or the attempts are used up.
func (g *GitHubGateway) FetchLinesChanged(ctx context.Context, nameWithOwner, login string) (int, int, error) {
	owner, repo, err := splitName(nameWithOwner)
	if err != nil {
		return 0, 0, err
	}
	// Each call paces only its own re-polls; the first request is not delayed.
	limiter := rate.NewLimiter(rate.Every(g.statsEvery), 1)
	for attempt := 1; attempt <= g.statsAttempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return 0, 0, err
		}
		contributors, _, err := g.restClient.Repositories.ListContributorsStats(ctx, owner, repo)
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			g.logger.WithField("repo", nameWithOwner).WithField("attempt", attempt).Debug("contributor statistics are being computed")
			continue
		}
		if err != nil {
			return 0, 0, &domain.TransportError{Op: "contributor statistics for " + nameWithOwner, Err: err}
		}
		var additions, deletions int
		for _, c := range contributors {
			if !strings.EqualFold(c.GetAuthor().GetLogin(), login) {
				continue
			}
			for _, week := range c.Weeks {
				additions += week.GetAdditions()
				deletions += week.GetDeletions()
			}
		}
		return additions, deletions, nil
	}
	return 0, 0, fmt.Errorf("%s: %w", nameWithOwner, ErrStatsNotReady)
}

// FetchViews returns the number of views of a repository over the last 14 days.
func (g *GitHubGateway) FetchViews(ctx context.Context, nameWithOwner string) (int, error) {
	owner, repo, err := splitName(nameWithOwner)
	if err != nil {
		return 0, err
	}
	views, _, err := g.restClient.Repositories.ListTrafficViews(ctx, owner, repo, &github.TrafficBreakdownOptions{Per: "day"})
	if err != nil {
		return 0, &domain.TransportError{Op: "traffic views for " + nameWithOwner, Err: err}
	}
	return views.GetCount(), nil
}

// IsPermissionError reports whether err is a GitHub answer that only means the
// token may not see the requested resource.
func IsPermissionError(err error) bool {
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) || ghErr.Response == nil {
		return false
	}
	switch ghErr.Response.StatusCode {
	case http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

func splitName(nameWithOwner string) (string, string, error) {
	owner, repo, ok := strings.Cut(nameWithOwner, "/")
	if !ok || owner == "" || repo == "" {
		return "", "", fmt.Errorf("invalid repository name %q", nameWithOwner)
	}
	return owner, repo, nil
}

func stringPtr(s *string) *githubv4.String {
	if s == nil {
		return nil
	}
	return githubv4.NewString(githubv4.String(*s))
}
