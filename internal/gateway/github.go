package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

const (
	stateOpen   = "open"
	stateClosed = "closed"
	pageSize    = 100
)

// GitHubGateway counts issues through the REST API.
type GitHubGateway struct {
	restClient          *github.Client
	includePullRequests bool
	logger              *zap.Logger
}

var _ Counter = (*GitHubGateway)(nil)

// NewGitHubGateway creates a REST gateway authenticated with token.
// The issues endpoint also lists pull requests; includePullRequests decides whether they are counted.
func NewGitHubGateway(token string, includePullRequests bool, logger *zap.Logger) (*GitHubGateway, error) {
	httpClient, err := newHTTPClient(token)
	if err != nil {
		return nil, err
	}
	return &GitHubGateway{
		restClient:          github.NewClient(httpClient),
		includePullRequests: includePullRequests,
		logger:              logger,
	}, nil
}

// CountIssues checks that the repository exists and then enumerates its
// open and closed issues, one state after the other.
func (g *GitHubGateway) CountIssues(ctx context.Context, repo domain.RepoID) (domain.IssueCounts, error) {
	g.logger.Info("[1/3] Checking repository...", zap.Stringer("repo", repo))
	if _, _, err := g.restClient.Repositories.Get(ctx, repo.Owner, repo.Name); err != nil {
		return domain.IssueCounts{}, classifyRESTError(fmt.Sprintf("failed to get repository %s", repo), err)
	}

	g.logger.Info("[2/3] Counting open issues...")
	open, err := g.countByState(ctx, repo, stateOpen)
	if err != nil {
		return domain.IssueCounts{}, err
	}

	g.logger.Info("[3/3] Counting closed issues...")
	closed, err := g.countByState(ctx, repo, stateClosed)
	if err != nil {
		return domain.IssueCounts{}, err
	}

	counts := domain.IssueCounts{Open: open, Closed: closed}
	g.logger.Info("Completed counting issues.", zap.Int("open", counts.Open), zap.Int("closed", counts.Closed))
	return counts, nil
}

func (g *GitHubGateway) countByState(ctx context.Context, repo domain.RepoID, state string) (int, error) {
	opts := &github.IssueListByRepoOptions{
		State:       state,
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	count := 0
	for {
		issues, resp, err := g.restClient.Issues.ListByRepo(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return 0, classifyRESTError(fmt.Sprintf("failed to list %s issues with REST API", state), err)
		}
		for _, issue := range issues {
			if !g.includePullRequests && issue.IsPullRequest() {
				continue
			}
			count++
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("  Fetching next page of issues...", zap.String("state", state), zap.Int("page", opts.Page))
	}
	return count, nil
}

// classifyRESTError attaches a sentinel to GitHub responses the caller must tell apart.
func classifyRESTError(msg string, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %w", msg, ErrRepositoryNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%s: %w: %w", msg, ErrUnauthorized, err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
