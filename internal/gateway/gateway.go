// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

var (
	// ErrRepositoryNotFound is returned when the repository does not exist or is not visible to the token.
	ErrRepositoryNotFound = errors.New("repository not found")
	// ErrUnauthorized is returned when GitHub rejects the credential.
	ErrUnauthorized = errors.New("unauthorized")
)

// Counter counts the issues of a repository, partitioned by state.
// Implementations must enumerate every page; a partial count is an error, not a result.
type Counter interface {
	CountIssues(ctx context.Context, repo domain.RepoID) (domain.IssueCounts, error)
}

// maxRateLimitSleep caps a single secondary rate limit sleep.
const maxRateLimitSleep = 1 * time.Hour

// newHTTPClient builds the authenticated transport shared by the REST and GraphQL clients.
func newHTTPClient(token string) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(maxRateLimitSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}
