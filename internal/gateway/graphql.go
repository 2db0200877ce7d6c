package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/naka-gawa/issue-snapshot/internal/domain"
)

// GraphQLGateway counts issues through the GraphQL API. Unlike the REST
// issues endpoint, GraphQL never returns pull requests as issues.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

var _ Counter = (*GraphQLGateway)(nil)

// issuesQuery pages through the issues of one repository in the requested states.
type issuesQuery struct {
	Repository struct {
		NameWithOwner string
		Issues        struct {
			TotalCount int
			PageInfo   struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Typename string `graphql:"__typename"`
			}
		} `graphql:"issues(states: $states, first: 100, after: $cursor)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQL gateway authenticated with token.
func NewGraphQLGateway(token string, logger *zap.Logger) (*GraphQLGateway, error) {
	httpClient, err := newHTTPClient(token)
	if err != nil {
		return nil, err
	}
	return &GraphQLGateway{
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// CountIssues enumerates the open and then the closed issues of repo.
// The first page of the open query doubles as the existence check.
func (g *GraphQLGateway) CountIssues(ctx context.Context, repo domain.RepoID) (domain.IssueCounts, error) {
	g.logger.Info("[1/2] Counting open issues using GraphQL API...", zap.Stringer("repo", repo))
	open, err := g.countByState(ctx, repo, githubv4.IssueStateOpen)
	if err != nil {
		return domain.IssueCounts{}, err
	}

	g.logger.Info("[2/2] Counting closed issues using GraphQL API...")
	closed, err := g.countByState(ctx, repo, githubv4.IssueStateClosed)
	if err != nil {
		return domain.IssueCounts{}, err
	}

	counts := domain.IssueCounts{Open: open, Closed: closed}
	g.logger.Info("Completed counting issues.", zap.Int("open", counts.Open), zap.Int("closed", counts.Closed))
	return counts, nil
}

func (g *GraphQLGateway) countByState(ctx context.Context, repo domain.RepoID, state githubv4.IssueState) (int, error) {
	variables := map[string]interface{}{
		"owner":  githubv4.String(repo.Owner),
		"name":   githubv4.String(repo.Name),
		"states": []githubv4.IssueState{state},
		"cursor": (*githubv4.String)(nil),
	}
	count, totalCount := 0, 0
	for {
		var q issuesQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return 0, classifyGraphQLError(fmt.Sprintf("failed to execute GraphQL query for %s issues", strings.ToLower(string(state))), err)
		}
		if q.Repository.NameWithOwner == "" {
			return 0, fmt.Errorf("failed to get repository %s: %w", repo, ErrRepositoryNotFound)
		}
		count += len(q.Repository.Issues.Nodes)
		totalCount = q.Repository.Issues.TotalCount
		if !q.Repository.Issues.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Repository.Issues.PageInfo.EndCursor)
		g.logger.Debug("  Fetching next page of issues...", zap.String("state", string(state)))
	}
	// Issues opened or closed while paging shift the total; the enumerated count is authoritative.
	if count != totalCount {
		g.logger.Warn("enumerated issue count differs from reported total",
			zap.String("state", string(state)), zap.Int("enumerated", count), zap.Int("total", totalCount))
	}
	return count, nil
}

// classifyGraphQLError maps the textual errors of the GraphQL client onto sentinels.
func classifyGraphQLError(msg string, err error) error {
	text := err.Error()
	switch {
	case strings.Contains(text, "Could not resolve to a Repository"):
		return fmt.Errorf("%s: %w: %w", msg, ErrRepositoryNotFound, err)
	case strings.Contains(text, "401 Unauthorized"), strings.Contains(text, "Bad credentials"):
		return fmt.Errorf("%s: %w: %w", msg, ErrUnauthorized, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
