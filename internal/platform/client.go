package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/Kushalrock/reposignal-app/core/config"
	"github.com/Kushalrock/reposignal-app/internal/domain"
)

// Client is the collaboration-platform surface this system consumes:
// permission lookups, pull request reads, and comment lifecycle.
type Client interface {
	// CollaboratorPermission returns the actor's permission level on the repository.
	CollaboratorPermission(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error)

	// GetPullRequest fetches merge state and authorship for a pull request.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error)

	// CreateComment posts a comment on an issue or pull request thread and
	// returns the platform-assigned comment ID.
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)

	// DeleteComment removes a comment by ID.
	DeleteComment(ctx context.Context, owner, repo string, commentID int64) error
}

type githubClient struct {
	client *github.Client
}

// NewClient builds a token-authenticated GitHub client. A non-empty
// BaseURL selects a GitHub Enterprise Server instance.
func NewClient(cfg config.GitHubConfig) (Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("github token is required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	tc := oauth2.NewClient(context.Background(), ts)

	gh := github.NewClient(tc)
	if cfg.BaseURL != "" {
		var err error
		gh, err = gh.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("creating enterprise client for %s: %w", cfg.BaseURL, err)
		}
	}

	return &githubClient{client: gh}, nil
}

func (c *githubClient) CollaboratorPermission(ctx context.Context, owner, repo, login string) (domain.PermissionLevel, error) {
	perm, _, err := c.client.Repositories.GetPermissionLevel(ctx, owner, repo, login)
	if err != nil {
		return "", fmt.Errorf("fetching permission level: %w", err)
	}
	return domain.PermissionLevel(perm.GetPermission()), nil
}

func (c *githubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*domain.PullRequest, error) {
	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetching pull request: %w", err)
	}

	return &domain.PullRequest{
		ID:          pr.GetID(),
		Number:      pr.GetNumber(),
		Merged:      pr.GetMerged(),
		AuthorID:    pr.GetUser().GetID(),
		AuthorLogin: pr.GetUser().GetLogin(),
	}, nil
}

func (c *githubClient) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment := &github.IssueComment{Body: github.String(body)}

	created, _, err := c.client.Issues.CreateComment(ctx, owner, repo, number, comment)
	if err != nil {
		return 0, fmt.Errorf("creating comment: %w", err)
	}
	return created.GetID(), nil
}

func (c *githubClient) DeleteComment(ctx context.Context, owner, repo string, commentID int64) error {
	if _, err := c.client.Issues.DeleteComment(ctx, owner, repo, commentID); err != nil {
		return fmt.Errorf("deleting comment %d: %w", commentID, err)
	}
	return nil
}
