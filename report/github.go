/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"context"
	"fmt"

	"github.com/google/go-github/v84/github"
)

// CommentAPI is the slice of the code-host API the reporter needs: create a
// thread comment, then update it in place.
type CommentAPI interface {
	CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error)
	UpdateComment(ctx context.Context, owner, repo string, id int64, body string) error
}

// GitHubComments implements CommentAPI against the GitHub issues API, which
// covers both issue and pull request threads.
type GitHubComments struct {
	client *github.Client
}

// NewGitHubComments wraps a GitHub client.
func NewGitHubComments(client *github.Client) *GitHubComments {
	return &GitHubComments{client: client}
}

// CreateComment posts a new comment and returns its ID.
func (g *GitHubComments) CreateComment(ctx context.Context, owner, repo string, number int, body string) (int64, error) {
	comment, _, err := g.client.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return 0, fmt.Errorf("creating comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return comment.GetID(), nil
}

// UpdateComment replaces the body of an existing comment.
func (g *GitHubComments) UpdateComment(ctx context.Context, owner, repo string, id int64, body string) error {
	if _, _, err := g.client.Issues.EditComment(ctx, owner, repo, id, &github.IssueComment{
		Body: github.Ptr(body),
	}); err != nil {
		return fmt.Errorf("updating comment %d on %s/%s: %w", id, owner, repo, err)
	}
	return nil
}
