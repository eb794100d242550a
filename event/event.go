/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package event is the boundary to the code-hosting platform: it parses raw
// webhook payloads into the read-only repository context the core consumes,
// and constructs authenticated API clients.
package event

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/go-github/v84/github"
)

// RepositoryContext describes the repository a job operates on. It is
// supplied by the event source and read-only thereafter.
type RepositoryContext struct {
	FullName      string
	CloneURL      string
	DefaultBranch string
	HeadRef       string
	BaseRef       string
	// PrimaryLanguage is a best-effort hint from the platform.
	PrimaryLanguage string
}

// Owner returns the owner half of FullName.
func (rc RepositoryContext) Owner() string {
	owner, _, _ := strings.Cut(rc.FullName, "/")
	return owner
}

// Name returns the repository half of FullName.
func (rc RepositoryContext) Name() string {
	_, name, _ := strings.Cut(rc.FullName, "/")
	return name
}

// Event is one triggering occurrence: an issue, a comment, or a pull
// request carrying text that may contain the trigger phrase.
type Event struct {
	Repo RepositoryContext

	// Number identifies the conversation thread (issue or PR number).
	Number int

	// Body is the raw text to classify.
	Body string

	// Sender is the login of the user who produced the event.
	Sender string

	// PullRequest reports whether the thread is a pull request.
	PullRequest bool
}

// Parse decodes a webhook payload of the named event type. Supported types
// are issue_comment, issues, and pull_request; anything else is an error at
// this boundary rather than a silent no-op downstream.
func Parse(eventName string, payload []byte) (*Event, error) {
	hook, err := github.ParseWebHook(eventName, payload)
	if err != nil {
		return nil, fmt.Errorf("parsing %s payload: %w", eventName, err)
	}

	switch ev := hook.(type) {
	case *github.IssueCommentEvent:
		out := &Event{
			Repo:        repoContext(ev.GetRepo()),
			Number:      ev.GetIssue().GetNumber(),
			Body:        ev.GetComment().GetBody(),
			Sender:      ev.GetSender().GetLogin(),
			PullRequest: ev.GetIssue().IsPullRequest(),
		}
		return validated(out)

	case *github.IssuesEvent:
		out := &Event{
			Repo:   repoContext(ev.GetRepo()),
			Number: ev.GetIssue().GetNumber(),
			Body:   ev.GetIssue().GetBody(),
			Sender: ev.GetSender().GetLogin(),
		}
		return validated(out)

	case *github.PullRequestEvent:
		pr := ev.GetPullRequest()
		out := &Event{
			Repo:        repoContext(ev.GetRepo()),
			Number:      pr.GetNumber(),
			Body:        pr.GetBody(),
			Sender:      ev.GetSender().GetLogin(),
			PullRequest: true,
		}
		out.Repo.HeadRef = pr.GetHead().GetRef()
		out.Repo.BaseRef = pr.GetBase().GetRef()
		return validated(out)

	default:
		return nil, fmt.Errorf("unsupported event type %q", eventName)
	}
}

func repoContext(repo *github.Repository) RepositoryContext {
	rc := RepositoryContext{
		FullName:        repo.GetFullName(),
		CloneURL:        repo.GetCloneURL(),
		DefaultBranch:   repo.GetDefaultBranch(),
		PrimaryLanguage: repo.GetLanguage(),
	}
	// Issue threads carry no ref information; the default branch is both
	// the checkout target and the diff base until a PR says otherwise.
	rc.HeadRef = rc.DefaultBranch
	rc.BaseRef = rc.DefaultBranch
	return rc
}

func validated(ev *Event) (*Event, error) {
	switch {
	case ev.Repo.FullName == "" || !strings.Contains(ev.Repo.FullName, "/"):
		return nil, errors.New("event repository has no usable full name")
	case ev.Repo.CloneURL == "":
		return nil, errors.New("event repository has no clone URL")
	case ev.Number == 0:
		return nil, errors.New("event has no thread number")
	}
	if ev.Repo.DefaultBranch == "" {
		ev.Repo.DefaultBranch = "main"
	}
	if ev.Repo.HeadRef == "" {
		ev.Repo.HeadRef = ev.Repo.DefaultBranch
	}
	if ev.Repo.BaseRef == "" {
		ev.Repo.BaseRef = ev.Repo.DefaultBranch
	}
	return ev, nil
}
