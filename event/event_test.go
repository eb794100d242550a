/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const commentPayload = `{
  "action": "created",
  "issue": {
    "number": 42,
    "pull_request": {"url": "https://api.github.com/repos/octo/widgets/pulls/42"}
  },
  "comment": {"body": "@swe-agent fix files: src/a.js"},
  "repository": {
    "full_name": "octo/widgets",
    "clone_url": "https://github.com/octo/widgets.git",
    "default_branch": "main",
    "language": "JavaScript"
  },
  "sender": {"login": "octocat"}
}`

const prPayload = `{
  "action": "opened",
  "number": 7,
  "pull_request": {
    "number": 7,
    "body": "@swe-agent review",
    "head": {"ref": "feature/retry"},
    "base": {"ref": "main"}
  },
  "repository": {
    "full_name": "octo/widgets",
    "clone_url": "https://github.com/octo/widgets.git",
    "default_branch": "main",
    "language": "Go"
  },
  "sender": {"login": "octocat"}
}`

func TestParseIssueComment(t *testing.T) {
	t.Parallel()

	got, err := Parse("issue_comment", []byte(commentPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := &Event{
		Repo: RepositoryContext{
			FullName:        "octo/widgets",
			CloneURL:        "https://github.com/octo/widgets.git",
			DefaultBranch:   "main",
			HeadRef:         "main",
			BaseRef:         "main",
			PrimaryLanguage: "JavaScript",
		},
		Number:      42,
		Body:        "@swe-agent fix files: src/a.js",
		Sender:      "octocat",
		PullRequest: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParsePullRequest(t *testing.T) {
	t.Parallel()

	got, err := Parse("pull_request", []byte(prPayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Repo.HeadRef != "feature/retry" || got.Repo.BaseRef != "main" {
		t.Errorf("refs = %q..%q, want feature/retry..main", got.Repo.BaseRef, got.Repo.HeadRef)
	}
	if !got.PullRequest {
		t.Error("expected PullRequest to be set")
	}
	if got.Number != 7 {
		t.Errorf("Number = %d, want 7", got.Number)
	}
}

func TestParseRejectsUnsupported(t *testing.T) {
	t.Parallel()

	if _, err := Parse("workflow_run", []byte(`{}`)); err == nil {
		t.Fatal("expected error for unsupported event type")
	}
}

func TestParseRejectsIncomplete(t *testing.T) {
	t.Parallel()

	payload := `{
	  "action": "created",
	  "issue": {"number": 1},
	  "comment": {"body": "hi"},
	  "repository": {"full_name": "octo/widgets"},
	  "sender": {"login": "octocat"}
	}`
	if _, err := Parse("issue_comment", []byte(payload)); err == nil {
		t.Fatal("expected error for payload without clone URL")
	}
}

func TestRepositoryContextSplitsFullName(t *testing.T) {
	t.Parallel()

	rc := RepositoryContext{FullName: "octo/widgets"}
	if rc.Owner() != "octo" || rc.Name() != "widgets" {
		t.Fatalf("Owner/Name = %q/%q", rc.Owner(), rc.Name())
	}
}
