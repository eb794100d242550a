/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report posts job results back to the thread that triggered them:
// an in-progress comment when the job starts, updated in place with the
// terminal result so the thread gets exactly one resolver comment per job.
package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chainguard.dev/sweagent/event"
	"chainguard.dev/sweagent/orchestrator"
	"chainguard.dev/sweagent/trigger"
	"github.com/chainguard-dev/clog"
)

const defaultMaxPatchBytes = 60_000

// Reporter manages the lifecycle of one job's thread comment.
type Reporter struct {
	comments      CommentAPI
	ev            *event.Event
	maxPatchBytes int

	commentID int64
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithMaxPatchBytes bounds how much of the diff is inlined in the comment.
func WithMaxPatchBytes(n int) Option {
	return func(r *Reporter) { r.maxPatchBytes = n }
}

// New constructs a Reporter for one event.
func New(comments CommentAPI, ev *event.Event, opts ...Option) (*Reporter, error) {
	if comments == nil {
		return nil, errors.New("comment API cannot be nil")
	}
	if ev == nil {
		return nil, errors.New("event cannot be nil")
	}
	r := &Reporter{
		comments:      comments,
		ev:            ev,
		maxPatchBytes: defaultMaxPatchBytes,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Start posts the in-progress comment. Failure to post is not fatal to the
// job: Finish falls back to creating a fresh comment.
func (r *Reporter) Start(ctx context.Context, cmd *trigger.Command) error {
	body := fmt.Sprintf("Working on this `%s` request. I'll update this comment when I'm done.", cmd.Type)
	id, err := r.comments.CreateComment(ctx, r.ev.Repo.Owner(), r.ev.Repo.Name(), r.ev.Number, body)
	if err != nil {
		return err
	}
	r.commentID = id
	clog.FromContext(ctx).Debugf("Posted in-progress comment %d", id)
	return nil
}

// Finish replaces the in-progress comment with the terminal result, or
// creates one if Start never succeeded.
func (r *Reporter) Finish(ctx context.Context, res *orchestrator.Result) error {
	if res == nil {
		return errors.New("result cannot be nil")
	}
	body := r.render(res)

	if r.commentID != 0 {
		return r.comments.UpdateComment(ctx, r.ev.Repo.Owner(), r.ev.Repo.Name(), r.commentID, body)
	}
	_, err := r.comments.CreateComment(ctx, r.ev.Repo.Owner(), r.ev.Repo.Name(), r.ev.Number, body)
	return err
}

func (r *Reporter) render(res *orchestrator.Result) string {
	var sb strings.Builder

	switch res.Status {
	case orchestrator.StatusSuccess:
		r.renderSuccess(&sb, res)
	case orchestrator.StatusPartial:
		r.renderPartial(&sb, res)
	case orchestrator.StatusTimedOut:
		r.renderFailure(&sb, res, "The request timed out before any candidate could finish.")
	default:
		r.renderFailure(&sb, res, "The request could not be completed.")
	}

	if len(res.Attempts) > 0 || res.CostEstimate > 0 {
		sb.WriteString("\n---\n")
		fmt.Fprintf(&sb, "_%d attempt(s)", len(res.Attempts))
		if res.CostEstimate > 0 {
			fmt.Fprintf(&sb, ", estimated cost $%.4f", res.CostEstimate)
		}
		fmt.Fprintf(&sb, ", %s elapsed._\n", res.Elapsed.Round(time.Second))
	}
	return sb.String()
}

func (r *Reporter) renderSuccess(sb *strings.Builder, res *orchestrator.Result) {
	fmt.Fprintf(sb, "Completed the `%s` request.\n\n", res.Command.Type)
	if res.Summary != "" {
		sb.WriteString(res.Summary)
		sb.WriteString("\n")
	}

	if len(res.ChangedFiles) > 0 {
		sb.WriteString("\n**Changed files**\n\n")
		for _, c := range res.ChangedFiles {
			fmt.Fprintf(sb, "- `%s` (%s, +%d/-%d)\n", c.Path, c.Status, c.Additions, c.Deletions)
		}
	}

	if res.Patch != "" {
		patch, truncated := truncate(res.Patch, r.maxPatchBytes)
		sb.WriteString("\n<details><summary>Proposed patch</summary>\n\n```diff\n")
		sb.WriteString(patch)
		if !strings.HasSuffix(patch, "\n") {
			sb.WriteString("\n")
		}
		sb.WriteString("```\n")
		if truncated {
			sb.WriteString("\n_Patch truncated for display._\n")
		}
		sb.WriteString("\n</details>\n")
	}
}

func (r *Reporter) renderPartial(sb *strings.Builder, res *orchestrator.Result) {
	fmt.Fprintf(sb, "Completed the `%s` request, but no code changes came out of it.\n\n", res.Command.Type)
	if res.Summary != "" {
		sb.WriteString(res.Summary)
		sb.WriteString("\n")
	}
	sb.WriteString("\nIf you expected changes, consider rephrasing the request or pointing at specific files.\n")
}

func (r *Reporter) renderFailure(sb *strings.Builder, res *orchestrator.Result, headline string) {
	fmt.Fprintf(sb, "%s\n", headline)

	if len(res.Attempts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(attemptTable(res.Attempts))
	}

	if advice := remediation(res); advice != "" {
		fmt.Fprintf(sb, "\n**What to try**: %s\n", advice)
	}
}

// remediation maps a terminal reason (and the error kinds seen on the way
// there) to concrete advice for the requester.
func remediation(res *orchestrator.Result) string {
	switch res.Reason {
	case orchestrator.ReasonConfig:
		return "No usable provider is configured. Check that at least one provider API key is available to the resolver."
	case orchestrator.ReasonWorkspace:
		return "The repository could not be checked out. Verify the resolver's repository access and try again."
	case orchestrator.ReasonDeadline:
		return "Break the request into smaller pieces, or ask an operator to raise the job deadline."
	case orchestrator.ReasonCost:
		return "The spend ceiling was reached. Narrow the request, or ask an operator to raise the ceiling."
	case orchestrator.ReasonInternal:
		return "The resolver hit an internal error. Retrying the request may help; otherwise contact an operator."
	case orchestrator.ReasonExhausted:
		return exhaustedAdvice(res.Attempts)
	}
	return ""
}

func exhaustedAdvice(attempts []orchestrator.Attempt) string {
	kinds := map[string]bool{}
	for _, a := range attempts {
		kinds[string(a.ErrorKind)] = true
	}
	switch {
	case kinds["auth"]:
		return "Every candidate failed, at least one on authentication. Check that the configured API keys are valid."
	case kinds["context_length"]:
		return "Every candidate failed, at least one on context length. Narrow the request or point at fewer files."
	case kinds["rate_limit"]:
		return "Every candidate failed, at least one on rate limits. Retry the request in a few minutes."
	}
	return "Every candidate failed. Retrying may help; the attempt table above shows what each one hit."
}

func truncate(s string, n int) (string, bool) {
	if n <= 0 || len(s) <= n {
		return s, false
	}
	// Cut on a line boundary so the fenced diff stays well-formed.
	cut := s[:n]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	}
	return cut, true
}
