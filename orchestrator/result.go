/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package orchestrator

import (
	"time"

	"chainguard.dev/sweagent/executor"
	"chainguard.dev/sweagent/providers"
	"chainguard.dev/sweagent/trigger"
	"chainguard.dev/sweagent/workspace"
)

// Status is the terminal state of a job.
type Status string

const (
	// StatusSuccess means an attempt completed and produced changes (or the
	// command did not call for any).
	StatusSuccess Status = "success"

	// StatusPartial means an attempt completed but produced no changes for a
	// command that asked for them.
	StatusPartial Status = "partial"

	// StatusFailed means no attempt completed.
	StatusFailed Status = "failed"

	// StatusTimedOut means the job hit a deadline. Deadlines are terminal:
	// no further candidate is tried.
	StatusTimedOut Status = "timed_out"
)

// Reason explains a non-success terminal state.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonConfig    Reason = "config"
	ReasonWorkspace Reason = "workspace"
	ReasonExhausted Reason = "exhausted"
	ReasonDeadline  Reason = "deadline"
	ReasonCost      Reason = "cost"
	ReasonInternal  Reason = "internal"
)

// Attempt is the record of one agent execution against one candidate.
type Attempt struct {
	Provider  providers.ID
	Model     string
	Outcome   executor.Status
	ErrorKind executor.ErrorKind
	Duration  time.Duration
}

// Result is everything the reporter needs to close out a job.
type Result struct {
	Status       Status
	Reason       Reason
	Command      *trigger.Command
	Attempts     []Attempt
	Patch        string
	ChangedFiles []workspace.FileChange
	Summary      string
	CostEstimate float64
	Elapsed      time.Duration
}

// Succeeded reports whether the job produced a usable outcome.
func (r *Result) Succeeded() bool {
	return r.Status == StatusSuccess || r.Status == StatusPartial
}
