/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package orchestrator drives one job end to end: select the provider
// chain, acquire a workspace, execute candidates in order under the job
// deadline, and shape the terminal result. The failure policy lives here:
// network failures retry the same candidate once, every other failure
// advances the chain, and deadlines are always terminal.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chainguard.dev/sweagent/agentconfig"
	"chainguard.dev/sweagent/event"
	"chainguard.dev/sweagent/executor"
	"chainguard.dev/sweagent/executor/retry"
	"chainguard.dev/sweagent/metrics"
	"chainguard.dev/sweagent/providers"
	"chainguard.dev/sweagent/trigger"
	"chainguard.dev/sweagent/workspace"
	"github.com/chainguard-dev/clog"
)

// ErrNoCommand is returned when the event carries no actionable command.
// Callers treat it as "nothing to do", not as a failure to report.
var ErrNoCommand = errors.New("event contains no actionable command")

// Workspaces is the slice of the workspace manager the orchestrator needs.
type Workspaces interface {
	Acquire(ctx context.Context, rc event.RepositoryContext) (*workspace.Workspace, error)
	Reset(ctx context.Context, ws *workspace.Workspace) error
	ExtractPatch(ctx context.Context, ws *workspace.Workspace) (string, error)
	Release(ctx context.Context, ws *workspace.Workspace)
}

// Agent executes one bounded attempt.
type Agent interface {
	Run(ctx context.Context, cfg *agentconfig.Config, deadline time.Duration) (*executor.Outcome, error)
}

// Orchestrator coordinates one job per Run call. It is safe to reuse
// across jobs.
type Orchestrator struct {
	registry   *providers.Registry
	builder    *agentconfig.Builder
	workspaces Workspaces
	agent      Agent

	creds       providers.Credentials
	jobMetrics  *metrics.Job
	model       string
	fallbacks   []string
	jobDeadline time.Duration
	maxCost     float64
	retryCfg    retry.Config
}

// Option configures an Orchestrator.
type Option func(*Orchestrator) error

// WithModel sets the requested model placed at the head of the chain.
func WithModel(model string) Option {
	return func(o *Orchestrator) error {
		o.model = model
		return nil
	}
}

// WithFallbacks sets the explicit fallback models tried after the requested
// model, in order.
func WithFallbacks(models []string) Option {
	return func(o *Orchestrator) error {
		o.fallbacks = models
		return nil
	}
}

// WithJobDeadline bounds the whole job, all attempts included.
func WithJobDeadline(d time.Duration) Option {
	return func(o *Orchestrator) error {
		if d <= 0 {
			return fmt.Errorf("job deadline must be positive, got %v", d)
		}
		o.jobDeadline = d
		return nil
	}
}

// WithMaxCost sets the spend ceiling in USD. Zero means no ceiling. The
// ceiling cuts the chain between attempts; it never interrupts a running
// attempt.
func WithMaxCost(usd float64) Option {
	return func(o *Orchestrator) error {
		if usd < 0 {
			return fmt.Errorf("max cost cannot be negative, got %f", usd)
		}
		o.maxCost = usd
		return nil
	}
}

// WithCredentials overrides the credential resolver, mainly for tests.
func WithCredentials(creds providers.Credentials) Option {
	return func(o *Orchestrator) error {
		o.creds = creds
		return nil
	}
}

// WithMetrics attaches job metrics recording.
func WithMetrics(m *metrics.Job) Option {
	return func(o *Orchestrator) error {
		o.jobMetrics = m
		return nil
	}
}

// WithRetryConfig overrides the transient-failure retry policy.
func WithRetryConfig(cfg retry.Config) Option {
	return func(o *Orchestrator) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.retryCfg = cfg
		return nil
	}
}

// New constructs an Orchestrator.
func New(registry *providers.Registry, builder *agentconfig.Builder, workspaces Workspaces, agent Agent, opts ...Option) (*Orchestrator, error) {
	switch {
	case registry == nil:
		return nil, errors.New("registry cannot be nil")
	case builder == nil:
		return nil, errors.New("builder cannot be nil")
	case workspaces == nil:
		return nil, errors.New("workspaces cannot be nil")
	case agent == nil:
		return nil, errors.New("agent cannot be nil")
	}

	o := &Orchestrator{
		registry:    registry,
		builder:     builder,
		workspaces:  workspaces,
		agent:       agent,
		creds:       providers.EnvCredentials{},
		jobDeadline: 30 * time.Minute,
		retryCfg:    retry.DefaultConfig(),
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return o, nil
}

// Run executes one job. It returns ErrNoCommand for events without an
// actionable command; every other path yields a Result describing how the
// job ended, with a nil error.
func (o *Orchestrator) Run(ctx context.Context, ev *event.Event, cmd *trigger.Command) (*Result, error) {
	if ev == nil {
		return nil, errors.New("event cannot be nil")
	}
	if cmd == nil || cmd.Type == trigger.TypeUnknown {
		return nil, ErrNoCommand
	}

	log := clog.FromContext(ctx).With("repo", ev.Repo.FullName).With("command", string(cmd.Type))
	ctx = clog.WithLogger(ctx, log)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, o.jobDeadline)
	defer cancel()
	deadline, _ := ctx.Deadline()

	res := &Result{Status: StatusFailed, Command: cmd}
	defer func() { res.Elapsed = time.Since(start) }()

	chain, err := o.registry.SelectChain(ctx, o.model, o.fallbacks, o.creds)
	if err != nil {
		log.Errorf("Provider selection failed: %v", err)
		res.Reason = ReasonConfig
		res.Summary = err.Error()
		return res, nil
	}
	log.Infof("Selected %d candidate(s), job deadline %v", len(chain), o.jobDeadline)

	ws, err := o.workspaces.Acquire(ctx, ev.Repo)
	if err != nil {
		log.Errorf("Workspace acquisition failed: %v", err)
		res.Reason = ReasonWorkspace
		res.Summary = fmt.Sprintf("preparing workspace: %v", err)
		return res, nil
	}
	// Cleanup must run even when the job deadline has already fired.
	defer o.workspaces.Release(context.WithoutCancel(ctx), ws)

	for i, cand := range chain {
		if o.maxCost > 0 && res.CostEstimate >= o.maxCost {
			log.Warnf("Cost ceiling %.2f USD reached after %.4f, stopping chain", o.maxCost, res.CostEstimate)
			res.Reason = ReasonCost
			return res, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			res.Status = StatusTimedOut
			res.Reason = ReasonDeadline
			return res, nil
		}

		if i > 0 {
			if err := o.workspaces.Reset(ctx, ws); err != nil {
				log.Errorf("Workspace reset failed: %v", err)
				res.Reason = ReasonWorkspace
				res.Summary = fmt.Sprintf("resetting workspace: %v", err)
				return res, nil
			}
		}

		cfg, err := o.builder.Build(cmd, cand, ev.Repo, ws.Root)
		if err != nil {
			log.Errorf("Config build failed for %s: %v", cand.Key(), err)
			res.Reason = ReasonConfig
			res.Summary = fmt.Sprintf("building agent config: %v", err)
			return res, nil
		}

		budget := o.attemptBudget(remaining, len(chain)-i, cmd.Urgent)
		log.Infof("Attempting %s (%d/%d, budget %v)", cand.Key(), i+1, len(chain), budget)

		outcome, err := o.execute(ctx, cand, cfg, budget, res)
		if err != nil {
			if ctx.Err() != nil {
				res.Status = StatusTimedOut
				res.Reason = ReasonDeadline
				return res, nil
			}
			log.Errorf("Executing agent: %v", err)
			res.Reason = ReasonInternal
			res.Summary = fmt.Sprintf("executing agent: %v", err)
			return res, nil
		}

		switch outcome.Status {
		case executor.StatusSuccess:
			return o.finish(ctx, ws, cmd, outcome, res)

		case executor.StatusTimedOut:
			log.Warnf("Attempt %s timed out, job is terminal", cand.Key())
			res.Status = StatusTimedOut
			res.Reason = ReasonDeadline
			return res, nil

		default:
			log.Warnf("Attempt %s failed (%s), advancing chain", cand.Key(), outcome.ErrorKind)
		}
	}

	log.Errorf("All %d candidate(s) exhausted", len(chain))
	res.Reason = ReasonExhausted
	return res, nil
}

// execute runs one candidate through the transient-retry loop, recording
// every attempt (retries included) on the result and in metrics.
func (o *Orchestrator) execute(ctx context.Context, cand providers.Candidate, cfg *agentconfig.Config, budget time.Duration, res *Result) (*executor.Outcome, error) {
	transient := func(out *executor.Outcome, err error) bool {
		return err == nil && out.Status == executor.StatusFailed && out.ErrorKind.Transient()
	}

	return retry.Do(ctx, o.retryCfg, "agent "+cand.Key(), transient, func() (*executor.Outcome, error) {
		outcome, err := o.agent.Run(ctx, cfg, budget)
		if err != nil {
			return nil, err
		}

		res.Attempts = append(res.Attempts, Attempt{
			Provider:  cand.ID,
			Model:     cand.Model,
			Outcome:   outcome.Status,
			ErrorKind: outcome.ErrorKind,
			Duration:  outcome.Duration,
		})

		cost := float64(outcome.TokensUsed) * cand.CostPerMillionTokens / 1e6
		res.CostEstimate += cost

		if o.jobMetrics != nil {
			o.jobMetrics.RecordAttempt(ctx, string(cand.ID), cand.Model, string(outcome.Status), outcome.TokensUsed, outcome.Duration)
			if cost > 0 {
				o.jobMetrics.RecordCost(ctx, string(cand.ID), cand.Model, cost)
			}
		}
		return outcome, nil
	})
}

// finish extracts the patch for a successful attempt and decides between
// success and partial.
func (o *Orchestrator) finish(ctx context.Context, ws *workspace.Workspace, cmd *trigger.Command, outcome *executor.Outcome, res *Result) (*Result, error) {
	log := clog.FromContext(ctx)

	patch, err := o.workspaces.ExtractPatch(ctx, ws)
	if err != nil {
		log.Errorf("Patch extraction failed: %v", err)
		res.Reason = ReasonWorkspace
		res.Summary = fmt.Sprintf("extracting patch: %v", err)
		return res, nil
	}

	res.Patch = patch
	res.Summary = outcome.Summary
	res.Status = StatusSuccess

	if patch != "" {
		changes, err := workspace.Summarize(patch)
		if err != nil {
			log.Warnf("Patch summary failed: %v", err)
		} else {
			res.ChangedFiles = changes
		}
	} else if expectsChanges(cmd.Type) {
		log.Warnf("Agent reported success but produced no changes")
		res.Status = StatusPartial
	}

	log.Infof("Job finished %s after %d attempt(s), estimated cost %.4f USD", res.Status, len(res.Attempts), res.CostEstimate)
	return res, nil
}

// attemptBudget divides the remaining job time across the candidates still
// in the chain. Urgent commands skip the division and give the current
// candidate everything left.
func (o *Orchestrator) attemptBudget(remaining time.Duration, candidatesLeft int, urgent bool) time.Duration {
	if urgent || candidatesLeft <= 1 {
		return remaining
	}
	return remaining / time.Duration(candidatesLeft)
}

// expectsChanges reports whether a command type is supposed to modify the
// workspace.
func expectsChanges(t trigger.CommandType) bool {
	switch t {
	case trigger.TypeFix, trigger.TypeRefactor, trigger.TypeTest:
		return true
	}
	return false
}
