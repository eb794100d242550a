/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package executor runs the agent subprocess for one attempt: bounded by a
// deadline, scoped to a workspace, and classified on failure. The agent is
// opaque to the runner; everything it needs arrives in a config document
// and everything it reports comes back on stdout.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"chainguard.dev/sweagent/agentconfig"
	"github.com/chainguard-dev/clog"
	"golang.org/x/sync/errgroup"
)

// Status is the terminal state of one attempt.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusTimedOut Status = "timed_out"
)

// Outcome describes how one attempt ended. A failed or timed-out attempt is
// an Outcome, not an error: errors from Run mean the runner itself could not
// do its job.
type Outcome struct {
	Status       Status
	ErrorKind    ErrorKind
	Summary      string
	RawOutput    string
	TokensUsed   int64
	FilesTouched []string
	Duration     time.Duration
}

// Executor launches agent subprocesses. It is stateless across attempts and
// safe for concurrent use.
type Executor struct {
	binPath   string
	waitDelay time.Duration
}

// Option configures an Executor.
type Option func(*Executor)

// WithWaitDelay sets how long Wait allows output pipes to drain after the
// process group is killed.
func WithWaitDelay(d time.Duration) Option {
	return func(e *Executor) { e.waitDelay = d }
}

// New constructs an Executor for the given agent binary.
func New(binPath string, opts ...Option) (*Executor, error) {
	if binPath == "" {
		return nil, errors.New("agent binary path cannot be empty")
	}
	e := &Executor{
		binPath:   binPath,
		waitDelay: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes one attempt. The config is materialized to a temp file
// outside the workspace so the agent cannot diff or modify its own
// marching orders, and the subprocess runs in its own process group so a
// deadline kill takes its children with it. Credential values are never
// passed explicitly: the agent resolves the named environment variable
// from its inherited environment.
func (e *Executor) Run(ctx context.Context, cfg *agentconfig.Config, deadline time.Duration) (*Outcome, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if deadline <= 0 {
		return nil, fmt.Errorf("deadline must be positive, got %v", deadline)
	}

	cfgPath, err := writeConfig(cfg)
	if err != nil {
		return nil, err
	}
	defer os.Remove(cfgPath)

	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.binPath, "--config", cfgPath)
	cmd.Dir = cfg.WorkspacePath
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Kill the whole process group, not just the direct child.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = e.waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	log := clog.FromContext(ctx).With("model", cfg.Model.Name)
	log.Infof("Launching agent %s (deadline %v)", e.binPath, deadline)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting agent: %w", err)
	}

	var outBuf, errBuf strings.Builder
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			errBuf.WriteString(line)
			errBuf.WriteString("\n")
			log.Debugf("agent: %s", line)
		}
		return scanner.Err()
	})

	drainErr := g.Wait()
	waitErr := cmd.Wait()
	duration := time.Since(start)

	// A canceled parent context is the caller tearing the job down, not an
	// attempt outcome.
	if ctx.Err() != nil && !errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, ctx.Err()
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		log.Warnf("Agent killed after %v (deadline %v)", duration, deadline)
		return &Outcome{
			Status:    StatusTimedOut,
			ErrorKind: ErrKindNone,
			RawOutput: combined(outBuf.String(), errBuf.String()),
			Duration:  duration,
		}, nil
	}

	if drainErr != nil {
		return nil, fmt.Errorf("draining agent output: %w", drainErr)
	}

	raw := combined(outBuf.String(), errBuf.String())
	if waitErr != nil {
		kind := Classify(raw)
		log.Warnf("Agent exited non-zero after %v: %v (classified %s)", duration, waitErr, kind)
		return &Outcome{
			Status:    StatusFailed,
			ErrorKind: kind,
			RawOutput: raw,
			Duration:  duration,
		}, nil
	}

	outcome := &Outcome{
		Status:    StatusSuccess,
		ErrorKind: ErrKindNone,
		RawOutput: raw,
		Duration:  duration,
	}
	if report, ok := ParseReport(outBuf.String()); ok {
		outcome.Summary = report.Summary
		outcome.TokensUsed = report.TokensUsed
		outcome.FilesTouched = report.FilesTouched
	} else {
		outcome.Summary = strings.TrimSpace(outBuf.String())
	}
	log.Infof("Agent succeeded in %v (%d tokens)", duration, outcome.TokensUsed)
	return outcome, nil
}

// writeConfig materializes the config document to a temp file outside the
// workspace.
func writeConfig(cfg *agentconfig.Config) (string, error) {
	data, err := cfg.Encode()
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp("", "sweagent-cfg-*.json")
	if err != nil {
		return "", fmt.Errorf("creating config file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing config file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing config file: %w", err)
	}
	return f.Name(), nil
}

func combined(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}
