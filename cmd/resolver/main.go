/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the request resolver: one invocation handles one
// code-hosting event, runs the agent job it describes, and reports the
// result back to the originating thread before exiting.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chainguard.dev/sweagent/agentconfig"
	"chainguard.dev/sweagent/event"
	"chainguard.dev/sweagent/executor"
	"chainguard.dev/sweagent/metrics"
	"chainguard.dev/sweagent/orchestrator"
	"chainguard.dev/sweagent/providers"
	"chainguard.dev/sweagent/report"
	"chainguard.dev/sweagent/trigger"
	"chainguard.dev/sweagent/workspace"
	"github.com/chainguard-dev/clog"
	"github.com/sethvargo/go-envconfig"
)

type config struct {
	// Event input: a webhook payload on disk plus its event type.
	EventPath string `env:"EVENT_PATH,required"`
	EventName string `env:"EVENT_NAME,default=issue_comment"`

	// Trigger and model selection.
	TriggerPhrase  string   `env:"TRIGGER_PHRASE,default=@swe-agent"`
	Model          string   `env:"MODEL"`
	FallbackModels []string `env:"FALLBACK_MODELS"`
	ProvidersFile  string   `env:"PROVIDERS_FILE"`

	// Job bounds.
	JobDeadline      time.Duration `env:"JOB_DEADLINE,default=30m"`
	WorkspaceTimeout time.Duration `env:"WORKSPACE_TIMEOUT,default=5m"`
	MaxCostUSD       float64       `env:"MAX_COST_USD,default=0"`

	// Agent configuration.
	AgentBin           string   `env:"AGENT_BIN,required"`
	AllowedTools       []string `env:"ALLOWED_TOOLS"`
	CustomInstructions string   `env:"CUSTOM_INSTRUCTIONS"`

	// Platform authentication: a token, or an app installation.
	GitHubToken    string `env:"GITHUB_TOKEN"`
	AppID          int64  `env:"GITHUB_APP_ID"`
	InstallationID int64  `env:"GITHUB_INSTALLATION_ID"`
	PrivateKeyPath string `env:"GITHUB_APP_PRIVATE_KEY_PATH"`

	Debug bool `env:"DEBUG,default=false"`
}

func main() {
	os.Exit(run())
}

// run carries the real flow so deferred cleanup fires before the exit code
// is surfaced.
func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		clog.ErrorContextf(ctx, "processing config: %v", err)
		return 1
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	log := clog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	ctx = clog.WithLogger(ctx, log)

	payload, err := os.ReadFile(cfg.EventPath)
	if err != nil {
		log.Errorf("Reading event payload: %v", err)
		return 1
	}
	ev, err := event.Parse(cfg.EventName, payload)
	if err != nil {
		log.Errorf("Parsing event: %v", err)
		return 1
	}

	classifier, err := trigger.NewClassifier(cfg.TriggerPhrase)
	if err != nil {
		log.Errorf("Building classifier: %v", err)
		return 1
	}
	cmd := classifier.Classify(ev.Body)
	if cmd.Type == trigger.TypeUnknown {
		// Not addressed to us. Exit silently so untriggered threads never
		// see resolver chatter.
		log.Debugf("No trigger phrase in %s#%d, nothing to do", ev.Repo.FullName, ev.Number)
		return 0
	}
	log.Infof("Handling %s request on %s#%d from %s", cmd.Type, ev.Repo.FullName, ev.Number, ev.Sender)

	registry, err := buildRegistry(cfg)
	if err != nil {
		log.Errorf("Building provider registry: %v", err)
		return 1
	}

	gh, tokenSource, err := event.NewClient(ctx, event.ClientOptions{
		Token:          cfg.GitHubToken,
		AppID:          cfg.AppID,
		InstallationID: cfg.InstallationID,
		PrivateKeyPath: cfg.PrivateKeyPath,
	})
	if err != nil {
		log.Errorf("Building platform client: %v", err)
		return 1
	}

	builder, err := agentconfig.NewBuilder(
		agentconfig.WithAllowedTools(cfg.AllowedTools),
		agentconfig.WithInstructions(cfg.CustomInstructions),
	)
	if err != nil {
		log.Errorf("Building config builder: %v", err)
		return 1
	}

	agent, err := executor.New(cfg.AgentBin)
	if err != nil {
		log.Errorf("Building executor: %v", err)
		return 1
	}

	workspaces := workspace.NewManager(
		workspace.WithTokenSource(tokenSource),
		workspace.WithCloneTimeout(cfg.WorkspaceTimeout),
	)

	orch, err := orchestrator.New(registry, builder, workspaces, agent,
		orchestrator.WithModel(cfg.Model),
		orchestrator.WithFallbacks(cfg.FallbackModels),
		orchestrator.WithJobDeadline(cfg.JobDeadline),
		orchestrator.WithMaxCost(cfg.MaxCostUSD),
		orchestrator.WithMetrics(metrics.NewJob("chainguard.sweagent")),
	)
	if err != nil {
		log.Errorf("Building orchestrator: %v", err)
		return 1
	}

	reporter, err := report.New(report.NewGitHubComments(gh), ev)
	if err != nil {
		log.Errorf("Building reporter: %v", err)
		return 1
	}
	if err := reporter.Start(ctx, cmd); err != nil {
		// Not fatal: Finish falls back to creating a fresh comment.
		log.Warnf("Posting in-progress comment: %v", err)
	}

	res, err := orch.Run(ctx, ev, cmd)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoCommand) {
			return 0
		}
		log.Errorf("Running job: %v", err)
		return 1
	}

	// The comment goes out before the process decides its exit code, so the
	// thread hears back even on failure.
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
	defer finishCancel()
	if err := reporter.Finish(finishCtx, res); err != nil {
		log.Errorf("Reporting result: %v", err)
	}

	log.Infof("Job finished %s (reason %q) after %d attempt(s)", res.Status, res.Reason, len(res.Attempts))
	if res.Succeeded() {
		return 0
	}
	return 1
}

func buildRegistry(cfg config) (*providers.Registry, error) {
	if cfg.ProvidersFile == "" {
		return providers.NewRegistry(), nil
	}
	f, err := os.Open(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	overrides, err := providers.LoadOverrides(f)
	if err != nil {
		return nil, err
	}
	return providers.NewRegistry(providers.WithOverrides(overrides)), nil
}
