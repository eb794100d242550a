/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentconfig

import (
	"errors"
	"fmt"
	"strings"

	"chainguard.dev/sweagent/event"
	"chainguard.dev/sweagent/providers"
	"chainguard.dev/sweagent/trigger"
)

// statements maps command types to the task preamble the agent receives.
var statements = map[trigger.CommandType]string{
	trigger.TypeFix:      "Fix the problem described below. Make the smallest change that resolves it.",
	trigger.TypeAnalyze:  "Analyze the code described below and report findings. Do not modify files unless asked.",
	trigger.TypeReview:   "Review the change described below and report concrete, actionable feedback.",
	trigger.TypeTest:     "Write or repair tests for the code described below.",
	trigger.TypeRefactor: "Refactor the code described below without changing observable behavior.",
	trigger.TypeOpinion:  "Answer the question below about this repository. Respond in prose; do not modify files.",
}

// Builder turns (command, candidate, repository context) tuples into agent
// config documents. Construction validates the options once; Build is then
// a pure function with no I/O.
type Builder struct {
	allowedTools []string
	instructions string
	temperature  float64
	maxTokens    int64
}

// Option configures a Builder.
type Option func(*Builder) error

// WithAllowedTools restricts tool grants to the named tools.
func WithAllowedTools(names []string) Option {
	return func(b *Builder) error {
		b.allowedTools = names
		return nil
	}
}

// WithInstructions appends operator-supplied custom instructions to every
// problem statement.
func WithInstructions(text string) Option {
	return func(b *Builder) error {
		b.instructions = text
		return nil
	}
}

// WithTemperature overrides the default sampling temperature.
func WithTemperature(temp float64) Option {
	return func(b *Builder) error {
		if temp < 0.0 || temp > 1.0 {
			return fmt.Errorf("temperature must be between 0.0 and 1.0, got %f", temp)
		}
		b.temperature = temp
		return nil
	}
}

// WithMaxTokens sets the requested output budget. The effective value is
// still bounded by each candidate's declared capability.
func WithMaxTokens(tokens int64) Option {
	return func(b *Builder) error {
		if tokens <= 0 {
			return fmt.Errorf("max tokens must be positive, got %d", tokens)
		}
		b.maxTokens = tokens
		return nil
	}
}

// NewBuilder constructs a Builder.
func NewBuilder(opts ...Option) (*Builder, error) {
	b := &Builder{
		temperature: 0.1,
		maxTokens:   8192,
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}
	return b, nil
}

// Build produces the config document for one attempt. It fails only on
// structurally invalid input, which is a programmer error rather than a
// runtime condition to retry.
func (b *Builder) Build(cmd *trigger.Command, cand providers.Candidate, repo event.RepositoryContext, workspacePath string) (*Config, error) {
	switch {
	case cmd == nil:
		return nil, errors.New("command cannot be nil")
	case cmd.Type == trigger.TypeUnknown:
		return nil, errors.New("cannot build config for an unknown command")
	case repo.FullName == "":
		return nil, errors.New("repository context has no full name")
	case repo.BaseRef == "":
		return nil, errors.New("repository context has no base ref")
	case workspacePath == "":
		return nil, errors.New("workspace path cannot be empty")
	case cand.Model == "" || cand.CredentialEnv == "":
		return nil, fmt.Errorf("candidate %q is missing model or credential reference", cand.ID)
	}

	protocol := ProtocolToolCalling
	tools := richToolSet()
	if !cand.SupportsToolCalling {
		protocol = ProtocolTextActions
		tools = textToolSet()
	}

	// Bound the output budget to the candidate's declared capability so the
	// provider never truncates server-side. The output budget can never
	// exceed the context window either.
	maxTokens := b.maxTokens
	if cand.MaxOutputTokens > 0 && maxTokens > cand.MaxOutputTokens {
		maxTokens = cand.MaxOutputTokens
	}
	if cand.MaxContextTokens > 0 && maxTokens > cand.MaxContextTokens {
		maxTokens = cand.MaxContextTokens
	}

	return &Config{
		Model: ModelBinding{
			Name:             cand.Model,
			Endpoint:         cand.APIBase,
			CredentialEnv:    cand.CredentialEnv,
			MaxTokens:        maxTokens,
			MaxContextTokens: cand.MaxContextTokens,
			Temperature:      b.temperature,
		},
		Protocol: protocol,
		Tools:    filterTools(tools, b.allowedTools),
		Problem: Problem{
			Statement:    b.statement(cmd),
			Repository:   repo.FullName,
			BaseRef:      repo.BaseRef,
			HeadRef:      repo.HeadRef,
			Language:     repo.PrimaryLanguage,
			Files:        cmd.FileRefs,
			Instructions: b.instructions,
		},
		WorkspacePath: workspacePath,
	}, nil
}

func (b *Builder) statement(cmd *trigger.Command) string {
	var sb strings.Builder
	sb.WriteString(statements[cmd.Type])
	if cmd.Request != "" {
		sb.WriteString("\n\nRequest: ")
		sb.WriteString(cmd.Request)
	}
	if len(cmd.FileRefs) > 0 {
		sb.WriteString("\n\nFiles of interest: ")
		sb.WriteString(strings.Join(cmd.FileRefs, ", "))
	}
	if cmd.Urgent {
		sb.WriteString("\n\nThis request is marked urgent; prefer a direct fix over exploration.")
	}
	return sb.String()
}
