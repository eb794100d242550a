/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentconfig builds the configuration document the agent
// subprocess consumes. Building is pure: one document per
// (command, candidate) pair, never mutated or reused across candidates.
package agentconfig

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Protocol selects how the agent is expected to act on the workspace.
type Protocol string

const (
	// ProtocolToolCalling grants the full tool set to models that support
	// native tool calling.
	ProtocolToolCalling Protocol = "tool-calling"

	// ProtocolTextActions constrains models without tool calling to a
	// text-based action vocabulary.
	ProtocolTextActions Protocol = "text-actions"
)

// ModelBinding tells the agent which model to talk to and how. The
// credential is referenced by environment variable name only; the value is
// resolved inside the subprocess. MaxContextTokens is the candidate's
// declared context window; the agent must keep its conversation under it.
type ModelBinding struct {
	Name             string  `json:"name"`
	Endpoint         string  `json:"endpoint"`
	CredentialEnv    string  `json:"credential_env"`
	MaxTokens        int64   `json:"max_tokens"`
	MaxContextTokens int64   `json:"max_context_tokens,omitempty"`
	Temperature      float64 `json:"temperature"`
}

// ToolGrant allows the agent one named tool, with a JSON schema describing
// its input.
type ToolGrant struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"input_schema"`
}

// Problem is the task statement handed to the agent.
type Problem struct {
	Statement    string   `json:"statement"`
	Repository   string   `json:"repository"`
	BaseRef      string   `json:"base_ref"`
	HeadRef      string   `json:"head_ref"`
	Language     string   `json:"language,omitempty"`
	Files        []string `json:"files,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
}

// Config is the complete agent configuration document.
type Config struct {
	Model         ModelBinding `json:"model"`
	Protocol      Protocol     `json:"protocol"`
	Tools         []ToolGrant  `json:"tools"`
	Problem       Problem      `json:"problem"`
	WorkspacePath string       `json:"workspace_path"`
}

// Encode serializes the document for the subprocess.
func (c *Config) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding agent config: %w", err)
	}
	return data, nil
}
