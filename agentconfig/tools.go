/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package agentconfig

import "github.com/invopop/jsonschema"

// Input parameter shapes for the tool grants. Schemas are reflected from
// these structs so the document and the Go types cannot drift.

type readFileInput struct {
	Path string `json:"path" jsonschema:"required,description=Workspace-relative path to read"`
}

type writeFileInput struct {
	Path    string `json:"path" jsonschema:"required,description=Workspace-relative path to write"`
	Content string `json:"content" jsonschema:"required,description=Full new file content"`
}

type searchInput struct {
	Pattern string `json:"pattern" jsonschema:"required,description=Regular expression to search for"`
	Glob    string `json:"glob,omitempty" jsonschema:"description=Optional filename glob restricting the search"`
}

type runCommandInput struct {
	Command string `json:"command" jsonschema:"required,description=Shell command to run in the workspace"`
}

type applyPatchInput struct {
	Patch string `json:"patch" jsonschema:"required,description=Unified diff to apply to the workspace"`
}

type emitPatchInput struct {
	Patch string `json:"patch" jsonschema:"required,description=Unified diff describing all proposed changes"`
}

type emitSummaryInput struct {
	Summary string `json:"summary" jsonschema:"required,description=Human-readable summary of the work performed"`
}

var reflector = jsonschema.Reflector{
	RequiredFromJSONSchemaTags: true,
	ExpandedStruct:             true,
	DoNotReference:             true,
}

func grant[T any](name, description string) ToolGrant {
	var zero T
	return ToolGrant{
		Name:        name,
		Description: description,
		InputSchema: reflector.Reflect(&zero),
	}
}

// richToolSet is granted to tool-calling-capable models.
func richToolSet() []ToolGrant {
	return []ToolGrant{
		grant[readFileInput]("read_file", "Read a file from the workspace."),
		grant[writeFileInput]("write_file", "Create or overwrite a file in the workspace."),
		grant[searchInput]("search", "Search workspace files for a pattern."),
		grant[runCommandInput]("run_command", "Run a shell command inside the workspace."),
		grant[applyPatchInput]("apply_patch", "Apply a unified diff to the workspace."),
		grant[emitSummaryInput]("emit_summary", "Report the final summary of the work."),
	}
}

// textToolSet is the constrained action vocabulary for models without
// native tool calling: they may only emit a patch and a summary as fenced
// blocks, which the runner applies on their behalf.
func textToolSet() []ToolGrant {
	return []ToolGrant{
		grant[emitPatchInput]("emit_patch", "Emit a unified diff with every proposed change."),
		grant[emitSummaryInput]("emit_summary", "Report the final summary of the work."),
	}
}

// filterTools keeps only grants whose names appear in allowed. An empty
// allowlist keeps everything.
func filterTools(grants []ToolGrant, allowed []string) []ToolGrant {
	if len(allowed) == 0 {
		return grants
	}
	keep := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		keep[name] = true
	}
	out := make([]ToolGrant, 0, len(grants))
	for _, g := range grants {
		if keep[g.Name] {
			out = append(out, g)
		}
	}
	return out
}
