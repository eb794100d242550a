/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Report is the structured result a well-behaved agent prints on success.
// Agents that emit only prose still succeed; the report just enriches the
// outcome with token usage and touched files.
type Report struct {
	Summary      string   `json:"summary"`
	TokensUsed   int64    `json:"tokens_used"`
	FilesTouched []string `json:"files_touched"`
}

// ParseReport extracts a structured report from agent stdout. The second
// return is false when no parseable report is present. Unfenced output is
// only accepted when it actually carries a summary: arbitrary JSON that
// happens to decode into an empty Report stays a free-text summary for the
// caller.
func ParseReport(output string) (Report, bool) {
	var report Report
	content, fenced := extractJSON(output)
	if content == "" {
		return report, false
	}
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		return Report{}, false
	}
	if !fenced && report.Summary == "" {
		return Report{}, false
	}
	return report, true
}

// extractJSON pulls JSON content out of text that may wrap it in markdown
// code fences. It looks for the first ```json block; without one it falls
// back to treating the trimmed text as JSON, reporting fenced=false so the
// caller can hold the fallback to a stricter bar.
func extractJSON(text string) (string, bool) {
	var buf bytes.Buffer
	inBlock := false
	found := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if !inBlock && line == "```json" {
			inBlock = true
			found = true
			continue
		}
		if inBlock && line == "```" {
			break
		}
		if inBlock {
			if buf.Len() > 0 {
				buf.WriteString("\n")
			}
			buf.WriteString(line)
		}
	}

	if found {
		return strings.TrimSpace(buf.String()), true
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text), false
}
