/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseReport(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Report
		wantOK bool
	}{{
		name: "fenced report with surrounding prose",
		input: "I made the change.\n" +
			"```json\n" +
			`{"summary": "renamed the flag", "tokens_used": 500, "files_touched": ["cmd/main.go"]}` + "\n" +
			"```\n" +
			"Done.",
		want:   Report{Summary: "renamed the flag", TokensUsed: 500, FilesTouched: []string{"cmd/main.go"}},
		wantOK: true,
	}, {
		name:   "bare json",
		input:  `{"summary": "no fences needed"}`,
		want:   Report{Summary: "no fences needed"},
		wantOK: true,
	}, {
		name:   "windows line endings",
		input:  "```json\r\n{\"summary\": \"crlf\"}\r\n```",
		want:   Report{Summary: "crlf"},
		wantOK: true,
	}, {
		name: "first block wins",
		input: "```json\n{\"summary\": \"first\"}\n```\n" +
			"```json\n{\"summary\": \"second\"}\n```",
		want:   Report{Summary: "first"},
		wantOK: true,
	}, {
		name:   "prose only",
		input:  "Everything looks fine to me.",
		wantOK: false,
	}, {
		name:   "unfenced json of another shape stays free text",
		input:  `{"status": "done", "details": {"elapsed": 12}}`,
		wantOK: false,
	}, {
		name:   "unfenced json without summary stays free text",
		input:  `{"tokens_used": 100, "files_touched": ["a.go"]}`,
		wantOK: false,
	}, {
		name:   "fenced report without summary is still accepted",
		input:  "```json\n{\"tokens_used\": 100}\n```",
		want:   Report{TokensUsed: 100},
		wantOK: true,
	}, {
		name:   "empty fenced block",
		input:  "```json\n```",
		wantOK: false,
	}, {
		name:   "malformed json",
		input:  "```json\n{\"summary\": \n```",
		wantOK: false,
	}, {
		name:   "empty input",
		input:  "",
		wantOK: false,
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseReport(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseReport ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseReport mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
