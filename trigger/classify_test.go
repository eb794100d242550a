/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trigger

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewClassifier(t *testing.T) {
	t.Parallel()

	for _, phrase := range []string{"", "   ", "two words"} {
		if _, err := NewClassifier(phrase); err == nil {
			t.Errorf("NewClassifier(%q): expected error", phrase)
		}
	}
	if _, err := NewClassifier("@swe-agent"); err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
}

func TestClassifyNoTrigger(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier("@swe-agent")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	for _, text := range []string{
		"",
		"just a regular comment",
		"mentions swe-agent without the at sign",
		"email-like @swe-agent-bot is a different token",
		"@swe-agentx fix this",
	} {
		cmd := c.Classify(text)
		if cmd.Type != TypeUnknown {
			t.Errorf("Classify(%q).Type = %q, want unknown", text, cmd.Type)
		}
		if cmd.RawText != text {
			t.Errorf("Classify(%q) did not preserve raw text", text)
		}
	}
}

func TestClassifyVerbs(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier("@swe-agent")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	tests := []struct {
		name string
		text string
		want Command
	}{{
		name: "fix with file arg",
		text: "@swe-agent fix files: src/a.js",
		want: Command{
			Type:     TypeFix,
			Args:     map[string]string{"files": "src/a.js"},
			FileRefs: []string{"src/a.js"},
		},
	}, {
		name: "case-insensitive phrase and verb",
		text: "Please @SWE-Agent REVIEW this change",
		want: Command{
			Type:    TypeReview,
			Request: "this change",
			Args:    map[string]string{},
		},
	}, {
		name: "first verb wins",
		text: "@swe-agent refactor then test everything",
		want: Command{
			Type:    TypeRefactor,
			Request: "then test everything",
			Args:    map[string]string{},
		},
	}, {
		name: "explain rides the opinion path",
		text: "@swe-agent explain the retry loop",
		want: Command{
			Type:    TypeOpinion,
			Request: "the retry loop",
			Args:    map[string]string{},
		},
	}, {
		name: "free-form request",
		text: "@swe-agent what do you think about pkg/server.go?",
		want: Command{
			Type:     TypeOpinion,
			Request:  "what do you think about pkg/server.go?",
			FileRefs: []string{"pkg/server.go"},
			Args:     map[string]string{},
		},
	}, {
		name: "urgent flag",
		text: "@swe-agent fix urgent the build is red",
		want: Command{
			Type:    TypeFix,
			Request: "the build is red",
			Args:    map[string]string{"urgent": "true"},
			Urgent:  true,
		},
	}, {
		name: "priority arg sets urgency",
		text: "@swe-agent fix priority: high flaky test",
		want: Command{
			Type:    TypeFix,
			Request: "flaky test",
			Args:    map[string]string{"priority": "high"},
			Urgent:  true,
		},
	}, {
		name: "double-dash flags",
		text: "@swe-agent analyze --depth=3 --verbose internal/cache",
		want: Command{
			Type:     TypeAnalyze,
			Request:  "internal/cache",
			Args:     map[string]string{"depth": "3", "verbose": "true"},
			FileRefs: []string{"internal/cache"},
		},
	}, {
		name: "compact key:value",
		text: "@swe-agent test branch:release-1.2",
		want: Command{
			Type: TypeTest,
			Args: map[string]string{"branch": "release-1.2"},
		},
	}, {
		name: "extension-only file reference",
		text: "@swe-agent review main.go please",
		want: Command{
			Type:     TypeReview,
			Request:  "main.go please",
			FileRefs: []string{"main.go"},
			Args:     map[string]string{},
		},
	}, {
		name: "duplicate file references collapse",
		text: "@swe-agent fix src/a.js and src/a.js again",
		want: Command{
			Type:     TypeFix,
			Request:  "src/a.js and src/a.js again",
			FileRefs: []string{"src/a.js"},
			Args:     map[string]string{},
		},
	}}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := c.Classify(tc.text)
			tc.want.RawText = tc.text
			if tc.want.Args == nil {
				tc.want.Args = map[string]string{}
			}
			if diff := cmp.Diff(&tc.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestClassifyPhraseAlone(t *testing.T) {
	t.Parallel()

	c, err := NewClassifier("@swe-agent")
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}

	// The phrase with nothing after it carries no request to act on.
	for _, text := range []string{"@swe-agent", "hey @swe-agent", "  @swe-agent  "} {
		cmd := c.Classify(text)
		if cmd.Type != TypeUnknown {
			t.Errorf("Classify(%q).Type = %q, want unknown", text, cmd.Type)
		}
	}
}
