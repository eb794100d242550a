/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package trigger parses raw event text into typed commands. Classification
// never fails: text that does not contain the configured trigger phrase
// yields a command of TypeUnknown.
package trigger

import (
	"errors"
	"strings"
)

// verbs maps the fixed vocabulary of leading verbs to command types. An
// "explain" request is answered in prose rather than with a patch, so it
// rides the opinion path.
var verbs = map[string]CommandType{
	"fix":      TypeFix,
	"analyze":  TypeAnalyze,
	"review":   TypeReview,
	"test":     TypeTest,
	"refactor": TypeRefactor,
	"explain":  TypeOpinion,
}

// fileExtensions are the suffixes that mark a token as a file reference even
// when it contains no path separator.
var fileExtensions = []string{
	".go", ".js", ".jsx", ".ts", ".tsx", ".py", ".rb", ".rs", ".java",
	".c", ".cc", ".cpp", ".h", ".hpp", ".cs", ".sh", ".sql",
	".md", ".yaml", ".yml", ".json", ".toml", ".proto", ".tf",
}

// Classifier detects a configured trigger phrase and parses the text that
// follows it. The zero value is not usable; construct with NewClassifier.
type Classifier struct {
	phrase string
}

// NewClassifier returns a classifier for the given trigger phrase, matched
// case-insensitively as a whole-word token.
func NewClassifier(phrase string) (*Classifier, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return nil, errors.New("trigger phrase cannot be empty")
	}
	if len(strings.Fields(phrase)) != 1 {
		return nil, errors.New("trigger phrase must be a single token")
	}
	return &Classifier{phrase: phrase}, nil
}

// Classify parses raw event text into a Command. It never fails; absent or
// unparseable triggers produce TypeUnknown.
func (c *Classifier) Classify(raw string) *Command {
	cmd := &Command{
		Type:    TypeUnknown,
		RawText: raw,
		Args:    map[string]string{},
	}

	tokens := strings.Fields(raw)
	start := -1
	for i, tok := range tokens {
		if strings.EqualFold(trimPunct(tok), c.phrase) {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return cmd
	}

	rest := tokens[start:]
	if len(rest) == 0 {
		// The phrase alone carries no request; there is nothing to run a
		// job on.
		return cmd
	}

	var free []string
	verbSeen := false

	for i := 0; i < len(rest); i++ {
		tok := rest[i]

		// Explicit flags: --name or --name=value.
		if name, ok := strings.CutPrefix(tok, "--"); ok && name != "" {
			if k, v, found := strings.Cut(name, "="); found {
				cmd.Args[strings.ToLower(k)] = v
			} else {
				cmd.Args[strings.ToLower(name)] = "true"
			}
			continue
		}

		// `key:` followed by a value token, or `key:value` in one token.
		if key, ok := strings.CutSuffix(tok, ":"); ok && isWord(key) {
			if i+1 < len(rest) {
				i++
				cmd.Args[strings.ToLower(key)] = trimPunct(rest[i])
				noteFileRef(cmd, rest[i])
			} else {
				cmd.Args[strings.ToLower(key)] = ""
			}
			continue
		}
		if key, val, found := strings.Cut(tok, ":"); found && isWord(key) && val != "" && !strings.HasPrefix(val, "/") {
			cmd.Args[strings.ToLower(key)] = trimPunct(val)
			noteFileRef(cmd, val)
			continue
		}

		word := strings.ToLower(trimPunct(tok))
		if t, ok := verbs[word]; ok && !verbSeen {
			// First known verb after the trigger phrase wins.
			cmd.Type = t
			verbSeen = true
			continue
		}

		if word == "urgent" || word == "asap" {
			cmd.Args[word] = "true"
			continue
		}

		noteFileRef(cmd, tok)
		free = append(free, tok)
	}

	cmd.Request = strings.Join(free, " ")

	// Anything after the phrase that never named a verb is a free-form
	// request for the agent's take on something.
	if !verbSeen {
		cmd.Type = TypeOpinion
	}

	cmd.Urgent = cmd.Args["urgent"] == "true" ||
		cmd.Args["asap"] == "true" ||
		strings.EqualFold(cmd.Args["priority"], "high")

	return cmd
}

// noteFileRef appends tok to the command's file references when it looks
// like a path, deduplicating while preserving order.
func noteFileRef(cmd *Command, tok string) {
	ref := trimPunct(tok)
	if !isFileRef(ref) {
		return
	}
	for _, existing := range cmd.FileRefs {
		if existing == ref {
			return
		}
	}
	cmd.FileRefs = append(cmd.FileRefs, ref)
}

func isFileRef(tok string) bool {
	if tok == "" || strings.HasPrefix(tok, "http://") || strings.HasPrefix(tok, "https://") {
		return false
	}
	if strings.Contains(tok, "/") {
		return true
	}
	lower := strings.ToLower(tok)
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func isWord(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

// trimPunct strips surrounding punctuation a comment author might attach to
// a token, like "src/a.js," or "(urgent)".
func trimPunct(tok string) string {
	return strings.Trim(tok, ",.;!?()[]{}<>\"'`*")
}
