/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package trigger

// CommandType identifies the intent of a classified command.
type CommandType string

const (
	TypeFix      CommandType = "fix"
	TypeAnalyze  CommandType = "analyze"
	TypeReview   CommandType = "review"
	TypeTest     CommandType = "test"
	TypeRefactor CommandType = "refactor"
	TypeOpinion  CommandType = "opinion"
	TypeUnknown  CommandType = "unknown"
)

// Command is the typed form of one comment/issue/PR body. It is produced
// once by Classifier.Classify and never mutated afterwards.
type Command struct {
	// Type is the classified intent. TypeUnknown means the trigger phrase
	// was absent and the event should be ignored.
	Type CommandType

	// RawText is the original event text, unmodified.
	RawText string

	// Request is the free-form text following the trigger phrase, with
	// flag tokens removed. For TypeOpinion this is the question itself.
	Request string

	// Args holds `key: value` pairs and bare flags (value "true") that
	// followed the trigger phrase.
	Args map[string]string

	// FileRefs lists path-like tokens in the order they appeared.
	FileRefs []string

	// Urgent is set when the urgency flag was present.
	Urgent bool
}
