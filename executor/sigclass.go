/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package executor

import "strings"

// ErrorKind categorizes an agent failure by its output signature. The
// category drives the retry policy: network failures retry the same
// candidate once, auth / rate-limit / context-length failures advance to
// the next candidate, unknown failures advance too.
type ErrorKind string

const (
	ErrKindNone          ErrorKind = "none"
	ErrKindAuth          ErrorKind = "auth"
	ErrKindRateLimit     ErrorKind = "rate_limit"
	ErrKindContextLength ErrorKind = "context_length"
	ErrKindNetwork       ErrorKind = "network"
	ErrKindUnknown       ErrorKind = "unknown"
)

// signatures are checked in order; the first category with a matching
// pattern wins. Order matters: "429" must be seen as a rate limit before
// the generic auth status codes get a chance, and the patterns deliberately
// avoid bare words like "token" that appear in unrelated output.
var signatures = []struct {
	kind     ErrorKind
	patterns []string
}{{
	kind: ErrKindRateLimit,
	patterns: []string{
		"rate limit",
		"rate_limit",
		"too many requests",
		"429",
		"529",
		"quota",
		"resource_exhausted",
		"overloaded",
	},
}, {
	kind: ErrKindAuth,
	patterns: []string{
		"401",
		"403",
		"unauthorized",
		"forbidden",
		"invalid api key",
		"invalid x-api-key",
		"authentication",
		"permission denied",
	},
}, {
	kind: ErrKindContextLength,
	patterns: []string{
		"context length",
		"context_length_exceeded",
		"maximum context",
		"too many tokens",
		"prompt is too long",
	},
}, {
	kind: ErrKindNetwork,
	patterns: []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"tls handshake",
		"dns",
		"unexpected eof",
		"i/o timeout",
	},
}}

// Classify maps agent output to an error category. Output that matches no
// known signature is ErrKindUnknown.
func Classify(output string) ErrorKind {
	lowered := strings.ToLower(output)
	for _, sig := range signatures {
		for _, pattern := range sig.patterns {
			if strings.Contains(lowered, pattern) {
				return sig.kind
			}
		}
	}
	return ErrKindUnknown
}

// Transient reports whether a kind is worth retrying on the same candidate.
func (k ErrorKind) Transient() bool {
	return k == ErrKindNetwork
}
