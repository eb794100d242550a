/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package providers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/chainguard-dev/clog"
)

// Credentials reports whether a named credential is resolvable in the
// environment the agent will run in. Implementations must be read-only;
// the selector consults them exactly once per job.
type Credentials interface {
	Has(name string) bool
}

// EnvCredentials resolves credential references against the process
// environment. A variable set to the empty string counts as absent.
type EnvCredentials struct{}

// Has reports whether the named environment variable is set and non-empty.
func (EnvCredentials) Has(name string) bool {
	v, ok := os.LookupEnv(name)
	return ok && v != ""
}

// ErrEmptyChain is returned when no candidate survives credential filtering.
// This is a configuration error: the job must be reported without attempting
// execution.
var ErrEmptyChain = errors.New("no provider candidate has resolvable credentials")

// SelectChain produces the ordered fallback chain for a job: the requested
// model first, then the explicit fallbacks in their given order, then the
// registry defaults. Candidates are deduplicated by (provider, model) and
// any candidate whose credential reference does not resolve is dropped
// before execution begins. The result is deterministic for fixed inputs.
func (r *Registry) SelectChain(ctx context.Context, requested string, fallbacks []string, creds Credentials) ([]Candidate, error) {
	log := clog.FromContext(ctx)

	names := make([]string, 0, len(fallbacks)+1)
	if requested != "" {
		names = append(names, requested)
	}
	names = append(names, fallbacks...)

	var ordered []Candidate
	for _, name := range names {
		cand, ok := r.Lookup(name)
		if !ok {
			log.Warnf("Skipping unrecognized model %q", name)
			continue
		}
		ordered = append(ordered, cand)
	}
	ordered = append(ordered, r.Defaults()...)

	seen := make(map[string]bool, len(ordered))
	chain := make([]Candidate, 0, len(ordered))
	for _, cand := range ordered {
		if seen[cand.Key()] {
			continue
		}
		seen[cand.Key()] = true

		if !creds.Has(cand.CredentialEnv) {
			log.Debugf("Dropping %s: credential %s not resolvable", cand.Key(), cand.CredentialEnv)
			continue
		}
		chain = append(chain, cand)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("selecting from %d candidate(s): %w", len(ordered), ErrEmptyChain)
	}
	return chain, nil
}
