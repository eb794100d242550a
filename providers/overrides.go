/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package providers

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Override adjusts one provider's catalog entry for a deployment, e.g. to
// route through a proxy endpoint or rename the credential variable. Zero
// fields leave the catalog value untouched.
type Override struct {
	APIBase              string  `yaml:"apiBase"`
	CredentialEnv        string  `yaml:"credentialEnv"`
	CostPerMillionTokens float64 `yaml:"costPerMillionTokens"`
}

// LoadOverrides reads a YAML document mapping provider ids to overrides.
// Unknown provider ids are rejected so a typo fails loudly at startup
// instead of silently leaving the catalog untouched.
func LoadOverrides(r io.Reader) (map[ID]Override, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading overrides: %w", err)
	}

	raw := map[string]Override{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing overrides: %w", err)
	}

	out := make(map[ID]Override, len(raw))
	for name, o := range raw {
		id := ID(name)
		if _, ok := catalog[id]; !ok {
			return nil, fmt.Errorf("unknown provider id %q in overrides", name)
		}
		if o.CostPerMillionTokens < 0 {
			return nil, fmt.Errorf("provider %q: cost rate cannot be negative", name)
		}
		out[id] = o
	}
	return out, nil
}
