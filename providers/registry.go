/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package providers holds the static catalog of known model providers and
// selects ordered fallback chains of credentialed candidates from it.
package providers

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

// ID names a known provider. The set is closed: adding a provider means
// adding a constant here and a catalog entry below, so every lookup is
// checked at build time rather than resolved by string indexing at run time.
type ID string

const (
	ProviderAnthropic ID = "anthropic"
	ProviderOpenAI    ID = "openai"
	ProviderGoogle    ID = "google"
	ProviderDeepSeek  ID = "deepseek"
)

// Candidate is one provider/model pairing a job may execute against.
// CredentialEnv names the environment variable the agent subprocess resolves;
// the secret value itself never passes through this package.
type Candidate struct {
	ID                   ID
	Model                string
	APIBase              string
	CredentialEnv        string
	CostPerMillionTokens float64
	SupportsToolCalling  bool
	MaxContextTokens     int64
	MaxOutputTokens      int64
}

// Key identifies a candidate for deduplication within a chain.
func (c Candidate) Key() string {
	return string(c.ID) + "/" + c.Model
}

// catalog is the exhaustive per-provider preset table. Default model names
// come from the provider SDKs where one exists, so a bumped SDK surfaces a
// renamed model at build time.
var catalog = map[ID]Candidate{
	ProviderAnthropic: {
		ID:                   ProviderAnthropic,
		Model:                string(anthropic.ModelClaudeSonnet4_20250514),
		APIBase:              "https://api.anthropic.com",
		CredentialEnv:        "ANTHROPIC_API_KEY",
		CostPerMillionTokens: 3.0,
		SupportsToolCalling:  true,
		MaxContextTokens:     200_000,
		MaxOutputTokens:      8192,
	},
	ProviderOpenAI: {
		ID:                   ProviderOpenAI,
		Model:                openai.ChatModelGPT4o,
		APIBase:              "https://api.openai.com/v1",
		CredentialEnv:        "OPENAI_API_KEY",
		CostPerMillionTokens: 2.5,
		SupportsToolCalling:  true,
		MaxContextTokens:     128_000,
		MaxOutputTokens:      16_384,
	},
	ProviderGoogle: {
		ID:                   ProviderGoogle,
		Model:                "gemini-2.5-pro",
		APIBase:              "https://generativelanguage.googleapis.com",
		CredentialEnv:        "GEMINI_API_KEY",
		CostPerMillionTokens: 1.25,
		SupportsToolCalling:  true,
		MaxContextTokens:     1_048_576,
		MaxOutputTokens:      8192,
	},
	ProviderDeepSeek: {
		ID:                   ProviderDeepSeek,
		Model:                "deepseek-chat",
		APIBase:              "https://api.deepseek.com",
		CredentialEnv:        "DEEPSEEK_API_KEY",
		CostPerMillionTokens: 0.27,
		SupportsToolCalling:  false,
		MaxContextTokens:     64_000,
		MaxOutputTokens:      8000,
	},
}

// defaultOrder is the preference order for registry-default candidates
// appended after the requested model and explicit fallbacks.
var defaultOrder = []ID{ProviderAnthropic, ProviderOpenAI, ProviderGoogle, ProviderDeepSeek}

// Registry exposes catalog lookups, optionally adjusted by deployment
// overrides. It is immutable after construction and safe for concurrent use.
type Registry struct {
	overrides map[ID]Override
}

// Option configures a Registry.
type Option func(*Registry)

// WithOverrides applies per-provider catalog overrides, typically loaded
// from a deployment's providers file.
func WithOverrides(o map[ID]Override) Option {
	return func(r *Registry) { r.overrides = o }
}

// NewRegistry constructs a Registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lookup resolves a model name to a candidate. Known default models match
// exactly; other names are routed to a provider by family prefix and inherit
// that provider's preset. The second return is false when the name cannot be
// attributed to any known provider.
func (r *Registry) Lookup(model string) (Candidate, bool) {
	model = strings.TrimSpace(model)
	if model == "" {
		return Candidate{}, false
	}

	id, ok := providerForModel(model)
	if !ok {
		return Candidate{}, false
	}

	cand := r.preset(id)
	cand.Model = model
	return cand, true
}

// Defaults returns the registry-default candidates in preference order.
func (r *Registry) Defaults() []Candidate {
	out := make([]Candidate, 0, len(defaultOrder))
	for _, id := range defaultOrder {
		out = append(out, r.preset(id))
	}
	return out
}

func (r *Registry) preset(id ID) Candidate {
	cand := catalog[id]
	if o, ok := r.overrides[id]; ok {
		if o.APIBase != "" {
			cand.APIBase = o.APIBase
		}
		if o.CredentialEnv != "" {
			cand.CredentialEnv = o.CredentialEnv
		}
		if o.CostPerMillionTokens > 0 {
			cand.CostPerMillionTokens = o.CostPerMillionTokens
		}
	}
	return cand
}

func providerForModel(model string) (ID, bool) {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "claude"):
		return ProviderAnthropic, true
	case strings.HasPrefix(lower, "gpt"),
		strings.HasPrefix(lower, "o1"),
		strings.HasPrefix(lower, "o3"),
		strings.HasPrefix(lower, "o4"),
		strings.HasPrefix(lower, "chatgpt"):
		return ProviderOpenAI, true
	case strings.HasPrefix(lower, "gemini"):
		return ProviderGoogle, true
	case strings.HasPrefix(lower, "deepseek"):
		return ProviderDeepSeek, true
	}
	return "", false
}
