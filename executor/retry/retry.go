/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package retry provides bounded retry with exponential backoff for attempt
// outcomes that are transient rather than terminal.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/chainguard-dev/clog"
)

// Config bounds a retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseBackoff is the delay before the first retry; it doubles per retry.
	BaseBackoff time.Duration
	// MaxBackoff caps the doubling.
	MaxBackoff time.Duration
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return errors.New("max attempts must be at least 1")
	}
	if c.BaseBackoff < 0 {
		return errors.New("base backoff cannot be negative")
	}
	if c.MaxBackoff < 0 {
		return errors.New("max backoff cannot be negative")
	}
	return nil
}

// DefaultConfig allows one retry after a short pause. Transient network
// failures either clear quickly or the chain should advance.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 2,
		BaseBackoff: 2 * time.Second,
		MaxBackoff:  30 * time.Second,
	}
}

// Do runs fn up to cfg.MaxAttempts times, retrying only while transient
// reports the (value, error) pair as worth another try. The final value and
// error are returned whether or not attempts remain.
func Do[T any](ctx context.Context, cfg Config, operation string, transient func(T, error) bool, fn func() (T, error)) (T, error) {
	var result T
	var err error

	for attempt := 1; ; attempt++ {
		result, err = fn()
		if !transient(result, err) || attempt >= cfg.MaxAttempts {
			return result, err
		}

		backoff := min(cfg.BaseBackoff<<(attempt-1), cfg.MaxBackoff)
		clog.FromContext(ctx).With("operation", operation).
			With("attempt", attempt).
			With("max_attempts", cfg.MaxAttempts).
			With("backoff", backoff).
			Warn("Transient failure, retrying")

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
