/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{MaxAttempts: 2, BaseBackoff: time.Millisecond, MaxBackoff: 10 * time.Millisecond}
}

func TestDoReturnsFirstSuccess(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), "test",
		func(string, error) bool { return true },
		func() (string, error) {
			calls++
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("got %q after %d calls", got, calls)
	}
}

func TestDoRetriesTransientOnce(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(), "test",
		func(v string, _ error) bool { return v == "transient" },
		func() (string, error) {
			calls++
			if calls == 1 {
				return "transient", nil
			}
			return "ok", nil
		})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Errorf("got %q after %d calls, want ok after 2", got, calls)
	}
}

func TestDoStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	got, _ := Do(context.Background(), fastConfig(), "test",
		func(string, error) bool { return true },
		func() (string, error) {
			calls++
			return "transient", nil
		})
	if calls != 2 {
		t.Errorf("calls = %d, want exactly MaxAttempts", calls)
	}
	if got != "transient" {
		t.Errorf("got %q, want last value returned", got)
	}
}

func TestDoDoesNotRetryTerminal(t *testing.T) {
	calls := 0
	wantErr := errors.New("terminal")
	_, err := Do(context.Background(), fastConfig(), "test",
		func(_ string, err error) bool { return err == nil },
		func() (string, error) {
			calls++
			return "", wantErr
		})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{MaxAttempts: 5, BaseBackoff: time.Hour, MaxBackoff: time.Hour}
	_, err := Do(ctx, cfg, "test",
		func(string, error) bool { return true },
		func() (string, error) { return "transient", nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if err := (Config{MaxAttempts: 0}).Validate(); err == nil {
		t.Error("expected error for zero attempts")
	}
	if err := (Config{MaxAttempts: 1, BaseBackoff: -1}).Validate(); err == nil {
		t.Error("expected error for negative backoff")
	}
}
