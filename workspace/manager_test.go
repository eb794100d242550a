/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"chainguard.dev/sweagent/event"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func initTestRepo(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit: %v", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree: %v", err)
	}

	file := filepath.Join(dir, "main.go")
	if err := os.WriteFile(file, []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := wt.Add("main.go"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("master"))); err != nil {
		t.Fatalf("SetReference: %v", err)
	}

	return dir, hash.String()
}

func testContext(t *testing.T, repoDir string) (context.Context, event.RepositoryContext) {
	t.Helper()

	remoteURL = func(event.RepositoryContext) string { return repoDir }
	t.Cleanup(func() { remoteURL = defaultRemoteURL })

	return context.Background(), event.RepositoryContext{
		FullName:      "tests/fixture",
		CloneURL:      "https://example.invalid/tests/fixture.git",
		DefaultBranch: "master",
		HeadRef:       "master",
		BaseRef:       "master",
	}
}

func TestAcquireAndRelease(t *testing.T) {
	repoDir, headHash := initTestRepo(t)
	ctx, rc := testContext(t, repoDir)

	mgr := NewManager()
	ws, err := mgr.Acquire(ctx, rc)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	if ws.BaseSHA != headHash {
		t.Errorf("BaseSHA = %s, want %s", ws.BaseSHA, headHash)
	}
	if ws.Root == repoDir {
		t.Error("workspace must not share the remote's directory")
	}
	if !strings.HasPrefix(ws.Branch, branchPrefix) {
		t.Errorf("work branch %q missing prefix", ws.Branch)
	}
	if _, err := os.Stat(filepath.Join(ws.Root, "main.go")); err != nil {
		t.Errorf("cloned file missing: %v", err)
	}

	root := ws.Root
	mgr.Release(ctx, ws)
	if _, err := os.Stat(root); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected workspace removed, got err=%v", err)
	}

	// Releasing twice must be a no-op.
	mgr.Release(ctx, ws)
}

func TestAcquireIsolation(t *testing.T) {
	repoDir, _ := initTestRepo(t)
	ctx, rc := testContext(t, repoDir)

	mgr := NewManager()
	ws1, err := mgr.Acquire(ctx, rc)
	if err != nil {
		t.Fatalf("Acquire first: %v", err)
	}
	defer mgr.Release(ctx, ws1)

	ws2, err := mgr.Acquire(ctx, rc)
	if err != nil {
		t.Fatalf("Acquire second: %v", err)
	}
	defer mgr.Release(ctx, ws2)

	if ws1.Root == ws2.Root {
		t.Error("concurrent jobs must not share a checkout")
	}
	if ws1.Branch == ws2.Branch {
		t.Error("work branches must be unique")
	}
}

func TestExtractPatch(t *testing.T) {
	repoDir, _ := initTestRepo(t)
	ctx, rc := testContext(t, repoDir)

	mgr := NewManager()
	ws, err := mgr.Acquire(ctx, rc)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer mgr.Release(ctx, ws)

	empty, err := mgr.ExtractPatch(ctx, ws)
	if err != nil {
		t.Fatalf("ExtractPatch clean: %v", err)
	}
	if empty != "" {
		t.Errorf("expected empty patch for clean tree, got %q", empty)
	}

	if err := os.WriteFile(filepath.Join(ws.Root, "main.go"), []byte("package main\n\nfunc main() {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile modified: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.Root, "util.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatalf("WriteFile untracked: %v", err)
	}

	patch, err := mgr.ExtractPatch(ctx, ws)
	if err != nil {
		t.Fatalf("ExtractPatch dirty: %v", err)
	}
	for _, want := range []string{"main.go", "util.go", "func main() {}"} {
		if !strings.Contains(patch, want) {
			t.Errorf("patch missing %q:\n%s", want, patch)
		}
	}

	changes, err := Summarize(patch)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	byPath := map[string]FileChange{}
	for _, c := range changes {
		byPath[c.Path] = c
	}
	if got := byPath["main.go"]; got.Status != "modified" || got.Additions == 0 {
		t.Errorf("main.go change = %+v", got)
	}
	if got := byPath["util.go"]; got.Status != "added" {
		t.Errorf("util.go change = %+v", got)
	}
}

func TestResetDiscardsAttemptChanges(t *testing.T) {
	repoDir, _ := initTestRepo(t)
	ctx, rc := testContext(t, repoDir)

	mgr := NewManager()
	ws, err := mgr.Acquire(ctx, rc)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer mgr.Release(ctx, ws)

	if err := os.WriteFile(filepath.Join(ws.Root, "main.go"), []byte("package broken\n"), 0o644); err != nil {
		t.Fatalf("WriteFile modified: %v", err)
	}
	if err := os.WriteFile(filepath.Join(ws.Root, "scratch.txt"), []byte("temporary"), 0o644); err != nil {
		t.Fatalf("WriteFile untracked: %v", err)
	}

	if err := mgr.Reset(ctx, ws); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(ws.Root, "main.go"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "package main\n" {
		t.Errorf("modified file not restored, got %q", data)
	}
	if _, err := os.Stat(filepath.Join(ws.Root, "scratch.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected untracked file cleaned, got err=%v", err)
	}

	patch, err := mgr.ExtractPatch(ctx, ws)
	if err != nil {
		t.Fatalf("ExtractPatch after reset: %v", err)
	}
	if patch != "" {
		t.Errorf("expected clean tree after reset, got:\n%s", patch)
	}
}

func TestAcquireValidation(t *testing.T) {
	mgr := NewManager()
	ctx := context.Background()

	if _, err := mgr.Acquire(ctx, event.RepositoryContext{HeadRef: "main"}); err == nil {
		t.Error("expected error for missing clone URL")
	}
	if _, err := mgr.Acquire(ctx, event.RepositoryContext{CloneURL: "https://example.invalid/r.git"}); err == nil {
		t.Error("expected error for missing head ref")
	}
}
