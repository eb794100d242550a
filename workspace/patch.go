/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package workspace

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/waigani/diffparser"
)

// FileChange summarizes one file in an extracted patch.
type FileChange struct {
	Path      string `json:"path"`
	Status    string `json:"status"` // added, deleted, or modified
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// ExtractPatch produces the unified diff of everything the agent changed
// relative to the base commit, including untracked files. An empty string
// means the working tree is clean.
func (m *Manager) ExtractPatch(ctx context.Context, ws *Workspace) (string, error) {
	// Register untracked files as intent-to-add so they show up in the diff
	// without being staged.
	if _, err := m.runGit(ctx, ws.Root, "add", "--all", "--intent-to-add"); err != nil {
		return "", fmt.Errorf("registering untracked files: %w", err)
	}

	out, err := m.runGit(ctx, ws.Root, "diff", "--no-color", ws.BaseSHA)
	if err != nil {
		return "", fmt.Errorf("diffing against %s: %w", ws.BaseSHA, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", nil
	}
	return out, nil
}

// Summarize parses a unified diff into per-file change counts.
func Summarize(patch string) ([]FileChange, error) {
	if strings.TrimSpace(patch) == "" {
		return nil, nil
	}
	diff, err := diffparser.Parse(patch)
	if err != nil {
		return nil, fmt.Errorf("parsing patch: %w", err)
	}

	changes := make([]FileChange, 0, len(diff.Files))
	for _, f := range diff.Files {
		fc := FileChange{Path: f.NewName}
		switch f.Mode {
		case diffparser.NEW:
			fc.Status = "added"
		case diffparser.DELETED:
			fc.Status = "deleted"
			fc.Path = f.OrigName
		default:
			fc.Status = "modified"
		}
		for _, h := range f.Hunks {
			for _, line := range h.WholeRange.Lines {
				switch line.Mode {
				case diffparser.ADDED:
					fc.Additions++
				case diffparser.REMOVED:
					fc.Deletions++
				}
			}
		}
		changes = append(changes, fc)
	}
	return changes, nil
}

// runGit executes one bounded git command in dir and returns its stdout.
func (m *Manager) runGit(ctx context.Context, dir string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.gitTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
