/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package workspace owns the isolated on-disk checkout a job runs against:
// clone, work-branch creation, patch extraction, and guaranteed cleanup.
// A workspace belongs to exactly one job for its lifetime.
package workspace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"chainguard.dev/sweagent/event"
	"github.com/chainguard-dev/clog"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"golang.org/x/oauth2"
)

const (
	dirPrefix    = "sweagent-ws-"
	branchPrefix = "swe-agent/"

	defaultCloneTimeout = 5 * time.Minute
	defaultGitTimeout   = 30 * time.Second
)

// remoteURL resolves the clone URL for a repository context. Tests override
// this to clone from local filesystem paths.
var remoteURL = defaultRemoteURL

func defaultRemoteURL(rc event.RepositoryContext) string { return rc.CloneURL }

// Workspace is one isolated checkout. Root is recursively deleted by
// Release on every exit path.
type Workspace struct {
	// Root is the absolute path of the checkout.
	Root string

	// BaseSHA is the commit the checkout started from; patches are diffed
	// against it.
	BaseSHA string

	// Branch is the job's work branch, created at BaseSHA.
	Branch string

	CreatedAt time.Time
	TimeoutAt time.Time

	repo *git.Repository
}

// Manager acquires and releases workspaces. It holds no per-job state and
// is safe to share across concurrent jobs: every Acquire produces a fresh
// directory with a unique random suffix.
type Manager struct {
	tokenSource  oauth2.TokenSource
	cloneTimeout time.Duration
	gitTimeout   time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithTokenSource supplies the token used for authenticated clones. Without
// one, clones are anonymous.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(m *Manager) { m.tokenSource = ts }
}

// WithCloneTimeout bounds the clone network operation.
func WithCloneTimeout(d time.Duration) Option {
	return func(m *Manager) { m.cloneTimeout = d }
}

// WithGitTimeout bounds each shelled-out git command.
func WithGitTimeout(d time.Duration) Option {
	return func(m *Manager) { m.gitTimeout = d }
}

// NewManager constructs a Manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		cloneTimeout: defaultCloneTimeout,
		gitTimeout:   defaultGitTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Acquire clones the repository into a fresh temp directory, checks out the
// head ref, and creates the job's work branch. Every Acquire must be paired
// with exactly one Release; a hung clone is cut off by the clone timeout and
// surfaces as an acquisition failure.
func (m *Manager) Acquire(ctx context.Context, rc event.RepositoryContext) (*Workspace, error) {
	if rc.CloneURL == "" {
		return nil, errors.New("repository context has no clone URL")
	}
	if rc.HeadRef == "" {
		return nil, errors.New("repository context has no head ref")
	}

	dir, err := os.MkdirTemp("", dirPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating workspace dir: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, m.cloneTimeout)
	defer cancel()

	remote := remoteURL(rc)
	clog.FromContext(ctx).Infof("Cloning %s (ref %s) into %s", remote, rc.HeadRef, dir)

	auth, err := m.auth()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("getting clone token: %w", err)
	}

	repo, err := git.PlainCloneContext(cloneCtx, dir, false, &git.CloneOptions{
		URL:           remote,
		ReferenceName: plumbing.NewBranchReferenceName(rc.HeadRef),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("cloning repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	ws := &Workspace{
		Root:      dir,
		BaseSHA:   head.Hash().String(),
		Branch:    branchPrefix + randomSuffix(),
		CreatedAt: time.Now(),
		repo:      repo,
	}
	if deadline, ok := ctx.Deadline(); ok {
		ws.TimeoutAt = deadline
	}

	worktree, err := repo.Worktree()
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(ws.Branch),
		Hash:   head.Hash(),
		Create: true,
	}); err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("creating work branch: %w", err)
	}

	return ws, nil
}

// Reset discards everything an attempt did to the working tree, returning
// it to the base commit so the next candidate starts clean.
func (m *Manager) Reset(ctx context.Context, ws *Workspace) error {
	worktree, err := ws.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	if err := worktree.Reset(&git.ResetOptions{
		Commit: plumbing.NewHash(ws.BaseSHA),
		Mode:   git.HardReset,
	}); err != nil {
		return fmt.Errorf("resetting worktree: %w", err)
	}

	if err := worktree.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("cleaning worktree: %w", err)
	}

	clog.FromContext(ctx).Debugf("Workspace %s reset to %s", ws.Root, ws.BaseSHA)
	return nil
}

// Release recursively deletes the workspace. It is best effort: failures
// are logged, never returned, and a released workspace is inert.
func (m *Manager) Release(ctx context.Context, ws *Workspace) {
	if ws == nil || ws.Root == "" {
		return
	}
	if err := os.RemoveAll(ws.Root); err != nil {
		clog.FromContext(ctx).Warnf("Failed to remove workspace %s: %v", ws.Root, err)
	} else {
		clog.FromContext(ctx).Debugf("Removed workspace %s", ws.Root)
	}
	ws.Root = ""
	ws.repo = nil
}

func (m *Manager) auth() (*githttp.BasicAuth, error) {
	if m.tokenSource == nil {
		return nil, nil
	}
	token, err := m.tokenSource.Token()
	if err != nil {
		return nil, err
	}
	return &githttp.BasicAuth{
		Username: "unused-when-using-access-tokens",
		Password: token.AccessToken,
	}, nil
}

func randomSuffix() string {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is effectively unreachable; fall back to a
		// time-derived suffix rather than aborting the job.
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf[:])
}
