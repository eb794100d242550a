/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package event

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"golang.org/x/oauth2"
)

// ClientOptions selects how the platform client authenticates. Exactly one
// of Token or the App triple must be populated.
type ClientOptions struct {
	// Token is a personal access or installation token.
	Token string

	// AppID, InstallationID, and PrivateKeyPath authenticate as a GitHub
	// App installation.
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
}

// NewClient builds an authenticated API client plus a token source usable
// for git transport auth against the same installation.
func NewClient(ctx context.Context, opts ClientOptions) (*github.Client, oauth2.TokenSource, error) {
	log := clog.FromContext(ctx)

	switch {
	case opts.Token != "":
		log.Debug("Authenticating with static token")
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		return github.NewClient(oauth2.NewClient(ctx, ts)), ts, nil

	case opts.AppID != 0 && opts.InstallationID != 0 && opts.PrivateKeyPath != "":
		log.Debugf("Authenticating as app %d installation %d", opts.AppID, opts.InstallationID)
		itr, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, opts.AppID, opts.InstallationID, opts.PrivateKeyPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading app key: %w", err)
		}
		client := github.NewClient(&http.Client{Transport: itr})
		return client, &installationTokenSource{ctx: ctx, transport: itr}, nil

	default:
		return nil, nil, errors.New("no GitHub credentials: set a token or app id/installation/key")
	}
}

// installationTokenSource adapts ghinstallation's transport to the oauth2
// TokenSource shape the git layer expects. Installation tokens are cached
// and refreshed by the transport itself.
type installationTokenSource struct {
	ctx       context.Context
	transport *ghinstallation.Transport
}

func (s *installationTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.transport.Token(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("minting installation token: %w", err)
	}
	return &oauth2.Token{AccessToken: tok}, nil
}
