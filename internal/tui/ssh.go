// Package tui is the operator review console, served over SSH so reviewers
// can work the pending queue without shell access to the host.
package tui

import (
	"context"
	"fmt"
	"log"

	"chartwatch/internal/repository"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	gossh "golang.org/x/crypto/ssh"
)

// ReviewerStore authorizes SSH public keys against registered reviewers.
type ReviewerStore interface {
	FindByFingerprint(ctx context.Context, fingerprint string) (*repository.Reviewer, error)
	UpdateLastLogin(ctx context.Context, id int64) error
}

type SSHServerConfig struct {
	Bind        string
	Port        int
	HostKeyPath string

	// AllowedFingerprints is a static allowlist checked before the reviewer
	// store. Either source can authorize a key.
	AllowedFingerprints []string
}

// NewSSHServer builds the wish server that drops authorized reviewers into
// the review console.
func NewSSHServer(cfg SSHServerConfig, reviewers ReviewerStore, signals SignalReviewer) (*ssh.Server, error) {
	allowed := make(map[string]struct{}, len(cfg.AllowedFingerprints))
	for _, fp := range cfg.AllowedFingerprints {
		allowed[fp] = struct{}{}
	}

	auth := func(ctx ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		ok, username := authorizeFingerprint(ctx, fingerprint, allowed, reviewers)
		if !ok {
			log.Printf("ssh review: rejected key %s for user %q", fingerprint, ctx.User())
			return false
		}
		if username != "" {
			ctx.SetValue("reviewer", username)
		}
		return true
	}

	return wish.NewServer(
		wish.WithAddress(fmt.Sprintf("%s:%d", cfg.Bind, cfg.Port)),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithPublicKeyAuth(auth),
		wish.WithMiddleware(
			bm.Middleware(teaHandler(signals)),
			activeterm.Middleware(),
			logging.Middleware(),
		),
	)
}

func teaHandler(signals SignalReviewer) bm.Handler {
	return func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
		username := s.User()
		if reviewer, ok := s.Context().Value("reviewer").(string); ok && reviewer != "" {
			username = reviewer
		}
		model := NewReviewModel(Services{
			Signals:  signals,
			Username: username,
		})
		return model, []tea.ProgramOption{tea.WithAltScreen()}
	}
}

// authorizeFingerprint checks the static allowlist first, then the reviewer
// store. It returns the reviewer username when the store authorized the key.
func authorizeFingerprint(ctx context.Context, fingerprint string, allowed map[string]struct{}, reviewers ReviewerStore) (bool, string) {
	if _, ok := allowed[fingerprint]; ok {
		return true, ""
	}
	if reviewers == nil {
		return false, ""
	}

	reviewer, err := reviewers.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		log.Printf("ssh review: fingerprint lookup failed: %v", err)
		return false, ""
	}
	if reviewer == nil {
		return false, ""
	}
	if err := reviewers.UpdateLastLogin(ctx, reviewer.ID); err != nil {
		log.Printf("ssh review: last login update failed for %s: %v", reviewer.Username, err)
	}
	return true, reviewer.Username
}
