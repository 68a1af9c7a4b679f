// Package identity resolves the subject a capture session is attributed to:
// the authenticated user when signed in, otherwise a generated pseudo-identity
// that is created once and persisted for the lifetime of the install.
package identity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

const (
	keyAuthenticatedUser = "logged_in_user"
	keyAnonymousID       = "anon_user_id"
	keyAuthToken         = "auth_token"
)

// Resolver resolves and persists the subject identity.
type Resolver struct {
	state  *state.Manager
	logger *logger.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewResolver creates a resolver backed by the given state store.
func NewResolver(st *state.Manager, log *logger.Logger) *Resolver {
	return &Resolver{
		state:  st,
		logger: log,
		now:    time.Now,
	}
}

// Subject returns the identity sessions are attributed to: the authenticated
// user when present, otherwise the pseudo-identity (generated on first use).
func (r *Resolver) Subject(ctx context.Context) (string, error) {
	user, err := r.state.GetValue(ctx, keyAuthenticatedUser)
	if err != nil {
		return "", err
	}
	if user != "" {
		return user, nil
	}
	return r.AnonymousID(ctx)
}

// AnonymousID returns the persisted pseudo-identity, generating it on first
// use. The generated form matches anonymous-<unix-ms>.
func (r *Resolver) AnonymousID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.state.GetValue(ctx, keyAnonymousID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	id = fmt.Sprintf("anonymous-%d", r.now().UnixMilli())
	if err := r.state.SetValue(ctx, keyAnonymousID, id); err != nil {
		return "", fmt.Errorf("failed to persist pseudo-identity: %w", err)
	}
	r.logger.Info("Generated pseudo-identity", "subject", id)
	return id, nil
}

// Token returns the stored session credential, or "" when signed out.
func (r *Resolver) Token(ctx context.Context) string {
	token, err := r.state.GetValue(ctx, keyAuthToken)
	if err != nil {
		r.logger.Warn("Failed to read credential token", "error", err)
		return ""
	}
	return token
}

// SignIn records an authenticated identity and its session credential.
func (r *Resolver) SignIn(ctx context.Context, username, token string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if err := r.state.SetValue(ctx, keyAuthenticatedUser, username); err != nil {
		return err
	}
	if token != "" {
		if err := r.state.SetValue(ctx, keyAuthToken, token); err != nil {
			return err
		}
	}
	r.logger.Info("Signed in", "subject", username)
	return nil
}

// SignOut clears the authenticated identity and credential. The
// pseudo-identity is kept so the install remains addressable.
func (r *Resolver) SignOut(ctx context.Context) error {
	if err := r.state.DeleteValue(ctx, keyAuthenticatedUser); err != nil {
		return err
	}
	if err := r.state.DeleteValue(ctx, keyAuthToken); err != nil {
		return err
	}
	r.logger.Info("Signed out")
	return nil
}
