package identity

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	st, err := state.NewManager(filepath.Join(t.TempDir(), "agent.db"), logger.NewNopLogger())
	if err != nil {
		t.Fatalf("Failed to open state database: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewResolver(st, logger.NewNopLogger())
}

func TestAnonymousID_GeneratedOnceAndPersisted(t *testing.T) {
	resolver := newTestResolver(t)
	resolver.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	id, err := resolver.AnonymousID(ctx)
	if err != nil {
		t.Fatalf("AnonymousID failed: %v", err)
	}
	if id != "anonymous-1700000000000" {
		t.Fatalf("Unexpected pseudo-identity: %s", id)
	}

	// A later clock must not change the stored identity.
	resolver.now = func() time.Time { return time.UnixMilli(1800000000000) }
	again, err := resolver.AnonymousID(ctx)
	if err != nil {
		t.Fatalf("AnonymousID failed: %v", err)
	}
	if again != id {
		t.Fatalf("Pseudo-identity must be stable, got %s then %s", id, again)
	}
}

func TestSubject_PrefersAuthenticatedUser(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	subject, err := resolver.Subject(ctx)
	if err != nil {
		t.Fatalf("Subject failed: %v", err)
	}
	if !strings.HasPrefix(subject, "anonymous-") {
		t.Fatalf("Signed-out subject must be the pseudo-identity, got %s", subject)
	}

	if err := resolver.SignIn(ctx, "alice", "tok-1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	subject, err = resolver.Subject(ctx)
	if err != nil {
		t.Fatalf("Subject failed: %v", err)
	}
	if subject != "alice" {
		t.Fatalf("Signed-in subject must be the user, got %s", subject)
	}
	if resolver.Token(ctx) != "tok-1" {
		t.Fatalf("Unexpected token: %s", resolver.Token(ctx))
	}
}

func TestSignOut_KeepsPseudoIdentity(t *testing.T) {
	resolver := newTestResolver(t)
	ctx := context.Background()

	anonID, err := resolver.AnonymousID(ctx)
	if err != nil {
		t.Fatalf("AnonymousID failed: %v", err)
	}
	if err := resolver.SignIn(ctx, "alice", "tok-1"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if err := resolver.SignOut(ctx); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}

	subject, err := resolver.Subject(ctx)
	if err != nil {
		t.Fatalf("Subject failed: %v", err)
	}
	if subject != anonID {
		t.Fatalf("Subject after sign-out must be the original pseudo-identity, got %s", subject)
	}
	if resolver.Token(ctx) != "" {
		t.Fatal("Token must be cleared on sign-out")
	}
}

func TestSignIn_RequiresUsername(t *testing.T) {
	resolver := newTestResolver(t)
	if err := resolver.SignIn(context.Background(), "", "tok"); err == nil {
		t.Fatal("SignIn with empty username must fail")
	}
}
