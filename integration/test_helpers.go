package integration

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/config"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/identity"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/logger"
	"github.com/anshukrra07/User-Activity-Monitoring-System/internal/state"
)

// TestEnvironment provides a test environment for integration tests
type TestEnvironment struct {
	TempDir     string
	Config      *config.Config
	StateMgr    *state.Manager
	Identity    *identity.Resolver
	Logger      *logger.Logger
	CleanupFunc func()
}

// SetupTestEnvironment creates a test environment
func SetupTestEnvironment(t *testing.T) *TestEnvironment {
	tmpDir := t.TempDir()

	cfg := &config.Config{}
	cfg.Agent.DataDir = filepath.Join(tmpDir, "data")
	cfg.Agent.Collector.BaseURL = "http://collector.invalid"
	cfg.Log.Level = "debug"
	cfg.Log.Format = "text"

	log := logger.NewNopLogger()

	stateMgr, err := state.NewManager(cfg.DatabasePath(), log)
	if err != nil {
		t.Fatalf("Failed to create state manager: %v", err)
	}

	cleanup := func() {
		stateMgr.Close()
	}

	return &TestEnvironment{
		TempDir:     tmpDir,
		Config:      cfg,
		StateMgr:    stateMgr,
		Identity:    identity.NewResolver(stateMgr, log),
		Logger:      log,
		CleanupFunc: cleanup,
	}
}

// Cleanup cleans up the test environment
func (e *TestEnvironment) Cleanup() {
	if e.CleanupFunc != nil {
		e.CleanupFunc()
	}
}

// WaitForCondition waits for a condition to become true
func WaitForCondition(timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		<-ticker.C
	}

	return false
}

// ContextWithTimeout creates a context with timeout for tests
func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}
