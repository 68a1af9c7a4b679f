package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
agent:
  collector:
    base_url: "https://collector.example.com"
  poll:
    enabled: true
  heartbeat:
    enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Agent.Collector.BaseURL != "https://collector.example.com" {
		t.Fatalf("Unexpected collector url: %s", cfg.Agent.Collector.BaseURL)
	}
	if !cfg.Agent.Poll.Enabled || !cfg.Agent.Heartbeat.Enabled {
		t.Fatal("Enabled flags did not load")
	}

	// Unset fields take defaults.
	if cfg.Agent.Capture.RecordWindow != 5*time.Second {
		t.Fatalf("Unexpected record window: %v", cfg.Agent.Capture.RecordWindow)
	}
	if cfg.Agent.Capture.RecordGrace != 2*time.Second {
		t.Fatalf("Unexpected record grace: %v", cfg.Agent.Capture.RecordGrace)
	}
	if cfg.Agent.Capture.SelfieWarmup != time.Second {
		t.Fatalf("Unexpected selfie warmup: %v", cfg.Agent.Capture.SelfieWarmup)
	}
	if cfg.Agent.Capture.JPEGQuality != 85 {
		t.Fatalf("Unexpected jpeg quality: %d", cfg.Agent.Capture.JPEGQuality)
	}
	if cfg.Agent.Capture.LocationTimeout != 10*time.Second {
		t.Fatalf("Unexpected location timeout: %v", cfg.Agent.Capture.LocationTimeout)
	}
	if cfg.Agent.Poll.Interval != 10*time.Second {
		t.Fatalf("Unexpected poll interval: %v", cfg.Agent.Poll.Interval)
	}
	if cfg.Agent.Heartbeat.Interval != 30*time.Second {
		t.Fatalf("Unexpected heartbeat interval: %v", cfg.Agent.Heartbeat.Interval)
	}
	if cfg.Agent.Messages.DisplayTTL != 10*time.Second {
		t.Fatalf("Unexpected display ttl: %v", cfg.Agent.Messages.DisplayTTL)
	}
	if cfg.Agent.Web.Host != "127.0.0.1" || cfg.Agent.Web.Port != 8099 {
		t.Fatalf("Unexpected web defaults: %s:%d", cfg.Agent.Web.Host, cfg.Agent.Web.Port)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("Unexpected log defaults: %s/%s", cfg.Log.Level, cfg.Log.Format)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
agent:
  collector:
    base_url: "https://from-file.example.com"
  camera:
    front_url: "rtsp://file-front"
`)

	t.Setenv("COLLECTOR_BASE_URL", "https://from-env.example.com")
	t.Setenv("CAMERA_FRONT_URL", "rtsp://env-front")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Agent.Collector.BaseURL != "https://from-env.example.com" {
		t.Fatalf("Environment must win over the file, got %s", cfg.Agent.Collector.BaseURL)
	}
	if cfg.Agent.Camera.FrontURL != "rtsp://env-front" {
		t.Fatalf("Environment must win over the file, got %s", cfg.Agent.Camera.FrontURL)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Unexpected log level: %s", cfg.Log.Level)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("Load must fail on an unreadable explicit path")
	}
}

func TestLoad_CollectorRequired(t *testing.T) {
	path := writeConfig(t, `
agent:
  data_dir: "./data"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load must reject a configuration without a collector url")
	}
}

func TestLoad_RejectsBadJPEGQuality(t *testing.T) {
	path := writeConfig(t, `
agent:
  collector:
    base_url: "https://collector.example.com"
  capture:
    jpeg_quality: 150
`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load must reject jpeg quality outside 1..100")
	}
}

func TestValidate_RejectsNegativeIntervals(t *testing.T) {
	var cfg Config
	cfg.setDefaults()
	cfg.Agent.Collector.BaseURL = "https://collector.example.com"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults must validate: %v", err)
	}

	// Zero intervals are allowed (defaults fill them in); only negatives
	// are rejected.
	cfg.Agent.Poll.Interval = -time.Second
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate must reject a negative poll interval")
	}
	if !strings.Contains(err.Error(), "negative") {
		t.Fatalf("Error should name the negative constraint: %v", err)
	}
}

func TestBackURLFallsBackToFront(t *testing.T) {
	path := writeConfig(t, `
agent:
  collector:
    base_url: "https://collector.example.com"
  camera:
    front_url: "rtsp://cam/front"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Agent.Camera.BackURL != "rtsp://cam/front" {
		t.Fatalf("Back url should fall back to front, got %s", cfg.Agent.Camera.BackURL)
	}
}

func TestDatabasePath(t *testing.T) {
	cfg := &Config{}
	cfg.Agent.DataDir = "/var/lib/agent"
	want := filepath.Join("/var/lib/agent", "db", "agent.db")
	if got := cfg.DatabasePath(); got != want {
		t.Fatalf("Unexpected database path: %s", got)
	}
}
