package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the agent configuration.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
	Log   LogConfig   `yaml:"log,omitempty"`
}

// AgentConfig contains the capture agent configuration.
type AgentConfig struct {
	DataDir   string          `yaml:"data_dir" env:"AGENT_DATA_DIR"`
	Collector CollectorConfig `yaml:"collector"`
	Capture   CaptureConfig   `yaml:"capture"`
	Camera    CameraConfig    `yaml:"camera"`
	Audio     AudioConfig     `yaml:"audio"`
	Location  LocationConfig  `yaml:"location"`
	Poll      PollConfig      `yaml:"poll"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Messages  MessagesConfig  `yaml:"messages"`
	Web       WebConfig       `yaml:"web"`
}

// CollectorConfig contains the remote collector endpoint configuration.
type CollectorConfig struct {
	BaseURL string        `yaml:"base_url" env:"COLLECTOR_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"COLLECTOR_TIMEOUT"`
}

// CaptureConfig contains capture session timing configuration.
type CaptureConfig struct {
	RecordWindow    time.Duration `yaml:"record_window"`
	RecordGrace     time.Duration `yaml:"record_grace"`
	SelfieWarmup    time.Duration `yaml:"selfie_warmup"`
	JPEGQuality     int           `yaml:"jpeg_quality"`
	LocationTimeout time.Duration `yaml:"location_timeout"`
}

// CameraConfig contains the per-orientation camera stream configuration.
type CameraConfig struct {
	FrontURL string        `yaml:"front_url" env:"CAMERA_FRONT_URL"`
	BackURL  string        `yaml:"back_url" env:"CAMERA_BACK_URL"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AudioConfig contains the microphone capture configuration.
type AudioConfig struct {
	Input      string `yaml:"input" env:"AUDIO_INPUT"`
	Format     string `yaml:"format"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// LocationConfig contains the location fix source configuration.
type LocationConfig struct {
	FixURL   string  `yaml:"fix_url" env:"LOCATION_FIX_URL"`
	Lat      float64 `yaml:"lat"`
	Lon      float64 `yaml:"lon"`
	Accuracy float64 `yaml:"accuracy"`
}

// PollConfig contains the remote trigger poller configuration.
type PollConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" env:"POLL_INTERVAL"`
}

// HeartbeatConfig contains the liveness reporter configuration.
type HeartbeatConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" env:"HEARTBEAT_INTERVAL"`
}

// MessagesConfig contains the notification feed configuration.
type MessagesConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	DisplayTTL time.Duration `yaml:"display_ttl"`
}

// WebConfig contains the local control API configuration.
type WebConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host" env:"WEB_HOST"`
	Port    int    `yaml:"port" env:"WEB_PORT"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
	Output string `yaml:"output"`
}

// Load reads the configuration file, applies defaults and environment
// overrides. An empty path falls back to the default locations; a missing
// file there yields a default configuration.
func Load(configPath string) (*Config, error) {
	var cfg Config

	if configPath == "" {
		configPath = findDefaultConfig()
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration: %w", err)
		}
	}

	cfg.setDefaults()

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// findDefaultConfig returns the first existing default config location.
func findDefaultConfig() string {
	paths := []string{
		"./config/config.dev.yaml",
		"./config/config.yaml",
		"/etc/activity-agent/config.yaml",
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setDefaults sets default values for configuration.
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	if c.Agent.DataDir == "" {
		c.Agent.DataDir = "./data"
	}

	if c.Agent.Collector.Timeout == 0 {
		c.Agent.Collector.Timeout = 30 * time.Second
	}

	if c.Agent.Capture.RecordWindow == 0 {
		c.Agent.Capture.RecordWindow = 5 * time.Second
	}
	if c.Agent.Capture.RecordGrace == 0 {
		c.Agent.Capture.RecordGrace = 2 * time.Second
	}
	if c.Agent.Capture.SelfieWarmup == 0 {
		c.Agent.Capture.SelfieWarmup = time.Second
	}
	if c.Agent.Capture.JPEGQuality == 0 {
		c.Agent.Capture.JPEGQuality = 85
	}
	if c.Agent.Capture.LocationTimeout == 0 {
		c.Agent.Capture.LocationTimeout = 10 * time.Second
	}

	if c.Agent.Camera.Timeout == 0 {
		c.Agent.Camera.Timeout = 10 * time.Second
	}
	if c.Agent.Camera.BackURL == "" {
		c.Agent.Camera.BackURL = c.Agent.Camera.FrontURL
	}

	if c.Agent.Audio.Input == "" {
		c.Agent.Audio.Input = "default"
	}
	if c.Agent.Audio.Format == "" {
		c.Agent.Audio.Format = "alsa"
	}
	if c.Agent.Audio.FFmpegPath == "" {
		c.Agent.Audio.FFmpegPath = "ffmpeg"
	}

	if c.Agent.Poll.Interval == 0 {
		c.Agent.Poll.Interval = 10 * time.Second
	}
	if c.Agent.Heartbeat.Interval == 0 {
		c.Agent.Heartbeat.Interval = 30 * time.Second
	}
	if c.Agent.Messages.Interval == 0 {
		c.Agent.Messages.Interval = 10 * time.Second
	}
	if c.Agent.Messages.DisplayTTL == 0 {
		c.Agent.Messages.DisplayTTL = 10 * time.Second
	}

	if c.Agent.Web.Host == "" {
		c.Agent.Web.Host = "127.0.0.1"
	}
	if c.Agent.Web.Port == 0 {
		c.Agent.Web.Port = 8099
	}
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Agent.Collector.BaseURL == "" {
		return fmt.Errorf("collector base_url is required")
	}
	if c.Agent.Capture.JPEGQuality < 1 || c.Agent.Capture.JPEGQuality > 100 {
		return fmt.Errorf("capture jpeg_quality must be in 1..100, got %d", c.Agent.Capture.JPEGQuality)
	}
	if c.Agent.Capture.RecordWindow < 0 || c.Agent.Poll.Interval < 0 || c.Agent.Heartbeat.Interval < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	return nil
}

// DatabasePath returns the sqlite database location under the data dir.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Agent.DataDir, "db", "agent.db")
}
