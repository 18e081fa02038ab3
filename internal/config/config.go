package config

import (
	"fmt"
	"time"
)

// Config represents the complete flowzone configuration
type Config struct {
	Version  string          `yaml:"version"`
	Settings Settings        `yaml:"settings"`
	Scoring  ScoringSettings `yaml:"scoring"`
	Storage  StorageSettings `yaml:"storage"`
	Coach    CoachSettings   `yaml:"coach"`
}

// Settings contains global configuration settings
type Settings struct {
	LogLevel string         `yaml:"log_level"`
	LogFile  string         `yaml:"log_file,omitempty"`
	Daemon   DaemonSettings `yaml:"daemon,omitempty"`
}

// DaemonSettings configures the local dashboard daemon
type DaemonSettings struct {
	Enabled bool `yaml:"enabled,omitempty"`
	Port    int  `yaml:"port,omitempty"`
}

// ScoringSettings configures the scoring strategies and tick cadences.
// APIKey presence is the sole switch between rule-based-only and hybrid
// scoring; it may also come from the FLOWZONE_API_KEY environment variable.
type ScoringSettings struct {
	APIKey   string `yaml:"api_key,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"`
	Model    string `yaml:"model,omitempty"`

	ScoreInterval   string `yaml:"score_interval,omitempty"`
	IdleInterval    string `yaml:"idle_interval,omitempty"`
	IdleThreshold   string `yaml:"idle_threshold,omitempty"`
	TypingWindow    string `yaml:"typing_window,omitempty"`
	LearningCadence string `yaml:"learning_cadence,omitempty"`

	RequestsPerMin int `yaml:"requests_per_min,omitempty"`
	BurstSize      int `yaml:"burst_size,omitempty"`
}

// StorageSettings configures session history persistence
type StorageSettings struct {
	Path        string `yaml:"path,omitempty"`
	MaxSessions int    `yaml:"max_sessions,omitempty"`
}

// CoachSettings configures the conversational assistant
type CoachSettings struct {
	CacheEntries int    `yaml:"cache_entries,omitempty"`
	CacheTTL     string `yaml:"cache_ttl,omitempty"`
}

// Defaults for tick cadences and thresholds.
const (
	DefaultScoreInterval   = 3 * time.Second
	DefaultIdleInterval    = time.Second
	DefaultIdleThreshold   = 30 * time.Second
	DefaultTypingWindow    = 10 * time.Second
	DefaultLearningCadence = 5 * time.Minute
	DefaultMaxSessions     = 100
	DefaultDaemonPort      = 8742
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			LogLevel: "info",
			Daemon: DaemonSettings{
				Port: DefaultDaemonPort,
			},
		},
		Scoring: ScoringSettings{
			ScoreInterval:   DefaultScoreInterval.String(),
			IdleInterval:    DefaultIdleInterval.String(),
			IdleThreshold:   DefaultIdleThreshold.String(),
			TypingWindow:    DefaultTypingWindow.String(),
			LearningCadence: DefaultLearningCadence.String(),
			RequestsPerMin:  20,
			BurstSize:       5,
		},
		Storage: StorageSettings{
			MaxSessions: DefaultMaxSessions,
		},
		Coach: CoachSettings{
			CacheEntries: 50,
			CacheTTL:     "10m",
		},
	}
}

// Duration parses a yaml duration string, falling back to def when the field
// is empty or malformed.
func Duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Storage.MaxSessions < 0 {
		return fmt.Errorf("storage.max_sessions must be non-negative, got %d", c.Storage.MaxSessions)
	}
	if c.Settings.Daemon.Port < 0 || c.Settings.Daemon.Port > 65535 {
		return fmt.Errorf("settings.daemon.port out of range: %d", c.Settings.Daemon.Port)
	}
	for _, field := range []struct{ name, val string }{
		{"scoring.score_interval", c.Scoring.ScoreInterval},
		{"scoring.idle_interval", c.Scoring.IdleInterval},
		{"scoring.idle_threshold", c.Scoring.IdleThreshold},
		{"scoring.typing_window", c.Scoring.TypingWindow},
		{"scoring.learning_cadence", c.Scoring.LearningCadence},
	} {
		if field.val == "" {
			continue
		}
		if _, err := time.ParseDuration(field.val); err != nil {
			return fmt.Errorf("invalid duration for %s: %q", field.name, field.val)
		}
	}
	return nil
}
