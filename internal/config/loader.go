package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	globalConfigDir  = ".flowzone"
	projectConfigDir = ".flowzone"
	configFileName   = "config.yaml"
)

// Loader handles loading and merging configuration files
type Loader struct {
	globalPath  string
	projectPath string
}

// NewLoader creates a new configuration loader
func NewLoader(projectDir string) (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return &Loader{
		globalPath:  filepath.Join(homeDir, globalConfigDir, configFileName),
		projectPath: filepath.Join(projectDir, projectConfigDir, configFileName),
	}, nil
}

// Load loads and merges configuration from all sources
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Load global config if exists
	globalCfg, err := l.loadFile(l.globalPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if globalCfg != nil {
		cfg = mergeConfigs(cfg, globalCfg)
	}

	// Load project config if exists
	projectCfg, err := l.loadFile(l.projectPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if projectCfg != nil {
		cfg = mergeConfigs(cfg, projectCfg)
	}

	// Environment variable wins over file for the credential
	if envKey := os.Getenv("FLOWZONE_API_KEY"); envKey != "" {
		cfg.Scoring.APIKey = envKey
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	return l.loadFile(path)
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// mergeConfigs merges two configurations, with override taking precedence
func mergeConfigs(base, override *Config) *Config {
	result := &Config{
		Version: coalesce(override.Version, base.Version),
		Settings: Settings{
			LogLevel: coalesce(override.Settings.LogLevel, base.Settings.LogLevel),
			LogFile:  coalesce(override.Settings.LogFile, base.Settings.LogFile),
			Daemon:   mergeDaemonSettings(base.Settings.Daemon, override.Settings.Daemon),
		},
		Scoring: mergeScoringSettings(base.Scoring, override.Scoring),
		Storage: StorageSettings{
			Path:        coalesce(override.Storage.Path, base.Storage.Path),
			MaxSessions: coalesceInt(override.Storage.MaxSessions, base.Storage.MaxSessions),
		},
		Coach: CoachSettings{
			CacheEntries: coalesceInt(override.Coach.CacheEntries, base.Coach.CacheEntries),
			CacheTTL:     coalesce(override.Coach.CacheTTL, base.Coach.CacheTTL),
		},
	}

	return result
}

func mergeDaemonSettings(base, override DaemonSettings) DaemonSettings {
	result := base

	// A bool zero value is indistinguishable from "not set", so Enabled only
	// flips on when any daemon field is configured in the override
	if override.Enabled || override.Port != 0 {
		result.Enabled = override.Enabled
	}

	if override.Port != 0 {
		result.Port = override.Port
	}

	return result
}

func mergeScoringSettings(base, override ScoringSettings) ScoringSettings {
	return ScoringSettings{
		APIKey:          coalesce(override.APIKey, base.APIKey),
		Endpoint:        coalesce(override.Endpoint, base.Endpoint),
		Model:           coalesce(override.Model, base.Model),
		ScoreInterval:   coalesce(override.ScoreInterval, base.ScoreInterval),
		IdleInterval:    coalesce(override.IdleInterval, base.IdleInterval),
		IdleThreshold:   coalesce(override.IdleThreshold, base.IdleThreshold),
		TypingWindow:    coalesce(override.TypingWindow, base.TypingWindow),
		LearningCadence: coalesce(override.LearningCadence, base.LearningCadence),
		RequestsPerMin:  coalesceInt(override.RequestsPerMin, base.RequestsPerMin),
		BurstSize:       coalesceInt(override.BurstSize, base.BurstSize),
	}
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func coalesceInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// GlobalConfigPath returns the path to the global config file
func (l *Loader) GlobalConfigPath() string {
	return l.globalPath
}

// ProjectConfigPath returns the path to the project config file
func (l *Loader) ProjectConfigPath() string {
	return l.projectPath
}

// Exists checks if a config file exists at the given path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteDefault writes the default configuration to the given path, creating
// parent directories as needed. Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if Exists(path) {
		return fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}
