// Package cli wires the flowzone commands.
package cli

import (
	"fmt"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/scoring"
	"github.com/flowzoneai/flowzone/internal/store"
	"github.com/spf13/cobra"
)

// Version information set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	verbose    bool
	configFile string
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:   "flowzone",
	Short: "Flow state tracking and session analytics",
	Long: `FlowZone estimates your focus state from passively observed interaction
signals (typing cadence, pointer activity, tab switches, idle time) during a
work session, suggests breaks before fatigue takes over, and aggregates your
session history into trend statistics.

Configure in:
  - ~/.flowzone/config.yaml (global)
  - .flowzone/config.yaml (project-specific)

Set FLOWZONE_API_KEY (or scoring.api_key) to enable model-backed scoring;
without it the deterministic rule scorer is used on its own.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowzone %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Override config file path")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Override project directory")

	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() *config.Config {
	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return config.DefaultConfig()
	}

	var cfg *config.Config
	if configFile != "" {
		cfg, err = loader.LoadFromFile(configFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// initLogging sets up the global logger from config and the verbose flag.
func initLogging(cfg *config.Config) {
	level := cfg.Settings.LogLevel
	if verbose {
		level = "debug"
	}
	if level == "" {
		level = "info"
	}
	_ = logger.Init(level, cfg.Settings.LogFile)
}

// openStore opens the configured SQLite store, degrading to memory-only
// persistence when the backend is unavailable.
func openStore(cfg *config.Config) store.Store {
	s, err := store.NewSQLiteStore(cfg.Storage.Path, cfg.Storage.MaxSessions)
	if err != nil {
		logger.Warn().Err(err).Msg("Storage unavailable, session history will not persist")
		return store.NewMemoryStore(cfg.Storage.MaxSessions)
	}
	return s
}

// buildScorer composes the active scoring strategy: remote chained onto the
// rules when an API key is configured, rules alone otherwise.
func buildScorer(cfg *config.Config) scoring.Scorer {
	rules := &scoring.RuleScorer{
		IdleThreshold: config.Duration(cfg.Scoring.IdleThreshold, config.DefaultIdleThreshold),
	}

	if cfg.Scoring.APIKey == "" {
		return rules
	}

	remote, err := scoring.NewRemoteScorer(cfg.Scoring)
	if err != nil {
		logger.Warn().Err(err).Msg("Remote scorer unavailable, using rules only")
		return rules
	}
	return scoring.Select(remote, rules)
}
