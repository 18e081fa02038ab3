package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/daemon"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the dashboard daemon",
	Long: `Manage the flowzone dashboard daemon.

The daemon serves the live session, history and stats as a localhost JSON API
with an SSE event feed, and can start and stop sessions over HTTP.

Enable it in your config:
  settings:
    daemon:
      enabled: true
      port: 8742

Commands:
  start  - Run the daemon in the foreground (Ctrl+C stops it)
  status - Check whether a daemon is running`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Run the dashboard daemon",
	Long: `Run the flowzone dashboard daemon in the foreground.

Example:
  flowzone daemon start`,
	RunE: runDaemonStart,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check daemon status",
	Long: `Check if the flowzone dashboard daemon is running.

Example:
  flowzone daemon status`,
	RunE: runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemonStart(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	lifecycle := daemon.NewLifecycle(cfg.Settings.Daemon)
	if lifecycle.IsRunning() {
		return fmt.Errorf("daemon is already running (PID file: %s)", lifecycle.PIDFile())
	}

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	// The daemon owns a tracker so sessions can be driven over the API.
	tracker := session.New(session.Options{
		Scorer:          buildScorer(cfg),
		Store:           st,
		ScoreInterval:   config.Duration(cfg.Scoring.ScoreInterval, config.DefaultScoreInterval),
		IdleInterval:    config.Duration(cfg.Scoring.IdleInterval, config.DefaultIdleInterval),
		IdleThreshold:   config.Duration(cfg.Scoring.IdleThreshold, config.DefaultIdleThreshold),
		TypingWindow:    config.Duration(cfg.Scoring.TypingWindow, config.DefaultTypingWindow),
		LearningCadence: config.Duration(cfg.Scoring.LearningCadence, config.DefaultLearningCadence),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := daemon.NewServer(cfg, tracker, st, Version)
	tracker.SetSink(server.Broadcaster())

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	fmt.Printf("Dashboard running at http://127.0.0.1:%d\n", server.Port())
	fmt.Println("Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	// End a session left running over the API before shutting down
	if _, err := tracker.Stop(); err == nil {
		fmt.Println("Ended active session")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Error during shutdown")
	}
	return nil
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	lifecycle := daemon.NewLifecycle(cfg.Settings.Daemon)
	if lifecycle.IsRunning() {
		pid, _ := lifecycle.ReadPID()
		fmt.Printf("Daemon is running (PID %d)\n", pid)
		fmt.Printf("Dashboard: http://127.0.0.1:%d\n", lifecycle.Port())
	} else {
		fmt.Println("Daemon is not running")
	}
	return nil
}
