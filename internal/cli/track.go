package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/daemon"
	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
	signalpkg "github.com/flowzoneai/flowzone/internal/signal"
	"github.com/spf13/cobra"
)

var trackDuration time.Duration

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Start a tracked focus session",
	Long: `Start a focus session fed by terminal input.

Every character you type counts as a keystroke sample. Lines starting with a
dot are commands rather than typing:

  .tab    record a tab switch (distraction)
  .click  record a mouse click
  .quit   end the session

The session also ends on Ctrl+C, Ctrl+D, or when --for expires. When the
daemon is enabled in config, the dashboard serves live session data while
tracking.

Example:
  flowzone track
  flowzone track --for 25m`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().DurationVar(&trackDuration, "for", 0, "End the session automatically after this duration")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	tracker := session.New(session.Options{
		Scorer:          buildScorer(cfg),
		Store:           st,
		Sink:            consoleSink(),
		ScoreInterval:   config.Duration(cfg.Scoring.ScoreInterval, config.DefaultScoreInterval),
		IdleInterval:    config.Duration(cfg.Scoring.IdleInterval, config.DefaultIdleInterval),
		IdleThreshold:   config.Duration(cfg.Scoring.IdleThreshold, config.DefaultIdleThreshold),
		TypingWindow:    config.Duration(cfg.Scoring.TypingWindow, config.DefaultTypingWindow),
		LearningCadence: config.Duration(cfg.Scoring.LearningCadence, config.DefaultLearningCadence),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var server *daemon.Server
	if cfg.Settings.Daemon.Enabled {
		server = daemon.NewServer(cfg, tracker, st, Version)
		tracker.SetSink(session.MultiSink(consoleSink(), server.Broadcaster()))
		if err := server.Start(ctx); err != nil {
			logger.Warn().Err(err).Msg("Dashboard unavailable, tracking continues without it")
			server = nil
		} else {
			fmt.Printf("Dashboard: http://127.0.0.1:%d\n", server.Port())
		}
	}

	if err := tracker.Start(); err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	fmt.Println("Session started. Type to register activity, .quit to end.")

	done := make(chan struct{})
	go readSamples(tracker, done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var timeout <-chan time.Time
	if trackDuration > 0 {
		timeout = time.After(trackDuration)
	}

	select {
	case <-sigCh:
	case <-done:
	case <-timeout:
		fmt.Println("\nSession duration reached.")
	}

	summary, err := tracker.Stop()
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	printSummary(summary)

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Stop(shutdownCtx)
	}

	return nil
}

// readSamples turns stdin into behavioral samples until EOF or .quit.
func readSamples(tracker *session.Tracker, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		now := time.Now()

		switch strings.TrimSpace(line) {
		case ".quit":
			return
		case ".tab":
			tracker.Observe(signalpkg.Sample{Kind: signalpkg.TabSwitch, Timestamp: now})
			continue
		case ".click":
			tracker.Observe(signalpkg.Sample{Kind: signalpkg.Click, Timestamp: now})
			continue
		}

		for range line {
			tracker.Observe(signalpkg.Sample{Kind: signalpkg.Keystroke, Timestamp: now})
		}
	}
}

// consoleSink renders tracker events for the terminal.
func consoleSink() session.Sink {
	return session.SinkFunc(func(e session.Event) {
		switch e.Type {
		case session.EventScoreUpdate:
			fmt.Printf("flow %3.0f%%  fatigue %3.0f%%\n", e.Score, e.Fatigue)
		case session.EventMilestone:
			fmt.Printf("* %s\n", e.Message)
		case session.EventBreakSuggested:
			fmt.Printf("* Break suggested: %d minutes (fatigue %.0f%%)\n", e.BreakMinutes, e.Fatigue)
		case session.EventIdleWarning:
			fmt.Printf("* %s\n", e.Message)
		case session.EventInsight:
			fmt.Printf("* %s\n", e.Message)
		case session.EventStreak:
			fmt.Printf("* %d-day streak!\n", e.StreakDays)
		}
	})
}

func printSummary(s *session.Summary) {
	r := s.Record
	fmt.Println("\nSession complete")
	fmt.Printf("  Duration:     %d min\n", r.DurationSeconds/60)
	fmt.Printf("  Avg flow:     %.0f%%\n", r.AvgFlowScore)
	fmt.Printf("  Peak flow:    %.0f%%\n", r.PeakFlowScore)
	fmt.Printf("  Tab switches: %d\n", r.TabSwitches)
	fmt.Printf("  Productivity: %s\n", history.FormatProductivity(r.ProductivityIndex))
	fmt.Printf("  Quality:      %s\n", s.Quality)
	fmt.Printf("  Streak:       %d day(s), %d total sessions\n", s.Streak.Count, s.Streak.TotalSessions)
	if s.StreakCelebrated {
		fmt.Printf("  %d days in a row - keep it going!\n", s.Streak.Count)
	}
}
