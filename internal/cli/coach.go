package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flowzoneai/flowzone/internal/coach"
	"github.com/flowzoneai/flowzone/internal/session"
	"github.com/spf13/cobra"
)

var coachCmd = &cobra.Command{
	Use:   "coach [question]",
	Short: "Ask the productivity coach",
	Long: `Ask the productivity coach a question. The coach sees your streak,
session totals and recent stats; with an API key configured it answers via
the model, otherwise with built-in advice.

Example:
  flowzone coach "when should I take breaks?"
  flowzone coach how do I stop switching tabs`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoach,
}

func init() {
	rootCmd.AddCommand(coachCmd)
}

func runCoach(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	// The CLI coach runs outside a live session; context comes from the
	// persisted streak state.
	status := session.Status{State: session.StateIdle}
	if streak, err := st.LoadStreak(); err == nil {
		status.Streak = streak
	}

	question := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply := coach.New(cfg.Scoring, cfg.Coach).Ask(ctx, question, status)

	fmt.Println(reply.Text)
	if !reply.FromModel {
		fmt.Println("\n(offline reply; set FLOWZONE_API_KEY for model-backed coaching)")
	}
	return nil
}
