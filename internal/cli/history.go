package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/spf13/cobra"
)

var (
	historyJSON  bool
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed sessions",
	Long: `List completed sessions, oldest first.

Example:
  flowzone history
  flowzone history --limit 10
  flowzone history --json`,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Output as JSON")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show only the most recent N sessions")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	records, err := st.Records()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if historyLimit > 0 && len(records) > historyLimit {
		records = records[len(records)-historyLimit:]
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Println("No sessions recorded yet. Start one with: flowzone track")
		return nil
	}

	fmt.Printf("%-12s %-9s %9s %9s %7s %9s %7s  %s\n",
		"Date", "Time", "Duration", "Avg Flow", "Peak", "Switches", "Prod", "Quality")
	for _, r := range records {
		fmt.Printf("%-12s %-9s %7dm %8.0f%% %6.0f%% %9d %7s  %s\n",
			r.Timestamp.Format("2006-01-02"),
			r.Timestamp.Format("15:04:05"),
			r.DurationSeconds/60,
			r.AvgFlowScore,
			r.PeakFlowScore,
			r.TabSwitches,
			history.FormatProductivity(r.ProductivityIndex),
			history.Quality(r.AvgFlowScore),
		)
	}
	fmt.Printf("\n%d session(s)\n", len(records))

	return nil
}
