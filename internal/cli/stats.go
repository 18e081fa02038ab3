package cli

import (
	"fmt"
	"time"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show trend statistics for the trailing week",
	Long: `Show aggregated statistics: weekly summary, best focus hours, trend
changes and distraction totals.

Example:
  flowzone stats`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	initLogging(cfg)

	st := openStore(cfg)
	defer func() { _ = st.Close() }()

	records, err := st.Records()
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No sessions recorded yet. Start one with: flowzone track")
		return nil
	}

	now := time.Now()
	summary := history.Summarize(records, history.DefaultSummaryWindow, now)

	fmt.Println("Last 7 days")
	fmt.Printf("  Sessions:          %d\n", summary.Sessions)
	fmt.Printf("  Focus time:        %d min\n", int(summary.TotalDuration.Minutes()))
	fmt.Printf("  Mean flow:         %.0f%%\n", summary.MeanFlowScore)
	fmt.Printf("  Deep work:         %d session(s)\n", summary.DeepWorkCount)
	fmt.Printf("  Mean productivity: %s\n", history.FormatProductivity(summary.MeanProductivity))

	if ranks := history.RankBestHours(records); len(ranks) > 0 {
		fmt.Println("\nBest hours")
		limit := len(ranks)
		if limit > 5 {
			limit = 5
		}
		for _, hr := range ranks[:limit] {
			fmt.Printf("  %02d:00  %.0f%% mean flow over %d session(s)\n", hr.Hour, hr.MeanFlow, hr.Sessions)
		}
	}

	fmt.Println("\nTrends (first half vs second half)")
	for _, m := range []struct {
		label  string
		metric history.Metric
	}{
		{"Flow score", history.MetricAvgFlow},
		{"Session length", history.MetricDuration},
		{"Productivity", history.MetricProductivity},
		{"Tab switches", history.MetricTabSwitches},
	} {
		fmt.Printf("  %-15s %+.1f%%\n", m.label, history.TrendChange(records, m.metric))
	}

	if weekly := history.WeeklyFlow(records, now); len(weekly) > 0 {
		fmt.Println("\nWeekly flow by day")
		for day := time.Sunday; day <= time.Saturday; day++ {
			if score, ok := weekly[day]; ok {
				fmt.Printf("  %-10s %d%%\n", day, score)
			}
		}
	}

	fmt.Printf("\nTotal tab switches on record: %d\n", history.TotalTabSwitches(records))

	if streak, err := st.LoadStreak(); err == nil && streak.TotalSessions > 0 {
		fmt.Printf("Streak: %d day(s), %d total sessions\n", streak.Count, streak.TotalSessions)
	}

	return nil
}
