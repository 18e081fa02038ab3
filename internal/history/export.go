package history

import (
	"encoding/csv"
	"fmt"
	"io"
)

// exportHeader is the fixed column order of the tabular export.
var exportHeader = []string{
	"Date", "Time", "Duration (min)", "Avg Flow %", "Peak Flow %",
	"Tab Switches", "Typing Speed", "Productivity",
}

// ExportCSV writes the records as CSV in the fixed column order.
func ExportCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Timestamp.Format("2006-01-02"),
			r.Timestamp.Format("15:04:05"),
			fmt.Sprintf("%d", r.DurationSeconds/60),
			fmt.Sprintf("%.0f", r.AvgFlowScore),
			fmt.Sprintf("%.0f", r.PeakFlowScore),
			fmt.Sprintf("%d", r.TabSwitches),
			fmt.Sprintf("%.0f", r.AvgTypingRate),
			FormatProductivity(r.ProductivityIndex),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write export row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
