// Package history holds completed session records and the longitudinal
// aggregates derived from them.
package history

import (
	"fmt"
	"time"
)

// MaxRecords caps the persisted session history. Oldest records are evicted
// first once the cap is reached.
const MaxRecords = 100

// Record is the immutable summary of a completed session. It is a value copy
// with no back-reference to the live session that produced it.
type Record struct {
	DurationSeconds   int       `json:"durationSeconds"`
	AvgFlowScore      float64   `json:"avgFlowScore"`
	PeakFlowScore     float64   `json:"peakFlowScore"`
	TabSwitches       int       `json:"tabSwitches"`
	AvgTypingRate     float64   `json:"avgTypingRate"`
	ProductivityIndex float64   `json:"productivityIndex"`
	Timestamp         time.Time `json:"timestamp"`
	HourOfDay         int       `json:"hourOfDay"`
}

// ProductivityIndex derives the session productivity multiplier. Flow
// contributes a tenth of its average, duration adds up to 3 points at ten
// minutes or more, and each tab switch costs 0.15. The index floors at 0.5
// no matter how poor the session was.
func ProductivityIndex(avgFlow float64, duration time.Duration, tabSwitches int) float64 {
	score := avgFlow/10 + min(duration.Seconds()/600, 3) - float64(tabSwitches)*0.15
	if score < 0.5 {
		return 0.5
	}
	return score
}

// FormatProductivity renders the index as a multiplier, e.g. "1.8x".
func FormatProductivity(index float64) string {
	return fmt.Sprintf("%.1fx", index)
}

// Quality labels a session by its average flow score.
func Quality(avgFlow float64) string {
	switch {
	case avgFlow >= 80:
		return "Excellent"
	case avgFlow >= 60:
		return "Great"
	case avgFlow >= 40:
		return "Good"
	default:
		return "Needs Improvement"
	}
}
