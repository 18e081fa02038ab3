// Package metrics reduces raw behavioral buffers into scalar metrics.
//
// Every function here is a pure function of its inputs; the reducer holds no
// state of its own. Buffers may contain out-of-order timestamps, so reduction
// filters by age rather than by position.
package metrics

import "time"

// DefaultTypingWindow is the sliding window for the typing rate.
const DefaultTypingWindow = 10 * time.Second

// Snapshot is the derived metric set handed to a scoring strategy. It is
// ephemeral and recomputed on every scoring tick, never persisted.
type Snapshot struct {
	TypingRatePerMin  float64
	PointerEventCount int
	DistractionCount  int
	IdleDuration      time.Duration
	SessionElapsed    time.Duration
	HourOfDay         int
}

// TypingRate converts keystroke timestamps into an events-per-minute rate over
// the trailing window ending at now. Keystrokes older than the window age out
// of the rate even though they may remain in the buffer.
func TypingRate(keystrokes []time.Time, window time.Duration, now time.Time) float64 {
	if window <= 0 {
		window = DefaultTypingWindow
	}

	recent := 0
	for _, ts := range keystrokes {
		if now.Sub(ts) < window {
			recent++
		}
	}

	return float64(recent) / float64(window.Milliseconds()) * 60000
}

// IdleDuration returns the time since the last keystroke or pointer move.
// A zero lastActivity means no activity has been observed yet; idle time is
// reported as zero rather than the age of the epoch.
func IdleDuration(lastActivity, now time.Time) time.Duration {
	if lastActivity.IsZero() {
		return 0
	}
	d := now.Sub(lastActivity)
	if d < 0 {
		return 0
	}
	return d
}
