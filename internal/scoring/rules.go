package scoring

import (
	"context"
	"time"

	"github.com/flowzoneai/flowzone/internal/metrics"
)

// DefaultIdleThreshold is the idle duration beyond which the idle penalty
// applies.
const DefaultIdleThreshold = 30 * time.Second

// fatigueRamp is the session length at which fatigue reaches 100%.
const fatigueRamp = 90 * time.Minute

// RuleScorer is the deterministic rule-based strategy. It is a pure function
// of the snapshot: identical input always yields an identical result, and it
// never fails.
type RuleScorer struct {
	// IdleThreshold overrides DefaultIdleThreshold when positive.
	IdleThreshold time.Duration
}

// Name returns the strategy name.
func (s *RuleScorer) Name() string { return "rules" }

// Score evaluates the snapshot against the fixed rule set.
func (s *RuleScorer) Score(_ context.Context, snap metrics.Snapshot) (Result, error) {
	idleThreshold := s.IdleThreshold
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}

	score := 50.0
	var distractions []string

	// Typing rhythm: 40-80 keys/min is the empirically good band
	switch {
	case snap.TypingRatePerMin >= 40 && snap.TypingRatePerMin <= 80:
		score += 20
	case snap.TypingRatePerMin > 0:
		score += 10
	}

	// Low pointer activity is a proxy for stillness
	switch {
	case snap.PointerEventCount < 30:
		score += 15
	case snap.PointerEventCount < 70:
		score += 8
	}

	// Tab switching penalty, capped
	if snap.DistractionCount > 0 {
		penalty := float64(snap.DistractionCount) * 5
		if penalty > 30 {
			penalty = 30
		}
		score -= penalty
		distractions = append(distractions, "Tab switching detected")
	}

	if snap.IdleDuration > idleThreshold {
		score -= 20
		distractions = append(distractions, "Idle period detected")
	}

	// Stamina bonus for sustained sessions
	switch {
	case snap.SessionElapsed > 600*time.Second:
		score += 15
	case snap.SessionElapsed > 300*time.Second:
		score += 8
	}

	if isPeakHour(snap.HourOfDay) {
		score += 5
	}

	fatigue := fatigueFromElapsed(snap.SessionElapsed)

	result := Result{
		FlowScore:    score,
		FatigueLevel: fatigue,
		Distractions: distractions,
	}

	if fatigue > 70 {
		result.RecommendedBreak = OptimalBreakLength(snap.SessionElapsed)
	}

	return result.Clamp(), nil
}

// fatigueFromElapsed maps session length onto the deterministic fatigue ramp,
// reaching 100 at fatigueRamp.
func fatigueFromElapsed(elapsed time.Duration) float64 {
	fatigue := elapsed.Seconds() / fatigueRamp.Seconds() * 100
	if fatigue > 100 {
		fatigue = 100
	}
	return fatigue
}

// OptimalBreakLength sizes a break in minutes for the elapsed session length.
func OptimalBreakLength(elapsed time.Duration) int {
	minutes := elapsed.Minutes()
	switch {
	case minutes < 25:
		return 5
	case minutes < 50:
		return 10
	case minutes < 90:
		return 15
	default:
		return 20
	}
}

// isPeakHour reports whether hour falls in one of the three fixed peak focus
// bands: 09-11, 14-16 and 20-22.
func isPeakHour(hour int) bool {
	return (hour >= 9 && hour <= 11) || (hour >= 14 && hour <= 16) || (hour >= 20 && hour <= 22)
}
