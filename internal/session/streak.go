package session

import (
	"time"

	"github.com/flowzoneai/flowzone/internal/store"
)

// streakCelebration is the cadence of streak milestone events, in days.
const streakCelebration = 7

// NextStreak folds a session ending at endedAt into the streak state. The
// comparison is by calendar day, not elapsed time: a session ended at 23:59
// followed by one at 00:01 still counts as consecutive days.
//
// Same day: no change. Exactly one day later: increment. A gap of two or more
// days: reset to 1. No prior session: initialize to 1. The total session
// counter always advances.
func NextStreak(prev store.Streak, endedAt time.Time) store.Streak {
	next := store.Streak{
		LastSessionDate: endedAt,
		TotalSessions:   prev.TotalSessions + 1,
	}

	if prev.LastSessionDate.IsZero() {
		next.Count = 1
		return next
	}

	switch daysBetween(prev.LastSessionDate, endedAt) {
	case 0:
		next.Count = prev.Count
	case 1:
		next.Count = prev.Count + 1
	default:
		next.Count = 1
	}
	return next
}

// CelebratesStreak reports whether the streak count has hit a celebration
// milestone (a multiple of seven days).
func CelebratesStreak(count int) bool {
	return count > 0 && count%streakCelebration == 0
}

// daysBetween returns the number of calendar days from a to b, ignoring
// time-of-day. Negative when b precedes a.
func daysBetween(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bDay.Sub(aDay).Hours() / 24)
}
