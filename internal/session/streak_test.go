package session

import (
	"testing"
	"time"

	"github.com/flowzoneai/flowzone/internal/store"
)

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name      string
		prev      store.Streak
		endedAt   time.Time
		wantCount int
	}{
		{
			name:      "first session ever initializes to one",
			prev:      store.Streak{},
			endedAt:   time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			wantCount: 1,
		},
		{
			name: "same calendar day leaves count unchanged",
			prev: store.Streak{
				Count:           3,
				LastSessionDate: time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC),
			},
			endedAt:   time.Date(2025, 6, 15, 22, 30, 0, 0, time.UTC),
			wantCount: 3,
		},
		{
			name: "next calendar day increments regardless of time of day",
			prev: store.Streak{
				Count:           3,
				LastSessionDate: time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC),
			},
			endedAt:   time.Date(2025, 6, 16, 0, 1, 0, 0, time.UTC),
			wantCount: 4,
		},
		{
			name: "two day gap resets to one",
			prev: store.Streak{
				Count:           9,
				LastSessionDate: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
			},
			endedAt:   time.Date(2025, 6, 17, 10, 0, 0, 0, time.UTC),
			wantCount: 1,
		},
		{
			name: "increment across a month boundary",
			prev: store.Streak{
				Count:           1,
				LastSessionDate: time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC),
			},
			endedAt:   time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := NextStreak(tt.prev, tt.endedAt)
			if next.Count != tt.wantCount {
				t.Errorf("Count = %d, want %d", next.Count, tt.wantCount)
			}
			if next.TotalSessions != tt.prev.TotalSessions+1 {
				t.Errorf("TotalSessions = %d, want %d", next.TotalSessions, tt.prev.TotalSessions+1)
			}
			if !next.LastSessionDate.Equal(tt.endedAt) {
				t.Errorf("LastSessionDate = %v, want %v", next.LastSessionDate, tt.endedAt)
			}
		})
	}
}

func TestCelebratesStreak(t *testing.T) {
	tests := []struct {
		count int
		want  bool
	}{
		{0, false},
		{1, false},
		{6, false},
		{7, true},
		{14, true},
		{15, false},
	}

	for _, tt := range tests {
		if got := CelebratesStreak(tt.count); got != tt.want {
			t.Errorf("CelebratesStreak(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}
