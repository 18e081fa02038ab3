package history

import (
	"testing"
	"time"
)

func rec(ts time.Time, avgFlow float64, durationSec, switches int) Record {
	return Record{
		DurationSeconds: durationSec,
		AvgFlowScore:    avgFlow,
		TabSwitches:     switches,
		Timestamp:       ts,
		HourOfDay:       ts.Hour(),
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	records := []Record{
		// Inside the 7 day window
		{Timestamp: now.Add(-24 * time.Hour), AvgFlowScore: 80, DurationSeconds: 1800, ProductivityIndex: 2.0},
		{Timestamp: now.Add(-48 * time.Hour), AvgFlowScore: 60, DurationSeconds: 600, ProductivityIndex: 1.0},
		// Outside the window
		{Timestamp: now.Add(-10 * 24 * time.Hour), AvgFlowScore: 90, DurationSeconds: 3600, ProductivityIndex: 3.0},
	}

	s := Summarize(records, DefaultSummaryWindow, now)

	if s.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", s.Sessions)
	}
	if s.TotalDuration != 40*time.Minute {
		t.Errorf("TotalDuration = %v, want 40m", s.TotalDuration)
	}
	if s.MeanFlowScore != 70 {
		t.Errorf("MeanFlowScore = %v, want 70", s.MeanFlowScore)
	}
	if s.DeepWorkCount != 1 {
		t.Errorf("DeepWorkCount = %d, want 1", s.DeepWorkCount)
	}
	if s.MeanProductivity != 1.5 {
		t.Errorf("MeanProductivity = %v, want 1.5", s.MeanProductivity)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 0, time.Now())
	if s.Sessions != 0 || s.MeanFlowScore != 0 || s.MeanProductivity != 0 {
		t.Errorf("empty summary not zero: %+v", s)
	}
}

func TestRankBestHours(t *testing.T) {
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	records := []Record{
		{HourOfDay: 9, AvgFlowScore: 60, Timestamp: base},
		{HourOfDay: 14, AvgFlowScore: 80, Timestamp: base},
		{HourOfDay: 9, AvgFlowScore: 80, Timestamp: base},  // hour 9 mean: 70
		{HourOfDay: 20, AvgFlowScore: 70, Timestamp: base}, // ties hour 9's mean
	}

	ranks := RankBestHours(records)
	if len(ranks) != 3 {
		t.Fatalf("expected 3 hour buckets, got %d", len(ranks))
	}

	if ranks[0].Hour != 14 || ranks[0].MeanFlow != 80 {
		t.Errorf("ranks[0] = %+v, want hour 14 at 80", ranks[0])
	}
	// 9 and 20 both average 70; hour 9 appeared first so it ranks ahead
	if ranks[1].Hour != 9 {
		t.Errorf("tie-break violated: ranks[1].Hour = %d, want 9", ranks[1].Hour)
	}
	if ranks[2].Hour != 20 {
		t.Errorf("ranks[2].Hour = %d, want 20", ranks[2].Hour)
	}
	if ranks[1].Sessions != 2 {
		t.Errorf("hour 9 session count = %d, want 2", ranks[1].Sessions)
	}
}

func TestTrendChange(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		records []Record
		metric  Metric
		want    float64
	}{
		{
			name:    "empty",
			records: nil,
			metric:  MetricAvgFlow,
			want:    0,
		},
		{
			name:    "single record",
			records: []Record{rec(now, 50, 600, 0)},
			metric:  MetricAvgFlow,
			want:    0,
		},
		{
			name:    "flat pair is zero percent",
			records: []Record{rec(now, 50, 600, 0), rec(now, 50, 600, 0)},
			metric:  MetricAvgFlow,
			want:    0,
		},
		{
			name:    "zero first-half mean yields zero, not a blowup",
			records: []Record{rec(now, 0, 600, 0), rec(now, 80, 600, 0)},
			metric:  MetricAvgFlow,
			want:    0,
		},
		{
			name:    "improvement",
			records: []Record{rec(now, 50, 600, 0), rec(now, 75, 600, 0)},
			metric:  MetricAvgFlow,
			want:    50,
		},
		{
			name: "odd count splits by position",
			// mid=1: first half [40], second half [60, 80] mean 70 -> +75%
			records: []Record{rec(now, 40, 600, 0), rec(now, 60, 600, 0), rec(now, 80, 600, 0)},
			metric:  MetricAvgFlow,
			want:    75,
		},
		{
			name:    "duration metric decline",
			records: []Record{rec(now, 50, 1200, 0), rec(now, 50, 600, 0)},
			metric:  MetricDuration,
			want:    -50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrendChange(tt.records, tt.metric); got != tt.want {
				t.Errorf("TrendChange = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeeklyFlow(t *testing.T) {
	// A Sunday noon
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	records := []Record{
		rec(now.Add(-2*time.Hour), 80, 600, 0),     // Sunday
		rec(now.Add(-26*time.Hour), 60, 600, 0),    // Saturday
		rec(now.Add(-27*time.Hour), 70, 600, 0),    // Saturday
		rec(now.Add(-8*24*time.Hour), 90, 600, 0),  // outside the week
	}

	got := WeeklyFlow(records, now)
	if got[time.Sunday] != 80 {
		t.Errorf("Sunday = %d, want 80", got[time.Sunday])
	}
	if got[time.Saturday] != 65 {
		t.Errorf("Saturday = %d, want 65", got[time.Saturday])
	}
	if _, ok := got[time.Monday]; ok {
		t.Error("Monday should have no bucket")
	}
}

func TestTotalTabSwitches(t *testing.T) {
	records := []Record{
		{TabSwitches: 3},
		{TabSwitches: 0},
		{TabSwitches: 7},
	}
	if got := TotalTabSwitches(records); got != 10 {
		t.Errorf("TotalTabSwitches = %d, want 10", got)
	}
}
