package scoring

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/flowzoneai/flowzone/internal/metrics"
)

func TestRuleScorer(t *testing.T) {
	s := &RuleScorer{}

	tests := []struct {
		name      string
		snap      metrics.Snapshot
		wantScore float64
	}{
		{
			// 50 base +20 typing +15 pointer +15 stamina +5 peak hour = 105, clamped
			name: "ideal session clamps to 100",
			snap: metrics.Snapshot{
				TypingRatePerMin: 60,
				SessionElapsed:   700 * time.Second,
				HourOfDay:        10,
			},
			wantScore: 100,
		},
		{
			// 50 base +15 pointer -30 capped switches -20 idle = 15
			name: "distracted idle session",
			snap: metrics.Snapshot{
				DistractionCount: 8,
				IdleDuration:     40 * time.Second,
				SessionElapsed:   100 * time.Second,
				HourOfDay:        3,
			},
			wantScore: 15,
		},
		{
			name:      "empty snapshot gets base plus pointer bonus",
			snap:      metrics.Snapshot{},
			wantScore: 65,
		},
		{
			// +10 for typing outside the good band, +8 for moderate pointer
			name: "off-band typing with moderate pointer",
			snap: metrics.Snapshot{
				TypingRatePerMin:  120,
				PointerEventCount: 50,
				HourOfDay:         12,
			},
			wantScore: 68,
		},
		{
			// penalty caps at 30 even for many switches
			name: "switch penalty capped",
			snap: metrics.Snapshot{
				DistractionCount:  100,
				PointerEventCount: 90,
				HourOfDay:         12,
			},
			wantScore: 20,
		},
		{
			// +8 stamina for the 5 minute tier
			name: "mid stamina tier",
			snap: metrics.Snapshot{
				SessionElapsed:    400 * time.Second,
				PointerEventCount: 90,
				HourOfDay:         12,
			},
			wantScore: 58,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Score(context.Background(), tt.snap)
			if err != nil {
				t.Fatalf("Score returned error: %v", err)
			}
			if got.FlowScore != tt.wantScore {
				t.Errorf("FlowScore = %v, want %v", got.FlowScore, tt.wantScore)
			}
			if got.FlowScore < 0 || got.FlowScore > 100 {
				t.Errorf("FlowScore out of range: %v", got.FlowScore)
			}
			if got.FatigueLevel < 0 || got.FatigueLevel > 100 {
				t.Errorf("FatigueLevel out of range: %v", got.FatigueLevel)
			}
		})
	}
}

func TestRuleScorerDeterministic(t *testing.T) {
	s := &RuleScorer{}
	snap := metrics.Snapshot{
		TypingRatePerMin:  55,
		PointerEventCount: 40,
		DistractionCount:  2,
		IdleDuration:      5 * time.Second,
		SessionElapsed:    20 * time.Minute,
		HourOfDay:         15,
	}

	first, err := s.Score(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		got, err := s.Score(context.Background(), snap)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, first) {
			t.Fatalf("result varied between calls: %+v != %+v", got, first)
		}
	}
}

func TestFatigueRamp(t *testing.T) {
	s := &RuleScorer{}

	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 0},
		{45 * time.Minute, 50},
		{90 * time.Minute, 100},
		{3 * time.Hour, 100}, // capped
	}

	for _, tt := range tests {
		got, err := s.Score(context.Background(), metrics.Snapshot{SessionElapsed: tt.elapsed})
		if err != nil {
			t.Fatal(err)
		}
		if got.FatigueLevel != tt.want {
			t.Errorf("fatigue at %v = %v, want %v", tt.elapsed, got.FatigueLevel, tt.want)
		}
	}
}

func TestBreakRecommendation(t *testing.T) {
	s := &RuleScorer{}

	// Below the fatigue gate: no break recommended
	got, err := s.Score(context.Background(), metrics.Snapshot{SessionElapsed: 30 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if got.RecommendedBreak != 0 {
		t.Errorf("break recommended at low fatigue: %d", got.RecommendedBreak)
	}

	// Fatigue above 70 (>63 min) recommends a break sized for the session
	got, err = s.Score(context.Background(), metrics.Snapshot{SessionElapsed: 70 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if got.RecommendedBreak != 15 {
		t.Errorf("RecommendedBreak = %d, want 15", got.RecommendedBreak)
	}
}

func TestOptimalBreakLength(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{10 * time.Minute, 5},
		{25 * time.Minute, 10},
		{49 * time.Minute, 10},
		{60 * time.Minute, 15},
		{90 * time.Minute, 20},
		{2 * time.Hour, 20},
	}

	for _, tt := range tests {
		if got := OptimalBreakLength(tt.elapsed); got != tt.want {
			t.Errorf("OptimalBreakLength(%v) = %d, want %d", tt.elapsed, got, tt.want)
		}
	}
}

func TestPeakHours(t *testing.T) {
	peaks := map[int]bool{9: true, 10: true, 11: true, 14: true, 15: true, 16: true, 20: true, 21: true, 22: true}
	for hour := 0; hour < 24; hour++ {
		if got := isPeakHour(hour); got != peaks[hour] {
			t.Errorf("isPeakHour(%d) = %v, want %v", hour, got, peaks[hour])
		}
	}
}

func TestClamp(t *testing.T) {
	r := Result{FlowScore: 140, FatigueLevel: -20}.Clamp()
	if r.FlowScore != 100 {
		t.Errorf("FlowScore = %v, want 100", r.FlowScore)
	}
	if r.FatigueLevel != 0 {
		t.Errorf("FatigueLevel = %v, want 0", r.FatigueLevel)
	}
}
