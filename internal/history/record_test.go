package history

import (
	"math"
	"testing"
	"time"
)

func TestProductivityIndex(t *testing.T) {
	tests := []struct {
		name     string
		avgFlow  float64
		duration time.Duration
		switches int
		want     float64
	}{
		{
			name:     "floors at half regardless of how poor",
			avgFlow:  0,
			duration: 0,
			switches: 50,
			want:     0.5,
		},
		{
			name:     "duration bonus caps at three",
			avgFlow:  70,
			duration: 2 * time.Hour,
			switches: 0,
			want:     10, // 7 + 3
		},
		{
			name:     "switches cost fifteen hundredths each",
			avgFlow:  60,
			duration: 10 * time.Minute,
			switches: 4,
			want:     8.4, // 6 + 1 - 0.6
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProductivityIndex(tt.avgFlow, tt.duration, tt.switches)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ProductivityIndex = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatProductivity(t *testing.T) {
	if got := FormatProductivity(1.84); got != "1.8x" {
		t.Errorf("FormatProductivity = %q, want %q", got, "1.8x")
	}
	if got := FormatProductivity(0.5); got != "0.5x" {
		t.Errorf("FormatProductivity = %q, want %q", got, "0.5x")
	}
}

func TestQuality(t *testing.T) {
	tests := []struct {
		avgFlow float64
		want    string
	}{
		{85, "Excellent"},
		{80, "Excellent"},
		{65, "Great"},
		{50, "Good"},
		{39, "Needs Improvement"},
	}

	for _, tt := range tests {
		if got := Quality(tt.avgFlow); got != tt.want {
			t.Errorf("Quality(%v) = %q, want %q", tt.avgFlow, got, tt.want)
		}
	}
}
