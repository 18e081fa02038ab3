// Package scoring provides interchangeable flow scoring strategies over a
// single metric snapshot: a deterministic rule-based scorer that is always
// available, and a remote model-backed scorer that degrades to the rules on
// any failure.
package scoring

import (
	"context"
	"errors"

	"github.com/flowzoneai/flowzone/internal/metrics"
)

// ErrUnavailable marks a recoverable scoring failure: the remote scorer is
// unreachable, rate-limited, or returned content that cannot be interpreted.
// Callers fall back to the rule-based scorer for that tick.
var ErrUnavailable = errors.New("scoring strategy unavailable")

// Scorer produces a score result from a metric snapshot.
type Scorer interface {
	// Name returns the human-readable strategy name.
	Name() string

	// Score evaluates the snapshot. Implementations return an error wrapping
	// ErrUnavailable for any recoverable failure.
	Score(ctx context.Context, snap metrics.Snapshot) (Result, error)
}

// Result is the outcome of one scoring tick. FlowScore and FatigueLevel are
// clamped to [0,100] before being applied to session state.
type Result struct {
	FlowScore    float64
	FatigueLevel float64

	// RecommendedBreak is the suggested break length in minutes, 0 when no
	// break is recommended.
	RecommendedBreak int

	Insight      string
	Distractions []string
}

// Clamp bounds FlowScore and FatigueLevel to [0,100]. Applied to every result
// regardless of which strategy produced it.
func (r Result) Clamp() Result {
	r.FlowScore = clamp(r.FlowScore)
	r.FatigueLevel = clamp(r.FatigueLevel)
	return r
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
