package scoring

import (
	"context"

	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/metrics"
)

// FallbackScorer tries the primary strategy first and falls back to the
// secondary on any failure. Fallback is per-call, never sticky: a later call
// attempts the primary again even if the previous one fell back.
type FallbackScorer struct {
	primary  Scorer
	fallback Scorer
}

// NewFallbackScorer composes two strategies into a fallback chain.
func NewFallbackScorer(primary, fallback Scorer) *FallbackScorer {
	return &FallbackScorer{primary: primary, fallback: fallback}
}

// Name returns the chain description.
func (s *FallbackScorer) Name() string {
	return s.primary.Name() + " -> " + s.fallback.Name()
}

// Score evaluates with the primary strategy, degrading to the fallback for
// this call only. The failure is surfaced once per failed call, not per retry.
func (s *FallbackScorer) Score(ctx context.Context, snap metrics.Snapshot) (Result, error) {
	result, err := s.primary.Score(ctx, snap)
	if err == nil {
		return result, nil
	}

	logger.Warn().
		Str("strategy", s.primary.Name()).
		Err(err).
		Msg("Scoring strategy failed, falling back")

	return s.fallback.Score(ctx, snap)
}

// Select builds the active scoring strategy: the remote scorer chained onto
// the rules when remote is non-nil, otherwise the rules alone.
func Select(remote Scorer, rules Scorer) Scorer {
	if remote == nil {
		return rules
	}
	return NewFallbackScorer(remote, rules)
}
