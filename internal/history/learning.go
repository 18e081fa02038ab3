package history

import "time"

// Profile caps. The source of these aggregates kept them unbounded; a
// most-recent cap keeps the persisted profile from growing without limit.
const maxProfileEvents = 200

// Thresholds for recording peak and trigger events.
const (
	peakScoreThreshold   = 80.0
	flowTriggerThreshold = 70.0
)

// HourObservation records the flow score observed at a given hour.
type HourObservation struct {
	Hour      int       `json:"hour"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// PeakEvent records the conditions around an unusually high score.
type PeakEvent struct {
	Score      float64   `json:"score"`
	Hour       int       `json:"hour"`
	TypingRate float64   `json:"typingRate"`
	Timestamp  time.Time `json:"timestamp"`
}

// TriggerEvent records the conditions that coincided with a flow state.
type TriggerEvent struct {
	TypingRate    float64 `json:"typingRate"`
	Hour          int     `json:"hour"`
	SessionLength int     `json:"sessionLengthSeconds"`
	TabSwitches   int     `json:"tabSwitches"`
}

// Profile is the longitudinal learning aggregate, mutated on a periodic
// cadence while a session is active and persisted after each mutation.
type Profile struct {
	BestHours    []HourObservation `json:"bestHours"`
	PeakScores   []PeakEvent       `json:"peakScores"`
	FlowTriggers []TriggerEvent    `json:"flowTriggers"`
}

// Observation is one learning sample taken from a live session.
type Observation struct {
	Score         float64
	Hour          int
	TypingRate    float64
	SessionLength time.Duration
	TabSwitches   int
	At            time.Time
}

// Observe folds the observation into the profile. Every observation lands in
// BestHours; scores above 80 also record a peak event, and scores above 70 a
// flow trigger.
func (p *Profile) Observe(o Observation) {
	p.BestHours = append(p.BestHours, HourObservation{
		Hour:      o.Hour,
		Score:     o.Score,
		Timestamp: o.At,
	})

	if o.Score > peakScoreThreshold {
		p.PeakScores = append(p.PeakScores, PeakEvent{
			Score:      o.Score,
			Hour:       o.Hour,
			TypingRate: o.TypingRate,
			Timestamp:  o.At,
		})
	}

	if o.Score > flowTriggerThreshold {
		p.FlowTriggers = append(p.FlowTriggers, TriggerEvent{
			TypingRate:    o.TypingRate,
			Hour:          o.Hour,
			SessionLength: int(o.SessionLength.Seconds()),
			TabSwitches:   o.TabSwitches,
		})
	}

	p.trim()
}

func (p *Profile) trim() {
	if n := len(p.BestHours); n > maxProfileEvents {
		p.BestHours = p.BestHours[n-maxProfileEvents:]
	}
	if n := len(p.PeakScores); n > maxProfileEvents {
		p.PeakScores = p.PeakScores[n-maxProfileEvents:]
	}
	if n := len(p.FlowTriggers); n > maxProfileEvents {
		p.FlowTriggers = p.FlowTriggers[n-maxProfileEvents:]
	}
}

// BestHourRanking averages the observed scores per hour and sorts descending,
// mirroring RankBestHours but over live observations rather than completed
// sessions.
func (p *Profile) BestHourRanking() []HourRank {
	records := make([]Record, 0, len(p.BestHours))
	for _, o := range p.BestHours {
		records = append(records, Record{HourOfDay: o.Hour, AvgFlowScore: o.Score})
	}
	return RankBestHours(records)
}
