package session

import "time"

// EventType labels a tracker event for its consumers.
type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventSessionEnded   EventType = "session_ended"
	EventScoreUpdate    EventType = "score_update"
	EventMilestone      EventType = "milestone"
	EventBreakSuggested EventType = "break_suggested"
	EventIdleWarning    EventType = "idle_warning"
	EventInsight        EventType = "insight"
	EventStreak         EventType = "streak"
)

// Event is an observational signal for the presentation layer. Events never
// drive state transitions; they describe what the tracker already did.
type Event struct {
	Type         EventType `json:"type"`
	Message      string    `json:"message,omitempty"`
	Score        float64   `json:"score,omitempty"`
	Fatigue      float64   `json:"fatigue,omitempty"`
	BreakMinutes int       `json:"breakMinutes,omitempty"`
	StreakDays   int       `json:"streakDays,omitempty"`
	At           time.Time `json:"at"`
}

// Sink receives tracker events. Implementations must not block; the tracker
// emits from its tick handlers.
type Sink interface {
	Emit(e Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit discards the event.
func (NopSink) Emit(Event) {}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit calls the wrapped function.
func (f SinkFunc) Emit(e Event) { f(e) }

// MultiSink fans each event out to several sinks in order.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}
