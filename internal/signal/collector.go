// Package signal accumulates raw behavioral events into bounded rolling buffers.
package signal

import (
	"math/rand"
	"sync"
	"time"
)

// Kind identifies the type of a behavioral sample.
type Kind string

const (
	Keystroke   Kind = "keystroke"
	PointerMove Kind = "pointer_move"
	Click       Kind = "click"
	TabSwitch   Kind = "tab_switch"
	WindowBlur  Kind = "window_blur"
	WindowFocus Kind = "window_focus"
)

// Sample is one raw behavioral event. Immutable once recorded.
type Sample struct {
	Kind      Kind
	Timestamp time.Time
}

// Buffer bounds, most recent N kept per kind.
const (
	MaxKeystrokes = 50
	MaxPositions  = 100
	MaxClicks     = 50
	MaxActivity   = 50

	// Pointer positions are kept as a sparse sample of the full move stream.
	pointerSampleRate = 0.05
)

// Collector owns the per-kind rolling buffers for a session. Timestamps are
// not required to be ordered; consumers filter by age rather than position.
type Collector struct {
	mu sync.Mutex

	keystrokes []time.Time
	positions  []Sample
	clicks     []Sample
	activity   []Sample

	// pointerEvents counts every pointer move since the last interval reset,
	// independent of the sparse position buffer.
	pointerEvents int

	lastActivity time.Time

	sampleRate float64
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{sampleRate: pointerSampleRate}
}

// Record appends the sample to its kind-specific buffer, evicting the oldest
// entry once the bound is reached. Keystrokes and pointer moves also advance
// the activity clock.
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch s.Kind {
	case Keystroke:
		c.keystrokes = appendBounded(c.keystrokes, s.Timestamp, MaxKeystrokes)
		c.lastActivity = s.Timestamp
	case PointerMove:
		c.pointerEvents++
		c.lastActivity = s.Timestamp
		if rand.Float64() < c.sampleRate {
			c.positions = appendBounded(c.positions, s, MaxPositions)
		}
	case Click:
		c.clicks = appendBounded(c.clicks, s, MaxClicks)
	case TabSwitch, WindowBlur, WindowFocus:
		c.activity = appendBounded(c.activity, s, MaxActivity)
	}
}

// Reset clears all buffers and counters. Called at session start; calling it
// repeatedly yields the same empty state.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.keystrokes = nil
	c.positions = nil
	c.clicks = nil
	c.activity = nil
	c.pointerEvents = 0
	c.lastActivity = time.Time{}
}

// ResetInterval zeroes the interval-scoped pointer counter. Called after each
// scoring tick so pointer activity is measured per interval.
func (c *Collector) ResetInterval() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pointerEvents = 0
}

// Keystrokes returns a copy of the keystroke timestamp buffer.
func (c *Collector) Keystrokes() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]time.Time, len(c.keystrokes))
	copy(out, c.keystrokes)
	return out
}

// PointerEvents returns the pointer move count for the current interval.
func (c *Collector) PointerEvents() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pointerEvents
}

// Positions returns a copy of the sampled pointer position buffer.
func (c *Collector) Positions() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Sample, len(c.positions))
	copy(out, c.positions)
	return out
}

// Clicks returns a copy of the click buffer.
func (c *Collector) Clicks() []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Sample, len(c.clicks))
	copy(out, c.clicks)
	return out
}

// LastActivity returns the timestamp of the most recent keystroke or pointer
// move, or the zero time if none has been recorded.
func (c *Collector) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}

func appendBounded[T any](buf []T, v T, max int) []T {
	buf = append(buf, v)
	if len(buf) > max {
		// FIFO eviction, oldest first
		buf = buf[len(buf)-max:]
	}
	return buf
}
