// Package store persists session history, the learning profile and streak
// state. The core defines the schema; the storage mechanism is replaceable,
// and a failed backend degrades the engine to memory-only behavior rather
// than stopping a session.
package store

import (
	"sync"
	"time"

	"github.com/flowzoneai/flowzone/internal/history"
)

// Store defines the persistence interface for session outcomes
type Store interface {
	// Record management. AppendRecord enforces the history cap with FIFO
	// eviction on write.
	AppendRecord(r history.Record) error
	Records() ([]history.Record, error)

	// Learning profile, overwritten (not appended) on each update
	SaveProfile(p *history.Profile) error
	LoadProfile() (*history.Profile, error)

	// Streak state
	LoadStreak() (Streak, error)
	SaveStreak(s Streak) error

	// Lifecycle
	Close() error
}

// Streak tracks consecutive-day usage and the total session count.
type Streak struct {
	Count           int       `json:"count"`
	LastSessionDate time.Time `json:"lastSessionDate"`
	TotalSessions   int       `json:"totalSessions"`
}

// MemoryStore is an in-process Store used when no persistence backend is
// available. Sessions keep working; history simply does not survive the
// process.
type MemoryStore struct {
	mu      sync.Mutex
	max     int
	records []history.Record
	profile *history.Profile
	streak  Streak
}

// NewMemoryStore creates an in-memory store capped at max records.
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = history.MaxRecords
	}
	return &MemoryStore{max: max}
}

// AppendRecord appends the record, evicting the oldest past the cap.
func (m *MemoryStore) AppendRecord(r history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = append(m.records, r)
	if len(m.records) > m.max {
		m.records = m.records[len(m.records)-m.max:]
	}
	return nil
}

// Records returns a copy of the stored records in insertion order.
func (m *MemoryStore) Records() ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]history.Record, len(m.records))
	copy(out, m.records)
	return out, nil
}

// SaveProfile overwrites the stored profile.
func (m *MemoryStore) SaveProfile(p *history.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	m.profile = &cp
	return nil
}

// LoadProfile returns the stored profile, or an empty one.
func (m *MemoryStore) LoadProfile() (*history.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.profile == nil {
		return &history.Profile{}, nil
	}
	cp := *m.profile
	return &cp, nil
}

// LoadStreak returns the stored streak state.
func (m *MemoryStore) LoadStreak() (Streak, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.streak, nil
}

// SaveStreak overwrites the streak state.
func (m *MemoryStore) SaveStreak(s Streak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streak = s
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }
