package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/flowzoneai/flowzone/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

const (
	profileMetaKey = "learning_profile"
	streakMetaKey  = "streak"
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db         *sql.DB
	dbPath     string
	maxRecords int
	mu         sync.RWMutex
}

// NewSQLiteStore opens (or creates) a SQLite-backed store at dbPath. An empty
// path defaults to ~/.flowzone/sessions.db.
func NewSQLiteStore(dbPath string, maxRecords int) (*SQLiteStore, error) {
	if dbPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".flowzone", "sessions.db")
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxRecords <= 0 {
		maxRecords = history.MaxRecords
	}

	s := &SQLiteStore{
		db:         db,
		dbPath:     dbPath,
		maxRecords: maxRecords,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Debug().
		Str("path", dbPath).
		Msg("Opened session store")

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		duration_seconds INTEGER NOT NULL,
		avg_flow REAL NOT NULL,
		peak_flow REAL NOT NULL,
		tab_switches INTEGER NOT NULL,
		avg_typing REAL NOT NULL,
		productivity REAL NOT NULL,
		timestamp INTEGER NOT NULL,
		hour INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_records_timestamp ON records(timestamp);
	`

	_, err := s.db.Exec(schema)
	return err
}

// AppendRecord inserts the record and evicts the oldest rows beyond the cap.
func (s *SQLiteStore) AppendRecord(r history.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(
		`INSERT INTO records (duration_seconds, avg_flow, peak_flow, tab_switches, avg_typing, productivity, timestamp, hour)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.DurationSeconds,
		r.AvgFlowScore,
		r.PeakFlowScore,
		r.TabSwitches,
		r.AvgTypingRate,
		r.ProductivityIndex,
		r.Timestamp.Unix(),
		r.HourOfDay,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	// FIFO eviction past the cap
	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM records").Scan(&count); err != nil {
		return fmt.Errorf("failed to count records: %w", err)
	}
	if count > s.maxRecords {
		_, err = tx.Exec(
			`DELETE FROM records WHERE id IN (
				SELECT id FROM records ORDER BY id ASC LIMIT ?
			)`,
			count-s.maxRecords,
		)
		if err != nil {
			return fmt.Errorf("failed to evict old records: %w", err)
		}
	}

	return tx.Commit()
}

// Records returns all records in insertion order.
func (s *SQLiteStore) Records() ([]history.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT duration_seconds, avg_flow, peak_flow, tab_switches, avg_typing, productivity, timestamp, hour
		 FROM records ORDER BY id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []history.Record
	for rows.Next() {
		var r history.Record
		var ts int64

		if err := rows.Scan(&r.DurationSeconds, &r.AvgFlowScore, &r.PeakFlowScore, &r.TabSwitches, &r.AvgTypingRate, &r.ProductivityIndex, &ts, &r.HourOfDay); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		r.Timestamp = time.Unix(ts, 0)
		records = append(records, r)
	}

	return records, rows.Err()
}

// SaveProfile overwrites the learning profile.
func (s *SQLiteStore) SaveProfile(p *history.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	return s.setMeta(profileMetaKey, string(data))
}

// LoadProfile returns the stored learning profile, or an empty one when none
// has been saved yet.
func (s *SQLiteStore) LoadProfile() (*history.Profile, error) {
	value, ok, err := s.getMeta(profileMetaKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &history.Profile{}, nil
	}

	var p history.Profile
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		// A corrupt profile is not fatal; start fresh and let the next save
		// overwrite it
		logger.Warn().Err(err).Msg("Stored learning profile is corrupt, starting fresh")
		return &history.Profile{}, nil
	}

	return &p, nil
}

// LoadStreak returns the stored streak state.
func (s *SQLiteStore) LoadStreak() (Streak, error) {
	value, ok, err := s.getMeta(streakMetaKey)
	if err != nil {
		return Streak{}, err
	}
	if !ok {
		return Streak{}, nil
	}

	var st Streak
	if err := json.Unmarshal([]byte(value), &st); err != nil {
		logger.Warn().Err(err).Msg("Stored streak state is corrupt, resetting")
		return Streak{}, nil
	}

	return st, nil
}

// SaveStreak overwrites the streak state.
func (s *SQLiteStore) SaveStreak(st Streak) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("failed to marshal streak: %w", err)
	}
	return s.setMeta(streakMetaKey, string(data))
}

func (s *SQLiteStore) setMeta(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) getMeta(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, true, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
