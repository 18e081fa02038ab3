// Package session owns the tracking lifecycle: it turns raw behavioral
// samples into a live flow score on a fixed cadence, raises observational
// events for the presentation layer, and derives the immutable session record
// when tracking stops.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flowzoneai/flowzone/internal/history"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/metrics"
	"github.com/flowzoneai/flowzone/internal/scoring"
	"github.com/flowzoneai/flowzone/internal/signal"
	"github.com/flowzoneai/flowzone/internal/store"
)

// State is the lifecycle phase of the current session.
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StateEnded  State = "ended"
)

// ErrNoActiveSession is returned by Stop when no session is running.
var ErrNoActiveSession = errors.New("no active session")

const (
	// tabSwitchPenalty is applied out-of-band the moment the tab goes hidden,
	// outside the periodic scoring tick.
	tabSwitchPenalty = 5.0

	// idleDecay is subtracted from the live score on each idle tick once the
	// idle threshold is exceeded.
	idleDecay = 0.1

	// maxScoreHistory caps the in-memory score history, FIFO eviction.
	maxScoreHistory = 100

	// scoreTimeout bounds a single scoring call so a slow remote strategy
	// cannot stall the tick loop past the next tick.
	scoreTimeout = 10 * time.Second
)

// milestones are the elapsed-time thresholds that raise observational events.
var milestones = []struct {
	at      time.Duration
	message string
}{
	{5 * time.Minute, "5 minutes of sustained focus"},
	{25 * time.Minute, "25 minutes of deep work"},
	{50 * time.Minute, "50 minutes in, a break is coming up"},
}

// ScorePoint is one entry in the in-memory score history.
type ScorePoint struct {
	Score        float64   `json:"score"`
	At           time.Time `json:"at"`
	TypingRate   float64   `json:"typingRate"`
	Distractions int       `json:"distractions"`
}

// Status is a read-only view of the live session, handed to the presentation
// layer and the coach.
type Status struct {
	State       State         `json:"state"`
	Score       float64       `json:"score"`
	Fatigue     float64       `json:"fatigue"`
	Elapsed     time.Duration `json:"elapsed"`
	TabSwitches int           `json:"tabSwitches"`
	TypingRate  float64       `json:"typingRate"`
	StartedAt   time.Time     `json:"startedAt,omitempty"`
	Streak      store.Streak  `json:"streak"`
}

// Summary is the outcome of a completed session.
type Summary struct {
	Record           history.Record
	Quality          string
	Streak           store.Streak
	StreakCelebrated bool
}

// Options configures a Tracker. Zero durations fall back to the defaults the
// config package defines.
type Options struct {
	Scorer scoring.Scorer
	Store  store.Store
	Sink   Sink

	ScoreInterval   time.Duration
	IdleInterval    time.Duration
	IdleThreshold   time.Duration
	TypingWindow    time.Duration
	LearningCadence time.Duration
}

// Tracker is the session state machine. It exclusively owns the live score,
// fatigue, counters and score history; every mutation happens under its mutex,
// inside a tick handler or an explicit command.
type Tracker struct {
	mu sync.Mutex

	scorer    scoring.Scorer
	store     store.Store
	sink      Sink
	collector *signal.Collector
	profile   *history.Profile

	scoreInterval   time.Duration
	idleInterval    time.Duration
	idleThreshold   time.Duration
	typingWindow    time.Duration
	learningCadence time.Duration

	state        State
	startedAt    time.Time
	score        float64
	fatigue      float64
	tabSwitches  int
	pendingBreak bool
	idleWarned   bool
	scoreHistory []ScorePoint
	milestoneIdx int

	// generation invalidates scoring results that resolve after the session
	// they were started for has ended.
	generation int

	cancel context.CancelFunc
	wg     sync.WaitGroup

	now func() time.Time
}

// New creates a tracker in the Idle state. The learning profile is loaded
// eagerly; a storage failure degrades to an empty in-memory profile.
func New(opts Options) *Tracker {
	if opts.Scorer == nil {
		opts.Scorer = &scoring.RuleScorer{}
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore(history.MaxRecords)
	}
	if opts.Sink == nil {
		opts.Sink = NopSink{}
	}
	if opts.ScoreInterval <= 0 {
		opts.ScoreInterval = 3 * time.Second
	}
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = time.Second
	}
	if opts.IdleThreshold <= 0 {
		opts.IdleThreshold = scoring.DefaultIdleThreshold
	}
	if opts.TypingWindow <= 0 {
		opts.TypingWindow = metrics.DefaultTypingWindow
	}
	if opts.LearningCadence <= 0 {
		opts.LearningCadence = 5 * time.Minute
	}

	profile, err := opts.Store.LoadProfile()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load learning profile, starting empty")
		profile = &history.Profile{}
	}

	return &Tracker{
		scorer:          opts.Scorer,
		store:           opts.Store,
		sink:            opts.Sink,
		collector:       signal.NewCollector(),
		profile:         profile,
		scoreInterval:   opts.ScoreInterval,
		idleInterval:    opts.IdleInterval,
		idleThreshold:   opts.IdleThreshold,
		typingWindow:    opts.TypingWindow,
		learningCadence: opts.LearningCadence,
		state:           StateIdle,
		now:             time.Now,
	}
}

// SetSink replaces the event sink. Useful when a presentation layer (for
// example the dashboard broadcaster) is wired up after the tracker exists.
func (t *Tracker) SetSink(s Sink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s == nil {
		s = NopSink{}
	}
	t.sink = s
}

// Start begins a new session. If one is already active it is ended first; a
// fresh session never resurrects an ended one.
func (t *Tracker) Start() error {
	t.mu.Lock()
	if t.state == StateActive {
		t.mu.Unlock()
		if _, err := t.Stop(); err != nil {
			logger.Warn().Err(err).Msg("Failed to end previous session cleanly")
		}
		t.mu.Lock()
	}

	now := t.now()
	t.generation++
	t.state = StateActive
	t.startedAt = now
	t.score = 50
	t.fatigue = 0
	t.tabSwitches = 0
	t.pendingBreak = false
	t.idleWarned = false
	t.scoreHistory = nil
	t.milestoneIdx = 0
	t.collector.Reset()

	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel

	t.wg.Add(4)
	go t.loop(ctx, t.scoreInterval, func() { t.scoreTick(ctx) })
	go t.loop(ctx, time.Second, t.elapsedTick)
	go t.loop(ctx, t.idleInterval, t.idleTick)
	go t.loop(ctx, t.learningCadence, t.learnTick)

	t.emitLocked(Event{Type: EventSessionStarted, Message: "Session started", Score: t.score, At: now})
	t.mu.Unlock()

	logger.Info().Time("started_at", now).Msg("Session started")
	return nil
}

// Stop ends the active session: tickers are cancelled, a late scoring result
// is discarded rather than applied, and the derived record is persisted along
// with the updated streak. Storage failures degrade to memory-only behavior.
func (t *Tracker) Stop() (*Summary, error) {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return nil, ErrNoActiveSession
	}

	now := t.now()
	t.state = StateEnded
	t.generation++
	cancel := t.cancel
	t.cancel = nil
	record := t.deriveRecordLocked(now)
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.wg.Wait()

	summary := &Summary{
		Record:  record,
		Quality: history.Quality(record.AvgFlowScore),
	}

	if err := t.store.AppendRecord(record); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist session record, continuing without history")
	}

	prev, err := t.store.LoadStreak()
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load streak state")
		prev = store.Streak{}
	}
	next := NextStreak(prev, now)
	if err := t.store.SaveStreak(next); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist streak state")
	}
	summary.Streak = next
	summary.StreakCelebrated = next.Count > prev.Count && CelebratesStreak(next.Count)

	t.mu.Lock()
	t.emitLocked(Event{
		Type:    EventSessionEnded,
		Message: summary.Quality,
		Score:   record.AvgFlowScore,
		At:      now,
	})
	if summary.StreakCelebrated {
		t.emitLocked(Event{
			Type:       EventStreak,
			Message:    "Streak milestone reached",
			StreakDays: next.Count,
			At:         now,
		})
	}
	t.mu.Unlock()

	logger.Info().
		Int("duration_s", record.DurationSeconds).
		Float64("avg_flow", record.AvgFlowScore).
		Int("streak", next.Count).
		Msg("Session ended")

	return summary, nil
}

// Observe feeds one behavioral sample into the session. Tab switches and
// window blurs apply an immediate penalty outside the scoring cadence;
// everything else only lands in the collector buffers.
func (t *Tracker) Observe(s signal.Sample) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = t.now()
	}
	t.collector.Record(s)

	if s.Kind == signal.TabSwitch || s.Kind == signal.WindowBlur {
		t.tabSwitches++
		t.score = floorZero(t.score - tabSwitchPenalty)
	}
}

// Snapshot returns a read-only view of the live session.
func (t *Tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	st := Status{
		State:       t.state,
		Score:       t.score,
		Fatigue:     t.fatigue,
		TabSwitches: t.tabSwitches,
	}
	if t.state == StateActive {
		st.Elapsed = now.Sub(t.startedAt)
		st.TypingRate = metrics.TypingRate(t.collector.Keystrokes(), t.typingWindow, now)
		st.StartedAt = t.startedAt
	}
	if streak, err := t.store.LoadStreak(); err == nil {
		st.Streak = streak
	}
	return st
}

// ScoreHistory returns a copy of the in-memory score history for the current
// session.
func (t *Tracker) ScoreHistory() []ScorePoint {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ScorePoint, len(t.scoreHistory))
	copy(out, t.scoreHistory)
	return out
}

// Profile returns a copy of the learning profile.
func (t *Tracker) Profile() history.Profile {
	t.mu.Lock()
	defer t.mu.Unlock()
	return *t.profile
}

func (t *Tracker) loop(ctx context.Context, interval time.Duration, tick func()) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick()
		}
	}
}

// scoreTick runs one scoring pass: snapshot the metrics, invoke the strategy,
// and apply the clamped result if the session is still the one the tick was
// started for.
func (t *Tracker) scoreTick(ctx context.Context) {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	gen := t.generation
	now := t.now()
	snap := t.metricsLocked(now)
	t.mu.Unlock()

	sctx, cancelScore := context.WithTimeout(ctx, scoreTimeout)
	result, err := t.scorer.Score(sctx, snap)
	cancelScore()
	if err != nil {
		// The fallback chain absorbs remote failures, so an error here means
		// every strategy failed. Keep the previous score.
		logger.Error().Err(err).Msg("All scoring strategies failed, keeping previous score")
		return
	}
	result = result.Clamp()

	t.mu.Lock()
	defer t.mu.Unlock()

	// A result that resolves after Stop (or after a newer Start) is discarded.
	if t.state != StateActive || t.generation != gen {
		return
	}

	t.score = result.FlowScore
	t.fatigue = result.FatigueLevel
	t.scoreHistory = append(t.scoreHistory, ScorePoint{
		Score:        result.FlowScore,
		At:           now,
		TypingRate:   snap.TypingRatePerMin,
		Distractions: snap.DistractionCount,
	})
	if len(t.scoreHistory) > maxScoreHistory {
		t.scoreHistory = t.scoreHistory[len(t.scoreHistory)-maxScoreHistory:]
	}

	// Pointer activity is an interval-scoped metric
	t.collector.ResetInterval()

	t.emitLocked(Event{Type: EventScoreUpdate, Score: t.score, Fatigue: t.fatigue, At: now})

	if result.Insight != "" {
		t.emitLocked(Event{Type: EventInsight, Message: result.Insight, At: now})
	}

	if result.RecommendedBreak > 0 && !t.pendingBreak {
		t.pendingBreak = true
		t.emitLocked(Event{
			Type:         EventBreakSuggested,
			Message:      "Fatigue is building, take a break",
			BreakMinutes: result.RecommendedBreak,
			Fatigue:      t.fatigue,
			At:           now,
		})
	}
}

// elapsedTick raises milestone events as elapsed time crosses the fixed
// thresholds. Milestones are observational, not state transitions.
func (t *Tracker) elapsedTick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return
	}

	now := t.now()
	elapsed := now.Sub(t.startedAt)
	for t.milestoneIdx < len(milestones) && elapsed >= milestones[t.milestoneIdx].at {
		t.emitLocked(Event{
			Type:    EventMilestone,
			Message: milestones[t.milestoneIdx].message,
			Score:   t.score,
			At:      now,
		})
		t.milestoneIdx++
	}
}

// idleTick decays the live score while the user is idle past the threshold
// and raises a warning once idle time reaches twice the threshold. The warning
// re-arms when activity resumes.
func (t *Tracker) idleTick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != StateActive {
		return
	}

	now := t.now()
	idle := t.idleDurationLocked(now)

	if idle <= t.idleThreshold {
		t.idleWarned = false
		return
	}

	t.score = floorZero(t.score - idleDecay)

	if idle > 2*t.idleThreshold && !t.idleWarned {
		t.idleWarned = true
		t.emitLocked(Event{
			Type:    EventIdleWarning,
			Message: "Extended idle period detected",
			Score:   t.score,
			At:      now,
		})
	}
}

// learnTick folds the current session conditions into the learning profile
// and persists it. Runs on the learning cadence while active.
func (t *Tracker) learnTick() {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}

	now := t.now()
	t.profile.Observe(history.Observation{
		Score:         t.score,
		Hour:          now.Hour(),
		TypingRate:    metrics.TypingRate(t.collector.Keystrokes(), t.typingWindow, now),
		SessionLength: now.Sub(t.startedAt),
		TabSwitches:   t.tabSwitches,
		At:            now,
	})
	snapshot := *t.profile
	t.mu.Unlock()

	if err := t.store.SaveProfile(&snapshot); err != nil {
		logger.Warn().Err(err).Msg("Failed to persist learning profile")
	}
}

func (t *Tracker) metricsLocked(now time.Time) metrics.Snapshot {
	return metrics.Snapshot{
		TypingRatePerMin:  metrics.TypingRate(t.collector.Keystrokes(), t.typingWindow, now),
		PointerEventCount: t.collector.PointerEvents(),
		DistractionCount:  t.tabSwitches,
		IdleDuration:      t.idleDurationLocked(now),
		SessionElapsed:    now.Sub(t.startedAt),
		HourOfDay:         now.Hour(),
	}
}

// idleDurationLocked measures idle time against the later of last activity
// and session start, so a session with no input yet still accrues idle time.
func (t *Tracker) idleDurationLocked(now time.Time) time.Duration {
	last := t.collector.LastActivity()
	if last.IsZero() || last.Before(t.startedAt) {
		last = t.startedAt
	}
	return metrics.IdleDuration(last, now)
}

// deriveRecordLocked computes the immutable session record. Average and peak
// both come from the same score-history sequence; the live score participates
// in the peak so a high point between ticks is not lost.
func (t *Tracker) deriveRecordLocked(now time.Time) history.Record {
	elapsed := now.Sub(t.startedAt)

	avg := t.score
	peak := t.score
	var typingAvg float64

	if n := len(t.scoreHistory); n > 0 {
		var scoreSum, typingSum float64
		for _, p := range t.scoreHistory {
			scoreSum += p.Score
			typingSum += p.TypingRate
			if p.Score > peak {
				peak = p.Score
			}
		}
		avg = scoreSum / float64(n)
		typingAvg = typingSum / float64(n)
	}

	return history.Record{
		DurationSeconds:   int(elapsed.Seconds()),
		AvgFlowScore:      avg,
		PeakFlowScore:     peak,
		TabSwitches:       t.tabSwitches,
		AvgTypingRate:     typingAvg,
		ProductivityIndex: history.ProductivityIndex(avg, elapsed, t.tabSwitches),
		Timestamp:         now,
		HourOfDay:         now.Hour(),
	}
}

func (t *Tracker) emitLocked(e Event) {
	t.sink.Emit(e)
}

func floorZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}
