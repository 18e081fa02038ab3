package scoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/metrics"
)

func init() {
	logger.InitQuiet()
}

func newTestRemote(t *testing.T, handler http.HandlerFunc) (*RemoteScorer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewRemoteScorer(config.ScoringSettings{
		APIKey:   "test-key",
		Endpoint: srv.URL,
		Model:    "test-model",
	})
	if err != nil {
		t.Fatal(err)
	}
	return s, srv
}

func generateReply(text string) string {
	return fmt.Sprintf(`{"candidates":[{"content":{"parts":[{"text":%q}]}}]}`, text)
}

func TestRemoteScorerSuccess(t *testing.T) {
	s, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		reply := "Here is the analysis:\n{\"flowScore\": 82, \"fatigueLevel\": 30, \"breakInMinutes\": 10, \"insight\": \"steady rhythm\"}\nHope that helps."
		fmt.Fprint(w, generateReply(reply))
	})

	got, err := s.Score(context.Background(), metrics.Snapshot{TypingRatePerMin: 60})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if got.FlowScore != 82 {
		t.Errorf("FlowScore = %v, want 82", got.FlowScore)
	}
	if got.FatigueLevel != 30 {
		t.Errorf("FatigueLevel = %v, want 30", got.FatigueLevel)
	}
	if got.RecommendedBreak != 10 {
		t.Errorf("RecommendedBreak = %v, want 10", got.RecommendedBreak)
	}
	if got.Insight != "steady rhythm" {
		t.Errorf("Insight = %q", got.Insight)
	}
}

func TestRemoteScorerOmittedFatigueKeepsRamp(t *testing.T) {
	s, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generateReply(`{"flowScore": 82}`))
	})

	// 45 minutes in, the elapsed ramp sits at 50. A reply without a
	// fatigueLevel field must not reset that to zero.
	got, err := s.Score(context.Background(), metrics.Snapshot{SessionElapsed: 45 * time.Minute})
	if err != nil {
		t.Fatalf("Score returned error: %v", err)
	}
	if got.FlowScore != 82 {
		t.Errorf("FlowScore = %v, want 82", got.FlowScore)
	}
	if got.FatigueLevel != 50 {
		t.Errorf("FatigueLevel = %v, want elapsed-based 50", got.FatigueLevel)
	}

	// An explicit fatigueLevel still wins over the ramp
	s2, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generateReply(`{"flowScore": 82, "fatigueLevel": 5}`))
	})
	got, err = s2.Score(context.Background(), metrics.Snapshot{SessionElapsed: 45 * time.Minute})
	if err != nil {
		t.Fatal(err)
	}
	if got.FatigueLevel != 5 {
		t.Errorf("FatigueLevel = %v, want explicit 5", got.FatigueLevel)
	}
}

func TestRemoteScorerClampsResult(t *testing.T) {
	s, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, generateReply(`{"flowScore": 300, "fatigueLevel": -50}`))
	})

	got, err := s.Score(context.Background(), metrics.Snapshot{})
	if err != nil {
		t.Fatal(err)
	}
	if got.FlowScore != 100 || got.FatigueLevel != 0 {
		t.Errorf("result not clamped: %+v", got)
	}
}

func TestRemoteScorerUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "unparseable body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, "not json at all")
			},
		},
		{
			name: "no JSON object in reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, generateReply("I cannot provide a score right now."))
			},
		},
		{
			name: "missing flowScore field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, generateReply(`{"fatigueLevel": 20, "insight": "no score here"}`))
			},
		},
		{
			name: "empty candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"candidates":[]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestRemote(t, tt.handler)
			_, err := s.Score(context.Background(), metrics.Snapshot{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("error %v does not wrap ErrUnavailable", err)
			}
		})
	}
}

func TestFallbackScorer(t *testing.T) {
	calls := 0
	s, _ := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, generateReply(`{"flowScore": 90}`))
	})

	chain := NewFallbackScorer(s, &RuleScorer{})
	snap := metrics.Snapshot{TypingRatePerMin: 60, SessionElapsed: 700 * time.Second, HourOfDay: 10}

	// First tick: remote fails with 429, rule result is used
	got, err := chain.Score(context.Background(), snap)
	if err != nil {
		t.Fatalf("fallback chain returned error: %v", err)
	}
	if got.FlowScore != 100 {
		t.Errorf("fallback FlowScore = %v, want rule-based 100", got.FlowScore)
	}

	// Second tick: remote recovers; fallback is per-tick, not sticky
	got, err = chain.Score(context.Background(), snap)
	if err != nil {
		t.Fatal(err)
	}
	if got.FlowScore != 90 {
		t.Errorf("recovered FlowScore = %v, want remote 90", got.FlowScore)
	}
}

func TestParseRemoteResultNested(t *testing.T) {
	text := "prefix {\"flowScore\": 70, \"meta\": {\"nested\": true}} suffix"
	got, err := parseRemoteResult(text)
	if err != nil {
		t.Fatalf("nested braces not handled: %v", err)
	}
	if *got.FlowScore != 70 {
		t.Errorf("FlowScore = %v, want 70", *got.FlowScore)
	}
}

func TestSelect(t *testing.T) {
	rules := &RuleScorer{}
	if got := Select(nil, rules); got != Scorer(rules) {
		t.Error("Select without remote should return the rules scorer")
	}
	remote := &RemoteScorer{}
	if _, ok := Select(remote, rules).(*FallbackScorer); !ok {
		t.Error("Select with remote should return a fallback chain")
	}
}
