package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
	"github.com/flowzoneai/flowzone/internal/store"
)

func init() {
	logger.InitQuiet()
}

func modelReply(text string) string {
	body, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	})
	return string(body)
}

func newTestCoach(endpoint string) *Coach {
	return New(
		config.ScoringSettings{APIKey: "test-key", Endpoint: endpoint, Model: "test-model"},
		config.CoachSettings{CacheEntries: 10, CacheTTL: "10m"},
	)
}

func TestAskUsesModelReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, modelReply("Focus on one thing at a time."))
	}))
	defer srv.Close()

	c := newTestCoach(srv.URL)
	reply := c.Ask(context.Background(), "how do I focus?", session.Status{Score: 70})

	if !reply.FromModel || reply.Cached {
		t.Errorf("expected fresh model reply, got %+v", reply)
	}
	if reply.Text != "Focus on one thing at a time." {
		t.Errorf("reply text = %q", reply.Text)
	}
}

func TestAskCachesRepeatedQuestions(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, modelReply("Take regular breaks."))
	}))
	defer srv.Close()

	c := newTestCoach(srv.URL)
	st := session.Status{Score: 72, State: session.StateActive}

	first := c.Ask(context.Background(), "when should I break?", st)
	second := c.Ask(context.Background(), "when should I break?", st)

	if calls.Load() != 1 {
		t.Errorf("remote calls = %d, want 1 (second answer cached)", calls.Load())
	}
	if !second.Cached || second.Text != first.Text {
		t.Errorf("second reply not served from cache: %+v", second)
	}
}

func TestAskFallsBackOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestCoach(srv.URL)
	reply := c.Ask(context.Background(), "should I take a break?", session.Status{Fatigue: 80})

	if reply.FromModel {
		t.Errorf("expected fallback reply on 429")
	}
	if !strings.Contains(reply.Text, "fatigue") && !strings.Contains(reply.Text, "break") {
		t.Errorf("fallback reply off-topic: %q", reply.Text)
	}
}

func TestAskWithoutKeyIsStatic(t *testing.T) {
	c := New(config.ScoringSettings{}, config.CoachSettings{})
	reply := c.Ask(context.Background(), "what is my flow score?", session.Status{Score: 64})

	if reply.FromModel {
		t.Errorf("keyless coach must not claim a model reply")
	}
	if !strings.Contains(reply.Text, "64") {
		t.Errorf("score question should echo the live score: %q", reply.Text)
	}
}

func TestFallbackReplyKeywords(t *testing.T) {
	tests := []struct {
		question string
		status   session.Status
		contains string
	}{
		{"I keep switching tabs", session.Status{TabSwitches: 8}, "8 times"},
		{"how does my streak work", session.Status{Streak: store.Streak{Count: 5}}, "5-day streak"},
		{"I'm so tired", session.Status{}, "90-minute"},
		{"tell me something", session.Status{}, "one task"},
	}

	for _, tt := range tests {
		got := fallbackReply(tt.question, tt.status)
		if !strings.Contains(got, tt.contains) {
			t.Errorf("fallbackReply(%q) = %q, want substring %q", tt.question, got, tt.contains)
		}
	}
}
