// Package coach is the conversational assistant. It builds a prompt from a
// read-only snapshot of the live session, asks the remote model, and degrades
// to static keyword-matched replies on any failure. The assistant never
// touches session state.
package coach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/flowzoneai/flowzone/internal/coach/cache"
	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/logger"
	"github.com/flowzoneai/flowzone/internal/session"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel   = "gemini-2.5-flash"

	coachTemperature = 0.7
	coachMaxTokens   = 800
)

// Reply is one coach answer and where it came from.
type Reply struct {
	Text      string
	FromModel bool
	Cached    bool
}

// Coach answers productivity questions against the current session context.
type Coach struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	replies *cache.Cache
}

// New creates a coach. Without an API key every question gets a static
// fallback reply.
func New(scoring config.ScoringSettings, cfg config.CoachSettings) *Coach {
	model := scoring.Model
	if model == "" {
		model = defaultModel
	}
	baseURL := scoring.Endpoint
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Coach{
		apiKey:  scoring.APIKey,
		model:   model,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		replies: cache.New(cfg.CacheEntries, config.Duration(cfg.CacheTTL, 10*time.Minute)),
	}
}

// Ask answers the question in the context of the session snapshot. Remote
// failures are absorbed: the caller always gets a reply.
func (c *Coach) Ask(ctx context.Context, question string, st session.Status) Reply {
	if c.apiKey == "" {
		return Reply{Text: fallbackReply(question, st)}
	}

	// The score is bucketed so small drift between ticks still hits the cache.
	key := cache.HashKey(question, int(math.Round(st.Score/10)), st.State, st.Streak.Count)
	if text, ok := c.replies.Get(key); ok {
		return Reply{Text: text, FromModel: true, Cached: true}
	}

	text, err := c.generate(ctx, buildPrompt(question, st))
	if err != nil {
		logger.Warn().Err(err).Msg("Coach model unavailable, using fallback reply")
		return Reply{Text: fallbackReply(question, st)}
	}

	c.replies.Set(key, text)
	return Reply{Text: text, FromModel: true}
}

func (c *Coach) generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     coachTemperature,
			MaxOutputTokens: coachMaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	var apiResp generateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unparseable response body: %w", err)
	}
	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	text := strings.TrimSpace(apiResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", fmt.Errorf("empty reply")
	}
	return text, nil
}

// buildPrompt frames the question with the live session context.
func buildPrompt(question string, st session.Status) string {
	var b strings.Builder

	b.WriteString("You are FlowZone AI, a friendly productivity coach. Be encouraging, concise and practical.\n\n")
	b.WriteString("Current user context:\n")
	fmt.Fprintf(&b, "- Flow score: %.0f%%\n", st.Score)
	fmt.Fprintf(&b, "- Fatigue: %.0f%%\n", st.Fatigue)
	fmt.Fprintf(&b, "- Session time: %d minutes\n", int(st.Elapsed.Minutes()))
	fmt.Fprintf(&b, "- Currently tracking: %v\n", st.State == session.StateActive)
	fmt.Fprintf(&b, "- Day streak: %d\n", st.Streak.Count)
	fmt.Fprintf(&b, "- Total sessions: %d\n", st.Streak.TotalSessions)
	fmt.Fprintf(&b, "- Tab switches this session: %d\n", st.TabSwitches)
	fmt.Fprintf(&b, "- Typing speed: %.0f keys/min\n", st.TypingRate)
	fmt.Fprintf(&b, "\nUser question: %s\n", question)
	b.WriteString("\nAnswer in 2-4 sentences.")

	return b.String()
}

// fallbackReply is the static answer path: keyword-matched, deterministic,
// always available.
func fallbackReply(question string, st session.Status) string {
	q := strings.ToLower(question)

	switch {
	case strings.Contains(q, "break") || strings.Contains(q, "rest"):
		if st.Fatigue > 70 {
			return "Your fatigue is high right now. Step away for 10-15 minutes: stretch, hydrate, and look at something far away."
		}
		return "A 5-minute break every 25-50 minutes keeps focus sustainable. Short and regular beats long and rare."
	case strings.Contains(q, "tired") || strings.Contains(q, "fatigue"):
		return "Fatigue builds steadily over a session and peaks around the 90-minute mark. If you feel drained, a real break will recover more focus than pushing through."
	case strings.Contains(q, "distract") || strings.Contains(q, "tab"):
		if st.TabSwitches > 5 {
			return fmt.Sprintf("You've switched tabs %d times this session. Try closing everything except the one window you need for the next 25 minutes.", st.TabSwitches)
		}
		return "Tab switching is the most common flow killer. Close what you don't need and silence notifications before you start."
	case strings.Contains(q, "score") || strings.Contains(q, "flow"):
		return fmt.Sprintf("Your flow score is %.0f%%. It rewards steady typing, low mouse movement and no tab switches; it drops on distractions and idle time.", st.Score)
	case strings.Contains(q, "streak"):
		if st.Streak.Count > 1 {
			return fmt.Sprintf("You're on a %d-day streak. One session a day, however short, keeps it alive.", st.Streak.Count)
		}
		return "Streaks grow one calendar day at a time. End at least one session today and you're on your way."
	default:
		return "Keep sessions focused and bounded: pick one task, close the rest, and let the score tell you when to take a break."
	}
}

// Wire format of the generate endpoint.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
