package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/flowzoneai/flowzone/internal/config"
	"github.com/flowzoneai/flowzone/internal/metrics"
)

const (
	defaultRemoteBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultRemoteModel   = "gemini-2.5-flash"

	scoringTemperature = 0.3
	scoringMaxTokens   = 500
)

// RemoteScorer submits metric snapshots to an external scoring endpoint. The
// endpoint is an untrusted best-effort oracle: every failure mode (network
// error, non-2xx status, unparseable body, missing score field) is reported
// as ErrUnavailable so the caller can fall back for that tick.
type RemoteScorer struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	limiter *rateLimiter
}

// NewRemoteScorer creates a remote scorer from the scoring settings. Returns
// an error when no API key is configured.
func NewRemoteScorer(cfg config.ScoringSettings) (*RemoteScorer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("remote scorer requires an API key")
	}

	s := &RemoteScorer{
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		baseURL: cfg.Endpoint,
		client:  &http.Client{},
	}

	if s.model == "" {
		s.model = defaultRemoteModel
	}
	if s.baseURL == "" {
		s.baseURL = defaultRemoteBaseURL
	}

	if cfg.RequestsPerMin > 0 {
		burst := cfg.BurstSize
		if burst <= 0 {
			burst = 1
		}
		s.limiter = newRateLimiter(cfg.RequestsPerMin, burst)
	}

	return s, nil
}

// Name returns the strategy name.
func (s *RemoteScorer) Name() string {
	return fmt.Sprintf("remote (%s)", s.model)
}

// Score submits the snapshot to the remote endpoint and interprets the reply.
func (s *RemoteScorer) Score(ctx context.Context, snap metrics.Snapshot) (Result, error) {
	if s.limiter != nil && !s.limiter.Allow() {
		return Result{}, fmt.Errorf("client-side rate limit reached: %w", ErrUnavailable)
	}

	apiReq := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: BuildScoringPrompt(snap)}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     scoringTemperature,
			MaxOutputTokens: scoringMaxTokens,
		},
	}

	body, err := s.post(ctx, apiReq)
	if err != nil {
		return Result{}, err
	}

	text, err := extractText(body)
	if err != nil {
		return Result{}, err
	}

	remote, err := parseRemoteResult(text)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		FlowScore:    *remote.FlowScore,
		Insight:      remote.Insight,
		Distractions: remote.Distractions,
	}
	if remote.FatigueLevel != nil {
		result.FatigueLevel = *remote.FatigueLevel
	} else {
		// An omitted fatigueLevel must not read as "rested": substitute the
		// elapsed-based ramp so accumulated fatigue survives the tick.
		result.FatigueLevel = fatigueFromElapsed(snap.SessionElapsed)
	}
	if remote.BreakInMinutes != nil {
		result.RecommendedBreak = *remote.BreakInMinutes
	}

	return result.Clamp(), nil
}

// post sends the request and returns the raw response body. All transport and
// status failures map to ErrUnavailable.
func (s *RemoteScorer) post(ctx context.Context, apiReq generateRequest) ([]byte, error) {
	reqBody, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.baseURL, s.model, s.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v: %w", err, ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v: %w", err, ErrUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("endpoint returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}

	return body, nil
}

// extractText pulls the free-text reply out of the generate response.
func extractText(body []byte) (string, error) {
	var apiResp generateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("unparseable response body: %w", ErrUnavailable)
	}

	if len(apiResp.Candidates) == 0 || len(apiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no candidates in response: %w", ErrUnavailable)
	}

	text := apiResp.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", fmt.Errorf("empty text in response: %w", ErrUnavailable)
	}

	return text, nil
}

// parseRemoteResult extracts the first JSON object embedded in the free-text
// reply and decodes it. A reply with no JSON object, undecodable JSON, or a
// missing numeric flowScore field counts as unavailable.
func parseRemoteResult(text string) (*remoteResult, error) {
	start := findJSONStart(text)
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in reply: %w", ErrUnavailable)
	}
	end := findJSONEnd(text, start)
	if end <= start {
		return nil, fmt.Errorf("unterminated JSON object in reply: %w", ErrUnavailable)
	}

	var remote remoteResult
	if err := json.Unmarshal([]byte(text[start:end+1]), &remote); err != nil {
		return nil, fmt.Errorf("malformed JSON in reply: %w", ErrUnavailable)
	}

	if remote.FlowScore == nil {
		return nil, fmt.Errorf("reply missing flowScore: %w", ErrUnavailable)
	}

	return &remote, nil
}

// findJSONStart finds the start of a JSON object in text.
func findJSONStart(text string) int {
	for i, c := range text {
		if c == '{' {
			return i
		}
	}
	return -1
}

// findJSONEnd finds the matching closing brace.
func findJSONEnd(text string, start int) int {
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// remoteResult is the strict contract expected inside the model's free-text
// reply. Only flowScore is required.
type remoteResult struct {
	FlowScore      *float64 `json:"flowScore"`
	FatigueLevel   *float64 `json:"fatigueLevel"`
	BreakInMinutes *int     `json:"breakInMinutes"`
	Recommendation string   `json:"recommendation"`
	Insight        string   `json:"insight"`
	Distractions   []string `json:"distractions"`
}

// generateRequest is the wire format of the generate endpoint.
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
	TopP            float64 `json:"topP,omitempty"`
	TopK            int     `json:"topK,omitempty"`
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
