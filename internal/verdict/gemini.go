package verdict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
)

// Decision is the analyst's call on a token.
type Decision string

const (
	DecisionBuy   Decision = "BUY"
	DecisionAvoid Decision = "AVOID"
	// DecisionError marks an unreachable or unparsable analyst. Automated
	// consumers must treat it exactly like AVOID.
	DecisionError Decision = "ERROR"
)

// Verdict is the fixed output contract of the analyst.
type Verdict struct {
	Decision   Decision `json:"verdict"`
	Confidence int      `json:"confidence"`
	RiskLevel  string   `json:"risk_level"`
	Reasoning  string   `json:"reasoning"`
}

// Errored builds the degraded verdict used on any analyst failure.
func Errored(reason string) Verdict {
	return Verdict{Decision: DecisionError, Confidence: 0, Reasoning: reason}
}

// Actionable reports whether the verdict clears a confidence floor for
// automated buying. ERROR is never actionable.
func (v Verdict) Actionable(minConfidence int) bool {
	return v.Decision == DecisionBuy && v.Confidence >= minConfidence
}

// Options parameterise the analyst client.
type Options struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Analyst asks a generative-language model for a trade verdict.
type Analyst struct {
	opts    Options
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewAnalyst constructs the analyst client.
func NewAnalyst(opts Options, logger zerolog.Logger) *Analyst {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	opts.Model = model

	return &Analyst{
		opts:    opts,
		logger:  logger.With().Str("component", "analyst").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Evaluate returns a verdict for one enriched candidate. It never returns
// an error: a failed or malformed model response degrades to ERROR.
func (a *Analyst) Evaluate(ctx context.Context, snap *market.Snapshot, report risk.Report) Verdict {
	if snap == nil {
		return Errored("no market data")
	}

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(snap, report)}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      a.opts.Temperature,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return Errored("analyst unreachable")
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.baseURL, a.opts.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Errored("analyst unreachable")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.opts.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		a.logger.Warn().Err(err).Str("token", snap.Symbol).Msg("analyst request failed")
		return Errored("analyst unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Errored("analyst unreachable")
	}

	if resp.StatusCode != http.StatusOK {
		a.logger.Warn().Int("status", resp.StatusCode).Str("token", snap.Symbol).Msg("analyst returned non-200")
		return Errored("analyst unreachable")
	}

	text, ok := extractText(payload)
	if !ok {
		return Errored("empty analyst response")
	}

	return parseVerdict(text)
}

// parseVerdict enforces the four-field output contract. Anything outside
// it degrades to ERROR rather than propagating garbage downstream.
func parseVerdict(text string) Verdict {
	var v Verdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &v); err != nil {
		return Errored("unparsable analyst response")
	}

	switch v.Decision {
	case DecisionBuy, DecisionAvoid:
	default:
		return Errored("unparsable analyst response")
	}

	if v.Confidence < 0 {
		v.Confidence = 0
	}
	if v.Confidence > 100 {
		v.Confidence = 100
	}

	switch v.RiskLevel {
	case "LOW", "MEDIUM", "HIGH":
	default:
		v.RiskLevel = ""
	}

	return v
}

func extractText(payload []byte) (string, bool) {
	var res generateResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return "", false
	}
	if len(res.Candidates) == 0 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := res.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
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
