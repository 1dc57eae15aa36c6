package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Report carries the danger score for one token. Unknown marks a report
// the provider could not produce; an unknown score fails every ceiling
// check so degraded data never lets a candidate through.
type Report struct {
	Score   int
	Unknown bool
	Risks   []string
}

// Unchecked is the conservative stand-in when the provider is unreachable.
func Unchecked() Report {
	return Report{Unknown: true, Risks: []string{}}
}

// WithinCeiling reports whether the score clears a tier's risk ceiling.
func (r Report) WithinCeiling(ceiling int) bool {
	if r.Unknown {
		return false
	}
	return r.Score < ceiling
}

// ScoreLabel renders the score for reports, covering the unknown case.
func (r Report) ScoreLabel() string {
	if r.Unknown {
		return "unknown"
	}
	return fmt.Sprintf("%d/100", r.Score)
}

// Options parameterise the RugCheck client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches safety reports from RugCheck.
type Client struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a RugCheck client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.rugcheck.xyz"
	}

	return &Client{
		logger:  logger.With().Str("component", "risk_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch returns the safety report for one token. Any failure degrades to
// an unknown-score report instead of an error; the provider being down
// must never stall the pipeline.
func (c *Client) Fetch(ctx context.Context, identifier string) Report {
	endpoint := fmt.Sprintf("%s/v1/tokens/%s/report", c.baseURL, url.PathEscape(identifier))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Unchecked()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("token", identifier).Msg("safety report request failed")
		return Unchecked()
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug().Int("status", resp.StatusCode).Str("token", identifier).Msg("safety report unavailable")
		return Unchecked()
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Unchecked()
	}

	var res reportResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return Unchecked()
	}

	report := Report{Score: res.Score, Risks: make([]string, 0, len(res.Risks))}
	for _, risk := range res.Risks {
		if risk.Name != "" {
			report.Risks = append(report.Risks, risk.Name)
		}
	}
	return report
}

type reportResponse struct {
	Score int `json:"score"`
	Risks []struct {
		Name string `json:"name"`
	} `json:"risks"`
}
