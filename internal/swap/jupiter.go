package swap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// Options parameterise the Jupiter aggregator client.
type Options struct {
	QuoteURL    string
	SwapURL     string
	SlippageBps int
	Timeout     time.Duration
}

// Jupiter obtains swap transactions from the Jupiter v6 aggregator.
type Jupiter struct {
	opts   Options
	logger zerolog.Logger
	client *http.Client
}

// NewJupiter constructs the aggregator client.
func NewJupiter(opts Options, logger zerolog.Logger) *Jupiter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if opts.QuoteURL == "" {
		opts.QuoteURL = "https://quote-api.jup.ag/v6/quote"
	}
	if opts.SwapURL == "" {
		opts.SwapURL = "https://quote-api.jup.ag/v6/swap"
	}
	if opts.SlippageBps <= 0 {
		opts.SlippageBps = 100
	}

	return &Jupiter{
		opts:   opts,
		logger: logger.With().Str("component", "jupiter").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Plan is a quoted, serialized swap ready to sign and submit.
type Plan struct {
	// SwapTransaction is the base64-encoded unsigned transaction.
	SwapTransaction string
	// OutAmount is the quoted output in the destination token's smallest
	// unit. Zero when the quote did not carry one.
	OutAmount int64
}

// BuildSwapTransaction quotes the route and requests a serialized swap
// transaction for it. A nil plan with nil error means no route is
// available for the pair at this size.
func (j *Jupiter) BuildSwapTransaction(ctx context.Context, userPublicKey, inputMint, outputMint string, amountLamports int64) (*Plan, error) {
	quote, err := j.quote(ctx, inputMint, outputMint, amountLamports)
	if err != nil {
		return nil, err
	}
	if len(quote) == 0 {
		return nil, nil
	}

	payload := swapRequest{
		QuoteResponse:    quote,
		UserPublicKey:    userPublicKey,
		WrapAndUnwrapSol: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.opts.SwapURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter swap error (%d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	var res swapResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	return &Plan{SwapTransaction: res.SwapTransaction, OutAmount: quotedOutAmount(quote)}, nil
}

// quotedOutAmount pulls the output amount off the raw quote. A quote
// without one yields zero rather than an error.
func quotedOutAmount(quote json.RawMessage) int64 {
	var q struct {
		OutAmount string `json:"outAmount"`
	}
	if err := json.Unmarshal(quote, &q); err != nil {
		return 0
	}
	amount, err := strconv.ParseInt(q.OutAmount, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}

// quote fetches a route quote and returns it verbatim; the swap endpoint
// wants the quote payload passed back untouched.
func (j *Jupiter) quote(ctx context.Context, inputMint, outputMint string, amountLamports int64) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("inputMint", inputMint)
	params.Set("outputMint", outputMint)
	params.Set("amount", strconv.FormatInt(amountLamports, 10))
	params.Set("slippageBps", strconv.Itoa(j.opts.SlippageBps))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, j.opts.QuoteURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := j.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// Jupiter reports "no route" as a 4xx with an error body; that is a
	// normal outcome, not a transport failure.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		j.logger.Debug().Int("status", resp.StatusCode).Str("input", inputMint).Str("output", outputMint).Msg("no route for pair")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jupiter quote error (%d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}

	return json.RawMessage(raw), nil
}

type swapRequest struct {
	QuoteResponse    json.RawMessage `json:"quoteResponse"`
	UserPublicKey    string          `json:"userPublicKey"`
	WrapAndUnwrapSol bool            `json:"wrapAndUnwrapSol"`
}

type swapResponse struct {
	SwapTransaction string `json:"swapTransaction"`
}
