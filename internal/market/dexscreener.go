package market

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

const (
	chainSolana = "solana"

	tokenPairsPath = "/latest/dex/tokens/"
	searchPath     = "/latest/dex/search"
)

// Options parameterise the DexScreener client.
type Options struct {
	BaseURL string
	Timeout time.Duration
}

// Client fetches market data from DexScreener.
type Client struct {
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewClient constructs a DexScreener client.
func NewClient(opts Options, logger zerolog.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.dexscreener.com"
	}

	return &Client{
		logger:  logger.With().Str("component", "market_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Fetch returns the normalized snapshot for one token identifier, or nil
// when the token has no tradable Solana market.
func (c *Client) Fetch(ctx context.Context, identifier string) (*Snapshot, error) {
	if identifier == "" {
		return nil, nil
	}

	payload, err := c.get(ctx, c.baseURL+tokenPairsPath+url.PathEscape(identifier))
	if err != nil {
		return nil, err
	}

	var res pairsResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode token pairs: %w", err)
	}

	return newSnapshot(identifier, res.Pairs, time.Now().UTC()), nil
}

// Search runs a DexScreener pair search and returns the raw typed pairs.
// Callers filter and rank; this is the single parse point for the schema.
func (c *Client) Search(ctx context.Context, query string) ([]Pair, error) {
	endpoint := c.baseURL + searchPath + "?q=" + url.QueryEscape(query)
	payload, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var res pairsResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode search result: %w", err)
	}

	return res.Pairs, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	return payload, nil
}

type pairsResponse struct {
	Pairs []Pair `json:"pairs"`
}

// Pair mirrors one DexScreener trading pair.
type Pair struct {
	ChainID       string      `json:"chainId"`
	DexID         string      `json:"dexId"`
	PairAddress   string      `json:"pairAddress"`
	BaseToken     Token       `json:"baseToken"`
	QuoteToken    Token       `json:"quoteToken"`
	PriceUSD      string      `json:"priceUsd"`
	Txns          Txns        `json:"txns"`
	Volume        Volume      `json:"volume"`
	PriceChange   PriceChange `json:"priceChange"`
	Liquidity     Liquidity   `json:"liquidity"`
	FDV           float64     `json:"fdv"`
	MarketCap     float64     `json:"marketCap"`
	PairCreatedAt int64       `json:"pairCreatedAt"`
}

// Token identifies one side of a pair.
type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// Txns carries per-window transaction counts.
type Txns struct {
	H1  BuysSells `json:"h1"`
	H24 BuysSells `json:"h24"`
}

// BuysSells holds independently sourced buy and sell counts.
type BuysSells struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

// Volume carries per-window USD volume.
type Volume struct {
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

// PriceChange carries per-window price change percentages.
type PriceChange struct {
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

// Liquidity carries pooled liquidity in USD.
type Liquidity struct {
	USD float64 `json:"usd"`
}
