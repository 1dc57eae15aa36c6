package hunter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gem-hunter/internal/market"
)

const wrappedSOLSymbol = "SOL"

// Candidate is one discovered token plus the source that surfaced it and
// the risk ceiling its tier tolerates.
type Candidate struct {
	Identifier  string
	Symbol      string
	Source      string
	RiskCeiling int
}

// Source is one independent candidate-discovery endpoint. A source that
// fails returns an error and contributes nothing; it never stops a hunt.
type Source interface {
	Name() string
	Discover(ctx context.Context) ([]Candidate, error)
}

// Tier bundles one discovery tier's pre-filter with its risk ceiling.
type Tier struct {
	Name            string
	Query           string
	MinLiquidityUSD float64
	MinVolume24hUSD float64
	RiskCeiling     int
	SkipWrappedSOL  bool
}

// Searcher is the slice of the market client that discovery needs.
type Searcher interface {
	Search(ctx context.Context, query string) ([]market.Pair, error)
}

// SearchSource discovers candidates through a DexScreener pair search,
// ranked by descending 24h volume and pre-filtered by tier thresholds.
type SearchSource struct {
	tier     Tier
	searcher Searcher
	limit    int
	logger   zerolog.Logger
}

// NewSearchSource constructs a search-backed discovery source.
func NewSearchSource(tier Tier, searcher Searcher, limit int, logger zerolog.Logger) *SearchSource {
	if limit <= 0 {
		limit = 5
	}
	return &SearchSource{
		tier:     tier,
		searcher: searcher,
		limit:    limit,
		logger:   logger.With().Str("component", "source_"+tier.Name).Logger(),
	}
}

// Name returns the tier label used in reports.
func (s *SearchSource) Name() string { return s.tier.Name }

// Discover runs the search and applies the tier pre-filter.
func (s *SearchSource) Discover(ctx context.Context) ([]Candidate, error) {
	pairs, err := s.searcher.Search(ctx, s.tier.Query)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", s.tier.Query, err)
	}

	// Most active first, so the per-source cap keeps what is moving now.
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Volume.H24 > pairs[j].Volume.H24
	})

	candidates := make([]Candidate, 0, s.limit)
	for _, pair := range pairs {
		if len(candidates) >= s.limit {
			break
		}
		if pair.ChainID != "solana" {
			continue
		}
		if pair.BaseToken.Address == "" {
			continue
		}
		if s.tier.SkipWrappedSOL && pair.BaseToken.Symbol == wrappedSOLSymbol {
			continue
		}
		if pair.Liquidity.USD <= s.tier.MinLiquidityUSD {
			continue
		}
		if pair.Volume.H24 <= s.tier.MinVolume24hUSD {
			continue
		}
		candidates = append(candidates, Candidate{
			Identifier:  pair.BaseToken.Address,
			Symbol:      pair.BaseToken.Symbol,
			Source:      s.tier.Name,
			RiskCeiling: s.tier.RiskCeiling,
		})
	}

	s.logger.Debug().Int("pairs", len(pairs)).Int("candidates", len(candidates)).Msg("discovery pass complete")
	return candidates, nil
}

// TrendingSource surfaces Solana-flavoured entries from the CoinGecko
// trending list. Trending entries carry no on-chain identifier, so these
// candidates usually fall out at the merge step; the source exists to
// catch the rare trending token that other tiers already resolved.
type TrendingSource struct {
	url         string
	riskCeiling int
	client      *http.Client
	logger      zerolog.Logger
}

// NewTrendingSource constructs the CoinGecko trending source.
func NewTrendingSource(url string, riskCeiling int, timeout time.Duration, logger zerolog.Logger) *TrendingSource {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TrendingSource{
		url:         url,
		riskCeiling: riskCeiling,
		client:      &http.Client{Timeout: timeout},
		logger:      logger.With().Str("component", "source_trending").Logger(),
	}
}

// Name returns the source label used in reports.
func (s *TrendingSource) Name() string { return "trending" }

// Discover returns trending coins whose slug suggests the Solana chain.
func (s *TrendingSource) Discover(ctx context.Context) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trending endpoint error (%d)", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var res trendingResponse
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode trending result: %w", err)
	}

	candidates := make([]Candidate, 0)
	for _, coin := range res.Coins {
		slug := strings.ToLower(coin.Item.Slug)
		if !strings.Contains(slug, "sol") {
			continue
		}
		candidates = append(candidates, Candidate{
			Symbol:      coin.Item.Symbol,
			Source:      s.Name(),
			RiskCeiling: s.riskCeiling,
		})
	}
	return candidates, nil
}

type trendingResponse struct {
	Coins []struct {
		Item struct {
			Slug   string `json:"slug"`
			Symbol string `json:"symbol"`
		} `json:"item"`
	} `json:"coins"`
}
