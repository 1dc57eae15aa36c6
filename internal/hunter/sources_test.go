package hunter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gem-hunter/internal/market"
)

type stubSearcher struct {
	pairs []market.Pair
	err   error
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]market.Pair, error) {
	return s.pairs, s.err
}

func solanaPair(address, symbol string, liq, vol float64) market.Pair {
	return market.Pair{
		ChainID:   "solana",
		BaseToken: market.Token{Address: address, Symbol: symbol},
		Liquidity: market.Liquidity{USD: liq},
		Volume:    market.Volume{H24: vol},
	}
}

func aggressiveTier() Tier {
	return Tier{
		Name:            "aggressive",
		Query:           "pump",
		MinLiquidityUSD: 1000,
		MinVolume24hUSD: 10000,
		RiskCeiling:     60,
	}
}

func TestSearchSourceFiltersAndRanks(t *testing.T) {
	searcher := &stubSearcher{pairs: []market.Pair{
		solanaPair("low-liq", "LL", 500, 90000),
		solanaPair("low-vol", "LV", 5000, 5000),
		solanaPair("slow", "SLO", 2000, 15000),
		solanaPair("fast", "FST", 2000, 80000),
		{ChainID: "ethereum", BaseToken: market.Token{Address: "eth-1", Symbol: "E"},
			Liquidity: market.Liquidity{USD: 99999}, Volume: market.Volume{H24: 99999}},
	}}

	source := NewSearchSource(aggressiveTier(), searcher, 5, zerolog.Nop())
	candidates, err := source.Discover(context.Background())
	require.NoError(t, err)

	require.Len(t, candidates, 2)
	assert.Equal(t, "fast", candidates[0].Identifier, "highest 24h volume must rank first")
	assert.Equal(t, "slow", candidates[1].Identifier)
	assert.Equal(t, "aggressive", candidates[0].Source)
	assert.Equal(t, 60, candidates[0].RiskCeiling)
}

func TestSearchSourceHonoursLimit(t *testing.T) {
	pairs := make([]market.Pair, 0, 12)
	for i := 0; i < 12; i++ {
		pairs = append(pairs, solanaPair(string(rune('a'+i)), "X", 5000, float64(100000-i)))
	}

	source := NewSearchSource(aggressiveTier(), &stubSearcher{pairs: pairs}, 5, zerolog.Nop())
	candidates, err := source.Discover(context.Background())
	require.NoError(t, err)
	assert.Len(t, candidates, 5)
}

func TestSearchSourceSkipsWrappedSOL(t *testing.T) {
	tier := Tier{
		Name:            "conservative",
		Query:           "solana",
		MinLiquidityUSD: 10000,
		MinVolume24hUSD: 50000,
		RiskCeiling:     50,
		SkipWrappedSOL:  true,
	}
	searcher := &stubSearcher{pairs: []market.Pair{
		solanaPair("wsol-mint", "SOL", 900000, 9000000),
		solanaPair("gem-mint", "GEM", 50000, 100000),
	}}

	source := NewSearchSource(tier, searcher, 5, zerolog.Nop())
	candidates, err := source.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "gem-mint", candidates[0].Identifier)
}

func TestSearchSourcePropagatesSearchError(t *testing.T) {
	source := NewSearchSource(aggressiveTier(), &stubSearcher{err: errors.New("boom")}, 5, zerolog.Nop())
	_, err := source.Discover(context.Background())
	assert.Error(t, err, "the hunter decides what a source failure means, not the source")
}

func TestTrendingSourceFiltersSolanaSlugs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"coins": []map[string]any{
				{"item": map[string]string{"slug": "solana-gem", "symbol": "SGEM"}},
				{"item": map[string]string{"slug": "bitcoin-thing", "symbol": "BTH"}},
			},
		})
	}))
	defer srv.Close()

	source := NewTrendingSource(srv.URL, 50, time.Second, zerolog.Nop())
	candidates, err := source.Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "SGEM", candidates[0].Symbol)
	assert.Empty(t, candidates[0].Identifier, "trending entries carry no on-chain identifier")
}

func TestTrendingSourceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	source := NewTrendingSource(srv.URL, 50, time.Second, zerolog.Nop())
	_, err := source.Discover(context.Background())
	assert.Error(t, err)
}
