package verdict

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
)

func testSnapshot() *market.Snapshot {
	return &market.Snapshot{
		Identifier:        "mint-1",
		Symbol:            "GEM",
		Price:             decimal.RequireFromString("0.0042"),
		LiquidityUSD:      decimal.NewFromInt(15000),
		Volume24hUSD:      decimal.NewFromInt(100000),
		BuyTxCount24h:     150,
		SellTxCount24h:    50,
		PriceChange1hPct:  decimal.NewFromInt(-3),
		PriceChange24hPct: decimal.NewFromInt(12),
	}
}

func modelReply(t *testing.T, verdictJSON string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": verdictJSON}}}},
			},
		})
	}
}

func newTestAnalyst(base string) *Analyst {
	return NewAnalyst(Options{BaseURL: base, APIKey: "key", Timeout: time.Second}, zerolog.Nop())
}

func TestEvaluateSuccess(t *testing.T) {
	srv := httptest.NewServer(modelReply(t, `{"verdict":"BUY","confidence":82,"risk_level":"MEDIUM","reasoning":"Dip buy setup."}`))
	defer srv.Close()

	v := newTestAnalyst(srv.URL).Evaluate(context.Background(), testSnapshot(), risk.Report{Score: 30})
	if v.Decision != DecisionBuy {
		t.Fatalf("unexpected decision %s", v.Decision)
	}
	if v.Confidence != 82 || v.RiskLevel != "MEDIUM" {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestEvaluatePromptCarriesMarketData(t *testing.T) {
	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Fatalf("JSON response mode must be requested, got %q", req.GenerationConfig.ResponseMimeType)
		}
		prompt = req.Contents[0].Parts[0].Text
		modelReply(t, `{"verdict":"AVOID","confidence":55,"risk_level":"HIGH","reasoning":"FOMO trap."}`)(w, r)
	}))
	defer srv.Close()

	_ = newTestAnalyst(srv.URL).Evaluate(context.Background(), testSnapshot(), risk.Report{Score: 30})

	for _, want := range []string{"Token: GEM", "Buys: 150", "Sells: 50", "RugCheck Score: 30/100"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestEvaluateMalformedResponse(t *testing.T) {
	srv := httptest.NewServer(modelReply(t, `sure! here's my analysis: buy it`))
	defer srv.Close()

	v := newTestAnalyst(srv.URL).Evaluate(context.Background(), testSnapshot(), risk.Report{Score: 30})
	if v.Decision != DecisionError {
		t.Fatalf("malformed output must degrade to ERROR, got %s", v.Decision)
	}
	if v.Confidence != 0 {
		t.Fatalf("degraded verdict must carry zero confidence, got %d", v.Confidence)
	}
}

func TestEvaluateUnreachable(t *testing.T) {
	v := newTestAnalyst("http://127.0.0.1:1").Evaluate(context.Background(), testSnapshot(), risk.Report{Score: 30})
	if v.Decision != DecisionError {
		t.Fatalf("unreachable analyst must degrade to ERROR, got %s", v.Decision)
	}
}

func TestParseVerdictClampsAndValidates(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Verdict
	}{
		{
			"confidence clamped",
			`{"verdict":"BUY","confidence":250,"risk_level":"LOW","reasoning":"x"}`,
			Verdict{Decision: DecisionBuy, Confidence: 100, RiskLevel: "LOW", Reasoning: "x"},
		},
		{
			"unknown risk level dropped",
			`{"verdict":"AVOID","confidence":10,"risk_level":"EXTREME","reasoning":"x"}`,
			Verdict{Decision: DecisionAvoid, Confidence: 10, RiskLevel: "", Reasoning: "x"},
		},
		{
			"invalid decision rejected",
			`{"verdict":"HOLD","confidence":50,"reasoning":"x"}`,
			Errored("unparsable analyst response"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseVerdict(tc.in); got != tc.want {
				t.Fatalf("parseVerdict = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestActionable(t *testing.T) {
	if (Verdict{Decision: DecisionError, Confidence: 100}).Actionable(0) {
		t.Fatal("ERROR must never be actionable")
	}
	if (Verdict{Decision: DecisionBuy, Confidence: 60}).Actionable(70) {
		t.Fatal("confidence below the floor must not be actionable")
	}
	if !(Verdict{Decision: DecisionBuy, Confidence: 70}).Actionable(70) {
		t.Fatal("BUY at the floor should be actionable")
	}
}
