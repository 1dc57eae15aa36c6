package risk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestClient(base string) *Client {
	return NewClient(Options{BaseURL: base, Timeout: time.Second}, zerolog.Nop())
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/tokens/mint-1/report" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"score": 42,
			"risks": []map[string]string{{"name": "Low liquidity"}, {"name": "Top holders"}},
		})
	}))
	defer srv.Close()

	report := newTestClient(srv.URL).Fetch(context.Background(), "mint-1")
	if report.Unknown {
		t.Fatal("report should not be unknown on success")
	}
	if report.Score != 42 {
		t.Fatalf("unexpected score %d", report.Score)
	}
	if len(report.Risks) != 2 {
		t.Fatalf("unexpected risks %v", report.Risks)
	}
}

func TestFetchFailureDegradesToUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	report := newTestClient(srv.URL).Fetch(context.Background(), "mint-1")
	if !report.Unknown {
		t.Fatal("provider failure must degrade to an unknown score")
	}
	if len(report.Risks) != 0 {
		t.Fatalf("degraded report should carry no risks, got %v", report.Risks)
	}
}

func TestFetchUnreachableDegradesToUnknown(t *testing.T) {
	c := newTestClient("http://127.0.0.1:1")
	report := c.Fetch(context.Background(), "mint-1")
	if !report.Unknown {
		t.Fatal("unreachable provider must degrade to an unknown score")
	}
}

func TestWithinCeiling(t *testing.T) {
	cases := []struct {
		name    string
		report  Report
		ceiling int
		want    bool
	}{
		{"below ceiling", Report{Score: 45}, 60, true},
		{"at ceiling", Report{Score: 50}, 50, false},
		{"above ceiling", Report{Score: 55}, 50, false},
		{"unknown always fails", Report{Unknown: true}, 100, false},
		{"zero score passes", Report{Score: 0}, 50, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.report.WithinCeiling(tc.ceiling); got != tc.want {
				t.Fatalf("WithinCeiling(%d) = %v, want %v", tc.ceiling, got, tc.want)
			}
		})
	}
}
