package hunter

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
	"gem-hunter/internal/verdict"
)

type stubSource struct {
	name       string
	candidates []Candidate
	err        error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Discover(ctx context.Context) ([]Candidate, error) {
	return s.candidates, s.err
}

type stubMarket struct {
	snapshots map[string]*market.Snapshot
	err       map[string]error
}

func (s *stubMarket) Fetch(ctx context.Context, identifier string) (*market.Snapshot, error) {
	if err, ok := s.err[identifier]; ok {
		return nil, err
	}
	return s.snapshots[identifier], nil
}

type stubRisk struct {
	reports map[string]risk.Report
}

func (s *stubRisk) Fetch(ctx context.Context, identifier string) risk.Report {
	if report, ok := s.reports[identifier]; ok {
		return report
	}
	return risk.Unchecked()
}

type stubAnalyst struct {
	calls int
}

func (s *stubAnalyst) Evaluate(ctx context.Context, snap *market.Snapshot, report risk.Report) verdict.Verdict {
	s.calls++
	return verdict.Verdict{Decision: verdict.DecisionBuy, Confidence: 80, RiskLevel: "MEDIUM", Reasoning: "stub"}
}

func snapshotFor(id string) *market.Snapshot {
	return &market.Snapshot{
		Identifier:   id,
		Symbol:       "TK-" + id,
		Price:        decimal.NewFromFloat(0.01),
		LiquidityUSD: decimal.NewFromInt(5000),
		Volume24hUSD: decimal.NewFromInt(20000),
	}
}

func newHunter(sources []Source, m *stubMarket, r *stubRisk, a *stubAnalyst, maxCandidates int) *Hunter {
	return New(sources, m, r, a, Options{MaxCandidates: maxCandidates}, zerolog.Nop())
}

func allClearRisk(ids ...string) *stubRisk {
	reports := make(map[string]risk.Report, len(ids))
	for _, id := range ids {
		reports[id] = risk.Report{Score: 10}
	}
	return &stubRisk{reports: reports}
}

func marketFor(ids ...string) *stubMarket {
	snaps := make(map[string]*market.Snapshot, len(ids))
	for _, id := range ids {
		snaps[id] = snapshotFor(id)
	}
	return &stubMarket{snapshots: snaps}
}

func TestHuntCapsCandidateList(t *testing.T) {
	candidates := make([]Candidate, 0, 20)
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		candidates = append(candidates, Candidate{Identifier: id, Source: "aggressive", RiskCeiling: 60})
		ids = append(ids, id)
	}

	h := newHunter(
		[]Source{&stubSource{name: "aggressive", candidates: candidates}},
		marketFor(ids...), allClearRisk(ids...), &stubAnalyst{}, 5,
	)

	report := h.Hunt(context.Background())
	require.Equal(t, OutcomeCandidates, report.Outcome)
	assert.Len(t, report.Entries, 5, "merged list must be capped before enrichment")
}

func TestHuntDedupeFirstSeenWins(t *testing.T) {
	aggressive := &stubSource{name: "aggressive", candidates: []Candidate{
		{Identifier: "mint-1", Source: "aggressive", RiskCeiling: 60},
	}}
	conservative := &stubSource{name: "conservative", candidates: []Candidate{
		{Identifier: "mint-1", Source: "conservative", RiskCeiling: 50},
		{Identifier: "mint-2", Source: "conservative", RiskCeiling: 50},
	}}

	h := newHunter(
		[]Source{aggressive, conservative},
		marketFor("mint-1", "mint-2"), allClearRisk("mint-1", "mint-2"), &stubAnalyst{}, 5,
	)

	report := h.Hunt(context.Background())
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "aggressive", report.Entries[0].Source, "first-seen source label must win the duplicate")
	assert.Equal(t, "mint-1", report.Entries[0].Snapshot.Identifier)
	assert.Equal(t, "conservative", report.Entries[1].Source)
}

func TestHuntUnknownScoreFailsEveryCeiling(t *testing.T) {
	src := &stubSource{name: "aggressive", candidates: []Candidate{
		{Identifier: "mint-1", Source: "aggressive", RiskCeiling: 100},
	}}
	analyst := &stubAnalyst{}

	h := newHunter(
		[]Source{src},
		marketFor("mint-1"),
		&stubRisk{reports: map[string]risk.Report{"mint-1": risk.Unchecked()}},
		analyst, 5,
	)

	report := h.Hunt(context.Background())
	assert.Equal(t, OutcomeAllFlagged, report.Outcome)
	assert.Zero(t, analyst.calls, "a flagged candidate must never reach the analyst")
}

func TestHuntPartialSourceFailure(t *testing.T) {
	failing := &stubSource{name: "aggressive", err: errors.New("timeout")}
	working := &stubSource{name: "conservative", candidates: []Candidate{
		{Identifier: "mint-2", Source: "conservative", RiskCeiling: 50},
	}}

	h := newHunter(
		[]Source{failing, working},
		marketFor("mint-2"), allClearRisk("mint-2"), &stubAnalyst{}, 5,
	)

	report := h.Hunt(context.Background())
	require.Equal(t, OutcomeCandidates, report.Outcome, "one failing source must not fail the hunt")
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "mint-2", report.Entries[0].Snapshot.Identifier)
}

func TestHuntPerSourceRiskCeilings(t *testing.T) {
	// A is aggressive (ceiling 60, score 45): survives.
	// B is conservative (ceiling 50, score 55): excluded.
	sources := []Source{
		&stubSource{name: "aggressive", candidates: []Candidate{
			{Identifier: "A", Source: "aggressive", RiskCeiling: 60},
		}},
		&stubSource{name: "conservative", candidates: []Candidate{
			{Identifier: "B", Source: "conservative", RiskCeiling: 50},
		}},
	}

	h := newHunter(
		sources,
		marketFor("A", "B"),
		&stubRisk{reports: map[string]risk.Report{
			"A": {Score: 45},
			"B": {Score: 55},
		}},
		&stubAnalyst{}, 5,
	)

	report := h.Hunt(context.Background())
	require.Equal(t, OutcomeCandidates, report.Outcome)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "A", report.Entries[0].Snapshot.Identifier)
	assert.Equal(t, "aggressive", report.Entries[0].Source)
}

func TestHuntNilSnapshotSkipsCandidate(t *testing.T) {
	src := &stubSource{name: "aggressive", candidates: []Candidate{
		{Identifier: "dead", Source: "aggressive", RiskCeiling: 60},
		{Identifier: "live", Source: "aggressive", RiskCeiling: 60},
	}}

	m := marketFor("live")
	m.err = map[string]error{}

	h := newHunter([]Source{src}, m, allClearRisk("live", "dead"), &stubAnalyst{}, 5)

	report := h.Hunt(context.Background())
	require.Equal(t, OutcomeCandidates, report.Outcome)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "live", report.Entries[0].Snapshot.Identifier)
}

func TestHuntMarketErrorSkipsCandidate(t *testing.T) {
	src := &stubSource{name: "aggressive", candidates: []Candidate{
		{Identifier: "flaky", Source: "aggressive", RiskCeiling: 60},
	}}
	m := marketFor()
	m.err = map[string]error{"flaky": errors.New("connection reset")}

	h := newHunter([]Source{src}, m, allClearRisk("flaky"), &stubAnalyst{}, 5)

	report := h.Hunt(context.Background())
	assert.Equal(t, OutcomeAllFlagged, report.Outcome, "a failing enrichment never aborts the hunt")
}

func TestHuntNoActivity(t *testing.T) {
	h := newHunter(
		[]Source{&stubSource{name: "aggressive"}, &stubSource{name: "conservative"}},
		marketFor(), allClearRisk(), &stubAnalyst{}, 5,
	)

	report := h.Hunt(context.Background())
	assert.Equal(t, OutcomeNoActivity, report.Outcome)
	assert.Empty(t, report.Entries)
}

func TestHuntDropsCandidatesWithoutIdentifier(t *testing.T) {
	src := &stubSource{name: "trending", candidates: []Candidate{
		{Symbol: "SOLGEM", Source: "trending", RiskCeiling: 50},
	}}

	h := newHunter([]Source{src}, marketFor(), allClearRisk(), &stubAnalyst{}, 5)

	report := h.Hunt(context.Background())
	assert.Equal(t, OutcomeNoActivity, report.Outcome, "identifier-less candidates are malformed input")
}

func TestReportRender(t *testing.T) {
	report := Report{Outcome: OutcomeNoActivity}
	assert.Contains(t, report.Render(), "Market is frozen")

	report = Report{Outcome: OutcomeAllFlagged, Discovered: 3}
	assert.Contains(t, report.Render(), "too dangerous")

	report = Report{
		Outcome: OutcomeCandidates,
		Entries: []Entry{{
			Snapshot: *snapshotFor("mint-1"),
			Risk:     risk.Report{Score: 42},
			Verdict:  verdict.Verdict{Decision: verdict.DecisionBuy, Confidence: 77, Reasoning: "uptrend"},
			Source:   "aggressive",
		}},
	}
	rendered := report.Render()
	assert.Contains(t, rendered, "mint-1")
	assert.Contains(t, rendered, "BUY (77%)")
	assert.Contains(t, rendered, "42/100")
}
