package hunter

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
	"gem-hunter/internal/verdict"
)

// MarketSource supplies normalized snapshots for enrichment.
type MarketSource interface {
	Fetch(ctx context.Context, identifier string) (*market.Snapshot, error)
}

// RiskSource supplies safety reports for enrichment.
type RiskSource interface {
	Fetch(ctx context.Context, identifier string) risk.Report
}

// VerdictSource supplies trade verdicts for surviving candidates.
type VerdictSource interface {
	Evaluate(ctx context.Context, snap *market.Snapshot, report risk.Report) verdict.Verdict
}

// Options tune the pipeline bounds.
type Options struct {
	// MaxCandidates caps the merged list before enrichment, bounding the
	// number of external calls one hunt cycle can make.
	MaxCandidates int
}

// Hunter aggregates discovery sources into a deduplicated, safety-filtered,
// ranked candidate report. Every external call is fault-isolated: failures
// degrade a single data point and never abort the cycle.
type Hunter struct {
	sources       []Source
	market        MarketSource
	risk          RiskSource
	analyst       VerdictSource
	maxCandidates int
	logger        zerolog.Logger
}

// New constructs a Hunter. Source order is the merge precedence: riskiest
// tiers first, so high-momentum plays surface ahead of safe ones.
func New(sources []Source, marketSrc MarketSource, riskSrc RiskSource, analyst VerdictSource, opts Options, logger zerolog.Logger) *Hunter {
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 5
	}
	return &Hunter{
		sources:       sources,
		market:        marketSrc,
		risk:          riskSrc,
		analyst:       analyst,
		maxCandidates: maxCandidates,
		logger:        logger.With().Str("component", "hunter").Logger(),
	}
}

// Hunt runs one full discovery cycle and always returns a report.
func (h *Hunter) Hunt(ctx context.Context) Report {
	report := Report{GeneratedAt: time.Now().UTC()}

	merged := h.discover(ctx)
	unique := dedupe(merged)
	report.Discovered = len(unique)

	if len(unique) == 0 {
		report.Outcome = OutcomeNoActivity
		return report
	}

	if len(unique) > h.maxCandidates {
		unique = unique[:h.maxCandidates]
	}

	for _, candidate := range unique {
		entry, ok := h.enrich(ctx, candidate)
		if !ok {
			continue
		}
		report.Entries = append(report.Entries, entry)
	}

	if len(report.Entries) == 0 {
		report.Outcome = OutcomeAllFlagged
		return report
	}

	report.Outcome = OutcomeCandidates
	return report
}

// discover queries all sources concurrently and concatenates their results
// in the fixed precedence order. A failing source contributes nothing.
func (h *Hunter) discover(ctx context.Context) []Candidate {
	results := make([][]Candidate, len(h.sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range h.sources {
		g.Go(func() error {
			candidates, err := src.Discover(gctx)
			if err != nil {
				h.logger.Warn().Err(err).Str("source", src.Name()).Msg("discovery source failed")
				return nil
			}
			results[i] = candidates
			return nil
		})
	}
	_ = g.Wait()

	merged := make([]Candidate, 0)
	for _, candidates := range results {
		merged = append(merged, candidates...)
	}
	return merged
}

// dedupe keeps the first occurrence of each identifier, preserving the
// source label that discovered it first. Candidates without an identifier
// are malformed and dropped.
func dedupe(candidates []Candidate) []Candidate {
	seen := make(map[string]struct{}, len(candidates))
	unique := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Identifier == "" {
			continue
		}
		if _, dup := seen[c.Identifier]; dup {
			continue
		}
		seen[c.Identifier] = struct{}{}
		unique = append(unique, c)
	}
	return unique
}

// enrich fetches market and risk data for one candidate and, if it clears
// its tier's risk ceiling, attaches a verdict. Any missing data point
// drops the candidate without failing the hunt.
func (h *Hunter) enrich(ctx context.Context, candidate Candidate) (Entry, bool) {
	snap, err := h.market.Fetch(ctx, candidate.Identifier)
	if err != nil {
		h.logger.Warn().Err(err).Str("token", candidate.Identifier).Msg("snapshot fetch failed; skipping candidate")
		return Entry{}, false
	}
	if snap == nil {
		h.logger.Debug().Str("token", candidate.Identifier).Msg("no tradable market; skipping candidate")
		return Entry{}, false
	}

	report := h.risk.Fetch(ctx, candidate.Identifier)
	if !report.WithinCeiling(candidate.RiskCeiling) {
		h.logger.Debug().
			Str("token", candidate.Identifier).
			Str("score", report.ScoreLabel()).
			Int("ceiling", candidate.RiskCeiling).
			Msg("candidate failed risk ceiling")
		return Entry{}, false
	}

	return Entry{
		Snapshot: *snap,
		Risk:     report,
		Verdict:  h.analyst.Evaluate(ctx, snap, report),
		Source:   candidate.Source,
	}, true
}
