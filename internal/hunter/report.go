package hunter

import (
	"fmt"
	"strings"
	"time"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
	"gem-hunter/internal/verdict"
)

// Outcome distinguishes the three terminal states of a hunt cycle.
type Outcome int

const (
	// OutcomeCandidates means at least one candidate survived enrichment.
	OutcomeCandidates Outcome = iota
	// OutcomeNoActivity means discovery produced no usable candidates.
	OutcomeNoActivity
	// OutcomeAllFlagged means candidates were found but none cleared the
	// risk ceiling (or had a tradable market).
	OutcomeAllFlagged
)

// String renders the outcome for logs and storage.
func (o Outcome) String() string {
	switch o {
	case OutcomeCandidates:
		return "candidates"
	case OutcomeNoActivity:
		return "no_activity"
	case OutcomeAllFlagged:
		return "all_flagged"
	default:
		return "unknown"
	}
}

// Entry is one fully enriched surviving candidate.
type Entry struct {
	Snapshot market.Snapshot
	Risk     risk.Report
	Verdict  verdict.Verdict
	Source   string
}

// Report is the result of one hunt cycle. Entries are ordered as they
// were enriched, which follows the merge precedence.
type Report struct {
	GeneratedAt time.Time
	Outcome     Outcome
	Discovered  int
	Entries     []Entry
}

// Render formats the report as plain text for notification channels.
func (r Report) Render() string {
	switch r.Outcome {
	case OutcomeNoActivity:
		return "Market is frozen. No coins found matching criteria."
	case OutcomeAllFlagged:
		return "Found coins, but they were all flagged as too dangerous."
	}

	b := strings.Builder{}
	b.WriteString("[Gem Report]\n")
	fmt.Fprintf(&b, "Generated: %s UTC\n\n", r.GeneratedAt.UTC().Format(time.RFC3339))

	for _, entry := range r.Entries {
		snap := entry.Snapshot
		fmt.Fprintf(&b, "%s (%s)\n", snap.Name, snap.Symbol)
		fmt.Fprintf(&b, "Source: %s\n", entry.Source)
		fmt.Fprintf(&b, "Price: $%s | Vol: $%s\n", snap.Price.String(), snap.Volume24hUSD.StringFixed(0))
		fmt.Fprintf(&b, "Risk: %s\n", entry.Risk.ScoreLabel())
		fmt.Fprintf(&b, "Verdict: %s (%d%%) - %s\n", entry.Verdict.Decision, entry.Verdict.Confidence, entry.Verdict.Reasoning)
		fmt.Fprintf(&b, "%s\n\n", snap.Identifier)
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
