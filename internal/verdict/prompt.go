package verdict

import (
	"fmt"
	"strings"

	"gem-hunter/internal/market"
	"gem-hunter/internal/risk"
)

// buildPrompt renders the strategy brief handed to the model. The rules
// and entry scenarios are the trading policy; changing them changes what
// the assistant recommends.
func buildPrompt(snap *market.Snapshot, report risk.Report) string {
	b := strings.Builder{}

	b.WriteString("Act as a professional crypto trading algorithm.\n\n")

	b.WriteString("--- INPUT DATA ---\n")
	fmt.Fprintf(&b, "Token: %s\n", snap.Symbol)
	fmt.Fprintf(&b, "Price: $%s\n", snap.Price.String())
	fmt.Fprintf(&b, "Mcap: $%s\n", snap.MarketCapUSD.StringFixed(0))
	fmt.Fprintf(&b, "Liq: $%s\n", snap.LiquidityUSD.StringFixed(0))
	fmt.Fprintf(&b, "Momentum (1h): %s%%\n", snap.PriceChange1hPct.String())
	fmt.Fprintf(&b, "Momentum (24h): %s%%\n", snap.PriceChange24hPct.String())
	fmt.Fprintf(&b, "Volume: $%s\n", snap.Volume24hUSD.StringFixed(0))
	fmt.Fprintf(&b, "Buys: %d\n", snap.BuyTxCount24h)
	fmt.Fprintf(&b, "Sells: %d\n", snap.SellTxCount24h)
	fmt.Fprintf(&b, "RugCheck Score: %s\n", report.ScoreLabel())
	if len(report.Risks) > 0 {
		fmt.Fprintf(&b, "Known Risks: %s\n", strings.Join(report.Risks, ", "))
	}

	b.WriteString("\n--- STRATEGY RULES ---\n")
	b.WriteString("1. FAIL if RugCheck > 55.\n")
	b.WriteString("2. FAIL if Liquidity < $3,000.\n")
	b.WriteString("3. FAIL if Volume < $10,000.\n")
	b.WriteString("4. FAIL if Sells are > 3x Buys.\n")

	b.WriteString("\n--- ENTRY LOGIC (Choose A or B) ---\n\n")
	b.WriteString("Scenario A: \"The Dip Buy\"\n")
	b.WriteString("- IF 1h Change is NEGATIVE (Pullback) AND 24h Change is POSITIVE (Uptrend).\n")
	b.WriteString("- VERDICT: BUY.\n\n")
	b.WriteString("Scenario B: \"The Momentum Buy\"\n")
	b.WriteString("- IF 1h Change is POSITIVE (0% to 15%) AND Volume is High.\n")
	b.WriteString("- VERDICT: BUY (Riding the trend).\n\n")
	b.WriteString("Scenario C: \"The FOMO Trap\"\n")
	b.WriteString("- IF 1h Change is > 30% (Pumped too hard).\n")
	b.WriteString("- VERDICT: AVOID (Wait for cooldown).\n\n")

	b.WriteString("Output JSON ONLY:\n")
	b.WriteString(`{"verdict": "BUY" or "AVOID", "confidence": 0-100, "risk_level": "LOW", "MEDIUM", or "HIGH", "reasoning": "Concise reason."}`)
	b.WriteString("\n")

	return b.String()
}
