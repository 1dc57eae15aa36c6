package app

import (
	"context"
	"fmt"
	"os"
)

// Scan enriches a single token and prints the full breakdown.
func (a *App) Scan(ctx context.Context, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("token identifier is required")
	}

	marketClient := a.newMarketClient()

	snap, err := marketClient.Fetch(ctx, identifier)
	if err != nil {
		return fmt.Errorf("fetch market data: %w", err)
	}
	if snap == nil {
		fmt.Fprintln(os.Stdout, "no tradable market found for this token")
		return nil
	}

	report := a.newRiskClient().Fetch(ctx, identifier)
	v := a.newAnalyst().Evaluate(ctx, snap, report)

	out := os.Stdout
	fmt.Fprintf(out, "%s (%s)\n", snap.Name, snap.Symbol)
	fmt.Fprintf(out, "Token:       %s\n", snap.Identifier)
	fmt.Fprintf(out, "Pair:        %s\n", snap.PairAddress)
	fmt.Fprintf(out, "Price:       $%s\n", snap.Price.String())
	fmt.Fprintf(out, "Liquidity:   $%s\n", snap.LiquidityUSD.StringFixed(0))
	fmt.Fprintf(out, "Volume 24h:  $%s\n", snap.Volume24hUSD.StringFixed(0))
	fmt.Fprintf(out, "FDV:         $%s\n", snap.FDVUSD.StringFixed(0))
	fmt.Fprintf(out, "Age:         %sh\n", snap.AgeHours.String())
	fmt.Fprintf(out, "Txns 24h:    %d buys / %d sells\n", snap.BuyTxCount24h, snap.SellTxCount24h)
	fmt.Fprintf(out, "Change:      %s%% (1h) / %s%% (24h)\n", snap.PriceChange1hPct.String(), snap.PriceChange24hPct.String())
	fmt.Fprintf(out, "Risk:        %s\n", report.ScoreLabel())
	for _, r := range report.Risks {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	fmt.Fprintf(out, "Verdict:     %s (%d%%, risk %s)\n", v.Decision, v.Confidence, v.RiskLevel)
	fmt.Fprintf(out, "Reasoning:   %s\n", v.Reasoning)
	return nil
}
