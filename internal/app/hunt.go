package app

import (
	"context"
	"fmt"
	"os"

	"gem-hunter/internal/hunter"
	"gem-hunter/internal/storage"
)

// Hunt runs one discovery cycle and prints the report.
func (a *App) Hunt(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	report := a.newHunter(a.newMarketClient()).Hunt(ctx)
	fmt.Fprintln(os.Stdout, report.Render())

	if store != nil {
		a.persistScans(ctx, store, report)
	}
	return nil
}

func (a *App) persistScans(ctx context.Context, store storage.ScanStore, report hunter.Report) {
	for _, entry := range report.Entries {
		rec := storage.ScanRecord{
			ScannedAt:    report.GeneratedAt,
			Identifier:   entry.Snapshot.Identifier,
			Symbol:       entry.Snapshot.Symbol,
			Source:       entry.Source,
			PriceUSD:     entry.Snapshot.Price,
			LiquidityUSD: entry.Snapshot.LiquidityUSD,
			Volume24hUSD: entry.Snapshot.Volume24hUSD,
			Verdict:      string(entry.Verdict.Decision),
			Confidence:   entry.Verdict.Confidence,
			RiskLevel:    entry.Verdict.RiskLevel,
			Reasoning:    entry.Verdict.Reasoning,
		}
		if !entry.Risk.Unknown {
			score := entry.Risk.Score
			rec.RiskScore = &score
		}
		if _, err := store.InsertScan(ctx, rec); err != nil {
			a.Logger.Error().Err(err).Str("token", rec.Identifier).Msg("failed to persist scan")
		}
	}
}
