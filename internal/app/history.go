package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// History prints recent scan or trade records from the history store.
func (a *App) History(ctx context.Context, opts HistoryOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Trades {
		trades, err := store.ListRecentTrades(ctx, opts.Limit)
		if err != nil {
			return err
		}
		if len(trades) == 0 {
			fmt.Fprintln(os.Stdout, "no trades recorded")
			return nil
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(writer, "Time (UTC)\tAction\tSymbol\tToken\tAmount\tPrice\tSignature\tReason")
		for _, trade := range trades {
			fmt.Fprintf(
				writer,
				"%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
				trade.ExecutedAt.UTC().Format(time.RFC3339),
				trade.Action,
				trade.Symbol,
				trade.Identifier,
				trade.AmountLamports,
				trade.PriceUSD.String(),
				trade.Signature,
				sanitizeInline(trade.Reason),
			)
		}
		return writer.Flush()
	}

	scans, err := store.ListRecentScans(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(scans) == 0 {
		fmt.Fprintln(os.Stdout, "no scans recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tSymbol\tToken\tSource\tPrice\tVol 24h\tRisk\tVerdict\tConf")
	for _, scan := range scans {
		riskLabel := "unknown"
		if scan.RiskScore != nil {
			riskLabel = fmt.Sprintf("%d", *scan.RiskScore)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			scan.ScannedAt.UTC().Format(time.RFC3339),
			scan.Symbol,
			scan.Identifier,
			scan.Source,
			scan.PriceUSD.String(),
			scan.Volume24hUSD.StringFixed(0),
			riskLabel,
			scan.Verdict,
			scan.Confidence,
		)
	}
	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
