package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"gem-hunter/internal/ledger"
)

// Positions prints the tracked positions with live PnL for open ones.
func (a *App) Positions(ctx context.Context) error {
	book := a.newLedger()
	all := book.Positions()
	if len(all) == 0 {
		fmt.Fprintln(os.Stdout, "no positions tracked")
		return nil
	}

	identifiers := make([]string, 0, len(all))
	for identifier := range all {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)

	marketClient := a.newMarketClient()

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Token\tSymbol\tStatus\tEntry\tCurrent\tPnL%\tAmount\tOpened (UTC)")

	for _, identifier := range identifiers {
		pos := all[identifier]
		current := "-"
		pnl := "-"

		if pos.Status == ledger.StatusOpen {
			if snap, err := marketClient.Fetch(ctx, identifier); err == nil && snap != nil && !snap.Price.IsZero() {
				current = snap.Price.String()
				if !pos.EntryPrice.IsZero() {
					pnl = snap.Price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100)).StringFixed(2)
				}
			}
		}

		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			identifier,
			pos.Symbol,
			pos.Status,
			pos.EntryPrice.String(),
			current,
			pnl,
			pos.Amount,
			pos.OpenedAt.UTC().Format(time.RFC3339),
		)
	}

	return writer.Flush()
}
