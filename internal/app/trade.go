package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"gem-hunter/internal/ledger"
	"gem-hunter/internal/notify"
	"gem-hunter/internal/storage"
	"gem-hunter/internal/swap"
	"gem-hunter/internal/wallet"
)

// Buy swaps SOL into the given token and records the position.
func (a *App) Buy(ctx context.Context, opts BuyOptions) error {
	if opts.Identifier == "" {
		return fmt.Errorf("token identifier is required")
	}
	amountSOL := opts.AmountSOL
	if amountSOL <= 0 {
		amountSOL = a.Config.Autopilot.BuyAmountSOL
	}

	snap, err := a.newMarketClient().Fetch(ctx, opts.Identifier)
	if err != nil {
		return fmt.Errorf("fetch market data: %w", err)
	}
	if snap == nil {
		return fmt.Errorf("no tradable market for %s", opts.Identifier)
	}

	w, err := a.newWallet()
	if err != nil {
		return err
	}

	amountLamports := wallet.LamportsFromSOL(amountSOL)
	receipt, err := a.newExecutor(w).Execute(ctx, solana.SolMint.String(), opts.Identifier, amountLamports)
	if errors.Is(err, swap.ErrNoRoute) {
		return fmt.Errorf("no swap route for %s at %v SOL", opts.Identifier, amountSOL)
	}
	if err != nil {
		return err
	}

	book := a.newLedger()
	if err := book.Add(opts.Identifier, snap.Symbol, snap.Price, receipt.OutAmount); err != nil {
		a.Logger.Error().Err(err).Msg("failed to record position")
	}

	a.auditTrade(ctx, storage.TradeRecord{
		ExecutedAt:     time.Now().UTC(),
		Action:         "BUY",
		Identifier:     opts.Identifier,
		Symbol:         snap.Symbol,
		AmountLamports: amountLamports,
		PriceUSD:       snap.Price,
		Signature:      receipt.Signature.String(),
		Reason:         "manual",
	})
	a.notifyTrade(ctx, notify.TradeAlert{
		Action:     "BUY",
		Symbol:     snap.Symbol,
		Identifier: opts.Identifier,
		AmountSOL:  decimal.NewFromFloat(amountSOL),
		Signature:  receipt.Signature.String(),
		Reason:     "manual",
	})

	fmt.Fprintf(os.Stdout, "bought %s (%s)\nsignature: %s\n", snap.Symbol, opts.Identifier, receipt.Signature)
	return nil
}

// Sell swaps the full tracked holding of the given token back to SOL and
// archives the position.
func (a *App) Sell(ctx context.Context, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("token identifier is required")
	}

	book := a.newLedger()
	pos, ok := book.Get(identifier)
	if !ok || pos.Status != ledger.StatusOpen {
		return fmt.Errorf("no open position for %s", identifier)
	}

	w, err := a.newWallet()
	if err != nil {
		return err
	}

	receipt, err := a.newExecutor(w).Execute(ctx, identifier, solana.SolMint.String(), pos.Amount)
	if errors.Is(err, swap.ErrNoRoute) {
		return fmt.Errorf("no swap route to exit %s", identifier)
	}
	if err != nil {
		return err
	}

	if err := book.Close(identifier); err != nil {
		a.Logger.Error().Err(err).Msg("failed to archive position")
	}

	var exitPrice decimal.Decimal
	var pnlPct decimal.Decimal
	if snap, ferr := a.newMarketClient().Fetch(ctx, identifier); ferr == nil && snap != nil {
		exitPrice = snap.Price
		if !pos.EntryPrice.IsZero() {
			pnlPct = snap.Price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100))
		}
	}

	a.auditTrade(ctx, storage.TradeRecord{
		ExecutedAt:     time.Now().UTC(),
		Action:         "SELL",
		Identifier:     identifier,
		Symbol:         pos.Symbol,
		AmountLamports: receipt.OutAmount,
		PriceUSD:       exitPrice,
		Signature:      receipt.Signature.String(),
		Reason:         "manual",
	})
	a.notifyTrade(ctx, notify.TradeAlert{
		Action:     "SELL",
		Symbol:     pos.Symbol,
		Identifier: identifier,
		PnLPct:     pnlPct,
		Signature:  receipt.Signature.String(),
		Reason:     "manual",
	})

	fmt.Fprintf(os.Stdout, "sold %s (%s)\nsignature: %s\n", pos.Symbol, identifier, receipt.Signature)
	return nil
}

func (a *App) auditTrade(ctx context.Context, trade storage.TradeRecord) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Error().Err(err).Msg("cannot open history store")
		return
	}
	if store == nil {
		return
	}
	defer closeStore()

	if _, err := store.InsertTrade(ctx, trade); err != nil {
		a.Logger.Error().Err(err).Str("token", trade.Identifier).Msg("failed to persist trade")
	}
}

func (a *App) notifyTrade(ctx context.Context, alert notify.TradeAlert) {
	if err := a.newNotifier().Notify(ctx, notify.RenderTrade(alert)); err != nil {
		a.Logger.Error().Err(err).Msg("failed to deliver trade alert")
	}
}
