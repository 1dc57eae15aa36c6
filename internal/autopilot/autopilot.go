package autopilot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"gem-hunter/internal/hunter"
	"gem-hunter/internal/ledger"
	"gem-hunter/internal/market"
	"gem-hunter/internal/notify"
	"gem-hunter/internal/scheduler"
	"gem-hunter/internal/storage"
	"gem-hunter/internal/swap"
	"gem-hunter/internal/wallet"
)

// Scanner runs one discovery cycle.
type Scanner interface {
	Hunt(ctx context.Context) hunter.Report
}

// Trader executes swaps on chain.
type Trader interface {
	Execute(ctx context.Context, inputMint, outputMint string, amountLamports int64) (swap.Receipt, error)
}

// PositionBook is the durable record of holdings.
type PositionBook interface {
	Add(identifier, symbol string, entryPrice decimal.Decimal, amount int64) error
	Close(identifier string) error
	Get(identifier string) (ledger.Position, bool)
	OpenPositions() map[string]ledger.Position
}

// MarketWatcher prices open positions.
type MarketWatcher interface {
	Fetch(ctx context.Context, identifier string) (*market.Snapshot, error)
}

// Options tune the automated loops. Percentages are magnitudes: a
// StopLossPct of 15 exits at -15%.
type Options struct {
	HuntInterval   time.Duration
	ManageInterval time.Duration
	BuyAmountSOL   float64
	MinConfidence  int
	TakeProfitPct  float64
	StopLossPct    float64
}

// Autopilot drives the hunt and position-management loops. Every
// external failure degrades a single cycle or position and never stops
// the loops.
type Autopilot struct {
	scanner  Scanner
	trader   Trader
	book     PositionBook
	watcher  MarketWatcher
	notifier notify.Notifier
	scans    storage.ScanStore
	trades   storage.TradeStore
	opts     Options
	logger   zerolog.Logger
}

// New constructs the autopilot. scans and trades may be nil when no
// history store is configured.
func New(scanner Scanner, trader Trader, book PositionBook, watcher MarketWatcher, notifier notify.Notifier, scans storage.ScanStore, trades storage.TradeStore, opts Options, logger zerolog.Logger) *Autopilot {
	if opts.HuntInterval <= 0 {
		opts.HuntInterval = 15 * time.Minute
	}
	if opts.ManageInterval <= 0 {
		opts.ManageInterval = time.Minute
	}
	if opts.BuyAmountSOL <= 0 {
		opts.BuyAmountSOL = 0.02
	}
	if opts.TakeProfitPct <= 0 {
		opts.TakeProfitPct = 30
	}
	if opts.StopLossPct <= 0 {
		opts.StopLossPct = 15
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}

	return &Autopilot{
		scanner:  scanner,
		trader:   trader,
		book:     book,
		watcher:  watcher,
		notifier: notifier,
		scans:    scans,
		trades:   trades,
		opts:     opts,
		logger:   logger.With().Str("component", "autopilot").Logger(),
	}
}

// Run blocks driving both loops until ctx is cancelled.
func (a *Autopilot) Run(ctx context.Context) error {
	huntLoop := scheduler.New(scheduler.Options{
		Name:      "hunt",
		Interval:  a.opts.HuntInterval,
		Immediate: true,
	}, a.logger)
	manageLoop := scheduler.New(scheduler.Options{
		Name:     "manage",
		Interval: a.opts.ManageInterval,
	}, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return huntLoop.Run(gctx, a.HuntOnce) })
	g.Go(func() error { return manageLoop.Run(gctx, a.ManageOnce) })
	return g.Wait()
}

// HuntOnce runs one discovery cycle and opens positions for actionable
// verdicts.
func (a *Autopilot) HuntOnce(ctx context.Context) error {
	report := a.scanner.Hunt(ctx)
	a.recordScans(ctx, report)

	a.logger.Info().
		Str("outcome", report.Outcome.String()).
		Int("discovered", report.Discovered).
		Int("entries", len(report.Entries)).
		Msg("hunt cycle complete")

	if report.Outcome != hunter.OutcomeCandidates {
		return nil
	}

	if err := a.notifier.Notify(ctx, report.Render()); err != nil {
		a.logger.Error().Err(err).Msg("failed to deliver hunt report")
	}

	for _, entry := range report.Entries {
		if !entry.Verdict.Actionable(a.opts.MinConfidence) {
			continue
		}
		if pos, held := a.book.Get(entry.Snapshot.Identifier); held && pos.Status == ledger.StatusOpen {
			a.logger.Debug().Str("token", entry.Snapshot.Identifier).Msg("position already open; skipping buy")
			continue
		}
		a.buy(ctx, entry)
	}
	return nil
}

func (a *Autopilot) buy(ctx context.Context, entry hunter.Entry) {
	snap := entry.Snapshot
	amountLamports := wallet.LamportsFromSOL(a.opts.BuyAmountSOL)

	receipt, err := a.trader.Execute(ctx, solana.SolMint.String(), snap.Identifier, amountLamports)
	if errors.Is(err, swap.ErrNoRoute) {
		a.logger.Warn().Str("token", snap.Identifier).Msg("no swap route; skipping buy")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("token", snap.Identifier).Msg("buy failed")
		return
	}

	if err := a.book.Add(snap.Identifier, snap.Symbol, snap.Price, receipt.OutAmount); err != nil {
		a.logger.Error().Err(err).Str("token", snap.Identifier).Msg("failed to record position")
	}

	reason := fmt.Sprintf("confidence %d: %s", entry.Verdict.Confidence, entry.Verdict.Reasoning)
	a.recordTrade(ctx, storage.TradeRecord{
		ExecutedAt:     time.Now().UTC(),
		Action:         "BUY",
		Identifier:     snap.Identifier,
		Symbol:         snap.Symbol,
		AmountLamports: amountLamports,
		PriceUSD:       snap.Price,
		Signature:      receipt.Signature.String(),
		Reason:         reason,
	})

	alert := notify.RenderTrade(notify.TradeAlert{
		Action:     "BUY",
		Symbol:     snap.Symbol,
		Identifier: snap.Identifier,
		AmountSOL:  decimal.NewFromFloat(a.opts.BuyAmountSOL),
		Signature:  receipt.Signature.String(),
		Reason:     reason,
	})
	if err := a.notifier.Notify(ctx, alert); err != nil {
		a.logger.Error().Err(err).Msg("failed to deliver buy alert")
	}

	a.logger.Info().
		Str("token", snap.Identifier).
		Str("symbol", snap.Symbol).
		Str("signature", receipt.Signature.String()).
		Msg("position opened")
}

// ManageOnce walks the open positions and exits any that hit the
// take-profit or stop-loss bounds. A position that cannot be priced or
// sold this cycle is left open for the next one.
func (a *Autopilot) ManageOnce(ctx context.Context) error {
	for identifier, pos := range a.book.OpenPositions() {
		snap, err := a.watcher.Fetch(ctx, identifier)
		if err != nil {
			a.logger.Warn().Err(err).Str("token", identifier).Msg("cannot price position")
			continue
		}
		if snap == nil || snap.Price.IsZero() || pos.EntryPrice.IsZero() {
			a.logger.Warn().Str("token", identifier).Msg("no usable price for position")
			continue
		}

		pnlPct := snap.Price.Sub(pos.EntryPrice).Div(pos.EntryPrice).Mul(decimal.NewFromInt(100))

		var reason string
		switch {
		case pnlPct.GreaterThanOrEqual(decimal.NewFromFloat(a.opts.TakeProfitPct)):
			reason = "take-profit"
		case pnlPct.LessThanOrEqual(decimal.NewFromFloat(-a.opts.StopLossPct)):
			reason = "stop-loss"
		default:
			continue
		}

		a.sell(ctx, pos, snap, pnlPct, reason)
	}
	return nil
}

func (a *Autopilot) sell(ctx context.Context, pos ledger.Position, snap *market.Snapshot, pnlPct decimal.Decimal, reason string) {
	receipt, err := a.trader.Execute(ctx, pos.Identifier, solana.SolMint.String(), pos.Amount)
	if errors.Is(err, swap.ErrNoRoute) {
		a.logger.Warn().Str("token", pos.Identifier).Msg("no swap route; position stays open")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("token", pos.Identifier).Msg("sell failed; position stays open")
		return
	}

	if err := a.book.Close(pos.Identifier); err != nil {
		a.logger.Error().Err(err).Str("token", pos.Identifier).Msg("failed to archive position")
	}

	a.recordTrade(ctx, storage.TradeRecord{
		ExecutedAt:     time.Now().UTC(),
		Action:         "SELL",
		Identifier:     pos.Identifier,
		Symbol:         pos.Symbol,
		AmountLamports: receipt.OutAmount,
		PriceUSD:       snap.Price,
		Signature:      receipt.Signature.String(),
		Reason:         reason,
	})

	alert := notify.RenderTrade(notify.TradeAlert{
		Action:     "SELL",
		Symbol:     pos.Symbol,
		Identifier: pos.Identifier,
		PnLPct:     pnlPct,
		Signature:  receipt.Signature.String(),
		Reason:     reason,
	})
	if err := a.notifier.Notify(ctx, alert); err != nil {
		a.logger.Error().Err(err).Msg("failed to deliver sell alert")
	}

	a.logger.Info().
		Str("token", pos.Identifier).
		Str("reason", reason).
		Str("pnl_pct", pnlPct.StringFixed(2)).
		Msg("position closed")
}

func (a *Autopilot) recordScans(ctx context.Context, report hunter.Report) {
	if a.scans == nil {
		return
	}
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
		if _, err := a.scans.InsertScan(ctx, rec); err != nil {
			a.logger.Error().Err(err).Str("token", rec.Identifier).Msg("failed to persist scan")
		}
	}
}

func (a *Autopilot) recordTrade(ctx context.Context, trade storage.TradeRecord) {
	if a.trades == nil {
		return
	}
	if _, err := a.trades.InsertTrade(ctx, trade); err != nil {
		a.logger.Error().Err(err).Str("token", trade.Identifier).Msg("failed to persist trade")
	}
}
