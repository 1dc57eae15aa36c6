package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"gem-hunter/internal/autopilot"
	"gem-hunter/internal/config"
	"gem-hunter/internal/hunter"
	"gem-hunter/internal/ledger"
	"gem-hunter/internal/market"
	"gem-hunter/internal/notify"
	"gem-hunter/internal/risk"
	"gem-hunter/internal/storage"
	"gem-hunter/internal/swap"
	"gem-hunter/internal/verdict"
	"gem-hunter/internal/wallet"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newMarketClient() *market.Client {
	return market.NewClient(market.Options{
		BaseURL: a.Config.Market.BaseURL,
		Timeout: a.Config.Market.RequestTimeout,
	}, a.Logger)
}

func (a *App) newRiskClient() *risk.Client {
	return risk.NewClient(risk.Options{
		BaseURL: a.Config.Risk.BaseURL,
		Timeout: a.Config.Risk.RequestTimeout,
	}, a.Logger)
}

func (a *App) newAnalyst() *verdict.Analyst {
	return verdict.NewAnalyst(verdict.Options{
		BaseURL:     a.Config.Verdict.BaseURL,
		APIKey:      a.Config.Verdict.APIKey,
		Model:       a.Config.Verdict.Model,
		Temperature: a.Config.Verdict.Temperature,
		Timeout:     a.Config.Verdict.RequestTimeout,
	}, a.Logger)
}

// newSources builds the discovery sources in merge precedence order.
func (a *App) newSources(searcher hunter.Searcher) []hunter.Source {
	hcfg := a.Config.Hunter
	return []hunter.Source{
		hunter.NewSearchSource(hunter.Tier{
			Name:            "dexscreener-pump",
			Query:           hcfg.Aggressive.Query,
			MinLiquidityUSD: hcfg.Aggressive.MinLiquidityUSD,
			MinVolume24hUSD: hcfg.Aggressive.MinVolume24hUSD,
			RiskCeiling:     hcfg.Aggressive.RiskCeiling,
		}, searcher, hcfg.PerSourceLimit, a.Logger),
		hunter.NewSearchSource(hunter.Tier{
			Name:            "dexscreener-solana",
			Query:           hcfg.Conservative.Query,
			MinLiquidityUSD: hcfg.Conservative.MinLiquidityUSD,
			MinVolume24hUSD: hcfg.Conservative.MinVolume24hUSD,
			RiskCeiling:     hcfg.Conservative.RiskCeiling,
			SkipWrappedSOL:  true,
		}, searcher, hcfg.PerSourceLimit, a.Logger),
		hunter.NewTrendingSource(hcfg.TrendingURL, hcfg.Conservative.RiskCeiling, hcfg.RequestTimeout, a.Logger),
	}
}

func (a *App) newHunter(marketClient *market.Client) *hunter.Hunter {
	return hunter.New(
		a.newSources(marketClient),
		marketClient,
		a.newRiskClient(),
		a.newAnalyst(),
		hunter.Options{MaxCandidates: a.Config.Hunter.MaxCandidates},
		a.Logger,
	)
}

func (a *App) newNotifier() notify.Notifier {
	if a.Config.Alerting.Enabled && a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return notify.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return notify.Nop{}
}

func (a *App) newLedger() *ledger.Ledger {
	return ledger.Load(a.Config.Ledger.Path, a.Logger)
}

func (a *App) newWallet() (*wallet.Wallet, error) {
	return wallet.Load(a.Config.Wallet.PrivateKey, a.Logger)
}

func (a *App) newRPCClient() *rpc.Client {
	return rpc.New(a.Config.Solana.RPCURL)
}

func (a *App) newExecutor(w *wallet.Wallet) *swap.Executor {
	jupiter := swap.NewJupiter(swap.Options{
		QuoteURL:    a.Config.Swap.QuoteURL,
		SwapURL:     a.Config.Swap.SwapURL,
		SlippageBps: a.Config.Swap.SlippageBps,
		Timeout:     a.Config.Swap.RequestTimeout,
	}, a.Logger)
	return swap.NewExecutor(jupiter, w, a.newRPCClient(), a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running autopilot service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; history disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	w, err := a.newWallet()
	if err != nil {
		return err
	}

	marketClient := a.newMarketClient()

	var scans storage.ScanStore
	var trades storage.TradeStore
	if store != nil {
		scans = store
		trades = store
	}

	pilot := autopilot.New(
		a.newHunter(marketClient),
		a.newExecutor(w),
		a.newLedger(),
		marketClient,
		a.newNotifier(),
		scans,
		trades,
		autopilot.Options{
			HuntInterval:   a.Config.Autopilot.HuntInterval,
			ManageInterval: a.Config.Autopilot.ManageInterval,
			BuyAmountSOL:   a.Config.Autopilot.BuyAmountSOL,
			MinConfidence:  a.Config.Autopilot.MinConfidence,
			TakeProfitPct:  a.Config.Autopilot.TakeProfitPct,
			StopLossPct:    a.Config.Autopilot.StopLossPct,
		},
		a.Logger,
	)

	a.Logger.Info().Msg("starting autopilot")
	err = pilot.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("autopilot terminated with error")
		return err
	}

	a.Logger.Info().Msg("autopilot stopped")
	return nil
}

// ExportOptions hold parameters for exporting a token's scan history.
type ExportOptions struct {
	Identifier string
	PNGPath    string
	CSVPath    string
	MaxPoints  int
}

// HistoryOptions configure the history command.
type HistoryOptions struct {
	Limit  int
	Trades bool
}

// BuyOptions configure a manual buy.
type BuyOptions struct {
	Identifier string
	AmountSOL  float64
}
