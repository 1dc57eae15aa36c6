package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"gem-hunter/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Wallet    WalletConfig    `mapstructure:"wallet"`
	Market    MarketConfig    `mapstructure:"market"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Verdict   VerdictConfig   `mapstructure:"verdict"`
	Swap      SwapConfig      `mapstructure:"swap"`
	Hunter    HunterConfig    `mapstructure:"hunter"`
	Autopilot AutopilotConfig `mapstructure:"autopilot"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
	Export    ExportConfig    `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates the optional PostgreSQL history store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SolanaConfig covers on-chain access.
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// WalletConfig holds the signing key material.
type WalletConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// MarketConfig captures DexScreener connectivity.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// RiskConfig captures RugCheck connectivity.
type RiskConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// VerdictConfig parameterises the language-model analyst.
type VerdictConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Model          string        `mapstructure:"model"`
	Temperature    float64       `mapstructure:"temperature"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SwapConfig captures Jupiter aggregator connectivity.
type SwapConfig struct {
	QuoteURL       string        `mapstructure:"quote_url"`
	SwapURL        string        `mapstructure:"swap_url"`
	SlippageBps    int           `mapstructure:"slippage_bps"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SourceTierConfig defines one discovery tier's pre-filter and risk ceiling.
type SourceTierConfig struct {
	Query           string  `mapstructure:"query"`
	MinLiquidityUSD float64 `mapstructure:"min_liquidity_usd"`
	MinVolume24hUSD float64 `mapstructure:"min_volume_24h_usd"`
	RiskCeiling     int     `mapstructure:"risk_ceiling"`
}

// HunterConfig governs the candidate discovery pipeline.
type HunterConfig struct {
	MaxCandidates  int              `mapstructure:"max_candidates"`
	PerSourceLimit int              `mapstructure:"per_source_limit"`
	RequestTimeout time.Duration    `mapstructure:"request_timeout"`
	SearchBaseURL  string           `mapstructure:"search_base_url"`
	TrendingURL    string           `mapstructure:"trending_url"`
	Aggressive     SourceTierConfig `mapstructure:"aggressive"`
	Conservative   SourceTierConfig `mapstructure:"conservative"`
}

// AutopilotConfig tunes the automated hunt/manage loops.
type AutopilotConfig struct {
	HuntInterval   time.Duration `mapstructure:"hunt_interval"`
	ManageInterval time.Duration `mapstructure:"manage_interval"`
	BuyAmountSOL   float64       `mapstructure:"buy_amount_sol"`
	MinConfidence  int           `mapstructure:"min_confidence"`
	TakeProfitPct  float64       `mapstructure:"take_profit_pct"`
	StopLossPct    float64       `mapstructure:"stop_loss_pct"`
}

// LedgerConfig locates the position file.
type LedgerConfig struct {
	Path string `mapstructure:"path"`
}

// AlertingConfig defines alert routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes Telegram delivery parameters.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GEMHUNTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gemhunter")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("solana.rpc_url", "https://api.mainnet-beta.solana.com")
	v.SetDefault("solana.request_timeout", "15s")

	v.SetDefault("market.base_url", "https://api.dexscreener.com")
	v.SetDefault("market.request_timeout", "10s")

	v.SetDefault("risk.base_url", "https://api.rugcheck.xyz")
	v.SetDefault("risk.request_timeout", "10s")

	v.SetDefault("verdict.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("verdict.model", "gemini-2.5-flash")
	v.SetDefault("verdict.temperature", 0.1)
	v.SetDefault("verdict.request_timeout", "30s")

	v.SetDefault("swap.quote_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("swap.swap_url", "https://quote-api.jup.ag/v6/swap")
	v.SetDefault("swap.slippage_bps", 100)
	v.SetDefault("swap.request_timeout", "15s")

	v.SetDefault("hunter.max_candidates", 5)
	v.SetDefault("hunter.per_source_limit", 5)
	v.SetDefault("hunter.request_timeout", "10s")
	v.SetDefault("hunter.search_base_url", "https://api.dexscreener.com")
	v.SetDefault("hunter.trending_url", "https://api.coingecko.com/api/v3/search/trending")
	v.SetDefault("hunter.aggressive.query", "pump")
	v.SetDefault("hunter.aggressive.min_liquidity_usd", 1000.0)
	v.SetDefault("hunter.aggressive.min_volume_24h_usd", 10000.0)
	v.SetDefault("hunter.aggressive.risk_ceiling", 60)
	v.SetDefault("hunter.conservative.query", "solana")
	v.SetDefault("hunter.conservative.min_liquidity_usd", 10000.0)
	v.SetDefault("hunter.conservative.min_volume_24h_usd", 50000.0)
	v.SetDefault("hunter.conservative.risk_ceiling", 50)

	v.SetDefault("autopilot.hunt_interval", "30m")
	v.SetDefault("autopilot.manage_interval", "1m")
	v.SetDefault("autopilot.buy_amount_sol", 0.02)
	v.SetDefault("autopilot.min_confidence", 70)
	v.SetDefault("autopilot.take_profit_pct", 30.0)
	v.SetDefault("autopilot.stop_loss_pct", 15.0)

	v.SetDefault("ledger.path", "positions.json")

	v.SetDefault("alerting.enabled", false)
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Hunter.MaxCandidates <= 0 {
		return fmt.Errorf("hunter.max_candidates must be greater than zero")
	}
	if c.Hunter.PerSourceLimit <= 0 {
		return fmt.Errorf("hunter.per_source_limit must be greater than zero")
	}
	for name, tier := range map[string]SourceTierConfig{
		"hunter.aggressive":   c.Hunter.Aggressive,
		"hunter.conservative": c.Hunter.Conservative,
	} {
		if tier.RiskCeiling <= 0 || tier.RiskCeiling > 100 {
			return fmt.Errorf("%s.risk_ceiling must be within (0,100]", name)
		}
		if tier.MinLiquidityUSD < 0 || tier.MinVolume24hUSD < 0 {
			return fmt.Errorf("%s thresholds cannot be negative", name)
		}
	}
	if c.Autopilot.HuntInterval <= 0 {
		return fmt.Errorf("autopilot.hunt_interval must be greater than zero")
	}
	if c.Autopilot.ManageInterval <= 0 {
		return fmt.Errorf("autopilot.manage_interval must be greater than zero")
	}
	if c.Autopilot.BuyAmountSOL <= 0 {
		return fmt.Errorf("autopilot.buy_amount_sol must be greater than zero")
	}
	if c.Autopilot.MinConfidence < 0 || c.Autopilot.MinConfidence > 100 {
		return fmt.Errorf("autopilot.min_confidence must be within [0,100]")
	}
	if c.Swap.SlippageBps <= 0 {
		return fmt.Errorf("swap.slippage_bps must be greater than zero")
	}
	if c.Ledger.Path == "" {
		return fmt.Errorf("ledger.path is required")
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
