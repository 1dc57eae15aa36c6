package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// ScanRecord is one persisted enrichment result for a candidate token.
type ScanRecord struct {
	ID           int64
	ScannedAt    time.Time
	Identifier   string
	Symbol       string
	Source       string
	PriceUSD     decimal.Decimal
	LiquidityUSD decimal.Decimal
	Volume24hUSD decimal.Decimal
	RiskScore    *int
	Verdict      string
	Confidence   int
	RiskLevel    string
	Reasoning    string
	CreatedAt    time.Time
}

// TradeRecord captures an executed swap for auditing.
type TradeRecord struct {
	ID             int64
	ExecutedAt     time.Time
	Action         string
	Identifier     string
	Symbol         string
	AmountLamports int64
	PriceUSD       decimal.Decimal
	Signature      string
	Reason         string
	CreatedAt      time.Time
}
