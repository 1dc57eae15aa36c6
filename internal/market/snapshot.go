package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is a point-in-time normalized market record for one token.
// Every numeric field is zero when the upstream payload omits it, so
// downstream filters never have to guard against absent data.
type Snapshot struct {
	Identifier        string
	Name              string
	Symbol            string
	PairAddress       string
	Price             decimal.Decimal
	LiquidityUSD      decimal.Decimal
	Volume24hUSD      decimal.Decimal
	FDVUSD            decimal.Decimal
	MarketCapUSD      decimal.Decimal
	AgeHours          decimal.Decimal
	BuyTxCount24h     int64
	SellTxCount24h    int64
	PriceChange1hPct  decimal.Decimal
	PriceChange24hPct decimal.Decimal
}

// newSnapshot folds a token's trading pairs into one record. Liquidity,
// volume, and transaction counts are summed across pairs so fragmented
// liquidity is not under-counted; descriptive fields come from the deepest
// pair; age derives from the oldest pair creation timestamp.
func newSnapshot(identifier string, pairs []Pair, now time.Time) *Snapshot {
	relevant := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		if p.ChainID != chainSolana {
			continue
		}
		if p.BaseToken.Address != "" && p.BaseToken.Address != identifier {
			continue
		}
		relevant = append(relevant, p)
	}
	if len(relevant) == 0 {
		return nil
	}

	deepest := relevant[0]
	var oldestCreated int64
	snap := &Snapshot{Identifier: identifier}

	for _, p := range relevant {
		snap.LiquidityUSD = snap.LiquidityUSD.Add(decimal.NewFromFloat(p.Liquidity.USD))
		snap.Volume24hUSD = snap.Volume24hUSD.Add(decimal.NewFromFloat(p.Volume.H24))
		snap.BuyTxCount24h += int64(p.Txns.H24.Buys)
		snap.SellTxCount24h += int64(p.Txns.H24.Sells)

		if p.Liquidity.USD > deepest.Liquidity.USD {
			deepest = p
		}
		if p.PairCreatedAt > 0 && (oldestCreated == 0 || p.PairCreatedAt < oldestCreated) {
			oldestCreated = p.PairCreatedAt
		}
	}

	snap.Name = deepest.BaseToken.Name
	snap.Symbol = deepest.BaseToken.Symbol
	snap.PairAddress = deepest.PairAddress
	snap.Price = parsePrice(deepest.PriceUSD)
	snap.FDVUSD = decimal.NewFromFloat(deepest.FDV)
	snap.MarketCapUSD = decimal.NewFromFloat(deepest.MarketCap)
	snap.PriceChange1hPct = decimal.NewFromFloat(deepest.PriceChange.H1)
	snap.PriceChange24hPct = decimal.NewFromFloat(deepest.PriceChange.H24)

	if oldestCreated > 0 {
		created := time.UnixMilli(oldestCreated)
		if age := now.Sub(created); age > 0 {
			snap.AgeHours = decimal.NewFromFloat(age.Hours()).Round(1)
		}
	}

	return snap
}

func parsePrice(raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return price
}
