package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertScanSQL = `INSERT INTO scans (
        scanned_at,
        identifier,
        symbol,
        source,
        price_usd,
        liquidity_usd,
        volume_24h_usd,
        risk_score,
        verdict,
        confidence,
        risk_level,
        reasoning
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    ) RETURNING id;`

	listScansForTokenSQL = `SELECT
        id,
        scanned_at,
        identifier,
        symbol,
        source,
        price_usd,
        liquidity_usd,
        volume_24h_usd,
        risk_score,
        verdict,
        confidence,
        risk_level,
        reasoning,
        created_at
    FROM scans
    WHERE identifier = $1
    ORDER BY scanned_at;`

	listRecentScansSQL = `SELECT
        id,
        scanned_at,
        identifier,
        symbol,
        source,
        price_usd,
        liquidity_usd,
        volume_24h_usd,
        risk_score,
        verdict,
        confidence,
        risk_level,
        reasoning,
        created_at
    FROM scans
    ORDER BY scanned_at DESC
    LIMIT $1;`

	countScansSQL = `SELECT COUNT(*) FROM scans;`

	insertTradeSQL = `INSERT INTO trades (
        executed_at,
        action,
        identifier,
        symbol,
        amount_lamports,
        price_usd,
        signature,
        reason
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    ) RETURNING id;`

	listRecentTradesSQL = `SELECT
        id,
        executed_at,
        action,
        identifier,
        symbol,
        amount_lamports,
        price_usd,
        signature,
        reason,
        created_at
    FROM trades
    ORDER BY executed_at DESC
    LIMIT $1;`
)

// ScanStore defines operations for scan history persistence.
type ScanStore interface {
	InsertScan(ctx context.Context, scan ScanRecord) (int64, error)
	ListScansForToken(ctx context.Context, identifier string) ([]ScanRecord, error)
	ListRecentScans(ctx context.Context, limit int) ([]ScanRecord, error)
	CountScans(ctx context.Context) (int64, error)
}

// TradeStore defines operations for trade auditing.
type TradeStore interface {
	InsertTrade(ctx context.Context, trade TradeRecord) (int64, error)
	ListRecentTrades(ctx context.Context, limit int) ([]TradeRecord, error)
}

// Store aggregates access to scan and trade history.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertScan persists one enrichment result.
func (s *Store) InsertScan(ctx context.Context, scan ScanRecord) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var riskScore interface{}
	if scan.RiskScore != nil {
		riskScore = *scan.RiskScore
	}

	var id int64
	if scanErr := pool.QueryRow(ctx, insertScanSQL,
		scan.ScannedAt,
		scan.Identifier,
		scan.Symbol,
		scan.Source,
		scan.PriceUSD.String(),
		scan.LiquidityUSD.String(),
		scan.Volume24hUSD.String(),
		riskScore,
		scan.Verdict,
		scan.Confidence,
		scan.RiskLevel,
		scan.Reasoning,
	).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("insert scan: %w", scanErr)
	}
	return id, nil
}

// ListScansForToken lists all scans for one token ordered by scan time.
func (s *Store) ListScansForToken(ctx context.Context, identifier string) ([]ScanRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listScansForTokenSQL, identifier)
	if queryErr != nil {
		return nil, fmt.Errorf("list scans for token: %w", queryErr)
	}
	defer rows.Close()

	return collectScans(rows, 0)
}

// ListRecentScans lists the most recent scans, newest first.
func (s *Store) ListRecentScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentScansSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent scans: %w", queryErr)
	}
	defer rows.Close()

	return collectScans(rows, limit)
}

// CountScans counts stored scans.
func (s *Store) CountScans(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countScansSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count scans: %w", scanErr)
	}
	return count, nil
}

// InsertTrade persists one executed swap.
func (s *Store) InsertTrade(ctx context.Context, trade TradeRecord) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}

	var id int64
	if scanErr := pool.QueryRow(ctx, insertTradeSQL,
		trade.ExecutedAt,
		trade.Action,
		trade.Identifier,
		trade.Symbol,
		trade.AmountLamports,
		trade.PriceUSD.String(),
		trade.Signature,
		trade.Reason,
	).Scan(&id); scanErr != nil {
		return 0, fmt.Errorf("insert trade: %w", scanErr)
	}
	return id, nil
}

// ListRecentTrades lists the most recent trades, newest first.
func (s *Store) ListRecentTrades(ctx context.Context, limit int) ([]TradeRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentTradesSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent trades: %w", queryErr)
	}
	defer rows.Close()

	trades := make([]TradeRecord, 0, limit)
	for rows.Next() {
		var (
			rec      TradeRecord
			priceStr string
		)
		if err := rows.Scan(
			&rec.ID,
			&rec.ExecutedAt,
			&rec.Action,
			&rec.Identifier,
			&rec.Symbol,
			&rec.AmountLamports,
			&priceStr,
			&rec.Signature,
			&rec.Reason,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		price, convErr := decimal.NewFromString(priceStr)
		if convErr != nil {
			return nil, fmt.Errorf("parse trade price: %w", convErr)
		}
		rec.PriceUSD = price
		trades = append(trades, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return trades, nil
}

func collectScans(rows pgx.Rows, sizeHint int) ([]ScanRecord, error) {
	scans := make([]ScanRecord, 0, sizeHint)
	for rows.Next() {
		scan, err := scanScanRecord(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return scans, nil
}

func scanScanRecord(rows pgx.Rows) (ScanRecord, error) {
	var (
		rec          ScanRecord
		priceStr     string
		liquidityStr string
		volumeStr    string
		riskScore    sql.NullInt64
	)

	if err := rows.Scan(
		&rec.ID,
		&rec.ScannedAt,
		&rec.Identifier,
		&rec.Symbol,
		&rec.Source,
		&priceStr,
		&liquidityStr,
		&volumeStr,
		&riskScore,
		&rec.Verdict,
		&rec.Confidence,
		&rec.RiskLevel,
		&rec.Reasoning,
		&rec.CreatedAt,
	); err != nil {
		return ScanRecord{}, err
	}

	var err error
	if rec.PriceUSD, err = decimal.NewFromString(priceStr); err != nil {
		return ScanRecord{}, fmt.Errorf("parse scan price: %w", err)
	}
	if rec.LiquidityUSD, err = decimal.NewFromString(liquidityStr); err != nil {
		return ScanRecord{}, fmt.Errorf("parse scan liquidity: %w", err)
	}
	if rec.Volume24hUSD, err = decimal.NewFromString(volumeStr); err != nil {
		return ScanRecord{}, fmt.Errorf("parse scan volume: %w", err)
	}
	if riskScore.Valid {
		value := int(riskScore.Int64)
		rec.RiskScore = &value
	}

	return rec, nil
}
