package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Status marks a position's lifecycle state.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Position is one tracked holding. Amount is in the token's smallest
// on-chain unit.
type Position struct {
	Identifier string          `json:"-"`
	Symbol     string          `json:"symbol"`
	EntryPrice decimal.Decimal `json:"entry_price"`
	Amount     int64           `json:"amount_tokens"`
	OpenedAt   time.Time       `json:"opened_at"`
	ClosedAt   *time.Time      `json:"closed_at,omitempty"`
	Status     Status          `json:"status"`
}

// Ledger is the durable record of trading positions. The in-memory map is
// the working copy; every mutation rewrites the whole backing file under
// one lock, which is fine at the handful-of-positions scale this runs at.
type Ledger struct {
	mu        sync.Mutex
	path      string
	positions map[string]Position
	logger    zerolog.Logger
}

// Load opens the ledger at path. A missing or corrupt backing file starts
// an empty ledger; persistence problems must never fail process startup.
func Load(path string, logger zerolog.Logger) *Ledger {
	l := &Ledger{
		path:      path,
		positions: make(map[string]Position),
		logger:    logger.With().Str("component", "ledger").Logger(),
	}

	payload, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn().Err(err).Str("path", path).Msg("ledger unreadable; starting empty")
		}
		return l
	}

	var stored map[string]Position
	if err := json.Unmarshal(payload, &stored); err != nil {
		l.logger.Warn().Err(err).Str("path", path).Msg("ledger corrupt; starting empty")
		return l
	}

	for identifier, pos := range stored {
		pos.Identifier = identifier
		if pos.Status == "" {
			pos.Status = StatusOpen
		}
		l.positions[identifier] = pos
	}
	return l
}

// Add inserts or overwrites the position for identifier as OPEN and
// persists synchronously before returning.
func (l *Ledger) Add(identifier, symbol string, entryPrice decimal.Decimal, amount int64) error {
	if identifier == "" {
		return fmt.Errorf("ledger: identifier is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.positions[identifier] = Position{
		Identifier: identifier,
		Symbol:     symbol,
		EntryPrice: entryPrice,
		Amount:     amount,
		OpenedAt:   time.Now().UTC(),
		Status:     StatusOpen,
	}
	return l.persistLocked()
}

// Close archives the position as CLOSED, keeping the record for audit.
// Closing an absent or already closed position is a no-op.
func (l *Ledger) Close(identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[identifier]
	if !ok || pos.Status == StatusClosed {
		return nil
	}

	now := time.Now().UTC()
	pos.Status = StatusClosed
	pos.ClosedAt = &now
	l.positions[identifier] = pos
	return l.persistLocked()
}

// Remove hard-deletes the entry if present and persists synchronously.
// Removing an absent identifier is a no-op, not an error.
func (l *Ledger) Remove(identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.positions[identifier]; !ok {
		return nil
	}
	delete(l.positions, identifier)
	return l.persistLocked()
}

// OpenPositions returns the current OPEN positions keyed by identifier.
func (l *Ledger) OpenPositions() map[string]Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	open := make(map[string]Position)
	for identifier, pos := range l.positions {
		if pos.Status == StatusOpen {
			open[identifier] = pos
		}
	}
	return open
}

// Positions returns every tracked position, open and archived, keyed by
// identifier.
func (l *Ledger) Positions() map[string]Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	all := make(map[string]Position, len(l.positions))
	for identifier, pos := range l.positions {
		all[identifier] = pos
	}
	return all
}

// Get returns one position by identifier.
func (l *Ledger) Get(identifier string) (Position, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pos, ok := l.positions[identifier]
	return pos, ok
}

// persistLocked rewrites the backing file atomically: serialize to a temp
// file in the same directory, then rename over the target. A write failure
// is reported but leaves the in-memory state intact.
func (l *Ledger) persistLocked() error {
	payload, err := json.MarshalIndent(l.positions, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: marshal positions: %w", err)
	}

	dir := filepath.Dir(l.path)
	tmp, err := os.CreateTemp(dir, ".positions-*.json")
	if err != nil {
		return fmt.Errorf("ledger: create temp file: %w", err)
	}

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("ledger: replace %s: %w", l.path, err)
	}
	return nil
}
