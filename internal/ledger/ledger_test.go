package ledger

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "positions.json")
	return Load(path, zerolog.Nop()), path
}

func TestAddAndListOpen(t *testing.T) {
	l, _ := tempLedger(t)

	require.NoError(t, l.Add("mint-1", "GEM", decimal.NewFromFloat(0.0042), 1_000_000))

	open := l.OpenPositions()
	require.Len(t, open, 1)
	pos := open["mint-1"]
	assert.Equal(t, "GEM", pos.Symbol)
	assert.Equal(t, int64(1_000_000), pos.Amount)
	assert.Equal(t, StatusOpen, pos.Status)
	assert.False(t, pos.OpenedAt.IsZero())
}

func TestDurabilityAcrossRestart(t *testing.T) {
	l, path := tempLedger(t)
	require.NoError(t, l.Add("mint-1", "GEM", decimal.NewFromFloat(0.0042), 500))

	// Simulated restart: fresh load from the same backing file.
	reloaded := Load(path, zerolog.Nop())
	open := reloaded.OpenPositions()
	require.Len(t, open, 1)
	pos := open["mint-1"]
	assert.Equal(t, "mint-1", pos.Identifier)
	assert.Equal(t, "GEM", pos.Symbol)
	assert.True(t, pos.EntryPrice.Equal(decimal.NewFromFloat(0.0042)))
	assert.Equal(t, int64(500), pos.Amount)
}

func TestRemoveIsIdempotent(t *testing.T) {
	l, _ := tempLedger(t)
	require.NoError(t, l.Add("mint-1", "GEM", decimal.NewFromInt(1), 10))

	require.NoError(t, l.Remove("mint-1"))
	require.NoError(t, l.Remove("mint-1"), "second remove must be a no-op")
	require.NoError(t, l.Remove("never-existed"))

	assert.Empty(t, l.OpenPositions())
}

func TestCloseArchivesInsteadOfDeleting(t *testing.T) {
	l, path := tempLedger(t)
	require.NoError(t, l.Add("mint-1", "GEM", decimal.NewFromInt(1), 10))
	require.NoError(t, l.Close("mint-1"))

	assert.Empty(t, l.OpenPositions(), "closed positions are not open")

	pos, ok := l.Get("mint-1")
	require.True(t, ok, "closed positions remain on record")
	assert.Equal(t, StatusClosed, pos.Status)
	require.NotNil(t, pos.ClosedAt)

	// The archive survives a restart too.
	reloaded := Load(path, zerolog.Nop())
	pos, ok = reloaded.Get("mint-1")
	require.True(t, ok)
	assert.Equal(t, StatusClosed, pos.Status)

	require.NoError(t, l.Close("mint-1"), "closing twice is a no-op")
	require.NoError(t, l.Close("absent"))
}

func TestLoadToleratesMissingFile(t *testing.T) {
	l := Load(filepath.Join(t.TempDir(), "nope.json"), zerolog.Nop())
	assert.Empty(t, l.OpenPositions())
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	l := Load(path, zerolog.Nop())
	assert.Empty(t, l.OpenPositions(), "corrupt store starts an empty ledger")

	// And the ledger is usable afterwards.
	require.NoError(t, l.Add("mint-1", "GEM", decimal.NewFromInt(1), 10))
	assert.Len(t, l.OpenPositions(), 1)
}

func TestAddRequiresIdentifier(t *testing.T) {
	l, _ := tempLedger(t)
	assert.Error(t, l.Add("", "GEM", decimal.NewFromInt(1), 10))
}

func TestConcurrentMutationsSerialize(t *testing.T) {
	l, path := tempLedger(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := string(rune('a' + n%8))
			_ = l.Add(id, "TK", decimal.NewFromInt(int64(n)), int64(n))
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.OpenPositions(), 8)

	reloaded := Load(path, zerolog.Nop())
	assert.Len(t, reloaded.OpenPositions(), 8, "interleaved writers must not corrupt the store")
}
