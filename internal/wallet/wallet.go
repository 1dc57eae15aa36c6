package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var lamportsPerSOL = decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL))

// Wallet holds the locally managed signing key.
type Wallet struct {
	key    solana.PrivateKey
	logger zerolog.Logger
}

// Load builds a wallet from a base58-encoded private key. An empty key
// generates a fresh keypair and logs the secret so the operator can save
// it; a malformed key is an error.
func Load(privateKeyBase58 string, logger zerolog.Logger) (*Wallet, error) {
	logger = logger.With().Str("component", "wallet").Logger()

	if privateKeyBase58 != "" {
		key, err := solana.PrivateKeyFromBase58(privateKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("parse wallet private key: %w", err)
		}
		logger.Info().Str("pubkey", key.PublicKey().String()).Msg("wallet loaded")
		return &Wallet{key: key, logger: logger}, nil
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate wallet keypair: %w", err)
	}
	logger.Warn().
		Str("pubkey", key.PublicKey().String()).
		Str("private_key", key.String()).
		Msg("no wallet key configured; generated a new one - save the private key")
	return &Wallet{key: key, logger: logger}, nil
}

// PublicKey returns the wallet's public key.
func (w *Wallet) PublicKey() solana.PublicKey {
	return w.key.PublicKey()
}

// Sign signs every required signature slot owned by this wallet.
func (w *Wallet) Sign(tx *solana.Transaction) error {
	_, err := tx.Sign(func(pubkey solana.PublicKey) *solana.PrivateKey {
		if pubkey.Equals(w.key.PublicKey()) {
			return &w.key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	return nil
}

// Balance fetches the wallet's SOL balance via RPC.
func (w *Wallet) Balance(ctx context.Context, client *rpc.Client) (decimal.Decimal, error) {
	res, err := client.GetBalance(ctx, w.PublicKey(), rpc.CommitmentFinalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch balance: %w", err)
	}
	return decimal.NewFromInt(int64(res.Value)).Div(lamportsPerSOL), nil
}

// LamportsFromSOL converts a SOL amount to lamports, truncating any
// fraction below one lamport.
func LamportsFromSOL(sol float64) int64 {
	return decimal.NewFromFloat(sol).Mul(lamportsPerSOL).IntPart()
}

// SOLFromLamports converts lamports to SOL.
func SOLFromLamports(lamports int64) decimal.Decimal {
	return decimal.NewFromInt(lamports).Div(lamportsPerSOL)
}
