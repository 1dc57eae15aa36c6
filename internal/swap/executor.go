package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
)

// ErrNoRoute signals that the aggregator has no quote for the requested
// pair and size.
var ErrNoRoute = errors.New("swap: no route available")

// TransactionBuilder obtains a quoted, serialized swap transaction.
type TransactionBuilder interface {
	BuildSwapTransaction(ctx context.Context, userPublicKey, inputMint, outputMint string, amountLamports int64) (*Plan, error)
}

// Receipt describes a submitted swap.
type Receipt struct {
	Signature solana.Signature
	// OutAmount is the quoted output in the destination token's smallest
	// unit, not the settled amount.
	OutAmount int64
}

// Signer signs transactions with the locally held key.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(tx *solana.Transaction) error
}

// ChainClient is the slice of the Solana RPC client the executor needs.
type ChainClient interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Executor turns a swap intent into a signed, submitted transaction.
type Executor struct {
	builder TransactionBuilder
	signer  Signer
	chain   ChainClient
	logger  zerolog.Logger
}

// NewExecutor wires the aggregator, wallet, and chain client together.
func NewExecutor(builder TransactionBuilder, signer Signer, chain ChainClient, logger zerolog.Logger) *Executor {
	return &Executor{
		builder: builder,
		signer:  signer,
		chain:   chain,
		logger:  logger.With().Str("component", "swap_executor").Logger(),
	}
}

// Execute swaps amountLamports of inputMint into outputMint and returns
// the submission receipt.
func (e *Executor) Execute(ctx context.Context, inputMint, outputMint string, amountLamports int64) (Receipt, error) {
	plan, err := e.builder.BuildSwapTransaction(ctx, e.signer.PublicKey().String(), inputMint, outputMint, amountLamports)
	if err != nil {
		return Receipt{}, fmt.Errorf("build swap transaction: %w", err)
	}
	if plan == nil {
		return Receipt{}, ErrNoRoute
	}

	raw, err := base64.StdEncoding.DecodeString(plan.SwapTransaction)
	if err != nil {
		return Receipt{}, fmt.Errorf("decode swap transaction: %w", err)
	}

	tx, err := solana.TransactionFromBytes(raw)
	if err != nil {
		return Receipt{}, fmt.Errorf("parse swap transaction: %w", err)
	}

	recent, err := e.chain.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return Receipt{}, fmt.Errorf("fetch latest blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = recent.Value.Blockhash

	if err := e.signer.Sign(tx); err != nil {
		return Receipt{}, err
	}

	sig, err := e.chain.SendTransaction(ctx, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("send transaction: %w", err)
	}

	e.logger.Info().
		Str("signature", sig.String()).
		Str("input", inputMint).
		Str("output", outputMint).
		Int64("amount", amountLamports).
		Int64("out_amount", plan.OutAmount).
		Msg("swap submitted")
	return Receipt{Signature: sig, OutAmount: plan.OutAmount}, nil
}
