package app

import (
	"context"
	"fmt"
	"os"
)

// WalletInfo prints the configured wallet's address and SOL balance.
func (a *App) WalletInfo(ctx context.Context) error {
	w, err := a.newWallet()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "address: %s\n", w.PublicKey())

	balance, err := w.Balance(ctx, a.newRPCClient())
	if err != nil {
		a.Logger.Warn().Err(err).Msg("balance unavailable")
		fmt.Fprintln(os.Stdout, "balance: unavailable")
		return nil
	}
	fmt.Fprintf(os.Stdout, "balance: %s SOL\n", balance.String())
	return nil
}
