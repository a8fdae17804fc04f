package settlement

import (
	"context"
	"fmt"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/solana"
)

// AccountReader reads the trading wallet's SOL and token balances over RPC.
type AccountReader struct {
	rpc   solana.RPCClient
	owner string
}

// NewAccountReader creates an AccountReader for owner.
func NewAccountReader(rpc solana.RPCClient, owner string) *AccountReader {
	return &AccountReader{rpc: rpc, owner: owner}
}

// Balances returns SOL and token holdings of mint in UI units.
func (a *AccountReader) Balances(ctx context.Context, mint string) (quote, tokens float64, err error) {
	lamports, err := a.rpc.GetBalance(ctx, a.owner)
	if err != nil {
		return 0, 0, fmt.Errorf("get sol balance: %w", err)
	}
	raw, err := a.rpc.GetTokenBalance(ctx, a.owner, mint)
	if err != nil {
		return 0, 0, fmt.Errorf("get token balance: %w", err)
	}
	return FromBase(lamports, domain.SolDecimals), FromBase(raw, domain.TokenDecimals), nil
}
