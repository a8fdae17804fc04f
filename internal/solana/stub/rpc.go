package stub

import (
	"context"
	"sync"

	"solana-curve-maker/internal/solana"
)

// RPCClient implements solana.RPCClient for testing.
type RPCClient struct {
	mu sync.Mutex

	Accounts      map[string]*solana.AccountInfo
	Balances      map[string]uint64
	TokenBalances map[string]uint64 // key: owner|mint
	Statuses      map[string]*solana.SignatureStatus
	Transactions  map[string]*solana.Transaction

	// Sent records every raw transaction passed to SendTransaction.
	Sent [][]byte
	// SendErr, when set, is returned by SendTransaction.
	SendErr error
	// BalanceErr, when set, is returned by GetBalance and GetTokenBalance.
	BalanceErr error
	// NextSignature is returned by SendTransaction.
	NextSignature string
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Accounts:      make(map[string]*solana.AccountInfo),
		Balances:      make(map[string]uint64),
		TokenBalances: make(map[string]uint64),
		Statuses:      make(map[string]*solana.SignatureStatus),
		Transactions:  make(map[string]*solana.Transaction),
		NextSignature: "StubSignature1111111111111111111111111111111",
	}
}

// TokenKey builds the TokenBalances key.
func TokenKey(owner, mint string) string {
	return owner + "|" + mint
}

// GetAccountInfo returns the stored account or nil.
func (c *RPCClient) GetAccountInfo(_ context.Context, pubkey string) (*solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Accounts[pubkey], nil
}

// GetBalance returns the stored lamport balance.
func (c *RPCClient) GetBalance(_ context.Context, pubkey string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	return c.Balances[pubkey], nil
}

// GetTokenBalance returns the stored raw token balance.
func (c *RPCClient) GetTokenBalance(_ context.Context, owner, mint string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	return c.TokenBalances[TokenKey(owner, mint)], nil
}

// SendTransaction records rawTx and returns NextSignature.
// The signature is marked finalized unless a status was preset.
func (c *RPCClient) SendTransaction(_ context.Context, rawTx []byte, _ *solana.SendOpts) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	c.Sent = append(c.Sent, append([]byte(nil), rawTx...))
	if _, ok := c.Statuses[c.NextSignature]; !ok {
		c.Statuses[c.NextSignature] = &solana.SignatureStatus{ConfirmationStatus: solana.CommitmentFinalized}
	}
	return c.NextSignature, nil
}

// GetSignatureStatuses returns stored statuses, nil for unknown signatures.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*solana.SignatureStatus, len(signatures))
	for i, s := range signatures {
		out[i] = c.Statuses[s]
	}
	return out, nil
}

// GetTransaction returns the stored transaction or nil.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

var _ solana.RPCClient = (*RPCClient)(nil)
