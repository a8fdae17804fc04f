package settlement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"solana-curve-maker/internal/domain"
)

// ErrInsufficientFunds is returned by the paper wallet when an order exceeds it.
var ErrInsufficientFunds = errors.New("insufficient paper funds")

// PaperSubmitter fills every order at its quoted output against an in-memory
// wallet. Orders never leave the process.
type PaperSubmitter struct {
	mu     sync.Mutex
	quote  float64            // SOL
	tokens map[string]float64 // per mint
	fills  []Receipt
}

// NewPaperSubmitter creates a paper wallet holding quoteBalance SOL.
func NewPaperSubmitter(quoteBalance float64) *PaperSubmitter {
	return &PaperSubmitter{
		quote:  quoteBalance,
		tokens: make(map[string]float64),
	}
}

// Submit fills o at o.ExpectedOut.
func (p *PaperSubmitter) Submit(ctx context.Context, o Order) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch o.Action {
	case domain.ActionBuy:
		if o.Amount > p.quote {
			return Receipt{}, fmt.Errorf("buy %.9f SOL with %.9f: %w", o.Amount, p.quote, ErrInsufficientFunds)
		}
		p.quote -= o.Amount
		p.tokens[o.Mint] += o.ExpectedOut
	case domain.ActionSell:
		if o.Amount > p.tokens[o.Mint] {
			return Receipt{}, fmt.Errorf("sell %.6f tokens with %.6f: %w", o.Amount, p.tokens[o.Mint], ErrInsufficientFunds)
		}
		p.tokens[o.Mint] -= o.Amount
		p.quote += o.ExpectedOut
	default:
		return Receipt{}, fmt.Errorf("unknown action %q", o.Action)
	}

	r := Receipt{
		Signature: "paper-" + uuid.New().String(),
		FilledIn:  o.Amount,
		FilledOut: o.ExpectedOut,
	}
	p.fills = append(p.fills, r)
	return r, nil
}

// Balances returns the paper wallet's SOL and token holdings for mint.
func (p *PaperSubmitter) Balances(_ context.Context, mint string) (quote, tokens float64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote, p.tokens[mint], nil
}

// Fills returns a copy of every receipt issued.
func (p *PaperSubmitter) Fills() []Receipt {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Receipt(nil), p.fills...)
}
