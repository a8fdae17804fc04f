package settlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/feed"
	"solana-curve-maker/internal/solana"
)

// Trade API defaults.
const (
	DefaultTradeAPIEndpoint = "https://pumpportal.fun/api/trade-local"
	DefaultConfirmTimeout   = 60 * time.Second
	DefaultPollInterval     = 2 * time.Second
	DefaultPriorityFee      = 0.0005 // SOL
)

// Submission errors.
var (
	ErrConfirmTimeout = errors.New("transaction not confirmed before timeout")
	ErrTxFailed       = errors.New("transaction failed on chain")
)

// KeySource returns the signing key for an account.
type KeySource interface {
	Keypair(ctx context.Context, account string) (solana.Keypair, error)
}

// TradeAPISubmitter asks an external builder for an unsigned transaction,
// signs it locally and submits it over RPC.
type TradeAPISubmitter struct {
	endpoint       string
	client         *http.Client
	rpc            solana.RPCClient
	keys           KeySource
	account        string
	priorityFee    float64
	pool           string
	confirmTimeout time.Duration
	pollInterval   time.Duration
	logger         *zap.Logger
}

// TradeAPIOption configures TradeAPISubmitter.
type TradeAPIOption func(*TradeAPISubmitter)

// WithEndpoint sets the trade builder URL.
func WithEndpoint(url string) TradeAPIOption {
	return func(s *TradeAPISubmitter) {
		s.endpoint = url
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(c *http.Client) TradeAPIOption {
	return func(s *TradeAPISubmitter) {
		s.client = c
	}
}

// WithPriorityFee sets the priority fee in SOL.
func WithPriorityFee(sol float64) TradeAPIOption {
	return func(s *TradeAPISubmitter) {
		s.priorityFee = sol
	}
}

// WithConfirmation sets the confirmation timeout and poll interval.
func WithConfirmation(timeout, poll time.Duration) TradeAPIOption {
	return func(s *TradeAPISubmitter) {
		s.confirmTimeout = timeout
		s.pollInterval = poll
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) TradeAPIOption {
	return func(s *TradeAPISubmitter) {
		s.logger = l
	}
}

// NewTradeAPISubmitter creates a submitter signing with account's key.
func NewTradeAPISubmitter(rpc solana.RPCClient, keys KeySource, account string, opts ...TradeAPIOption) *TradeAPISubmitter {
	s := &TradeAPISubmitter{
		endpoint:       DefaultTradeAPIEndpoint,
		client:         &http.Client{Timeout: 15 * time.Second},
		rpc:            rpc,
		keys:           keys,
		account:        account,
		priorityFee:    DefaultPriorityFee,
		pool:           "pump",
		confirmTimeout: DefaultConfirmTimeout,
		pollInterval:   DefaultPollInterval,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// tradeRequest is the builder's request body.
type tradeRequest struct {
	PublicKey        string  `json:"publicKey"`
	Action           string  `json:"action"`
	Mint             string  `json:"mint"`
	Amount           float64 `json:"amount"`
	DenominatedInSol string  `json:"denominatedInSol"`
	Slippage         float64 `json:"slippage"`
	PriorityFee      float64 `json:"priorityFee"`
	Pool             string  `json:"pool"`
}

// Submit builds, signs, sends and confirms o.
func (s *TradeAPISubmitter) Submit(ctx context.Context, o Order) (Receipt, error) {
	kp, err := s.keys.Keypair(ctx, s.account)
	if err != nil {
		return Receipt{}, fmt.Errorf("load signing key: %w", err)
	}

	unsigned, err := s.build(ctx, kp.PublicKey(), o)
	if err != nil {
		return Receipt{}, err
	}

	signed, _, err := solana.SignTransaction(unsigned, kp)
	if err != nil {
		return Receipt{}, fmt.Errorf("sign transaction: %w", err)
	}

	maxRetries := 3
	sig, err := s.rpc.SendTransaction(ctx, signed, &solana.SendOpts{
		PreflightCommitment: solana.CommitmentConfirmed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("send transaction: %w", err)
	}
	s.logger.Debug("transaction sent", zap.String("signature", sig))

	if err := s.confirm(ctx, sig); err != nil {
		return Receipt{Signature: sig}, err
	}

	r := Receipt{Signature: sig}
	s.reconcile(ctx, o, &r)
	return r, nil
}

// build requests the unsigned transaction bytes.
func (s *TradeAPISubmitter) build(ctx context.Context, payer solana.PublicKey, o Order) ([]byte, error) {
	req := tradeRequest{
		PublicKey:        payer.String(),
		Action:           string(o.Action),
		Mint:             o.Mint,
		Amount:           o.Amount,
		DenominatedInSol: strconv.FormatBool(o.Action == domain.ActionBuy),
		Slippage:         o.SlippagePercent,
		PriorityFee:      s.priorityFee,
		Pool:             s.pool,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal trade request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("trade api request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read trade api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trade api status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}
	if len(respBody) == 0 {
		return nil, fmt.Errorf("trade api returned empty transaction")
	}
	return respBody, nil
}

// confirm polls signature status until confirmed, failed or timed out.
func (s *TradeAPISubmitter) confirm(ctx context.Context, sig string) error {
	deadline := time.Now().Add(s.confirmTimeout)
	for {
		statuses, err := s.rpc.GetSignatureStatuses(ctx, []string{sig})
		if err != nil {
			s.logger.Warn("signature status poll failed", zap.String("signature", sig), zap.Error(err))
		} else if len(statuses) > 0 && statuses[0] != nil {
			st := statuses[0]
			if st.Err != nil {
				return fmt.Errorf("%s: %v: %w", sig, st.Err, ErrTxFailed)
			}
			if st.Confirmed() {
				return nil
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s: %w", sig, ErrConfirmTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
}

// reconcile reads the confirmed transaction's TradeEvent to record actual
// fill amounts. Failures leave the receipt on quoted amounts.
func (s *TradeAPISubmitter) reconcile(ctx context.Context, o Order, r *Receipt) {
	tx, err := s.rpc.GetTransaction(ctx, r.Signature)
	if err != nil || tx == nil || tx.Meta == nil {
		return
	}
	for _, ev := range feed.ParseTradeEvents(tx.Meta.LogMessages, r.Signature, tx.Slot) {
		if ev.Mint != o.Mint {
			continue
		}
		if ev.IsBuy {
			r.FilledIn, r.FilledOut = ev.SolUI(), ev.TokenUI()
		} else {
			r.FilledIn, r.FilledOut = ev.TokenUI(), ev.SolUI()
		}
		return
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
