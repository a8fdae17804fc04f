package feed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/solana"
)

// ErrFeedClosed is returned by Run when the logs subscription ends.
var ErrFeedClosed = errors.New("feed: logs subscription closed")

// TradeSink consumes decoded trades for one asset.
type TradeSink interface {
	AddTrade(ctx context.Context, ev domain.TradeEvent) error
}

// Subscriber streams trades for a single mint from a logs subscription.
type Subscriber struct {
	ws     solana.WSClient
	mint   string
	sink   TradeSink
	logger *zap.Logger
}

// NewSubscriber creates a Subscriber for mint.
func NewSubscriber(ws solana.WSClient, mint string, sink TradeSink, logger *zap.Logger) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		ws:     ws,
		mint:   mint,
		sink:   sink,
		logger: logger.With(zap.String("mint", mint)),
	}
}

// Run blocks until ctx is cancelled or the subscription closes.
func (s *Subscriber) Run(ctx context.Context) error {
	logsCh, err := s.ws.SubscribeLogs(ctx, solana.LogsFilter{Mention: s.mint})
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	s.logger.Info("trade feed subscribed")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case notif, ok := <-logsCh:
			if !ok {
				return ErrFeedClosed
			}
			s.handle(ctx, notif)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, notif solana.LogNotification) {
	if notif.Failed() {
		return
	}

	for _, ev := range ParseTradeEvents(notif.Logs, notif.Signature, notif.Slot) {
		if ev.Mint != s.mint {
			continue
		}
		if err := s.sink.AddTrade(ctx, ev); err != nil {
			s.logger.Warn("trade dropped",
				zap.String("signature", ev.Signature),
				zap.Error(err),
			)
		}
	}
}
