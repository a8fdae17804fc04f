// Package main runs the market-making engine: one execution loop per
// configured asset, fed by live curve trades, settling in paper or live mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"solana-curve-maker/internal/candles"
	"solana-curve-maker/internal/config"
	"solana-curve-maker/internal/domain"
	"solana-curve-maker/internal/engine"
	"solana-curve-maker/internal/feed"
	"solana-curve-maker/internal/keystore"
	"solana-curve-maker/internal/logging"
	"solana-curve-maker/internal/observability"
	"solana-curve-maker/internal/opsapi"
	"solana-curve-maker/internal/settlement"
	"solana-curve-maker/internal/solana"
	"solana-curve-maker/internal/storage"
	chstore "solana-curve-maker/internal/storage/clickhouse"
	"solana-curve-maker/internal/storage/memory"
	"solana-curve-maker/internal/storage/migrations"
	pgstore "solana-curve-maker/internal/storage/postgres"
	redisstore "solana-curve-maker/internal/storage/redis"
)

// feedRetryDelay is the pause before resubscribing a closed trade feed.
const feedRetryDelay = 5 * time.Second

// stores holds the persistence backends chosen by config.
type stores struct {
	candles    storage.CandleStore
	positions  storage.PositionStore
	executions storage.ExecutionStore
	cooldowns  storage.CooldownStore
}

func main() {
	configPath := flag.String("config", "config/engine.yaml", "Path to engine config")
	flag.Parse()

	provider, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg := provider.Current()

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, provider, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("engine exited", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(ctx context.Context, provider *config.Provider, logger *zap.Logger) error {
	cfg := provider.Current()
	provider.Watch(logger)

	metrics := observability.NewMetrics(observability.DefaultNamespace)
	st, cleanup, err := createStores(ctx, cfg.Storage, cfg.Engine.Cooldown(), metrics, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	rpc := solana.NewHTTPClient(cfg.Solana.RPCURL, solana.WithTimeout(cfg.Solana.Timeout))

	wsCfg := solana.DefaultWSConfig()
	wsCfg.Commitment = cfg.Solana.Commitment
	wsCfg.Logger = logger
	ws, err := solana.NewWSClient(ctx, cfg.Solana.WSURL, &wsCfg)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer ws.Close()

	agg := candles.NewAggregator(st.candles, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := agg.Flush(flushCtx); err != nil {
			logger.Error("flush open candles", zap.Error(err))
		}
	}()
	source := candles.NewStoreSource(st.candles, agg)

	submitter, accounts, err := createSettlement(ctx, cfg, rpc, logger)
	if err != nil {
		return err
	}
	executor := settlement.NewSettler(submitter, cfg.Engine.SlippagePercent, logger)
	curves := settlement.NewCurveReader(rpc)

	mgr := engine.NewManager(logger)
	for _, asset := range cfg.EnabledAssets() {
		launch, _, err := asset.Launch()
		if err != nil {
			return err
		}
		e, err := engine.New(engine.Options{
			Mint:       asset.Mint,
			LaunchedAt: launch,
			Candles:    source,
			Accounts:   accounts,
			Curve:      curves,
			Executor:   executor,
			Config:     provider,
			Positions:  st.positions,
			Executions: st.executions,
			Cooldowns:  st.cooldowns,
			Metrics:    metrics,
			Logger:     logger,
			Paper:      cfg.Mode == config.ModePaper,
		})
		if err != nil {
			return err
		}
		if err := mgr.Add(e); err != nil {
			return err
		}

		sink := &countingSink{next: agg, metrics: metrics}
		go runFeed(ctx, feed.NewSubscriber(ws, asset.Mint, sink, logger), logger)
	}

	if cfg.OpsAPI.Enabled {
		srv := opsapi.New(opsapi.Options{
			Addr:       cfg.OpsAPI.Addr,
			Engines:    mgr,
			Executions: st.executions,
			Metrics:    observability.Handler(),
			Mode:       cfg.Mode,
			Logger:     logger,
		})
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("ops api stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("engine running",
		zap.String("mode", cfg.Mode),
		zap.Int("assets", len(cfg.EnabledAssets())),
	)
	mgr.Run(ctx)
	return ctx.Err()
}

// createStores picks Postgres, ClickHouse and Redis when configured and
// memory otherwise, each concern independently.
func createStores(ctx context.Context, cfg config.StorageConfig, cooldown time.Duration, metrics *observability.Metrics, logger *zap.Logger) (*stores, func(), error) {
	st := &stores{
		candles:    memory.NewCandleStore(),
		positions:  memory.NewPositionStore(),
		executions: memory.NewExecutionStore(),
		cooldowns:  memory.NewCooldownStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN,
			pgstore.WithQueryObserver(func(op string, took time.Duration, err error) {
				metrics.RecordDBQuery("postgres", op, took.Seconds(), err)
			}),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, err
		}
		st.positions = pgstore.NewPositionStore(pool)
		st.executions = pgstore.NewExecutionStore(pool)
		logger.Info("positions and executions in postgres")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, func() { _ = conn.Close() })
		st.candles = chstore.NewCandleStore(conn)
		logger.Info("candles in clickhouse")
	}

	if cfg.RedisURL != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = client.Close() })
		st.cooldowns = redisstore.NewCooldownStore(client, 2*cooldown)
		logger.Info("cooldowns in redis")
	}

	return st, cleanup, nil
}

// createSettlement returns the submitter and balance source for cfg.Mode.
func createSettlement(
	ctx context.Context,
	cfg *config.Config,
	rpc solana.RPCClient,
	logger *zap.Logger,
) (settlement.Submitter, engine.AccountSource, error) {
	if cfg.Mode == config.ModePaper {
		paper := settlement.NewPaperSubmitter(cfg.Paper.QuoteBalance)
		logger.Info("paper settlement", zap.Float64("quote_balance", cfg.Paper.QuoteBalance))
		return paper, paper, nil
	}

	keys, err := createKeyStore(cfg.Wallet)
	if err != nil {
		return nil, nil, err
	}
	owner, err := keystore.PublicKey(ctx, keys, cfg.Wallet.Account)
	if err != nil {
		return nil, nil, fmt.Errorf("load trading key: %w", err)
	}
	logger.Info("live settlement", zap.String("owner", owner.String()))

	sub := settlement.NewTradeAPISubmitter(rpc, keys, cfg.Wallet.Account,
		settlement.WithEndpoint(cfg.TradeAPI.Endpoint),
		settlement.WithPriorityFee(cfg.TradeAPI.PriorityFee),
		settlement.WithConfirmation(cfg.TradeAPI.ConfirmTimeout, cfg.TradeAPI.PollInterval),
		settlement.WithLogger(logger),
	)
	return sub, settlement.NewAccountReader(rpc, owner.String()), nil
}

func createKeyStore(cfg config.WalletConfig) (keystore.Store, error) {
	switch cfg.KeySource {
	case config.KeySourceVault:
		store, err := keystore.NewVaultStore(cfg.Vault)
		if err != nil {
			return nil, fmt.Errorf("vault key store: %w", err)
		}
		return store, nil
	default:
		secret := os.Getenv(cfg.SecretEnv)
		if secret == "" {
			return nil, fmt.Errorf("%s is empty", cfg.SecretEnv)
		}
		store, err := keystore.NewMemoryStore(map[string]string{cfg.Account: secret})
		if err != nil {
			return nil, fmt.Errorf("env key store: %w", err)
		}
		return store, nil
	}
}

// runFeed keeps a trade subscription alive until ctx is cancelled.
func runFeed(ctx context.Context, sub *feed.Subscriber, logger *zap.Logger) {
	for {
		err := sub.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("trade feed stopped, resubscribing", zap.Error(err), zap.Duration("delay", feedRetryDelay))
		select {
		case <-ctx.Done():
			return
		case <-time.After(feedRetryDelay):
		}
	}
}

// countingSink counts trades on their way to the aggregator.
type countingSink struct {
	next    feed.TradeSink
	metrics *observability.Metrics
}

func (s *countingSink) AddTrade(ctx context.Context, ev domain.TradeEvent) error {
	s.metrics.RecordTrade(ev.Mint)
	return s.next.AddTrade(ctx, ev)
}
