// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "curve_maker"

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleSkips    *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec

	// Signal metrics
	SignalsGenerated *prometheus.CounterVec
	SignalConfidence *prometheus.HistogramVec

	// Settlement metrics
	SettlementsTotal   *prometheus.CounterVec
	SettlementDuration *prometheus.HistogramVec

	// Market gauges
	Price        *prometheus.GaugeVec
	MarketCapUSD *prometheus.GaugeVec
	HeldTokens   *prometheus.GaugeVec
	QuoteBalance *prometheus.GaugeVec
	Phase        *prometheus.GaugeVec

	// Feed metrics
	TradesIngested *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastCycleTimestamp *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWith creates a Metrics instance registered on reg.
func NewMetricsWith(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	f := promauto.With(reg)

	return &Metrics{
		CyclesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of completed execution cycles",
		}, []string{"mint"}),
		CycleSkips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_skips_total",
			Help:      "Cycles that ended without a settlement, by reason",
		}, []string{"mint", "reason"}),
		CycleDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Execution cycle duration",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mint"}),

		SignalsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "generated_total",
			Help:      "Signals produced, by action and rule",
		}, []string{"mint", "action", "rule"}),
		SignalConfidence: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "signal",
			Name:      "confidence",
			Help:      "Confidence of actionable signals",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}, []string{"action"}),

		SettlementsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "total",
			Help:      "Forwarded settlements, by action and result",
		}, []string{"mint", "action", "result"}),
		SettlementDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "settlement",
			Name:      "duration_seconds",
			Help:      "Time from submission to confirmation or failure",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"action"}),

		Price: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price_sol",
			Help:      "Last close price in SOL per token",
		}, []string{"mint"}),
		MarketCapUSD: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "market_cap_usd",
			Help:      "Last computed market cap in USD",
		}, []string{"mint"}),
		HeldTokens: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "held_tokens",
			Help:      "Tokens held by the trading account",
		}, []string{"mint"}),
		QuoteBalance: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "quote_balance_sol",
			Help:      "SOL balance of the trading account",
		}, []string{"mint"}),
		Phase: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "phase",
			Help:      "1 for the current phase, 0 otherwise",
		}, []string{"mint", "phase"}),

		TradesIngested: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "trades_ingested_total",
			Help:      "Decoded curve trades folded into candles",
		}, []string{"mint"}),

		DBQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"database", "operation"}),
		DBQueryErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		LastCycleTimestamp: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}, []string{"mint"}),
	}
}

// Handler returns the HTTP handler for the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns a metrics handler serving g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// phases lists every phase label so a switch zeroes the previous one.
var phases = []string{"accumulation", "markup", "euphoria", "distribution", "decline", "capitulation"}

// RecordCycle records a completed cycle.
func (m *Metrics) RecordCycle(mint string, seconds float64, unixTs int64) {
	m.CyclesTotal.WithLabelValues(mint).Inc()
	m.CycleDuration.WithLabelValues(mint).Observe(seconds)
	m.LastCycleTimestamp.WithLabelValues(mint).Set(float64(unixTs))
}

// RecordSkip records a cycle that stopped before settlement.
func (m *Metrics) RecordSkip(mint, reason string) {
	m.CycleSkips.WithLabelValues(mint, reason).Inc()
}

// RecordSignal records a generated signal.
func (m *Metrics) RecordSignal(mint, action, rule string, confidence float64) {
	m.SignalsGenerated.WithLabelValues(mint, action, rule).Inc()
	if action != "hold" {
		m.SignalConfidence.WithLabelValues(action).Observe(confidence)
	}
}

// RecordSettlement records a forwarded settlement.
func (m *Metrics) RecordSettlement(mint, action string, success bool, seconds float64) {
	result := "failed"
	if success {
		result = "success"
	}
	m.SettlementsTotal.WithLabelValues(mint, action, result).Inc()
	m.SettlementDuration.WithLabelValues(action).Observe(seconds)
}

// RecordMarket updates the market and position gauges.
func (m *Metrics) RecordMarket(mint, phase string, price, marketCapUSD, tokens, quote float64) {
	m.Price.WithLabelValues(mint).Set(price)
	m.MarketCapUSD.WithLabelValues(mint).Set(marketCapUSD)
	m.HeldTokens.WithLabelValues(mint).Set(tokens)
	m.QuoteBalance.WithLabelValues(mint).Set(quote)
	for _, p := range phases {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.Phase.WithLabelValues(mint, p).Set(v)
	}
}

// RecordTrade counts an ingested trade.
func (m *Metrics) RecordTrade(mint string) {
	m.TradesIngested.WithLabelValues(mint).Inc()
}

// RecordDBQuery records database query metrics.
func (m *Metrics) RecordDBQuery(database, operation string, seconds float64, err error) {
	m.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		m.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
