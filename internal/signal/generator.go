// Package signal turns a market snapshot and position into one trade instruction.
//
// Rules are evaluated in order and the first one that produces a non-zero
// amount wins. Sell rules only run when the sell gate is open: the bonding curve
// has completed and market cap is at least MarketCapRules.MinToSellUSD.
package signal

import (
	"fmt"
	"time"

	"solana-curve-maker/internal/domain"
)

// Input is everything a single evaluation reads.
type Input struct {
	State    domain.MarketState
	Config   domain.StrategyConfig
	CapRules domain.MarketCapRules
	Position domain.Position
	Now      time.Time
}

// Evaluation is Input plus values derived once per cycle and shared by rules.
type Evaluation struct {
	Input

	Price    float64
	Tokens   float64
	Balance  float64
	PnL      float64
	SellGate bool
	Tier     domain.SellTier
	TierPct  float64

	// MaxSellTokens is MaxSellPerTrade converted to tokens at Price.
	MaxSellTokens float64
}

// Rule is one entry of the decision table.
type Rule struct {
	Name string
	Sell bool
	Eval func(e *Evaluation) (domain.TradeSignal, bool)
}

// Generator evaluates an ordered rule list.
type Generator struct {
	rules []Rule
}

// NewGenerator returns a generator over rules, or DefaultRules when none are given.
func NewGenerator(rules ...Rule) *Generator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Generator{rules: rules}
}

// Rules returns the rule names in evaluation order.
func (g *Generator) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

// Generate returns exactly one signal for in.
func (g *Generator) Generate(in Input) domain.TradeSignal {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.State.Warmup {
		return hold(in, RuleWarmup, fmt.Sprintf("warming up: %d candles", in.State.CandleCount))
	}
	if in.State.Price <= 0 {
		return hold(in, RuleNoPrice, "no price")
	}

	e := newEvaluation(in)
	buysBlocked := e.positionFull()

	for _, r := range g.rules {
		if r.Sell && !e.SellGate {
			continue
		}
		if !r.Sell && buysBlocked {
			continue
		}
		sig, ok := r.Eval(e)
		if !ok || sig.Amount <= 0 {
			continue
		}
		sig.Rule = r.Name
		sig.CreatedAt = in.Now
		return sig
	}

	return hold(in, RuleDefaultHold, fmt.Sprintf("no setup in %s phase", in.State.Phase))
}

func newEvaluation(in Input) *Evaluation {
	e := &Evaluation{
		Input:   in,
		Price:   in.State.Price,
		Tokens:  in.Position.HeldTokens,
		Balance: in.Position.QuoteBalance,
		PnL:     in.Position.PnLPercent(in.State.Price),
	}
	e.SellGate = SellGateOpen(in.State, in.CapRules)
	if e.SellGate {
		e.Tier, e.TierPct = in.CapRules.Tier(in.State.MarketCapUSD)
	} else {
		e.Tier = domain.SellTierNone
	}
	e.MaxSellTokens = in.Config.MaxSellPerTrade / e.Price
	return e
}

// SellGateOpen reports whether any sell rule may fire.
func SellGateOpen(s domain.MarketState, rules domain.MarketCapRules) bool {
	return s.BondingComplete && s.MarketCapUSD >= rules.MinToSellUSD
}

// positionFull reports whether MaxPositionPercent blocks further buys.
func (e *Evaluation) positionFull() bool {
	limit := e.Config.MaxPositionPercent
	if limit <= 0 {
		return false
	}
	value := e.Position.PositionValue(e.Price)
	total := value + e.Balance
	if total <= 0 {
		return false
	}
	return value/total*100 >= limit
}

// sell builds a sell signal capped by holdings and MaxSellTokens.
func (e *Evaluation) sell(tokens float64, urgency domain.Urgency, confidence float64, reason string) domain.TradeSignal {
	tokens = minf(tokens, e.MaxSellTokens, e.Tokens)
	if tokens < 0 {
		tokens = 0
	}
	pct := 0.0
	if e.Tokens > 0 {
		pct = tokens / e.Tokens * 100
	}
	return domain.TradeSignal{
		Action:        domain.ActionSell,
		Amount:        tokens,
		AmountPercent: pct,
		Urgency:       urgency,
		Reason:        reason,
		Confidence:    confidence,
	}
}

// buy builds a buy signal capped by balance and limit.
func (e *Evaluation) buy(sol, limit float64, urgency domain.Urgency, confidence float64, reason string) domain.TradeSignal {
	sol = minf(sol, limit, e.Balance)
	if sol < 0 {
		sol = 0
	}
	pct := 0.0
	if e.Balance > 0 {
		pct = sol / e.Balance * 100
	}
	return domain.TradeSignal{
		Action:        domain.ActionBuy,
		Amount:        sol,
		AmountPercent: pct,
		Urgency:       urgency,
		Reason:        reason,
		Confidence:    confidence,
	}
}

func hold(in Input, rule, reason string) domain.TradeSignal {
	return domain.TradeSignal{
		Action:     domain.ActionHold,
		Urgency:    domain.UrgencyWait,
		Reason:     reason,
		Confidence: confidenceHold,
		Rule:       rule,
		CreatedAt:  in.Now,
	}
}

func minf(first float64, rest ...float64) float64 {
	m := first
	for _, v := range rest {
		if v < m {
			m = v
		}
	}
	return m
}

func ptr(v float64) *float64 {
	return &v
}
