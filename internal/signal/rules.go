package signal

import (
	"fmt"
	"math"

	"solana-curve-maker/internal/domain"
)

// Rule names, also used as metric labels.
const (
	RuleStopLoss     = "stop_loss"
	RuleTakeProfit   = "take_profit"
	RuleEuphoriaSell = "euphoria_sell"
	RuleVolumeFarm   = "volume_farm"
	RuleGoldenPocket = "fib_golden_pocket"
	RuleFib382       = "fib_382"
	RuleEMA21Support = "ema21_support"
	RuleEMA50Support = "ema50_support"
	RuleCapitulation = "capitulation_buy"
	RuleDefaultHold  = "hold"
	RuleWarmup       = "warmup"
	RuleNoPrice      = "no_price"
)

// Rule confidences. They order rules against the execution threshold and carry
// no probabilistic meaning.
const (
	confidenceStopLoss     = 90
	confidenceTakeProfit   = 85
	confidenceEuphoria     = 80
	confidenceFarm         = 70
	confidenceGoldenPocket = 85
	confidenceFib382       = 70
	confidenceEMA21        = 75
	confidenceEMA50        = 80
	confidenceCapitulation = 75
	confidenceHold         = 50
)

const (
	stopLossSellFraction   = 0.5
	takeProfitSellFraction = 0.3

	farmMinNetVolume5m  = 0.3
	farmNetVolumeShare  = 0.15
	farmMinNotional     = 0.05
	goldenPocketMinBal  = 0.1
	goldenPocketShare   = 0.25
	fib382Share         = 0.15
	ema21Share          = 0.20
	ema21Band           = 0.02
	ema50Share          = 0.30
	ema50Band           = 0.03
	capitulationShare   = 0.40
	capitulationMaxRSI  = 25
	capitulationBuyMult = 2
)

// DefaultRules returns the decision table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleStopLoss, Sell: true, Eval: stopLoss},
		{Name: RuleTakeProfit, Sell: true, Eval: takeProfit},
		{Name: RuleEuphoriaSell, Sell: true, Eval: euphoriaSell},
		{Name: RuleVolumeFarm, Sell: true, Eval: volumeFarm},
		{Name: RuleGoldenPocket, Eval: goldenPocketBuy},
		{Name: RuleFib382, Eval: fib382Buy},
		{Name: RuleEMA21Support, Eval: ema21SupportBuy},
		{Name: RuleEMA50Support, Eval: ema50SupportBuy},
		{Name: RuleCapitulation, Eval: capitulationBuy},
	}
}

func stopLoss(e *Evaluation) (domain.TradeSignal, bool) {
	if e.Config.StopLossPercent <= 0 || e.Tokens <= 0 || e.PnL >= -e.Config.StopLossPercent {
		return domain.TradeSignal{}, false
	}
	return e.sell(e.Tokens*stopLossSellFraction, domain.UrgencyImmediate, confidenceStopLoss,
		fmt.Sprintf("stop loss: pnl %.1f%% below -%.1f%%", e.PnL, e.Config.StopLossPercent)), true
}

func takeProfit(e *Evaluation) (domain.TradeSignal, bool) {
	if e.Config.TakeProfitPercent <= 0 || e.Tokens <= 0 || e.PnL <= e.Config.TakeProfitPercent {
		return domain.TradeSignal{}, false
	}
	return e.sell(e.Tokens*takeProfitSellFraction, domain.UrgencyImmediate, confidenceTakeProfit,
		fmt.Sprintf("take profit: pnl %.1f%% above %.1f%%", e.PnL, e.Config.TakeProfitPercent)), true
}

func euphoriaSell(e *Evaluation) (domain.TradeSignal, bool) {
	s := e.State
	if !e.Config.SellDuringEuphoria || s.Phase != domain.PhaseEuphoria || e.Tokens <= 0 ||
		e.Tier == domain.SellTierNone || s.NetVolume5m <= e.Config.MinNetVolumeToSell {
		return domain.TradeSignal{}, false
	}
	pct := e.TierPct
	return e.sell(e.Tokens*pct/100, domain.UrgencyImmediate, confidenceEuphoria,
		fmt.Sprintf("euphoria at $%.0f mcap (%s tier %.0f%%), net volume %.2f SOL",
			s.MarketCapUSD, e.Tier, pct, s.NetVolume5m)), true
}

func volumeFarm(e *Evaluation) (domain.TradeSignal, bool) {
	s := e.State
	if !e.Config.VolumeFarming || s.NetVolume5m <= farmMinNetVolume5m || e.Tokens <= 0 ||
		s.Phase == domain.PhaseDecline || e.Tier == domain.SellTierNone {
		return domain.TradeSignal{}, false
	}
	pct := math.Min(e.TierPct, e.Config.VolumeFarmPercent)
	tokens := math.Min(e.Tokens*pct/100, s.NetVolume5m*farmNetVolumeShare/e.Price)
	sig := e.sell(tokens, domain.UrgencyLimit, confidenceFarm,
		fmt.Sprintf("farming %.0f%% into %.2f SOL net buying", pct, s.NetVolume5m))
	if sig.Amount*e.Price <= farmMinNotional {
		return domain.TradeSignal{}, false
	}
	return sig, true
}

func goldenPocketBuy(e *Evaluation) (domain.TradeSignal, bool) {
	f := e.State.Fib
	if !e.Config.BuyAtFibLevels || e.Balance <= goldenPocketMinBal || !fibUsable(f) ||
		e.Price < f.Fib786 || e.Price > f.Fib618 {
		return domain.TradeSignal{}, false
	}
	sig := e.buy(e.Balance*goldenPocketShare, e.Config.MaxBuyPerTrade, domain.UrgencyImmediate,
		confidenceGoldenPocket, fmt.Sprintf("price %.10f in golden pocket [%.10f, %.10f]", e.Price, f.Fib786, f.Fib618))
	sig.StopLoss = ptr(f.Low * 0.95)
	return sig, true
}

func fib382Buy(e *Evaluation) (domain.TradeSignal, bool) {
	f := e.State.Fib
	if !e.Config.BuyAtFibLevels || !fibUsable(f) || e.Price < f.Fib500 || e.Price > f.Fib382 {
		return domain.TradeSignal{}, false
	}
	sig := e.buy(e.Balance*fib382Share, e.Config.MaxBuyPerTrade, domain.UrgencyLimit,
		confidenceFib382, fmt.Sprintf("price %.10f between 38.2%% and 50%% retracement", e.Price))
	sig.TargetPrice = ptr(f.Fib382)
	sig.StopLoss = ptr(f.Fib618 * 0.95)
	return sig, true
}

func ema21SupportBuy(e *Evaluation) (domain.TradeSignal, bool) {
	s := e.State
	if !e.Config.BuyAtEMASupport || !within(e.Price, s.EMA21, ema21Band) || s.PriceChange5m >= 0 {
		return domain.TradeSignal{}, false
	}
	return e.buy(e.Balance*ema21Share, e.Config.MaxBuyPerTrade, domain.UrgencyLimit,
		confidenceEMA21, fmt.Sprintf("testing EMA21 %.10f on a %.1f%% 5m pullback", s.EMA21, s.PriceChange5m)), true
}

func ema50SupportBuy(e *Evaluation) (domain.TradeSignal, bool) {
	s := e.State
	if !e.Config.BuyAtEMASupport || !within(e.Price, s.EMA50, ema50Band) ||
		s.PriceChange15m >= -e.Config.DipThresholdPercent {
		return domain.TradeSignal{}, false
	}
	sig := e.buy(e.Balance*ema50Share, e.Config.MaxBuyPerTrade, domain.UrgencyImmediate,
		confidenceEMA50, fmt.Sprintf("EMA50 support after %.1f%% 15m dip", s.PriceChange15m))
	sig.StopLoss = ptr(e.Price * 0.85)
	return sig, true
}

func capitulationBuy(e *Evaluation) (domain.TradeSignal, bool) {
	s := e.State
	if !e.Config.BuyCapitulation || s.Phase != domain.PhaseCapitulation || s.RSI14 >= capitulationMaxRSI {
		return domain.TradeSignal{}, false
	}
	sig := e.buy(e.Balance*capitulationShare, e.Config.MaxBuyPerTrade*capitulationBuyMult,
		domain.UrgencyImmediate, confidenceCapitulation, fmt.Sprintf("capitulation, RSI %.1f", s.RSI14))
	sig.StopLoss = ptr(e.Price * 0.7)
	return sig, true
}

// fibUsable rejects degenerate ranges where every level is the same price.
func fibUsable(f domain.FibLevels) bool {
	return f.High > f.Low
}

func within(price, ref, band float64) bool {
	if ref <= 0 {
		return false
	}
	return math.Abs(price-ref)/ref <= band
}
