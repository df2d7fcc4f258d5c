package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	portfoliodomain "github.com/wyfcoding/optionstrading/internal/portfolio/domain"
)

// Severity 违规严重程度
type Severity string

const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// ViolationCategory 违规类别
type ViolationCategory string

const (
	CategoryPortfolioRisk     ViolationCategory = "portfolio_risk"
	CategoryGreeks            ViolationCategory = "greeks"
	CategoryConcentration     ViolationCategory = "concentration"
	CategoryCapitalAllocation ViolationCategory = "capital_allocation"
	CategoryTiming            ViolationCategory = "timing"
)

// Violation 单条违规记录
type Violation struct {
	Category     ViolationCategory `json:"category"`
	Severity     Severity          `json:"severity"`
	Message      string            `json:"message"`
	LimitName    string            `json:"limit_name"`
	CurrentValue float64           `json:"current_value"`
	LimitValue   float64           `json:"limit_value"`
}

// RiskCheckResult 校验结果：违规是数据而非错误，永远返回、从不抛出
type RiskCheckResult struct {
	Passed     bool        `json:"passed"`
	Violations []Violation `json:"violations"`
}

func (r *RiskCheckResult) add(v Violation) {
	r.Violations = append(r.Violations, v)
	if v.Severity == SeverityBlock {
		r.Passed = false
	}
}

// definedRiskStrategies 限定风险策略查找表，未收录的策略一律按非限定风险处理
var definedRiskStrategies = map[string]bool{
	"iron_condor":     true,
	"iron_butterfly":  true,
	"vertical_spread": true,
	"butterfly":       true,
	"calendar_spread": true,
	"covered_call":    true,
	"strangle":        false,
	"straddle":        false,
	"naked_put":       false,
	"naked_call":      false,
}

// IsDefinedRisk 按策略类型判断是否为限定风险策略
func IsDefinedRisk(strategyType string) bool {
	return definedRiskStrategies[strategyType]
}

// TradeValidator 交易前风控校验器
type TradeValidator struct {
	limits RiskLimits
}

// NewTradeValidator 创建校验器，持有一份不可变的限额副本
func NewTradeValidator(limits RiskLimits) *TradeValidator {
	return &TradeValidator{limits: limits}
}

// ValidateTrade 对提议交易执行全部检查组。
// 所有检查无条件执行、不短路，调用方能看到完整的违规集合；
// Passed 为真当且仅当不存在 block 级违规。
func (v *TradeValidator) ValidateTrade(proposed *portfoliodomain.Trade, portfolio *portfoliodomain.Portfolio, openTrades []*portfoliodomain.Trade, now time.Time) RiskCheckResult {
	result := RiskCheckResult{Passed: true, Violations: []Violation{}}

	v.checkPortfolioRisk(&result, proposed, portfolio)
	v.checkGreeks(&result, proposed, openTrades)
	v.checkConcentration(&result, proposed, portfolio, openTrades, now)
	v.checkCapitalAllocation(&result, proposed, portfolio, openTrades)
	v.checkTiming(&result, proposed, now)

	return result
}

// tradeRisk 交易风险：有最大亏损时取最大亏损，否则取开仓净成本绝对值
func tradeRisk(t *portfoliodomain.Trade) decimal.Decimal {
	if t.MaxRisk.IsPositive() {
		return t.MaxRisk
	}
	return t.EntryCost.Abs()
}

func percentOfEquity(amount, equity decimal.Decimal) float64 {
	if !equity.IsPositive() {
		return 0
	}
	pct, _ := amount.Div(equity).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

func (v *TradeValidator) checkPortfolioRisk(result *RiskCheckResult, proposed *portfoliodomain.Trade, portfolio *portfoliodomain.Portfolio) {
	riskPct := percentOfEquity(tradeRisk(proposed), portfolio.Equity)
	if riskPct > v.limits.MaxSingleTradeRiskPercent {
		result.add(Violation{
			Category:     CategoryPortfolioRisk,
			Severity:     SeverityBlock,
			LimitName:    "max_single_trade_risk_percent",
			CurrentValue: riskPct,
			LimitValue:   v.limits.MaxSingleTradeRiskPercent,
			Message:      fmt.Sprintf("trade risk %.2f%% of equity exceeds limit %.2f%%", riskPct, v.limits.MaxSingleTradeRiskPercent),
		})
	}
}

func (v *TradeValidator) checkGreeks(result *RiskCheckResult, proposed *portfoliodomain.Trade, openTrades []*portfoliodomain.Trade) {
	current := portfoliodomain.AggregateGreeks(openTrades)
	trade := proposed.AggregateGreeks()
	projected := current.Add(trade)

	if math.Abs(projected.Delta) > v.limits.MaxPortfolioDelta {
		result.add(Violation{
			Category:     CategoryGreeks,
			Severity:     SeverityBlock,
			LimitName:    "max_portfolio_delta",
			CurrentValue: projected.Delta,
			LimitValue:   v.limits.MaxPortfolioDelta,
			Message:      fmt.Sprintf("projected portfolio delta %.2f exceeds limit %.2f", projected.Delta, v.limits.MaxPortfolioDelta),
		})
	}
	if projected.Theta < v.limits.MinPortfolioTheta {
		result.add(Violation{
			Category:     CategoryGreeks,
			Severity:     SeverityBlock,
			LimitName:    "min_portfolio_theta",
			CurrentValue: projected.Theta,
			LimitValue:   v.limits.MinPortfolioTheta,
			Message:      fmt.Sprintf("projected portfolio theta %.2f below limit %.2f", projected.Theta, v.limits.MinPortfolioTheta),
		})
	}
	if math.Abs(projected.Gamma) > v.limits.MaxPortfolioGamma {
		result.add(Violation{
			Category:     CategoryGreeks,
			Severity:     SeverityWarn,
			LimitName:    "max_portfolio_gamma",
			CurrentValue: projected.Gamma,
			LimitValue:   v.limits.MaxPortfolioGamma,
			Message:      fmt.Sprintf("projected portfolio gamma %.2f exceeds limit %.2f", projected.Gamma, v.limits.MaxPortfolioGamma),
		})
	}
	if math.Abs(trade.Delta) > v.limits.MaxTradeDelta {
		result.add(Violation{
			Category:     CategoryGreeks,
			Severity:     SeverityBlock,
			LimitName:    "max_trade_delta",
			CurrentValue: trade.Delta,
			LimitValue:   v.limits.MaxTradeDelta,
			Message:      fmt.Sprintf("trade delta %.2f exceeds limit %.2f", trade.Delta, v.limits.MaxTradeDelta),
		})
	}
}

func (v *TradeValidator) checkConcentration(result *RiskCheckResult, proposed *portfoliodomain.Trade, portfolio *portfoliodomain.Portfolio, openTrades []*portfoliodomain.Trade, now time.Time) {
	if dte, err := proposed.DaysToExpiration(now); err == nil {
		if dte < v.limits.MinDaysToExpiration {
			result.add(Violation{
				Category:     CategoryConcentration,
				Severity:     SeverityBlock,
				LimitName:    "min_days_to_expiration",
				CurrentValue: float64(dte),
				LimitValue:   float64(v.limits.MinDaysToExpiration),
				Message:      fmt.Sprintf("DTE %d below minimum %d", dte, v.limits.MinDaysToExpiration),
			})
		}
		if dte > v.limits.MaxDaysToExpiration {
			result.add(Violation{
				Category:     CategoryConcentration,
				Severity:     SeverityWarn,
				LimitName:    "max_days_to_expiration",
				CurrentValue: float64(dte),
				LimitValue:   float64(v.limits.MaxDaysToExpiration),
				Message:      fmt.Sprintf("DTE %d above maximum %d", dte, v.limits.MaxDaysToExpiration),
			})
		}
	}

	underlyingExposure := tradeRisk(proposed)
	strategyExposure := tradeRisk(proposed)
	for _, t := range openTrades {
		if !t.IsOpen() {
			continue
		}
		if t.Underlying == proposed.Underlying {
			underlyingExposure = underlyingExposure.Add(tradeRisk(t))
		}
		if t.StrategyType == proposed.StrategyType {
			strategyExposure = strategyExposure.Add(tradeRisk(t))
		}
	}

	underlyingPct := percentOfEquity(underlyingExposure, portfolio.Equity)
	if underlyingPct > v.limits.MaxUnderlyingConcentrationPercent {
		result.add(Violation{
			Category:     CategoryConcentration,
			Severity:     SeverityBlock,
			LimitName:    "max_underlying_concentration_percent",
			CurrentValue: underlyingPct,
			LimitValue:   v.limits.MaxUnderlyingConcentrationPercent,
			Message:      fmt.Sprintf("%s exposure %.2f%% of equity exceeds limit %.2f%%", proposed.Underlying, underlyingPct, v.limits.MaxUnderlyingConcentrationPercent),
		})
	}

	strategyPct := percentOfEquity(strategyExposure, portfolio.Equity)
	if strategyPct > v.limits.MaxStrategyConcentrationPercent {
		result.add(Violation{
			Category:     CategoryConcentration,
			Severity:     SeverityBlock,
			LimitName:    "max_strategy_concentration_percent",
			CurrentValue: strategyPct,
			LimitValue:   v.limits.MaxStrategyConcentrationPercent,
			Message:      fmt.Sprintf("%s exposure %.2f%% of equity exceeds limit %.2f%%", proposed.StrategyType, strategyPct, v.limits.MaxStrategyConcentrationPercent),
		})
	}
}

func (v *TradeValidator) checkCapitalAllocation(result *RiskCheckResult, proposed *portfoliodomain.Trade, portfolio *portfoliodomain.Portfolio, openTrades []*portfoliodomain.Trade) {
	defined := IsDefinedRisk(proposed.StrategyType)

	exposure := tradeRisk(proposed)
	for _, t := range openTrades {
		if t.IsOpen() && IsDefinedRisk(t.StrategyType) == defined {
			exposure = exposure.Add(tradeRisk(t))
		}
	}

	limitName := "undefined_risk_allocation_percent"
	limitPct := v.limits.UndefinedRiskAllocationPercent
	class := "undefined-risk"
	if defined {
		limitName = "defined_risk_allocation_percent"
		limitPct = v.limits.DefinedRiskAllocationPercent
		class = "defined-risk"
	}

	exposurePct := percentOfEquity(exposure, portfolio.Equity)
	if exposurePct > limitPct {
		result.add(Violation{
			Category:     CategoryCapitalAllocation,
			Severity:     SeverityBlock,
			LimitName:    limitName,
			CurrentValue: exposurePct,
			LimitValue:   limitPct,
			Message:      fmt.Sprintf("%s allocation %.2f%% of equity exceeds limit %.2f%%", class, exposurePct, limitPct),
		})
	}
}

func (v *TradeValidator) checkTiming(result *RiskCheckResult, proposed *portfoliodomain.Trade, now time.Time) {
	dte, err := proposed.DaysToExpiration(now)
	if err != nil {
		return
	}
	if dte < v.limits.TimeExitDTE {
		result.add(Violation{
			Category:     CategoryTiming,
			Severity:     SeverityWarn,
			LimitName:    "time_exit_dte",
			CurrentValue: float64(dte),
			LimitValue:   float64(v.limits.TimeExitDTE),
			Message:      fmt.Sprintf("opening with DTE %d below time exit threshold %d", dte, v.limits.TimeExitDTE),
		})
	}
}
