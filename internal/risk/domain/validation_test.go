package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	portfoliodomain "github.com/wyfcoding/optionstrading/internal/portfolio/domain"
)

func testLimits() RiskLimits {
	return RiskLimits{
		MaxSingleTradeRiskPercent:         5,
		MaxPortfolioDelta:                 50,
		MinPortfolioTheta:                 -50,
		MaxPortfolioGamma:                 10,
		MaxTradeDelta:                     30,
		MaxUnderlyingConcentrationPercent: 20,
		MaxStrategyConcentrationPercent:   40,
		MinDaysToExpiration:               7,
		MaxDaysToExpiration:               90,
		DefinedRiskAllocationPercent:      50,
		UndefinedRiskAllocationPercent:    30,
		TimeExitDTE:                       21,
	}
}

func testPortfolio() *portfoliodomain.Portfolio {
	return &portfoliodomain.Portfolio{
		Name:   "main",
		Equity: decimal.NewFromInt(100000),
	}
}

// makeTrade 构造单腿测试交易：delta 为腿级单位 delta，qty 带符号
func makeTrade(underlying, strategy string, legDelta float64, qty int64, dteDays int, maxRisk int64) *portfoliodomain.Trade {
	return &portfoliodomain.Trade{
		TradeNo:      "T-" + underlying,
		Underlying:   underlying,
		StrategyType: strategy,
		Status:       portfoliodomain.TradeStatusProposed,
		MaxRisk:      decimal.NewFromInt(maxRisk),
		Legs: []portfoliodomain.Leg{
			{
				Symbol:       underlying + "-OPT",
				SecurityType: portfoliodomain.SecurityTypeOption,
				OptionType:   portfoliodomain.OptionTypePut,
				Quantity:     qty,
				Expiration:   time.Now().AddDate(0, 0, dteDays+1),
				Delta:        legDelta,
				Theta:        -0.02,
			},
		},
	}
}

func violationsByLimit(result RiskCheckResult, limitName string) []Violation {
	var out []Violation
	for _, v := range result.Violations {
		if v.LimitName == limitName {
			out = append(out, v)
		}
	}
	return out
}

func TestValidateTradeCleanPass(t *testing.T) {
	v := NewTradeValidator(testLimits())
	// delta = 0.1 * 1 * 100 = 10，风险 2%，DTE 45
	trade := makeTrade("AAPL", "iron_condor", 0.1, 1, 45, 2000)

	result := v.ValidateTrade(trade, testPortfolio(), nil, time.Now())

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestValidateTradeDeltaCapBlocks(t *testing.T) {
	v := NewTradeValidator(testLimits())
	// delta = 0.9 * 5 * 100 = 450，超出组合与单笔上限
	trade := makeTrade("TSLA", "iron_condor", 0.9, 5, 45, 2000)

	result := v.ValidateTrade(trade, testPortfolio(), nil, time.Now())

	assert.False(t, result.Passed)
	require.NotEmpty(t, violationsByLimit(result, "max_portfolio_delta"))
	require.NotEmpty(t, violationsByLimit(result, "max_trade_delta"))
	assert.Equal(t, SeverityBlock, violationsByLimit(result, "max_portfolio_delta")[0].Severity)
}

func TestValidateTradeAccumulatesAllViolations(t *testing.T) {
	v := NewTradeValidator(testLimits())
	// 同时违反：单笔风险 10%、delta、DTE 下限、临近到期告警
	trade := makeTrade("NVDA", "iron_condor", 0.9, 5, 3, 10000)

	result := v.ValidateTrade(trade, testPortfolio(), nil, time.Now())

	assert.False(t, result.Passed)
	assert.NotEmpty(t, violationsByLimit(result, "max_single_trade_risk_percent"))
	assert.NotEmpty(t, violationsByLimit(result, "max_trade_delta"))
	assert.NotEmpty(t, violationsByLimit(result, "min_days_to_expiration"))
	assert.NotEmpty(t, violationsByLimit(result, "time_exit_dte"))
	// 不短路：block 之后仍继续收集
	assert.GreaterOrEqual(t, len(result.Violations), 4)
}

func TestValidateTradeDTEBounds(t *testing.T) {
	v := NewTradeValidator(testLimits())

	below := makeTrade("AAPL", "iron_condor", 0.1, 1, 3, 2000)
	result := v.ValidateTrade(below, testPortfolio(), nil, time.Now())
	assert.False(t, result.Passed)
	require.NotEmpty(t, violationsByLimit(result, "min_days_to_expiration"))
	assert.Equal(t, SeverityBlock, violationsByLimit(result, "min_days_to_expiration")[0].Severity)

	// 超出上限仅告警，不拦截
	above := makeTrade("AAPL", "iron_condor", 0.1, 1, 120, 2000)
	result = v.ValidateTrade(above, testPortfolio(), nil, time.Now())
	assert.True(t, result.Passed)
	require.NotEmpty(t, violationsByLimit(result, "max_days_to_expiration"))
	assert.Equal(t, SeverityWarn, violationsByLimit(result, "max_days_to_expiration")[0].Severity)
}

func TestValidateTradeGammaWarnOnly(t *testing.T) {
	limits := testLimits()
	limits.MaxPortfolioGamma = 0.5
	v := NewTradeValidator(limits)

	trade := makeTrade("AAPL", "iron_condor", 0.1, 1, 45, 2000)
	trade.Legs[0].Gamma = 0.02 // gamma = 0.02*100 = 2 > 0.5

	result := v.ValidateTrade(trade, testPortfolio(), nil, time.Now())

	assert.True(t, result.Passed)
	require.NotEmpty(t, violationsByLimit(result, "max_portfolio_gamma"))
	assert.Equal(t, SeverityWarn, violationsByLimit(result, "max_portfolio_gamma")[0].Severity)
}

func TestValidateTradeConcentration(t *testing.T) {
	v := NewTradeValidator(testLimits())

	existing := makeTrade("AAPL", "iron_condor", 0.05, 1, 45, 18000)
	require.NoError(t, existing.Open())

	// 同标的合计 21% > 20%
	trade := makeTrade("AAPL", "vertical_spread", 0.05, 1, 45, 3000)
	result := v.ValidateTrade(trade, testPortfolio(), []*portfoliodomain.Trade{existing}, time.Now())

	assert.False(t, result.Passed)
	assert.NotEmpty(t, violationsByLimit(result, "max_underlying_concentration_percent"))
}

func TestValidateTradeCapitalAllocation(t *testing.T) {
	v := NewTradeValidator(testLimits())

	existing := makeTrade("SPY", "strangle", 0.05, -1, 45, 28000)
	require.NoError(t, existing.Open())

	// 非限定风险合计 31% > 30%
	trade := makeTrade("QQQ", "naked_put", 0.05, -1, 45, 3000)
	result := v.ValidateTrade(trade, testPortfolio(), []*portfoliodomain.Trade{existing}, time.Now())

	assert.False(t, result.Passed)
	assert.NotEmpty(t, violationsByLimit(result, "undefined_risk_allocation_percent"))
}

func TestIsDefinedRisk(t *testing.T) {
	assert.True(t, IsDefinedRisk("iron_condor"))
	assert.False(t, IsDefinedRisk("strangle"))
	// 未收录策略按非限定风险处理
	assert.False(t, IsDefinedRisk("exotic_custom"))
}
