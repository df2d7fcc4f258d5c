package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func view(pnl int64, maxRisk int64, delta float64, dte int) PositionView {
	return PositionView{
		TradeNo:          "T-1",
		Underlying:       "AAPL",
		Quantity:         -1,
		UnrealizedPnL:    decimal.NewFromInt(pnl),
		MaxRisk:          decimal.NewFromInt(maxRisk),
		Delta:            delta,
		DaysToExpiration: dte,
	}
}

func TestProfitTargetRule(t *testing.T) {
	rule := ProfitTargetRule{TargetPercent: 50}

	// 盈利 60% / 目标 50% -> CLOSE
	eval := rule.Evaluate(view(600, 1000, 0, 45))
	assert.True(t, eval.Triggered)
	assert.Equal(t, ActionClose, eval.Action)
	assert.Equal(t, PriorityMedium, eval.Priority)

	// 盈利 25% -> 不触发
	eval = rule.Evaluate(view(250, 1000, 0, 45))
	assert.False(t, eval.Triggered)

	// 恰好 50% -> 触发
	eval = rule.Evaluate(view(500, 1000, 0, 45))
	assert.True(t, eval.Triggered)
}

func TestStopLossRule(t *testing.T) {
	rule := StopLossRule{MaxLossPercent: 100}

	eval := rule.Evaluate(view(-1200, 1000, 0, 45))
	assert.True(t, eval.Triggered)
	assert.Equal(t, ActionClose, eval.Action)
	assert.Equal(t, PriorityCritical, eval.Priority)

	eval = rule.Evaluate(view(-500, 1000, 0, 45))
	assert.False(t, eval.Triggered)
}

func TestDTEExitRule(t *testing.T) {
	roll := DTEExitRule{Threshold: 21, RollInsteadOfClose: true}
	eval := roll.Evaluate(view(0, 1000, 0, 21))
	assert.True(t, eval.Triggered)
	assert.Equal(t, ActionRoll, eval.Action)
	assert.Equal(t, PriorityHigh, eval.Priority)

	eval = roll.Evaluate(view(0, 1000, 0, 22))
	assert.False(t, eval.Triggered)

	closeRule := DTEExitRule{Threshold: 21, RollInsteadOfClose: false}
	eval = closeRule.Evaluate(view(0, 1000, 0, 10))
	assert.True(t, eval.Triggered)
	assert.Equal(t, ActionClose, eval.Action)
	assert.Equal(t, PriorityMedium, eval.Priority)
}

func TestDeltaBreachRule(t *testing.T) {
	rule := DeltaBreachRule{DeltaBound: 30}

	eval := rule.Evaluate(view(0, 1000, -45, 45))
	assert.True(t, eval.Triggered)
	assert.Equal(t, ActionAdjust, eval.Action)

	eval = rule.Evaluate(view(0, 1000, 20, 45))
	assert.False(t, eval.Triggered)
}

func TestRulesEngineNoRuleFiresHolds(t *testing.T) {
	engine := NewRulesEngine(
		ProfitTargetRule{TargetPercent: 50},
		StopLossRule{MaxLossPercent: 100},
		DTEExitRule{Threshold: 21, RollInsteadOfClose: true},
		DeltaBreachRule{DeltaBound: 30},
	)

	action := engine.EvaluatePosition(view(250, 1000, 5, 45))
	assert.Equal(t, ActionHold, action.Action)
	assert.False(t, action.ShouldAct())
	assert.Empty(t, action.TriggeredRules)
}

func TestRulesEnginePriorityConflictResolution(t *testing.T) {
	engine := NewRulesEngine(
		ProfitTargetRule{TargetPercent: 50},
		StopLossRule{MaxLossPercent: 50},
		DTEExitRule{Threshold: 21, RollInsteadOfClose: true},
	)

	// 止损（CRITICAL）与 DTE 展期（HIGH）同时触发，止损胜出
	action := engine.EvaluatePosition(view(-800, 1000, 0, 10))
	require.True(t, action.ShouldAct())
	assert.Equal(t, ActionClose, action.Action)
	assert.Equal(t, PriorityCritical, action.Priority)
	assert.Equal(t, "critical", action.Urgency)

	// 审计需要列出所有触发的规则，而不止胜出者
	assert.Len(t, action.TriggeredRules, 2)
	names := []string{action.TriggeredRules[0].RuleName, action.TriggeredRules[1].RuleName}
	assert.Contains(t, names, "stop_loss")
	assert.Contains(t, names, "dte_exit")
}

func TestRulesEngineProfitVersusDTE(t *testing.T) {
	engine := NewRulesEngine(
		ProfitTargetRule{TargetPercent: 50},
		DTEExitRule{Threshold: 21, RollInsteadOfClose: true},
	)

	// 止盈（MEDIUM）与展期（HIGH）同时触发，展期优先级更高
	action := engine.EvaluatePosition(view(600, 1000, 0, 15))
	assert.Equal(t, ActionRoll, action.Action)
	assert.Equal(t, PriorityHigh, action.Priority)
	assert.Len(t, action.TriggeredRules, 2)
}

func TestPriorityConfidenceMap(t *testing.T) {
	assert.Equal(t, 10, PriorityCritical.Confidence())
	assert.Equal(t, 8, PriorityHigh.Confidence())
	assert.Equal(t, 6, PriorityMedium.Confidence())
	assert.Equal(t, 4, PriorityLow.Confidence())
}
