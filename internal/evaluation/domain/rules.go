// Package domain 评估上下文的领域模型：退出规则、优先级冲突裁决与建议聚合
package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Priority 动作优先级，数值越小越紧急，构成全序
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityMedium   Priority = 3
	PriorityLow      Priority = 4
)

// String 返回优先级名称
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// Confidence 优先级到建议置信度（1-10）的映射
func (p Priority) Confidence() int {
	switch p {
	case PriorityCritical:
		return 10
	case PriorityHigh:
		return 8
	case PriorityMedium:
		return 6
	default:
		return 4
	}
}

// ActionType 持仓动作类型
type ActionType string

const (
	ActionHold         ActionType = "HOLD"
	ActionClose        ActionType = "CLOSE"
	ActionClosePartial ActionType = "CLOSE_PARTIAL"
	ActionRoll         ActionType = "ROLL"
	ActionAdjust       ActionType = "ADJUST"
	ActionHedge        ActionType = "HEDGE"
)

// PositionView 规则评估所需的最小持仓视图。
// 在边界处由 Trade 实体适配而来，规则不依赖完整实体。
type PositionView struct {
	TradeNo       string          `json:"trade_no"`
	Underlying    string          `json:"underlying"`
	StrategyType  string          `json:"strategy_type"`
	Quantity      int64           `json:"quantity"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	MaxRisk       decimal.Decimal `json:"max_risk"`
	// 持仓级 delta（各腿加权之和）
	Delta float64 `json:"delta"`
	// 距最早期权腿到期的天数
	DaysToExpiration int `json:"days_to_expiration"`
}

// RuleEvaluation 单条规则的评估结果
type RuleEvaluation struct {
	RuleName  string     `json:"rule_name"`
	Triggered bool       `json:"triggered"`
	Action    ActionType `json:"action"`
	Priority  Priority   `json:"priority"`
	Message   string     `json:"message"`
}

// Rule 退出规则接口：纯函数，无状态
type Rule interface {
	Name() string
	Evaluate(view PositionView) RuleEvaluation
}

// ProfitTargetRule 止盈规则：盈利达到最大亏损的目标百分比时平仓
type ProfitTargetRule struct {
	TargetPercent float64
}

// Name 规则名
func (r ProfitTargetRule) Name() string { return "profit_target" }

// Evaluate 评估止盈条件
func (r ProfitTargetRule) Evaluate(view PositionView) RuleEvaluation {
	eval := RuleEvaluation{RuleName: r.Name(), Action: ActionHold, Priority: PriorityLow}
	if !view.MaxRisk.IsPositive() {
		return eval
	}

	ratio, _ := view.UnrealizedPnL.Div(view.MaxRisk).Float64()
	if ratio >= r.TargetPercent/100 {
		eval.Triggered = true
		eval.Action = ActionClose
		eval.Priority = PriorityMedium
		eval.Message = fmt.Sprintf("profit %.1f%% of max risk reached target %.1f%%", ratio*100, r.TargetPercent)
	}
	return eval
}

// StopLossRule 止损规则：亏损超过最大亏损的限定百分比时平仓
type StopLossRule struct {
	MaxLossPercent float64
}

// Name 规则名
func (r StopLossRule) Name() string { return "stop_loss" }

// Evaluate 评估止损条件
func (r StopLossRule) Evaluate(view PositionView) RuleEvaluation {
	eval := RuleEvaluation{RuleName: r.Name(), Action: ActionHold, Priority: PriorityLow}
	if !view.MaxRisk.IsPositive() {
		return eval
	}

	lossLimit := view.MaxRisk.Mul(decimal.NewFromFloat(r.MaxLossPercent / 100)).Neg()
	if view.UnrealizedPnL.LessThanOrEqual(lossLimit) {
		eval.Triggered = true
		eval.Action = ActionClose
		eval.Priority = PriorityCritical
		eval.Message = fmt.Sprintf("loss %s breached stop at %.1f%% of max risk", view.UnrealizedPnL.StringFixed(2), r.MaxLossPercent)
	}
	return eval
}

// DTEExitRule 到期退出规则：剩余天数不高于阈值时展期或平仓
type DTEExitRule struct {
	Threshold int
	// 为真时触发展期，否则直接平仓
	RollInsteadOfClose bool
}

// Name 规则名
func (r DTEExitRule) Name() string { return "dte_exit" }

// Evaluate 评估到期退出条件
func (r DTEExitRule) Evaluate(view PositionView) RuleEvaluation {
	eval := RuleEvaluation{RuleName: r.Name(), Action: ActionHold, Priority: PriorityLow}
	if view.DaysToExpiration > r.Threshold {
		return eval
	}

	eval.Triggered = true
	if r.RollInsteadOfClose {
		eval.Action = ActionRoll
		eval.Priority = PriorityHigh
		eval.Message = fmt.Sprintf("DTE %d at or below roll threshold %d", view.DaysToExpiration, r.Threshold)
	} else {
		eval.Action = ActionClose
		eval.Priority = PriorityMedium
		eval.Message = fmt.Sprintf("DTE %d at or below close threshold %d", view.DaysToExpiration, r.Threshold)
	}
	return eval
}

// DeltaBreachRule delta 越界规则：持仓 delta 绝对值超界时调仓
type DeltaBreachRule struct {
	DeltaBound float64
}

// Name 规则名
func (r DeltaBreachRule) Name() string { return "delta_breach" }

// Evaluate 评估 delta 越界条件
func (r DeltaBreachRule) Evaluate(view PositionView) RuleEvaluation {
	eval := RuleEvaluation{RuleName: r.Name(), Action: ActionHold, Priority: PriorityLow}
	if math.Abs(view.Delta) > r.DeltaBound {
		eval.Triggered = true
		eval.Action = ActionAdjust
		eval.Priority = PriorityHigh
		eval.Message = fmt.Sprintf("position delta %.1f exceeds bound %.1f", view.Delta, r.DeltaBound)
	}
	return eval
}

// PositionAction 单次评估周期的瞬态产物，从不直接持久化
type PositionAction struct {
	Action ActionType `json:"action"`
	// 胜出动作的优先级
	Priority Priority `json:"priority"`
	// 所有触发的规则（不止胜出者），供审计
	TriggeredRules []RuleEvaluation `json:"triggered_rules"`
	PrimaryReason  string           `json:"primary_reason"`
	Urgency        string           `json:"urgency"`
}

// ShouldAct 是否需要采取动作
func (a PositionAction) ShouldAct() bool {
	return a.Action != ActionHold
}

// RulesEngine 规则引擎：评估全部配置规则并按优先级裁决冲突
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine 创建规则引擎
func NewRulesEngine(rules ...Rule) *RulesEngine {
	return &RulesEngine{rules: rules}
}

// EvaluatePosition 评估持仓：收集所有触发的规则，
// 选择优先级最高（数值最小）者作为最终动作；无规则触发时返回 HOLD。
func (e *RulesEngine) EvaluatePosition(view PositionView) PositionAction {
	action := PositionAction{
		Action:         ActionHold,
		Priority:       PriorityLow,
		TriggeredRules: []RuleEvaluation{},
		Urgency:        PriorityLow.String(),
	}

	for _, rule := range e.rules {
		eval := rule.Evaluate(view)
		if !eval.Triggered {
			continue
		}
		action.TriggeredRules = append(action.TriggeredRules, eval)

		if !action.ShouldAct() || eval.Priority < action.Priority {
			action.Action = eval.Action
			action.Priority = eval.Priority
			action.PrimaryReason = eval.Message
			action.Urgency = eval.Priority.String()
		}
	}
	return action
}
