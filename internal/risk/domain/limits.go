// Package domain 风控上下文的领域模型：组合级风险限额与交易前校验
package domain

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrLimitsNotFound 组合没有持久化的风险限额
var ErrLimitsNotFound = errors.New("risk limits not found")

// RiskLimits 组合风险限额，评估周期内不可变
type RiskLimits struct {
	// 单笔交易风险占组合权益的最大百分比
	MaxSingleTradeRiskPercent float64 `gorm:"column:max_single_trade_risk_percent" mapstructure:"max_single_trade_risk_percent" json:"max_single_trade_risk_percent"`
	// 组合 delta 绝对值上限
	MaxPortfolioDelta float64 `gorm:"column:max_portfolio_delta" mapstructure:"max_portfolio_delta" json:"max_portfolio_delta"`
	// 组合 theta 下限（每日）
	MinPortfolioTheta float64 `gorm:"column:min_portfolio_theta" mapstructure:"min_portfolio_theta" json:"min_portfolio_theta"`
	// 组合 gamma 绝对值上限（超出仅告警）
	MaxPortfolioGamma float64 `gorm:"column:max_portfolio_gamma" mapstructure:"max_portfolio_gamma" json:"max_portfolio_gamma"`
	// 单笔交易 delta 绝对值上限
	MaxTradeDelta float64 `gorm:"column:max_trade_delta" mapstructure:"max_trade_delta" json:"max_trade_delta"`
	// 单一标的风险敞口占权益的最大百分比
	MaxUnderlyingConcentrationPercent float64 `gorm:"column:max_underlying_concentration_percent" mapstructure:"max_underlying_concentration_percent" json:"max_underlying_concentration_percent"`
	// 单一策略类型风险敞口占权益的最大百分比
	MaxStrategyConcentrationPercent float64 `gorm:"column:max_strategy_concentration_percent" mapstructure:"max_strategy_concentration_percent" json:"max_strategy_concentration_percent"`
	// 开仓允许的最小/最大到期天数
	MinDaysToExpiration int `gorm:"column:min_days_to_expiration" mapstructure:"min_days_to_expiration" json:"min_days_to_expiration"`
	MaxDaysToExpiration int `gorm:"column:max_days_to_expiration" mapstructure:"max_days_to_expiration" json:"max_days_to_expiration"`
	// 限定风险/非限定风险策略的资金分配上限（占权益百分比）
	DefinedRiskAllocationPercent   float64 `gorm:"column:defined_risk_allocation_percent" mapstructure:"defined_risk_allocation_percent" json:"defined_risk_allocation_percent"`
	UndefinedRiskAllocationPercent float64 `gorm:"column:undefined_risk_allocation_percent" mapstructure:"undefined_risk_allocation_percent" json:"undefined_risk_allocation_percent"`
	// 低于该 DTE 开仓时提示告警
	TimeExitDTE int `gorm:"column:time_exit_dte" mapstructure:"time_exit_dte" json:"time_exit_dte"`
}

// PortfolioRiskLimits 按组合持久化的风险限额实体
type PortfolioRiskLimits struct {
	gorm.Model
	PortfolioName string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"portfolio_name"`
	Limits        RiskLimits `gorm:"embedded" json:"limits"`
}

// TableName 指定表名
func (PortfolioRiskLimits) TableName() string {
	return "portfolio_risk_limits"
}

// RiskLimitsRepository 风险限额仓储接口
type RiskLimitsRepository interface {
	// GetByPortfolio 按组合名称查找限额
	GetByPortfolio(ctx context.Context, portfolioName string) (*PortfolioRiskLimits, error)
	// Save 创建或更新限额
	Save(ctx context.Context, limits *PortfolioRiskLimits) error
}
