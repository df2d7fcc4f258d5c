// Package domain 持仓上下文的领域模型。
// 交易/腿/组合实体由外部执行系统写入，本服务只读消费。
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ContractMultiplier 美式股票期权标准合约乘数
const ContractMultiplier = 100

// SecurityType 证券类型
type SecurityType string

const (
	SecurityTypeOption SecurityType = "OPTION"
	SecurityTypeStock  SecurityType = "STOCK"
)

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL"
	OptionTypePut  OptionType = "PUT"
)

// TradeStatus 交易状态
type TradeStatus string

const (
	// TradeStatusProposed 已提议，待风控校验
	TradeStatusProposed TradeStatus = "PROPOSED"
	// TradeStatusOpen 已开仓
	TradeStatusOpen TradeStatus = "OPEN"
	// TradeStatusClosed 已平仓
	TradeStatusClosed TradeStatus = "CLOSED"
	// TradeStatusRolled 已展期（旧仓平掉，新仓另行开立）
	TradeStatusRolled TradeStatus = "ROLLED"
)

var (
	// ErrInvalidTransition 非法的交易状态迁移
	ErrInvalidTransition = errors.New("invalid trade status transition")
	// ErrNoOptionLegs 交易不含期权腿
	ErrNoOptionLegs = errors.New("trade has no option legs")
)

// Leg 交易腿实体
type Leg struct {
	gorm.Model
	TradeID uint `gorm:"index;not null" json:"trade_id"`
	// 合约代码（期权为 OCC 代码，股票为标的代码）
	Symbol       string       `gorm:"type:varchar(64);not null" json:"symbol"`
	SecurityType SecurityType `gorm:"type:varchar(16);not null" json:"security_type"`
	// 期权类型，股票腿为空
	OptionType OptionType      `gorm:"type:varchar(8)" json:"option_type,omitempty"`
	Strike     decimal.Decimal `gorm:"type:decimal(20,8)" json:"strike"`
	Expiration time.Time       `json:"expiration"`
	// 带符号数量：正为买入，负为卖出
	Quantity     int64           `gorm:"not null" json:"quantity"`
	EntryPrice   decimal.Decimal `gorm:"type:decimal(20,8)" json:"entry_price"`
	CurrentPrice decimal.Decimal `gorm:"type:decimal(20,8)" json:"current_price"`
	// 经纪商回传的单位希腊字母
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// IsOption 是否为期权腿
func (l *Leg) IsOption() bool {
	return l.SecurityType == SecurityTypeOption
}

// UnitGreeks 返回该腿的单位希腊字母
func (l *Leg) UnitGreeks() Greeks {
	return Greeks{
		Delta: l.Delta,
		Gamma: l.Gamma,
		Theta: l.Theta,
		Vega:  l.Vega,
		Rho:   l.Rho,
	}
}

// PositionGreeks 返回该腿按数量与合约乘数加权后的希腊字母
func (l *Leg) PositionGreeks() Greeks {
	factor := float64(l.Quantity)
	if l.IsOption() {
		factor *= ContractMultiplier
	}
	return l.UnitGreeks().Scale(factor)
}

// Trade 交易实体，聚合 1..N 条腿
type Trade struct {
	gorm.Model
	TradeNo     string `gorm:"type:varchar(64);uniqueIndex;not null" json:"trade_no"`
	PortfolioID uint   `gorm:"index;not null" json:"portfolio_id"`
	Underlying  string `gorm:"type:varchar(32);index;not null" json:"underlying"`
	// 策略类型：strangle, iron_condor, vertical_spread, naked_put 等
	StrategyType string      `gorm:"type:varchar(32);not null" json:"strategy_type"`
	Status       TradeStatus `gorm:"type:varchar(16);index;not null" json:"status"`
	// 开仓净成本：借方为正，收取权利金（贷方）为负
	EntryCost decimal.Decimal `gorm:"type:decimal(20,8)" json:"entry_cost"`
	// 当前市值（空头权利金为负，代表平仓负债）
	CurrentValue decimal.Decimal `gorm:"type:decimal(20,8)" json:"current_value"`
	// 最大亏损（恒为正）
	MaxRisk  decimal.Decimal `gorm:"type:decimal(20,8)" json:"max_risk"`
	Legs     []Leg           `gorm:"foreignKey:TradeID" json:"legs"`
	OpenedAt *time.Time      `json:"opened_at,omitempty"`
	ClosedAt *time.Time      `json:"closed_at,omitempty"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}

// IsOpen 是否持仓中，完全由状态字段推导
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// Open 开仓，仅允许从 PROPOSED 迁移
func (t *Trade) Open() error {
	if t.Status != TradeStatusProposed {
		return ErrInvalidTransition
	}
	now := time.Now()
	t.Status = TradeStatusOpen
	t.OpenedAt = &now
	return nil
}

// Close 平仓，仅允许从 OPEN 迁移
func (t *Trade) Close() error {
	if t.Status != TradeStatusOpen {
		return ErrInvalidTransition
	}
	now := time.Now()
	t.Status = TradeStatusClosed
	t.ClosedAt = &now
	return nil
}

// Roll 展期，旧仓标记为 ROLLED，新仓由外部另行创建
func (t *Trade) Roll() error {
	if t.Status != TradeStatusOpen {
		return ErrInvalidTransition
	}
	now := time.Now()
	t.Status = TradeStatusRolled
	t.ClosedAt = &now
	return nil
}

// UnrealizedPnL 未实现盈亏
func (t *Trade) UnrealizedPnL() decimal.Decimal {
	return t.CurrentValue.Sub(t.EntryCost)
}

// AggregateGreeks 交易级希腊字母，等于各腿加权希腊字母之和
func (t *Trade) AggregateGreeks() Greeks {
	var total Greeks
	for i := range t.Legs {
		total = total.Add(t.Legs[i].PositionGreeks())
	}
	return total
}

// DaysToExpiration 距最早到期的期权腿的天数
func (t *Trade) DaysToExpiration(now time.Time) (int, error) {
	var earliest time.Time
	found := false
	for i := range t.Legs {
		if !t.Legs[i].IsOption() {
			continue
		}
		if !found || t.Legs[i].Expiration.Before(earliest) {
			earliest = t.Legs[i].Expiration
			found = true
		}
	}
	if !found {
		return 0, ErrNoOptionLegs
	}
	return int(earliest.Sub(now).Hours() / 24), nil
}

// OptionLegs 返回所有期权腿
func (t *Trade) OptionLegs() []Leg {
	legs := make([]Leg, 0, len(t.Legs))
	for i := range t.Legs {
		if t.Legs[i].IsOption() {
			legs = append(legs, t.Legs[i])
		}
	}
	return legs
}

// Portfolio 组合实体
type Portfolio struct {
	gorm.Model
	Name        string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"name"`
	Equity      decimal.Decimal `gorm:"type:decimal(20,8)" json:"equity"`
	BuyingPower decimal.Decimal `gorm:"type:decimal(20,8)" json:"buying_power"`
}

// TableName 指定表名
func (Portfolio) TableName() string {
	return "portfolios"
}

// AggregateGreeks 组合希腊字母，等于所有持仓中交易的希腊字母之和
func AggregateGreeks(trades []*Trade) Greeks {
	var total Greeks
	for _, t := range trades {
		if t.IsOpen() {
			total = total.Add(t.AggregateGreeks())
		}
	}
	return total
}
