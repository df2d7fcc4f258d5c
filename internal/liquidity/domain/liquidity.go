// Package domain 流动性上下文的领域模型：报价快照、阈值档位与达标判定
package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OptionQuote 报价快照，不可变
type OptionQuote struct {
	Symbol       string          `json:"symbol"`
	Bid          decimal.Decimal `json:"bid"`
	Ask          decimal.Decimal `json:"ask"`
	Mid          decimal.Decimal `json:"mid"`
	SpreadPct    float64         `json:"spread_pct"`
	OpenInterest int64           `json:"open_interest"`
	DailyVolume  int64           `json:"daily_volume"`
	Timestamp    time.Time       `json:"timestamp"`
}

// NewOptionQuote 由买卖价构建报价快照，计算中间价与价差百分比
func NewOptionQuote(symbol string, bid, ask decimal.Decimal, openInterest, dailyVolume int64, ts time.Time) OptionQuote {
	mid := bid.Add(ask).Div(decimal.NewFromInt(2))
	spreadPct := 0.0
	if mid.IsPositive() {
		spreadPct, _ = ask.Sub(bid).Div(mid).Mul(decimal.NewFromInt(100)).Float64()
	}
	return OptionQuote{
		Symbol:       symbol,
		Bid:          bid,
		Ask:          ask,
		Mid:          mid,
		SpreadPct:    spreadPct,
		OpenInterest: openInterest,
		DailyVolume:  dailyVolume,
		Timestamp:    ts,
	}
}

// Thresholds 流动性阈值
type Thresholds struct {
	MinOpenInterest int64   `json:"min_open_interest" mapstructure:"min_open_interest"`
	MaxSpreadPct    float64 `json:"max_spread_pct" mapstructure:"max_spread_pct"`
	MinDailyVolume  int64   `json:"min_daily_volume" mapstructure:"min_daily_volume"`
}

// AtLeastAsStrictAs 判断该阈值是否不宽于另一组阈值
func (t Thresholds) AtLeastAsStrictAs(other Thresholds) bool {
	return t.MinOpenInterest >= other.MinOpenInterest &&
		t.MaxSpreadPct <= other.MaxSpreadPct &&
		t.MinDailyVolume >= other.MinDailyVolume
}

// Meets 判断报价是否满足阈值
func (t Thresholds) Meets(quote OptionQuote) bool {
	return quote.OpenInterest >= t.MinOpenInterest &&
		quote.SpreadPct <= t.MaxSpreadPct &&
		quote.DailyVolume >= t.MinDailyVolume
}

// FailureReason 返回列出所有未达标维度的说明，全部达标时返回空串
func (t Thresholds) FailureReason(quote OptionQuote) string {
	var parts []string
	if quote.OpenInterest < t.MinOpenInterest {
		parts = append(parts, fmt.Sprintf("OI %d < %d", quote.OpenInterest, t.MinOpenInterest))
	}
	if quote.SpreadPct > t.MaxSpreadPct {
		parts = append(parts, fmt.Sprintf("spread %.1f%% > %.1f%%", quote.SpreadPct, t.MaxSpreadPct))
	}
	if quote.DailyVolume < t.MinDailyVolume {
		parts = append(parts, fmt.Sprintf("volume %d < %d", quote.DailyVolume, t.MinDailyVolume))
	}
	return strings.Join(parts, "; ")
}

// Profile 入场/调仓阈值档位对。
// 不变式：调仓阈值必须不宽于入场阈值。
type Profile struct {
	Entry      Thresholds
	Adjustment Thresholds
}

// ErrProfileNotStricter 调仓阈值宽于入场阈值，属配置错误
var ErrProfileNotStricter = fmt.Errorf("adjustment thresholds must be at least as strict as entry thresholds")

// NewProfile 构建阈值档位对，校验严格性不变式
func NewProfile(entry, adjustment Thresholds) (Profile, error) {
	if !adjustment.AtLeastAsStrictAs(entry) {
		return Profile{}, ErrProfileNotStricter
	}
	return Profile{Entry: entry, Adjustment: adjustment}, nil
}

// Snapshot 流动性快照：报价加两个派生判定
type Snapshot struct {
	OptionQuote
	IsLiquid           bool   `json:"is_liquid"`
	IsAdjustmentLiquid bool   `json:"is_adjustment_liquid"`
	Reason             string `json:"reason,omitempty"`
}

// Evaluate 按档位对报价做达标判定
func (p Profile) Evaluate(quote OptionQuote) Snapshot {
	snapshot := Snapshot{
		OptionQuote:        quote,
		IsLiquid:           p.Entry.Meets(quote),
		IsAdjustmentLiquid: p.Adjustment.Meets(quote),
	}
	if !snapshot.IsAdjustmentLiquid {
		snapshot.Reason = p.Adjustment.FailureReason(quote)
	}
	return snapshot
}

// UnknownSnapshot 报价不可得时的保守快照：两个判定均为不达标
func UnknownSnapshot(symbol, reason string) Snapshot {
	return Snapshot{
		OptionQuote: OptionQuote{Symbol: symbol, Timestamp: time.Now()},
		Reason:      reason,
	}
}

// LiquidSnapshot 离线模式下的固定达标快照
func LiquidSnapshot(symbol string) Snapshot {
	return Snapshot{
		OptionQuote:        OptionQuote{Symbol: symbol, Timestamp: time.Now()},
		IsLiquid:           true,
		IsAdjustmentLiquid: true,
	}
}

// QuoteProvider 行情提供方接口，由外部实现
type QuoteProvider interface {
	// GetQuote 获取指定合约的报价
	GetQuote(ctx context.Context, symbol string) (*OptionQuote, error)
}
