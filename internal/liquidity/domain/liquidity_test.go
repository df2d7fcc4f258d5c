package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	entry      = Thresholds{MinOpenInterest: 100, MaxSpreadPct: 10.0, MinDailyVolume: 10}
	adjustment = Thresholds{MinOpenInterest: 500, MaxSpreadPct: 3.0, MinDailyVolume: 50}
)

func quote(oi, volume int64, bid, ask float64) OptionQuote {
	return NewOptionQuote("AAPL260116C00200000",
		decimal.NewFromFloat(bid), decimal.NewFromFloat(ask), oi, volume, time.Now())
}

func TestNewOptionQuoteSpread(t *testing.T) {
	q := quote(1000, 100, 0.98, 1.02)
	assert.True(t, q.Mid.Equal(decimal.NewFromFloat(1.00)))
	assert.InDelta(t, 4.0, q.SpreadPct, 1e-9)
}

func TestNewOptionQuoteZeroMid(t *testing.T) {
	q := quote(1000, 100, 0, 0)
	assert.Zero(t, q.SpreadPct)
}

func TestProfileInvariant(t *testing.T) {
	_, err := NewProfile(entry, adjustment)
	require.NoError(t, err)

	// 调仓阈值宽于入场阈值是配置错误
	_, err = NewProfile(adjustment, entry)
	assert.ErrorIs(t, err, ErrProfileNotStricter)

	// 相同档位允许
	_, err = NewProfile(entry, entry)
	assert.NoError(t, err)
}

func TestAdjustmentAtLeastAsStrictAsEntry(t *testing.T) {
	profile, err := NewProfile(entry, adjustment)
	require.NoError(t, err)

	quotes := []OptionQuote{
		quote(1000, 100, 0.99, 1.01),
		quote(300, 30, 0.95, 1.05),
		quote(50, 5, 0.80, 1.20),
		quote(600, 8, 0.99, 1.01),
	}
	for _, q := range quotes {
		s := profile.Evaluate(q)
		// 调仓达标必然蕴含入场达标
		if s.IsAdjustmentLiquid {
			assert.True(t, s.IsLiquid, "adjustment-liquid quote must be entry-liquid: %+v", q)
		}
	}
}

func TestFailureReasonListsEveryFailingDimension(t *testing.T) {
	q := quote(50, 1, 0.70, 1.30)
	reason := adjustment.FailureReason(q)

	assert.Contains(t, reason, "OI 50 < 500")
	assert.Contains(t, reason, "spread 60.0% > 3.0%")
	assert.Contains(t, reason, "volume 1 < 50")

	liquid := quote(1000, 100, 0.99, 1.01)
	assert.Empty(t, adjustment.FailureReason(liquid))
}

func TestEvaluateSnapshotFlags(t *testing.T) {
	profile, err := NewProfile(entry, adjustment)
	require.NoError(t, err)

	// 入场达标但调仓不达标
	s := profile.Evaluate(quote(300, 30, 0.97, 1.03))
	assert.True(t, s.IsLiquid)
	assert.False(t, s.IsAdjustmentLiquid)
	assert.NotEmpty(t, s.Reason)

	// 全部达标
	s = profile.Evaluate(quote(1000, 100, 0.99, 1.01))
	assert.True(t, s.IsLiquid)
	assert.True(t, s.IsAdjustmentLiquid)
	assert.Empty(t, s.Reason)
}

func TestUnknownSnapshotConservative(t *testing.T) {
	s := UnknownSnapshot("XYZ", "quote unavailable")
	assert.False(t, s.IsLiquid)
	assert.False(t, s.IsAdjustmentLiquid)
	assert.Equal(t, "quote unavailable", s.Reason)
}
