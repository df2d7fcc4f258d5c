package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStrangle(status TradeStatus) *Trade {
	exp := time.Now().AddDate(0, 0, 30)
	return &Trade{
		TradeNo:      "T-1001",
		Underlying:   "AAPL",
		StrategyType: "strangle",
		Status:       status,
		EntryCost:    decimal.NewFromInt(-300),
		CurrentValue: decimal.NewFromInt(-120),
		MaxRisk:      decimal.NewFromInt(2000),
		Legs: []Leg{
			{
				Symbol:       "AAPL260116P00150000",
				SecurityType: SecurityTypeOption,
				OptionType:   OptionTypePut,
				Strike:       decimal.NewFromInt(150),
				Expiration:   exp,
				Quantity:     -1,
				Delta:        -0.16,
				Gamma:        0.02,
				Theta:        -0.05,
				Vega:         0.12,
			},
			{
				Symbol:       "AAPL260116C00210000",
				SecurityType: SecurityTypeOption,
				OptionType:   OptionTypeCall,
				Strike:       decimal.NewFromInt(210),
				Expiration:   exp,
				Quantity:     -1,
				Delta:        0.18,
				Gamma:        0.02,
				Theta:        -0.06,
				Vega:         0.13,
			},
		},
	}
}

func TestGreeksAddAndScale(t *testing.T) {
	a := Greeks{Delta: 0.5, Gamma: 0.02, Theta: -0.03, Vega: 0.1, Rho: 0.05}
	b := Greeks{Delta: -0.2, Gamma: 0.01, Theta: -0.01, Vega: 0.08, Rho: -0.02}

	sum := a.Add(b)
	assert.InDelta(t, 0.3, sum.Delta, 1e-12)
	assert.InDelta(t, 0.03, sum.Gamma, 1e-12)
	assert.InDelta(t, -0.04, sum.Theta, 1e-12)

	scaled := a.Scale(-2)
	assert.InDelta(t, -1.0, scaled.Delta, 1e-12)
	assert.InDelta(t, 0.06, scaled.Theta, 1e-12)
}

func TestTradeAggregateGreeks(t *testing.T) {
	trade := newStrangle(TradeStatusOpen)

	greeks := trade.AggregateGreeks()
	// 两条空头腿各 1 张，乘数 100
	assert.InDelta(t, (-0.16+0.18)*-100, greeks.Delta, 1e-9)
	assert.InDelta(t, (0.02+0.02)*-100, greeks.Gamma, 1e-9)
	assert.InDelta(t, (-0.05-0.06)*-100, greeks.Theta, 1e-9)
}

func TestPortfolioGreeksAdditivity(t *testing.T) {
	t1 := newStrangle(TradeStatusOpen)
	t2 := newStrangle(TradeStatusOpen)
	closed := newStrangle(TradeStatusClosed)

	total := AggregateGreeks([]*Trade{t1, t2, closed})
	expected := t1.AggregateGreeks().Add(t2.AggregateGreeks())

	assert.InDelta(t, expected.Delta, total.Delta, 1e-9)
	assert.InDelta(t, expected.Theta, total.Theta, 1e-9)
	assert.InDelta(t, expected.Vega, total.Vega, 1e-9)
}

func TestTradeLifecycle(t *testing.T) {
	trade := newStrangle(TradeStatusProposed)
	assert.False(t, trade.IsOpen())

	require.NoError(t, trade.Open())
	assert.True(t, trade.IsOpen())
	assert.NotNil(t, trade.OpenedAt)

	// 已开仓不能再开仓
	assert.ErrorIs(t, trade.Open(), ErrInvalidTransition)

	require.NoError(t, trade.Close())
	assert.False(t, trade.IsOpen())
	assert.Equal(t, TradeStatusClosed, trade.Status)
	assert.ErrorIs(t, trade.Close(), ErrInvalidTransition)
}

func TestTradeRoll(t *testing.T) {
	trade := newStrangle(TradeStatusOpen)
	require.NoError(t, trade.Roll())
	assert.Equal(t, TradeStatusRolled, trade.Status)
	assert.False(t, trade.IsOpen())

	proposed := newStrangle(TradeStatusProposed)
	assert.ErrorIs(t, proposed.Roll(), ErrInvalidTransition)
}

func TestTradeUnrealizedPnL(t *testing.T) {
	trade := newStrangle(TradeStatusOpen)
	// 收取 300 权利金，当前平仓负债 120，盈利 180
	assert.True(t, trade.UnrealizedPnL().Equal(decimal.NewFromInt(180)))
}

func TestDaysToExpiration(t *testing.T) {
	trade := newStrangle(TradeStatusOpen)
	now := time.Now()

	dte, err := trade.DaysToExpiration(now)
	require.NoError(t, err)
	assert.Equal(t, 29, dte)

	stockOnly := &Trade{Legs: []Leg{{SecurityType: SecurityTypeStock, Quantity: 100}}}
	_, err = stockOnly.DaysToExpiration(now)
	assert.ErrorIs(t, err, ErrNoOptionLegs)
}

func TestStockLegGreeksNoMultiplier(t *testing.T) {
	leg := Leg{SecurityType: SecurityTypeStock, Quantity: 100, Delta: 1}
	assert.InDelta(t, 100.0, leg.PositionGreeks().Delta, 1e-12)
}
