package domain

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 基准用例：S=100, K=100, r=5%, q=0, σ=20%, T=1 年
var refInput = PricingInput{
	OptionType:    OptionTypeCall,
	Spot:          100,
	Strike:        100,
	TimeToExpiry:  1,
	Volatility:    0.20,
	RiskFreeRate:  0.05,
	DividendYield: 0,
}

func putInput(in PricingInput) PricingInput {
	in.OptionType = OptionTypePut
	return in
}

func TestPriceReferenceValues(t *testing.T) {
	assert.InDelta(t, 10.450584, Price(refInput), 1e-4)
	assert.InDelta(t, 5.573526, Price(putInput(refInput)), 1e-4)
}

func TestPutCallParity(t *testing.T) {
	cases := []PricingInput{
		refInput,
		{OptionType: OptionTypeCall, Spot: 50, Strike: 55, TimeToExpiry: 0.5, Volatility: 0.35, RiskFreeRate: 0.03, DividendYield: 0.01},
		{OptionType: OptionTypeCall, Spot: 420, Strike: 400, TimeToExpiry: 0.08, Volatility: 0.18, RiskFreeRate: 0.045, DividendYield: 0.015},
		{OptionType: OptionTypeCall, Spot: 15, Strike: 30, TimeToExpiry: 2, Volatility: 0.80, RiskFreeRate: 0.06, DividendYield: 0},
	}

	for _, in := range cases {
		call := Price(in)
		put := Price(putInput(in))
		parity := in.Spot*math.Exp(-in.DividendYield*in.TimeToExpiry) -
			in.Strike*math.Exp(-in.RiskFreeRate*in.TimeToExpiry)
		assert.InDelta(t, parity, call-put, 0.01,
			"parity violated for S=%.2f K=%.2f T=%.2f", in.Spot, in.Strike, in.TimeToExpiry)
	}
}

func TestExpiredOptionIntrinsicValue(t *testing.T) {
	expired := refInput
	expired.TimeToExpiry = 0
	expired.Spot = 110

	assert.Equal(t, 10.0, Price(expired))
	assert.Equal(t, 0.0, Price(putInput(expired)))

	expired.Spot = 90
	assert.Equal(t, 0.0, Price(expired))
	assert.Equal(t, 10.0, Price(putInput(expired)))
}

func TestGreeksReferenceValues(t *testing.T) {
	g := Greeks(context.Background(), refInput)

	assert.Equal(t, CalculationMethodBSM, g.CalculationMethod)
	assert.InDelta(t, 0.6368, g.Delta, 1e-4)
	assert.InDelta(t, 0.018762, g.Gamma, 1e-5)
	assert.InDelta(t, 0.37524, g.Vega, 1e-4)
	assert.InDelta(t, -0.017573, g.Theta, 1e-5)
	assert.InDelta(t, 0.53232, g.Rho, 1e-4)
	assert.InDelta(t, -0.28143, g.Vanna, 1e-4)
	assert.InDelta(t, 9.8501, g.Vomma, 1e-3)

	p := Greeks(context.Background(), putInput(refInput))
	assert.InDelta(t, -0.3632, p.Delta, 1e-4)
	// Gamma/Vega 看涨与看跌相同
	assert.InDelta(t, g.Gamma, p.Gamma, 1e-12)
	assert.InDelta(t, g.Vega, p.Vega, 1e-12)
}

func TestGreeksBounds(t *testing.T) {
	cases := []PricingInput{
		refInput,
		{OptionType: OptionTypeCall, Spot: 80, Strike: 100, TimeToExpiry: 0.25, Volatility: 0.45, RiskFreeRate: 0.02, DividendYield: 0.03},
		{OptionType: OptionTypeCall, Spot: 130, Strike: 100, TimeToExpiry: 1.5, Volatility: 0.15, RiskFreeRate: 0.07, DividendYield: 0},
	}

	for _, in := range cases {
		call := Greeks(context.Background(), in)
		put := Greeks(context.Background(), putInput(in))

		assert.GreaterOrEqual(t, call.Delta, 0.0)
		assert.LessOrEqual(t, call.Delta, 1.0)
		assert.GreaterOrEqual(t, put.Delta, -1.0)
		assert.LessOrEqual(t, put.Delta, 0.0)
		assert.GreaterOrEqual(t, call.Gamma, 0.0)
		assert.GreaterOrEqual(t, call.Vega, 0.0)
		assert.LessOrEqual(t, call.Theta, 0.0)
	}
}

func TestGreeksExpired(t *testing.T) {
	expired := refInput
	expired.TimeToExpiry = 0

	g := Greeks(context.Background(), expired)
	assert.Equal(t, CalculationMethodExpired, g.CalculationMethod)
	assert.Zero(t, g.Delta)
	assert.Zero(t, g.Gamma)
	assert.Zero(t, g.Theta)
	assert.Zero(t, g.Vega)
	assert.Zero(t, g.Rho)
}

func TestGreeksVolatilityFloor(t *testing.T) {
	in := refInput
	in.Volatility = 0

	floored := in
	floored.Volatility = MinVolatility

	g := Greeks(context.Background(), in)
	want := Greeks(context.Background(), floored)
	assert.InDelta(t, want.Delta, g.Delta, 1e-12)
	assert.InDelta(t, want.Gamma, g.Gamma, 1e-12)
}
