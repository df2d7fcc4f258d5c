package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	cases := []float64{0.10, 0.25, 0.60, 1.50}

	for _, vol := range cases {
		in := refInput
		in.Volatility = vol
		marketPrice := Price(in)

		result := ImpliedVolatility(context.Background(), OptionTypeCall, marketPrice,
			in.Spot, in.Strike, in.TimeToExpiry, in.RiskFreeRate, in.DividendYield)

		assert.True(t, result.Converged, "vol=%.2f should converge", vol)
		assert.InDelta(t, vol, result.Volatility, 1e-3)
		assert.LessOrEqual(t, result.Iterations, 100)
	}
}

func TestImpliedVolatilityPut(t *testing.T) {
	in := putInput(refInput)
	in.Volatility = 0.35
	marketPrice := Price(in)

	result := ImpliedVolatility(context.Background(), OptionTypePut, marketPrice,
		in.Spot, in.Strike, in.TimeToExpiry, in.RiskFreeRate, in.DividendYield)

	assert.True(t, result.Converged)
	assert.InDelta(t, 0.35, result.Volatility, 1e-3)
}

func TestImpliedVolatilityUnbracketableFallsBack(t *testing.T) {
	// 市场价低于任何正波动率下的理论价，无法夹逼
	result := ImpliedVolatility(context.Background(), OptionTypeCall, 0.0001,
		100, 50, 1, 0.05, 0)

	assert.False(t, result.Converged)
	assert.Equal(t, IVDefault, result.Volatility)
}
