package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestDetectMispricingIV(t *testing.T) {
	calc := GreeksCalculation{Delta: 0.50, Theta: -0.05}
	th := DefaultMispricingThresholds()

	// 经纪商 IV 高 4 个点：MEDIUM，期权偏贵应卖出
	opps := DetectMispricing(context.Background(), calc, 0.20, BrokerGreeks{IV: f64(0.24), Delta: f64(0.50), Theta: f64(-0.05)}, 1, th)
	require.Len(t, opps, 1)
	assert.Equal(t, OpportunityIVMispricing, opps[0].Type)
	assert.Equal(t, SeverityMedium, opps[0].Severity)
	assert.Equal(t, "SELL", opps[0].Action)

	// 高 6 个点：HIGH
	opps = DetectMispricing(context.Background(), calc, 0.20, BrokerGreeks{IV: f64(0.26)}, 1, th)
	require.Len(t, opps, 1)
	assert.Equal(t, SeverityHigh, opps[0].Severity)

	// 低 4 个点：BUY
	opps = DetectMispricing(context.Background(), calc, 0.24, BrokerGreeks{IV: f64(0.20)}, 1, th)
	require.Len(t, opps, 1)
	assert.Equal(t, "BUY", opps[0].Action)
}

func TestDetectMispricingDeltaHedge(t *testing.T) {
	calc := GreeksCalculation{Delta: 0.50}
	opps := DetectMispricing(context.Background(), calc, 0.20,
		BrokerGreeks{Delta: f64(0.65)}, 2, DefaultMispricingThresholds())

	require.Len(t, opps, 1)
	assert.Equal(t, OpportunityDeltaMismatch, opps[0].Type)
	assert.Equal(t, SeverityHigh, opps[0].Severity)
	// hedge = -diff * qty * 100 = -0.15 * 2 * 100
	assert.InDelta(t, -30.0, opps[0].HedgeNeeded, 1e-9)
}

func TestDetectMispricingTheta(t *testing.T) {
	calc := GreeksCalculation{Theta: -2.0}
	opps := DetectMispricing(context.Background(), calc, 0.20,
		BrokerGreeks{Theta: f64(-9.0)}, 3, DefaultMispricingThresholds())

	require.Len(t, opps, 1)
	assert.Equal(t, OpportunityThetaDiscrepancy, opps[0].Type)
	// projected = diff * 30 * qty = -7 * 30 * 3
	assert.InDelta(t, -630.0, opps[0].ProjectedPnL30D, 1e-9)
}

func TestDetectMispricingMissingBrokerFieldsSkipped(t *testing.T) {
	calc := GreeksCalculation{Delta: 0.50, Theta: -0.05}
	opps := DetectMispricing(context.Background(), calc, 0.20, BrokerGreeks{}, 1, DefaultMispricingThresholds())
	assert.Empty(t, opps)
}

func TestDetectMispricingWithinThresholds(t *testing.T) {
	calc := GreeksCalculation{Delta: 0.50, Theta: -0.05}
	broker := BrokerGreeks{IV: f64(0.21), Delta: f64(0.55), Theta: f64(-1.0)}
	opps := DetectMispricing(context.Background(), calc, 0.20, broker, 1, DefaultMispricingThresholds())
	assert.Empty(t, opps)
}
