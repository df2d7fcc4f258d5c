package application

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionstrading/internal/liquidity/domain"
)

type stubProvider struct {
	quote *domain.OptionQuote
	err   error
	delay time.Duration
}

func (p *stubProvider) GetQuote(ctx context.Context, symbol string) (*domain.OptionQuote, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	q := *p.quote
	q.Symbol = symbol
	return &q, nil
}

func testProfile(t *testing.T) domain.Profile {
	t.Helper()
	profile, err := domain.NewProfile(
		domain.Thresholds{MinOpenInterest: 100, MaxSpreadPct: 10.0, MinDailyVolume: 10},
		domain.Thresholds{MinOpenInterest: 500, MaxSpreadPct: 3.0, MinDailyVolume: 50},
	)
	require.NoError(t, err)
	return profile
}

func liquidQuote() *domain.OptionQuote {
	q := domain.NewOptionQuote("", decimal.NewFromFloat(0.99), decimal.NewFromFloat(1.01), 1000, 100, time.Now())
	return &q
}

func TestCheckLiquidityOfflineMode(t *testing.T) {
	svc := NewLiquidityService(nil, testProfile(t), nil, 0, slog.Default())

	s := svc.CheckLiquidity(context.Background(), "SPY260116C00500000")
	assert.True(t, s.IsLiquid)
	assert.True(t, s.IsAdjustmentLiquid)
}

func TestCheckLiquidityLiquidQuote(t *testing.T) {
	svc := NewLiquidityService(&stubProvider{quote: liquidQuote()}, testProfile(t), nil, 0, slog.Default())

	s := svc.CheckLiquidity(context.Background(), "SPY260116C00500000")
	assert.True(t, s.IsLiquid)
	assert.True(t, s.IsAdjustmentLiquid)
	assert.Empty(t, s.Reason)
}

func TestCheckLiquidityProviderErrorFallsBack(t *testing.T) {
	svc := NewLiquidityService(&stubProvider{err: errors.New("connection refused")}, testProfile(t), nil, 0, slog.Default())

	s := svc.CheckLiquidity(context.Background(), "XYZ")
	assert.False(t, s.IsLiquid)
	assert.False(t, s.IsAdjustmentLiquid)
	assert.Equal(t, "quote unavailable", s.Reason)
}

func TestCheckLiquidityTimeoutFallsBack(t *testing.T) {
	provider := &stubProvider{quote: liquidQuote(), delay: 200 * time.Millisecond}
	svc := NewLiquidityService(provider, testProfile(t), nil, 50*time.Millisecond, slog.Default())

	s := svc.CheckLiquidity(context.Background(), "XYZ")
	assert.False(t, s.IsAdjustmentLiquid)
	assert.Equal(t, "quote unavailable", s.Reason)
}
