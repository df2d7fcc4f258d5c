// Package client 流动性上下文的行情客户端实现
package client

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/optionstrading/internal/liquidity/domain"
)

// MockMarketDataClient 模拟行情客户端，按合约代码生成确定性的报价。
// 用于开发环境与集成测试，生产环境由真实行情网关替换。
type MockMarketDataClient struct{}

// NewMockMarketDataClient 创建模拟行情客户端
func NewMockMarketDataClient() *MockMarketDataClient {
	return &MockMarketDataClient{}
}

// GetQuote 生成确定性的模拟报价
func (c *MockMarketDataClient) GetQuote(ctx context.Context, symbol string) (*domain.OptionQuote, error) {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	seed := h.Sum32()

	// 中间价 0.50 ~ 10.49，价差 1% ~ 8%
	mid := 0.50 + float64(seed%1000)/100.0
	spread := 0.01 + float64(seed%8)/100.0
	half := mid * spread / 2

	openInterest := int64(100 + seed%5000)
	dailyVolume := int64(10 + seed%500)

	quote := domain.NewOptionQuote(
		symbol,
		decimal.NewFromFloat(mid-half),
		decimal.NewFromFloat(mid+half),
		openInterest,
		dailyVolume,
		time.Now(),
	)
	return &quote, nil
}
