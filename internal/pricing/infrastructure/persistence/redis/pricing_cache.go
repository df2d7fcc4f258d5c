// Package redis 定价结果的 Redis 缓存
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/optionstrading/internal/pricing/domain"
	"github.com/wyfcoding/optionstrading/pkg/cache"
)

const (
	greeksKeyPrefix = "pricing:greeks:"
	defaultTTL      = 15 * time.Minute
)

// CachedGreeks 缓存的定价结果
type CachedGreeks struct {
	Price  float64                  `json:"price"`
	Greeks domain.GreeksCalculation `json:"greeks"`
}

// PricingCache 定价结果缓存
type PricingCache struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewPricingCache 创建定价缓存
func NewPricingCache(c *cache.RedisCache) *PricingCache {
	return &PricingCache{cache: c, ttl: defaultTTL}
}

// Get 按合约代码读取缓存结果，不存在时返回 (nil, nil)
func (pc *PricingCache) Get(ctx context.Context, symbol string) (*CachedGreeks, error) {
	var cached CachedGreeks
	found, err := pc.cache.GetJSON(ctx, greeksKeyPrefix+symbol, &cached)
	if err != nil {
		return nil, fmt.Errorf("failed to get cached greeks for %s: %w", symbol, err)
	}
	if !found {
		return nil, nil
	}
	return &cached, nil
}

// Set 按合约代码写入缓存结果
func (pc *PricingCache) Set(ctx context.Context, symbol string, value CachedGreeks) error {
	if err := pc.cache.SetJSON(ctx, greeksKeyPrefix+symbol, value, pc.ttl); err != nil {
		return fmt.Errorf("failed to cache greeks for %s: %w", symbol, err)
	}
	return nil
}
