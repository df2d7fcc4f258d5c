// Package application 流动性上下文的应用服务
package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/wyfcoding/optionstrading/internal/liquidity/domain"
	"github.com/wyfcoding/optionstrading/pkg/cache"
)

const (
	snapshotKeyPrefix = "liquidity:snapshot:"
	snapshotTTL       = 30 * time.Second

	// DefaultLookupTimeout 报价查询默认超时
	DefaultLookupTimeout = 4 * time.Second
)

// LiquidityService 流动性应用服务。
// provider 为 nil 时进入离线模式，返回固定达标快照。
type LiquidityService struct {
	provider domain.QuoteProvider
	profile  domain.Profile
	cache    *cache.RedisCache
	timeout  time.Duration
	logger   *slog.Logger
}

// NewLiquidityService 创建流动性服务。cache 允许为 nil。
func NewLiquidityService(provider domain.QuoteProvider, profile domain.Profile, c *cache.RedisCache, timeout time.Duration, logger *slog.Logger) *LiquidityService {
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &LiquidityService{
		provider: provider,
		profile:  profile,
		cache:    c,
		timeout:  timeout,
		logger:   logger,
	}
}

// Profile 返回当前阈值档位对
func (s *LiquidityService) Profile() domain.Profile {
	return s.profile
}

// CheckLiquidity 获取合约的流动性快照。
// 查询失败或超时降级为保守的未知快照（两个判定均不达标），只记录日志，不向上传播错误。
func (s *LiquidityService) CheckLiquidity(ctx context.Context, symbol string) domain.Snapshot {
	if s.provider == nil {
		return domain.LiquidSnapshot(symbol)
	}

	if s.cache != nil {
		var snapshot domain.Snapshot
		found, err := s.cache.GetJSON(ctx, snapshotKeyPrefix+symbol, &snapshot)
		if err == nil && found {
			return snapshot
		}
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	quote, err := s.provider.GetQuote(lookupCtx, symbol)
	if err != nil {
		s.logger.WarnContext(ctx, "quote lookup failed, using conservative fallback",
			"symbol", symbol,
			"error", err,
		)
		return domain.UnknownSnapshot(symbol, "quote unavailable")
	}

	snapshot := s.profile.Evaluate(*quote)

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, snapshotKeyPrefix+symbol, snapshot, snapshotTTL); err != nil {
			s.logger.WarnContext(ctx, "liquidity snapshot cache write failed", "symbol", symbol, "error", err)
		}
	}
	return snapshot
}

// MeetsEntryThreshold 判断快照是否满足入场阈值
func (s *LiquidityService) MeetsEntryThreshold(snapshot domain.Snapshot) bool {
	return snapshot.IsLiquid
}

// MeetsAdjustmentThreshold 判断快照是否满足调仓阈值
func (s *LiquidityService) MeetsAdjustmentThreshold(snapshot domain.Snapshot) bool {
	return snapshot.IsAdjustmentLiquid
}
