// Package application 定价上下文的应用服务
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/optionstrading/internal/pricing/domain"
	redisrepo "github.com/wyfcoding/optionstrading/internal/pricing/infrastructure/persistence/redis"
	"github.com/wyfcoding/optionstrading/pkg/metrics"
)

// PricingService 定价应用服务
type PricingService struct {
	cache   *redisrepo.PricingCache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewPricingService 创建定价服务。cache 与 metrics 允许为 nil（测试/离线模式）。
func NewPricingService(cache *redisrepo.PricingCache, m *metrics.Metrics, logger *slog.Logger) *PricingService {
	return &PricingService{
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// PriceCommand 定价命令
type PriceCommand struct {
	OptionType    domain.OptionType `json:"option_type" binding:"required"`
	Spot          float64           `json:"spot" binding:"required,gt=0"`
	Strike        float64           `json:"strike" binding:"required,gt=0"`
	TimeToExpiry  float64           `json:"time_to_expiry"`
	Volatility    float64           `json:"volatility"`
	RiskFreeRate  float64           `json:"risk_free_rate"`
	DividendYield float64           `json:"dividend_yield"`
}

func (c PriceCommand) toInput() domain.PricingInput {
	return domain.PricingInput{
		OptionType:    c.OptionType,
		Spot:          c.Spot,
		Strike:        c.Strike,
		TimeToExpiry:  c.TimeToExpiry,
		Volatility:    c.Volatility,
		RiskFreeRate:  c.RiskFreeRate,
		DividendYield: c.DividendYield,
	}
}

// CalculatePrice 计算期权理论价格。
// 未到期合约的波动率必须为正，非法输入返回错误而不是静默修正。
func (s *PricingService) CalculatePrice(ctx context.Context, cmd PriceCommand) (float64, error) {
	if cmd.TimeToExpiry > 0 && cmd.Volatility <= 0 {
		return 0, fmt.Errorf("volatility must be positive, got %f", cmd.Volatility)
	}

	price := domain.Price(cmd.toInput())
	s.recordCalculation()

	s.logger.DebugContext(ctx, "option priced",
		"option_type", cmd.OptionType,
		"spot", cmd.Spot,
		"strike", cmd.Strike,
		"price", price,
	)
	return price, nil
}

// GreeksCommand 希腊字母计算命令。Symbol 可选，提供时结果写入缓存。
type GreeksCommand struct {
	PriceCommand
	Symbol string `json:"symbol"`
}

// CalculateGreeks 计算希腊字母与理论价格，带合约代码时优先读缓存
func (s *PricingService) CalculateGreeks(ctx context.Context, cmd GreeksCommand) (*redisrepo.CachedGreeks, error) {
	if cmd.Symbol != "" && s.cache != nil {
		cached, err := s.cache.Get(ctx, cmd.Symbol)
		if err != nil {
			s.logger.WarnContext(ctx, "greeks cache read failed", "symbol", cmd.Symbol, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	greeks := domain.Greeks(ctx, cmd.toInput())
	price := domain.Price(cmd.toInput())
	s.recordCalculation()

	result := &redisrepo.CachedGreeks{Price: price, Greeks: greeks}

	if cmd.Symbol != "" && s.cache != nil {
		if err := s.cache.Set(ctx, cmd.Symbol, *result); err != nil {
			s.logger.WarnContext(ctx, "greeks cache write failed", "symbol", cmd.Symbol, "error", err)
		}
	}
	return result, nil
}

// ImpliedVolCommand 隐含波动率求解命令
type ImpliedVolCommand struct {
	OptionType    domain.OptionType `json:"option_type" binding:"required"`
	MarketPrice   float64           `json:"market_price" binding:"required,gt=0"`
	Spot          float64           `json:"spot" binding:"required,gt=0"`
	Strike        float64           `json:"strike" binding:"required,gt=0"`
	TimeToExpiry  float64           `json:"time_to_expiry" binding:"required,gt=0"`
	RiskFreeRate  float64           `json:"risk_free_rate"`
	DividendYield float64           `json:"dividend_yield"`
}

// SolveImpliedVolatility 求解隐含波动率
func (s *PricingService) SolveImpliedVolatility(ctx context.Context, cmd ImpliedVolCommand) (domain.IVResult, error) {
	result := domain.ImpliedVolatility(ctx, cmd.OptionType, cmd.MarketPrice,
		cmd.Spot, cmd.Strike, cmd.TimeToExpiry, cmd.RiskFreeRate, cmd.DividendYield)
	s.recordCalculation()

	if !result.Converged {
		if s.metrics != nil {
			s.metrics.IVSolveFailuresTotal.Inc()
		}
		s.logger.WarnContext(ctx, "implied volatility solve fell back to default",
			"market_price", cmd.MarketPrice,
			"spot", cmd.Spot,
			"strike", cmd.Strike,
		)
	}
	return result, nil
}

// MispricingCommand 错价检测命令
type MispricingCommand struct {
	Calculated   domain.GreeksCalculation     `json:"calculated"`
	CalculatedIV float64                      `json:"calculated_iv"`
	Broker       domain.BrokerGreeks          `json:"broker"`
	Quantity     int64                        `json:"quantity" binding:"required"`
	Thresholds   *domain.MispricingThresholds `json:"thresholds,omitempty"`
}

// DetectMispricing 对比理论与经纪商希腊字母，返回错价机会
func (s *PricingService) DetectMispricing(ctx context.Context, cmd MispricingCommand) []domain.Opportunity {
	thresholds := domain.DefaultMispricingThresholds()
	if cmd.Thresholds != nil {
		thresholds = *cmd.Thresholds
	}
	return domain.DetectMispricing(ctx, cmd.Calculated, cmd.CalculatedIV, cmd.Broker, cmd.Quantity, thresholds)
}

// MispricingScanCommand 批量错价扫描命令
type MispricingScanCommand struct {
	Positions  []MispricingCommand          `json:"positions" binding:"required,min=1"`
	Thresholds *domain.MispricingThresholds `json:"thresholds,omitempty"`
}

// ScanMispricing 对持仓列表逐一检测错价，汇总所有机会
func (s *PricingService) ScanMispricing(ctx context.Context, cmd MispricingScanCommand) []domain.Opportunity {
	opportunities := make([]domain.Opportunity, 0)
	for _, position := range cmd.Positions {
		if position.Thresholds == nil {
			position.Thresholds = cmd.Thresholds
		}
		opportunities = append(opportunities, s.DetectMispricing(ctx, position)...)
	}
	return opportunities
}

func (s *PricingService) recordCalculation() {
	if s.metrics != nil {
		s.metrics.PricingCalculationsTotal.Inc()
	}
}
