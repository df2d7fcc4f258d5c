// Package application 风控上下文的应用服务
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	portfoliodomain "github.com/wyfcoding/optionstrading/internal/portfolio/domain"
	"github.com/wyfcoding/optionstrading/internal/risk/domain"
	"github.com/wyfcoding/optionstrading/pkg/metrics"
)

// RiskService 风控应用服务
type RiskService struct {
	limitsRepo    domain.RiskLimitsRepository
	portfolioRepo portfoliodomain.PortfolioRepository
	tradeRepo     portfoliodomain.TradeRepository
	defaultLimits domain.RiskLimits
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// NewRiskService 创建风控服务。
// 组合没有持久化限额时回落到 defaultLimits。
func NewRiskService(
	limitsRepo domain.RiskLimitsRepository,
	portfolioRepo portfoliodomain.PortfolioRepository,
	tradeRepo portfoliodomain.TradeRepository,
	defaultLimits domain.RiskLimits,
	m *metrics.Metrics,
	logger *slog.Logger,
) *RiskService {
	return &RiskService{
		limitsRepo:    limitsRepo,
		portfolioRepo: portfolioRepo,
		tradeRepo:     tradeRepo,
		defaultLimits: defaultLimits,
		metrics:       m,
		logger:        logger,
	}
}

// ProposedLeg 提议交易的腿
type ProposedLeg struct {
	Symbol       string                       `json:"symbol" binding:"required"`
	SecurityType portfoliodomain.SecurityType `json:"security_type" binding:"required"`
	OptionType   portfoliodomain.OptionType   `json:"option_type"`
	Strike       decimal.Decimal              `json:"strike"`
	Expiration   time.Time                    `json:"expiration"`
	Quantity     int64                        `json:"quantity" binding:"required"`
	EntryPrice   decimal.Decimal              `json:"entry_price"`
	Delta        float64                      `json:"delta"`
	Gamma        float64                      `json:"gamma"`
	Theta        float64                      `json:"theta"`
	Vega         float64                      `json:"vega"`
	Rho          float64                      `json:"rho"`
}

// ValidateTradeCommand 交易校验命令
type ValidateTradeCommand struct {
	PortfolioName string          `json:"portfolio_name" binding:"required"`
	Underlying    string          `json:"underlying" binding:"required"`
	StrategyType  string          `json:"strategy_type" binding:"required"`
	EntryCost     decimal.Decimal `json:"entry_cost"`
	MaxRisk       decimal.Decimal `json:"max_risk"`
	Legs          []ProposedLeg   `json:"legs" binding:"required,min=1"`
}

func (c ValidateTradeCommand) toTrade() *portfoliodomain.Trade {
	legs := make([]portfoliodomain.Leg, 0, len(c.Legs))
	for _, l := range c.Legs {
		legs = append(legs, portfoliodomain.Leg{
			Symbol:       l.Symbol,
			SecurityType: l.SecurityType,
			OptionType:   l.OptionType,
			Strike:       l.Strike,
			Expiration:   l.Expiration,
			Quantity:     l.Quantity,
			EntryPrice:   l.EntryPrice,
			Delta:        l.Delta,
			Gamma:        l.Gamma,
			Theta:        l.Theta,
			Vega:         l.Vega,
			Rho:          l.Rho,
		})
	}
	return &portfoliodomain.Trade{
		Underlying:   c.Underlying,
		StrategyType: c.StrategyType,
		Status:       portfoliodomain.TradeStatusProposed,
		EntryCost:    c.EntryCost,
		MaxRisk:      c.MaxRisk,
		Legs:         legs,
	}
}

// ValidateTrade 对提议交易执行组合级风控校验
func (s *RiskService) ValidateTrade(ctx context.Context, cmd ValidateTradeCommand) (*domain.RiskCheckResult, error) {
	portfolio, err := s.portfolioRepo.GetByName(ctx, cmd.PortfolioName)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	openTrades, err := s.tradeRepo.ListOpenByPortfolio(ctx, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open trades: %w", err)
	}

	limits := s.resolveLimits(ctx, cmd.PortfolioName)
	validator := domain.NewTradeValidator(limits)
	result := validator.ValidateTrade(cmd.toTrade(), portfolio, openTrades, time.Now())

	if !result.Passed {
		if s.metrics != nil {
			s.metrics.TradesBlockedTotal.Inc()
		}
		s.logger.InfoContext(ctx, "trade blocked by risk validation",
			"portfolio", cmd.PortfolioName,
			"underlying", cmd.Underlying,
			"strategy", cmd.StrategyType,
			"violations", len(result.Violations),
		)
	}
	return &result, nil
}

// resolveLimits 解析组合限额，无持久化记录时使用默认限额
func (s *RiskService) resolveLimits(ctx context.Context, portfolioName string) domain.RiskLimits {
	if s.limitsRepo == nil {
		return s.defaultLimits
	}
	stored, err := s.limitsRepo.GetByPortfolio(ctx, portfolioName)
	if err != nil {
		if !errors.Is(err, domain.ErrLimitsNotFound) {
			s.logger.WarnContext(ctx, "failed to load risk limits, using defaults",
				"portfolio", portfolioName,
				"error", err,
			)
		}
		return s.defaultLimits
	}
	return stored.Limits
}
