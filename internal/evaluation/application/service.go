// Package application 评估上下文的应用服务：组合评估编排
package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/optionstrading/internal/evaluation/domain"
	liquiditydomain "github.com/wyfcoding/optionstrading/internal/liquidity/domain"
	portfoliodomain "github.com/wyfcoding/optionstrading/internal/portfolio/domain"
	"github.com/wyfcoding/optionstrading/pkg/metrics"
	"github.com/wyfcoding/optionstrading/pkg/utils"
)

// LiquidityChecker 流动性查询接口，由流动性上下文实现
type LiquidityChecker interface {
	CheckLiquidity(ctx context.Context, symbol string) liquiditydomain.Snapshot
}

// PortfolioEvaluationService 组合评估服务。
// 逐笔评估持仓、以流动性门禁降级 ROLL/ADJUST、产出并持久化建议。
type PortfolioEvaluationService struct {
	portfolioRepo      portfoliodomain.PortfolioRepository
	tradeRepo          portfoliodomain.TradeRepository
	recommendationRepo domain.RecommendationRepository
	liquidity          LiquidityChecker
	rulesEngine        *domain.RulesEngine
	idGen              *utils.SnowflakeID
	metrics            *metrics.Metrics
	logger             *slog.Logger
}

// NewPortfolioEvaluationService 创建组合评估服务
func NewPortfolioEvaluationService(
	portfolioRepo portfoliodomain.PortfolioRepository,
	tradeRepo portfoliodomain.TradeRepository,
	recommendationRepo domain.RecommendationRepository,
	liquidity LiquidityChecker,
	rulesEngine *domain.RulesEngine,
	idGen *utils.SnowflakeID,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PortfolioEvaluationService {
	return &PortfolioEvaluationService{
		portfolioRepo:      portfolioRepo,
		tradeRepo:          tradeRepo,
		recommendationRepo: recommendationRepo,
		liquidity:          liquidity,
		rulesEngine:        rulesEngine,
		idGen:              idGen,
		metrics:            m,
		logger:             logger,
	}
}

// adaptTrade 把交易实体适配为规则所需的最小持仓视图
func adaptTrade(trade *portfoliodomain.Trade, now time.Time) domain.PositionView {
	dte := 0
	if d, err := trade.DaysToExpiration(now); err == nil {
		dte = d
	}
	var quantity int64
	for i := range trade.Legs {
		quantity += trade.Legs[i].Quantity
	}
	return domain.PositionView{
		TradeNo:          trade.TradeNo,
		Underlying:       trade.Underlying,
		StrategyType:     trade.StrategyType,
		Quantity:         quantity,
		UnrealizedPnL:    trade.UnrealizedPnL(),
		MaxRisk:          trade.MaxRisk,
		Delta:            trade.AggregateGreeks().Delta,
		DaysToExpiration: dte,
	}
}

// EvaluatePortfolio 评估组合下所有持仓，返回产出的建议列表。
// 单笔交易评估失败（错误或 panic）不会中断其余交易的评估，
// 调用始终返回一个（可能为空的）列表。
func (s *PortfolioEvaluationService) EvaluatePortfolio(ctx context.Context, portfolioName string) ([]*domain.Recommendation, error) {
	started := time.Now()

	portfolio, err := s.portfolioRepo.GetByName(ctx, portfolioName)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio: %w", err)
	}

	trades, err := s.tradeRepo.ListOpenByPortfolio(ctx, portfolio.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open trades: %w", err)
	}

	recommendations := make([]*domain.Recommendation, 0, len(trades))
	failed := 0
	now := time.Now()

	for _, trade := range trades {
		recommendation, err := s.evaluateTrade(ctx, portfolioName, trade, now)
		if err != nil {
			failed++
			s.logger.ErrorContext(ctx, "trade evaluation failed, continuing with remaining trades",
				"trade_no", trade.TradeNo,
				"error", err,
			)
			continue
		}
		if recommendation == nil {
			continue
		}
		if err := s.recommendationRepo.Create(ctx, recommendation); err != nil {
			failed++
			s.logger.ErrorContext(ctx, "failed to persist recommendation",
				"trade_no", trade.TradeNo,
				"error", err,
			)
			continue
		}
		if s.metrics != nil {
			s.metrics.RecommendationsTotal.With(prometheus.Labels{"action": string(recommendation.Type)}).Inc()
		}
		recommendations = append(recommendations, recommendation)
	}

	s.publishEvaluatedEvent(ctx, portfolioName, len(trades), failed, len(recommendations))

	if s.metrics != nil {
		s.metrics.EvaluationsTotal.Inc()
		s.metrics.EvaluationDuration.Observe(time.Since(started).Seconds())
	}
	s.logger.InfoContext(ctx, "portfolio evaluated",
		"portfolio", portfolioName,
		"trades", len(trades),
		"failed", failed,
		"recommendations", len(recommendations),
	)
	return recommendations, nil
}

// evaluateTrade 评估单笔交易，panic 被捕获并转换为错误
func (s *PortfolioEvaluationService) evaluateTrade(ctx context.Context, portfolioName string, trade *portfoliodomain.Trade, now time.Time) (recommendation *domain.Recommendation, err error) {
	defer func() {
		if r := recover(); r != nil {
			recommendation = nil
			err = fmt.Errorf("panic during evaluation of trade %s: %v", trade.TradeNo, r)
		}
	}()

	view := adaptTrade(trade, now)
	action := s.rulesEngine.EvaluatePosition(view)
	if !action.ShouldAct() {
		return nil, nil
	}

	recType, exitAction := mapAction(action.Action)
	rationale := action.PrimaryReason

	// 安全策略：流动性不足的标的不做多腿调仓，降级为干净退出
	if action.Action == domain.ActionRoll || action.Action == domain.ActionAdjust {
		if reason, illiquid := s.findIlliquidLeg(ctx, trade); illiquid {
			recType = domain.RecommendationExit
			exitAction = "close"
			rationale = fmt.Sprintf("%s; downgraded to close: %s", action.PrimaryReason, reason)
			if s.metrics != nil {
				s.metrics.LiquidityDowngradesTotal.Inc()
			}
			s.logger.InfoContext(ctx, "action downgraded due to illiquidity",
				"trade_no", trade.TradeNo,
				"action", action.Action,
				"reason", reason,
			)
		}
	}

	rec := domain.NewRecommendation(
		fmt.Sprintf("REC-%d", s.idGen.Generate()),
		portfolioName,
		recType,
		trade.Underlying,
	)
	rec.TradeNoToClose = trade.TradeNo
	rec.ExitAction = exitAction
	rec.Confidence = action.Priority.Confidence()
	rec.Rationale = rationale
	rec.TriggeredRules = utils.ToJSON(action.TriggeredRules)
	rec.Urgency = action.Urgency
	return rec, nil
}

// findIlliquidLeg 逐腿检查调仓流动性，返回第一条未达标腿的原因
func (s *PortfolioEvaluationService) findIlliquidLeg(ctx context.Context, trade *portfoliodomain.Trade) (string, bool) {
	for _, leg := range trade.OptionLegs() {
		snapshot := s.liquidity.CheckLiquidity(ctx, leg.Symbol)
		if !snapshot.IsAdjustmentLiquid {
			reason := snapshot.Reason
			if reason == "" {
				reason = "below adjustment liquidity threshold"
			}
			return fmt.Sprintf("%s %s", leg.Symbol, reason), true
		}
	}
	return "", false
}

// mapAction 动作到建议类型与退出方式的映射
func mapAction(action domain.ActionType) (domain.RecommendationType, string) {
	switch action {
	case domain.ActionClose:
		return domain.RecommendationExit, "close"
	case domain.ActionClosePartial:
		return domain.RecommendationExit, "close_partial"
	case domain.ActionRoll:
		return domain.RecommendationRoll, "roll"
	case domain.ActionAdjust:
		return domain.RecommendationAdjust, "adjust"
	case domain.ActionHedge:
		return domain.RecommendationAdjust, "hedge"
	default:
		return domain.RecommendationExit, "close"
	}
}

func (s *PortfolioEvaluationService) publishEvaluatedEvent(ctx context.Context, portfolioName string, evaluated, failed, count int) {
	event := domain.PortfolioEvaluatedEvent{
		PortfolioName:       portfolioName,
		TradesEvaluated:     evaluated,
		TradesFailed:        failed,
		RecommendationCount: count,
		EvaluatedAt:         time.Now(),
	}
	if err := s.recommendationRepo.SaveEvent(ctx, portfolioName, event); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue portfolio evaluated event", "error", err)
	}
}

// ListRecommendations 列出历史建议
func (s *PortfolioEvaluationService) ListRecommendations(ctx context.Context, portfolioName string, limit int) ([]*domain.Recommendation, error) {
	return s.recommendationRepo.List(ctx, portfolioName, limit)
}
