package domain

import "time"

// DomainEvent 领域事件接口
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// RecommendationCreatedEvent 建议已创建事件
type RecommendationCreatedEvent struct {
	RecommendationNo string             `json:"recommendation_no"`
	PortfolioName    string             `json:"portfolio_name"`
	Type             RecommendationType `json:"type"`
	Underlying       string             `json:"underlying"`
	TradeNoToClose   string             `json:"trade_no_to_close,omitempty"`
	Confidence       int                `json:"confidence"`
	Urgency          string             `json:"urgency"`
	CreatedAt        time.Time          `json:"created_at"`
}

// EventName 事件名
func (e RecommendationCreatedEvent) EventName() string { return "evaluation.recommendation.created" }

// OccurredAt 事件发生时间
func (e RecommendationCreatedEvent) OccurredAt() time.Time { return e.CreatedAt }

// PortfolioEvaluatedEvent 组合评估完成事件
type PortfolioEvaluatedEvent struct {
	PortfolioName       string    `json:"portfolio_name"`
	TradesEvaluated     int       `json:"trades_evaluated"`
	TradesFailed        int       `json:"trades_failed"`
	RecommendationCount int       `json:"recommendation_count"`
	EvaluatedAt         time.Time `json:"evaluated_at"`
}

// EventName 事件名
func (e PortfolioEvaluatedEvent) EventName() string { return "evaluation.portfolio.evaluated" }

// OccurredAt 事件发生时间
func (e PortfolioEvaluatedEvent) OccurredAt() time.Time { return e.EvaluatedAt }
