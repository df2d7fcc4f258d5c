// Package mysql 评估上下文的 GORM 仓储实现
package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wyfcoding/optionstrading/internal/evaluation/domain"
	"gorm.io/gorm"
)

// RecommendationRepository 建议仓储 GORM 实现
type RecommendationRepository struct {
	db *gorm.DB
}

// NewRecommendationRepository 创建建议仓储
func NewRecommendationRepository(db *gorm.DB) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create 持久化建议，并在同一事务内把领域事件写入发件箱
func (r *RecommendationRepository) Create(ctx context.Context, recommendation *domain.Recommendation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recommendation).Error; err != nil {
			return err
		}
		for _, event := range recommendation.GetDomainEvents() {
			msg, err := newOutboxMessage(recommendation.RecommendationNo, event)
			if err != nil {
				return err
			}
			if err := tx.Create(msg).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create recommendation: %w", err)
	}
	recommendation.ClearDomainEvents()
	return nil
}

// List 按组合名倒序列出建议
func (r *RecommendationRepository) List(ctx context.Context, portfolioName string, limit int) ([]*domain.Recommendation, error) {
	if limit <= 0 {
		limit = 50
	}
	var recommendations []*domain.Recommendation
	query := r.db.WithContext(ctx).Order("id DESC").Limit(limit)
	if portfolioName != "" {
		query = query.Where("portfolio_name = ?", portfolioName)
	}
	if err := query.Find(&recommendations).Error; err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recommendations, nil
}

// SaveEvent 将独立领域事件写入发件箱
func (r *RecommendationRepository) SaveEvent(ctx context.Context, aggregateID string, event domain.DomainEvent) error {
	msg, err := newOutboxMessage(aggregateID, event)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}
	return nil
}

func newOutboxMessage(aggregateID string, event domain.DomainEvent) (*domain.OutboxMessage, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventName(), err)
	}
	return &domain.OutboxMessage{
		EventID:     uuid.New().String(),
		EventType:   event.EventName(),
		AggregateID: aggregateID,
		Payload:     string(payload),
		Status:      domain.OutboxStatusPending,
	}, nil
}
