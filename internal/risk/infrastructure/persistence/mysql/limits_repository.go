// Package mysql 风控上下文的 GORM 仓储实现
package mysql

import (
	"context"
	"errors"
	"fmt"

	"github.com/wyfcoding/optionstrading/internal/risk/domain"
	"gorm.io/gorm"
)

// RiskLimitsRepository 风险限额仓储 GORM 实现
type RiskLimitsRepository struct {
	db *gorm.DB
}

// NewRiskLimitsRepository 创建风险限额仓储
func NewRiskLimitsRepository(db *gorm.DB) *RiskLimitsRepository {
	return &RiskLimitsRepository{db: db}
}

// GetByPortfolio 按组合名称查找限额
func (r *RiskLimitsRepository) GetByPortfolio(ctx context.Context, portfolioName string) (*domain.PortfolioRiskLimits, error) {
	var limits domain.PortfolioRiskLimits
	err := r.db.WithContext(ctx).Where("portfolio_name = ?", portfolioName).First(&limits).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrLimitsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find risk limits for %s: %w", portfolioName, err)
	}
	return &limits, nil
}

// Save 创建或更新限额
func (r *RiskLimitsRepository) Save(ctx context.Context, limits *domain.PortfolioRiskLimits) error {
	if err := r.db.WithContext(ctx).Save(limits).Error; err != nil {
		return fmt.Errorf("failed to save risk limits: %w", err)
	}
	return nil
}
