// Package mysql 持仓上下文的 GORM 仓储实现（只读）
package mysql

import (
	"context"
	"fmt"

	"github.com/wyfcoding/optionstrading/internal/portfolio/domain"
	"gorm.io/gorm"
)

// PortfolioRepository 组合仓储 GORM 实现
type PortfolioRepository struct {
	db *gorm.DB
}

// NewPortfolioRepository 创建组合仓储
func NewPortfolioRepository(db *gorm.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// GetByName 按名称查找组合
func (r *PortfolioRepository) GetByName(ctx context.Context, name string) (*domain.Portfolio, error) {
	var portfolio domain.Portfolio
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&portfolio).Error; err != nil {
		return nil, fmt.Errorf("failed to find portfolio %s: %w", name, err)
	}
	return &portfolio, nil
}

// TradeRepository 交易仓储 GORM 实现
type TradeRepository struct {
	db *gorm.DB
}

// NewTradeRepository 创建交易仓储
func NewTradeRepository(db *gorm.DB) *TradeRepository {
	return &TradeRepository{db: db}
}

// GetByTradeNo 按交易号查找交易（含腿）
func (r *TradeRepository) GetByTradeNo(ctx context.Context, tradeNo string) (*domain.Trade, error) {
	var trade domain.Trade
	if err := r.db.WithContext(ctx).Preload("Legs").Where("trade_no = ?", tradeNo).First(&trade).Error; err != nil {
		return nil, fmt.Errorf("failed to find trade %s: %w", tradeNo, err)
	}
	return &trade, nil
}

// ListOpenByPortfolio 列出组合下所有持仓中的交易（含腿）
func (r *TradeRepository) ListOpenByPortfolio(ctx context.Context, portfolioID uint) ([]*domain.Trade, error) {
	var trades []*domain.Trade
	err := r.db.WithContext(ctx).
		Preload("Legs").
		Where("portfolio_id = ? AND status = ?", portfolioID, domain.TradeStatusOpen).
		Order("id ASC").
		Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list open trades: %w", err)
	}
	return trades, nil
}
