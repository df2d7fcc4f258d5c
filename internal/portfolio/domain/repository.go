package domain

import "context"

// PortfolioRepository 组合只读仓储接口
type PortfolioRepository interface {
	// GetByName 按名称查找组合
	GetByName(ctx context.Context, name string) (*Portfolio, error)
}

// TradeRepository 交易只读仓储接口
type TradeRepository interface {
	// GetByTradeNo 按交易号查找交易（含腿）
	GetByTradeNo(ctx context.Context, tradeNo string) (*Trade, error)
	// ListOpenByPortfolio 列出组合下所有持仓中的交易（含腿）
	ListOpenByPortfolio(ctx context.Context, portfolioID uint) ([]*Trade, error)
}
