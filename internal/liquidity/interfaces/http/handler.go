// Package http 流动性上下文的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionstrading/internal/liquidity/application"
)

// Handler 流动性 HTTP 处理器
type Handler struct {
	service *application.LiquidityService
}

// NewHandler 创建流动性处理器
func NewHandler(service *application.LiquidityService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	liquidity := r.Group("/liquidity")
	{
		liquidity.GET("/:symbol", h.CheckLiquidity)
	}
}

// CheckLiquidity 查询合约的流动性快照
func (h *Handler) CheckLiquidity(c *gin.Context) {
	symbol := c.Param("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	snapshot := h.service.CheckLiquidity(c.Request.Context(), symbol)
	c.JSON(http.StatusOK, snapshot)
}
