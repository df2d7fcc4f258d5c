// Package http 风控上下文的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionstrading/internal/risk/application"
)

// Handler 风控 HTTP 处理器
type Handler struct {
	service *application.RiskService
}

// NewHandler 创建风控处理器
func NewHandler(service *application.RiskService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	risk := r.Group("/risk")
	{
		risk.POST("/validate", h.ValidateTrade)
	}
}

// ValidateTrade 校验提议交易。
// 校验未通过不是错误：始终返回 200 与完整的违规列表。
func (h *Handler) ValidateTrade(c *gin.Context) {
	var cmd application.ValidateTradeCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.ValidateTrade(c.Request.Context(), cmd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
