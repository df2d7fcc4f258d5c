// Package http 定价上下文的 HTTP 接口
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionstrading/internal/pricing/application"
)

// Handler 定价 HTTP 处理器
type Handler struct {
	service *application.PricingService
}

// NewHandler 创建定价处理器
func NewHandler(service *application.PricingService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	pricing := r.Group("/pricing")
	{
		pricing.POST("/price", h.CalculatePrice)
		pricing.POST("/greeks", h.CalculateGreeks)
		pricing.POST("/implied-vol", h.SolveImpliedVolatility)
		pricing.POST("/mispricing", h.DetectMispricing)
		pricing.POST("/mispricing/scan", h.ScanMispricing)
	}
}

// CalculatePrice 计算期权理论价格
func (h *Handler) CalculatePrice(c *gin.Context) {
	var cmd application.PriceCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := h.service.CalculatePrice(c.Request.Context(), cmd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"price": price})
}

// CalculateGreeks 计算希腊字母
func (h *Handler) CalculateGreeks(c *gin.Context) {
	var cmd application.GreeksCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CalculateGreeks(c.Request.Context(), cmd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// SolveImpliedVolatility 求解隐含波动率
func (h *Handler) SolveImpliedVolatility(c *gin.Context) {
	var cmd application.ImpliedVolCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.SolveImpliedVolatility(c.Request.Context(), cmd)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DetectMispricing 检测错价机会
func (h *Handler) DetectMispricing(c *gin.Context) {
	var cmd application.MispricingCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opportunities := h.service.DetectMispricing(c.Request.Context(), cmd)
	c.JSON(http.StatusOK, gin.H{"opportunities": opportunities})
}

// ScanMispricing 批量检测持仓列表的错价机会
func (h *Handler) ScanMispricing(c *gin.Context) {
	var cmd application.MispricingScanCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opportunities := h.service.ScanMispricing(c.Request.Context(), cmd)
	c.JSON(http.StatusOK, gin.H{
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}
