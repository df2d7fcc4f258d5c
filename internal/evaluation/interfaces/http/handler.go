// Package http 评估上下文的 HTTP 接口
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionstrading/internal/evaluation/application"
)

// Handler 评估 HTTP 处理器
type Handler struct {
	service *application.PortfolioEvaluationService
}

// NewHandler 创建评估处理器
func NewHandler(service *application.PortfolioEvaluationService) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	evaluation := r.Group("/evaluation")
	{
		evaluation.POST("/portfolios/:name/evaluate", h.EvaluatePortfolio)
		evaluation.GET("/recommendations", h.ListRecommendations)
	}
}

// EvaluatePortfolio 触发一次组合评估，返回本次产出的建议
func (h *Handler) EvaluatePortfolio(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "portfolio name is required"})
		return
	}

	recommendations, err := h.service.EvaluatePortfolio(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"portfolio":       name,
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}

// ListRecommendations 列出历史建议，支持按组合名过滤
func (h *Handler) ListRecommendations(c *gin.Context) {
	portfolioName := c.Query("portfolio")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	recommendations, err := h.service.ListRecommendations(c.Request.Context(), portfolioName, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":           len(recommendations),
		"recommendations": recommendations,
	})
}
