// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wyfcoding/optionstrading/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	// HTTP 请求计数
	HTTPRequestsTotal prometheus.Counter
	// HTTP 请求耗时
	HTTPRequestDuration prometheus.Histogram

	// 数据库查询计数
	DBQueriesTotal prometheus.Counter
	// 数据库查询耗时
	DBQueryDuration prometheus.Histogram

	// Redis 操作计数
	RedisOpsTotal prometheus.Counter

	// 业务指标
	// 组合评估轮次计数
	EvaluationsTotal prometheus.Counter
	// 评估耗时
	EvaluationDuration prometheus.Histogram
	// 建议计数（按动作分类）
	RecommendationsTotal *prometheus.CounterVec
	// 风控拦截的交易计数
	TradesBlockedTotal prometheus.Counter
	// 流动性不足导致的降级计数
	LiquidityDowngradesTotal prometheus.Counter
	// 定价计算计数
	PricingCalculationsTotal prometheus.Counter
	// 隐含波动率求解失败计数
	IVSolveFailuresTotal prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		DBQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "db_queries_total",
			Help:      "Total database queries",
		}),
		DBQueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "db_query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		RedisOpsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "redis_ops_total",
			Help:      "Total Redis operations",
		}),

		EvaluationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "portfolio_evaluations_total",
			Help:      "Total portfolio evaluation cycles",
		}),
		EvaluationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "portfolio_evaluation_duration_seconds",
			Help:      "Portfolio evaluation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		RecommendationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "recommendations_total",
			Help:      "Total recommendations produced, by action",
		}, []string{"action"}),
		TradesBlockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "trades_blocked_total",
			Help:      "Total trades blocked by risk validation",
		}),
		LiquidityDowngradesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "liquidity_downgrades_total",
			Help:      "Total roll/adjust recommendations downgraded to exit due to illiquidity",
		}),
		PricingCalculationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "pricing_calculations_total",
			Help:      "Total option pricing calculations",
		}),
		IVSolveFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trading",
			Subsystem: serviceName,
			Name:      "iv_solve_failures_total",
			Help:      "Total implied volatility solves that did not converge",
		}),
	}
}

// Register 注册所有指标
func (m *Metrics) Register() error {
	metrics := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueriesTotal,
		m.DBQueryDuration,
		m.RedisOpsTotal,
		m.EvaluationsTotal,
		m.EvaluationDuration,
		m.RecommendationsTotal,
		m.TradesBlockedTotal,
		m.LiquidityDowngradesTotal,
		m.PricingCalculationsTotal,
		m.IVSolveFailuresTotal,
	}

	for _, metric := range metrics {
		if err := prometheus.DefaultRegisterer.Register(metric); err != nil {
			logger.Error(context.Background(), "Failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "Metrics registered successfully")
	return nil
}

// StartHTTPServer 启动 Prometheus HTTP 服务器
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	http.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "Starting Prometheus HTTP server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Error(context.Background(), "Failed to start Prometheus HTTP server", "error", err)
		}
	}()

	return nil
}
