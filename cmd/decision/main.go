package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	evaluationapp "github.com/wyfcoding/optionstrading/internal/evaluation/application"
	evaluationdomain "github.com/wyfcoding/optionstrading/internal/evaluation/domain"
	"github.com/wyfcoding/optionstrading/internal/evaluation/infrastructure/messaging"
	evaluationmysql "github.com/wyfcoding/optionstrading/internal/evaluation/infrastructure/persistence/mysql"
	evaluationhttp "github.com/wyfcoding/optionstrading/internal/evaluation/interfaces/http"
	liquidityapp "github.com/wyfcoding/optionstrading/internal/liquidity/application"
	liquiditydomain "github.com/wyfcoding/optionstrading/internal/liquidity/domain"
	liquidityclient "github.com/wyfcoding/optionstrading/internal/liquidity/infrastructure/client"
	liquidityhttp "github.com/wyfcoding/optionstrading/internal/liquidity/interfaces/http"
	portfoliodomain "github.com/wyfcoding/optionstrading/internal/portfolio/domain"
	portfoliomysql "github.com/wyfcoding/optionstrading/internal/portfolio/infrastructure/persistence/mysql"
	pricingapp "github.com/wyfcoding/optionstrading/internal/pricing/application"
	pricingredis "github.com/wyfcoding/optionstrading/internal/pricing/infrastructure/persistence/redis"
	pricinghttp "github.com/wyfcoding/optionstrading/internal/pricing/interfaces/http"
	riskapp "github.com/wyfcoding/optionstrading/internal/risk/application"
	riskdomain "github.com/wyfcoding/optionstrading/internal/risk/domain"
	riskmysql "github.com/wyfcoding/optionstrading/internal/risk/infrastructure/persistence/mysql"
	riskhttp "github.com/wyfcoding/optionstrading/internal/risk/interfaces/http"
	"github.com/wyfcoding/optionstrading/pkg/cache"
	"github.com/wyfcoding/optionstrading/pkg/config"
	"github.com/wyfcoding/optionstrading/pkg/db"
	"github.com/wyfcoding/optionstrading/pkg/logger"
	"github.com/wyfcoding/optionstrading/pkg/metrics"
	"github.com/wyfcoding/optionstrading/pkg/middleware"
	"github.com/wyfcoding/optionstrading/pkg/mq"
	"github.com/wyfcoding/optionstrading/pkg/utils"
	"golang.org/x/sync/errgroup"
)

// RulesConfig 退出规则参数
type RulesConfig struct {
	ProfitTargetPercent float64 `mapstructure:"profit_target_percent"`
	StopLossPercent     float64 `mapstructure:"stop_loss_percent"`
	DTEThreshold        int     `mapstructure:"dte_threshold"`
	RollInsteadOfClose  bool    `mapstructure:"roll_instead_of_close"`
	DeltaBound          float64 `mapstructure:"delta_bound"`
}

// LiquidityConfig 流动性阈值与查询超时
type LiquidityConfig struct {
	Entry           liquiditydomain.Thresholds `mapstructure:"entry"`
	Adjustment      liquiditydomain.Thresholds `mapstructure:"adjustment"`
	LookupTimeoutMS int                        `mapstructure:"lookup_timeout_ms"`
}

// DecisionConfig 决策服务专有配置段
type DecisionConfig struct {
	NodeID            int64                 `mapstructure:"node_id"`
	DefaultLimits     riskdomain.RiskLimits `mapstructure:"default_limits"`
	Liquidity         LiquidityConfig       `mapstructure:"liquidity"`
	Rules             RulesConfig           `mapstructure:"rules"`
	OutboxTopic       string                `mapstructure:"outbox_topic"`
	OutboxIntervalMS  int                   `mapstructure:"outbox_interval_ms"`
	UseMockMarketData bool                  `mapstructure:"use_mock_market_data"`
}

// AppConfig 基础配置加决策配置段
type AppConfig struct {
	config.Config `mapstructure:",squash"`
	Decision      DecisionConfig `mapstructure:"decision"`
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/decision/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	var cfg AppConfig
	if err := config.LoadInto(configPath, &cfg); err != nil {
		panic(fmt.Sprintf("load config failed: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}

	// 2. Logger
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	log := logger.Get()

	// 3. Database
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	defer database.Close()

	if err := database.AutoMigrate(
		&portfoliodomain.Portfolio{},
		&portfoliodomain.Trade{},
		&portfoliodomain.Leg{},
		&riskdomain.PortfolioRiskLimits{},
		&evaluationdomain.Recommendation{},
		&evaluationdomain.OutboxMessage{},
	); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Redis（不可用时降级运行，相关缓存关闭）
	var redisCache *cache.RedisCache
	redisCache, err = cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Warn("redis unavailable, running without cache", "error", err)
		redisCache = nil
	}

	// 5. Kafka（不可用时降级运行，发件箱消息积压待中继恢复）
	var producer *mq.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = mq.NewProducer(mq.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
		})
		if err != nil {
			log.Warn("kafka unavailable, outbox relay disabled", "error", err)
			producer = nil
		}
	}

	// 6. Metrics
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		panic(fmt.Sprintf("register metrics failed: %v", err))
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.Warn("metrics server failed to start", "error", err)
		}
	}

	// 7. Repositories
	portfolioRepo := portfoliomysql.NewPortfolioRepository(database.DB)
	tradeRepo := portfoliomysql.NewTradeRepository(database.DB)
	limitsRepo := riskmysql.NewRiskLimitsRepository(database.DB)
	recommendationRepo := evaluationmysql.NewRecommendationRepository(database.DB)

	// 8. Liquidity
	profile, err := liquiditydomain.NewProfile(cfg.Decision.Liquidity.Entry, cfg.Decision.Liquidity.Adjustment)
	if err != nil {
		// 阈值配置违反严格性不变式，拒绝启动
		panic(fmt.Sprintf("invalid liquidity profile: %v", err))
	}
	var provider liquiditydomain.QuoteProvider
	if cfg.Decision.UseMockMarketData {
		provider = liquidityclient.NewMockMarketDataClient()
	}
	liquidityService := liquidityapp.NewLiquidityService(
		provider,
		profile,
		redisCache,
		time.Duration(cfg.Decision.Liquidity.LookupTimeoutMS)*time.Millisecond,
		log,
	)

	// 9. Pricing
	var pricingCache *pricingredis.PricingCache
	if redisCache != nil {
		pricingCache = pricingredis.NewPricingCache(redisCache)
	}
	pricingService := pricingapp.NewPricingService(pricingCache, m, log)

	// 10. Risk
	riskService := riskapp.NewRiskService(
		limitsRepo,
		portfolioRepo,
		tradeRepo,
		cfg.Decision.DefaultLimits,
		m,
		log,
	)

	// 11. Evaluation
	rulesEngine := evaluationdomain.NewRulesEngine(
		evaluationdomain.ProfitTargetRule{TargetPercent: cfg.Decision.Rules.ProfitTargetPercent},
		evaluationdomain.StopLossRule{MaxLossPercent: cfg.Decision.Rules.StopLossPercent},
		evaluationdomain.DTEExitRule{
			Threshold:          cfg.Decision.Rules.DTEThreshold,
			RollInsteadOfClose: cfg.Decision.Rules.RollInsteadOfClose,
		},
		evaluationdomain.DeltaBreachRule{DeltaBound: cfg.Decision.Rules.DeltaBound},
	)
	evaluationService := evaluationapp.NewPortfolioEvaluationService(
		portfolioRepo,
		tradeRepo,
		recommendationRepo,
		liquidityService,
		rulesEngine,
		utils.NewSnowflakeID(cfg.Decision.NodeID),
		m,
		log,
	)

	// 12. HTTP
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.GinRecoveryMiddleware())
	r.Use(middleware.GinLoggingMiddleware())
	r.Use(middleware.GinCORSMiddleware())

	sys := r.Group("/sys")
	{
		sys.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "UP"}) })
		sys.GET("/ready", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "READY"}) })
	}
	pp := r.Group("/debug/pprof")
	{
		pp.GET("/", gin.WrapF(pprof.Index))
		pp.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pp.GET("/profile", gin.WrapF(pprof.Profile))
		pp.GET("/symbol", gin.WrapF(pprof.Symbol))
		pp.GET("/trace", gin.WrapF(pprof.Trace))
	}

	api := r.Group("/api/v1")
	pricinghttp.NewHandler(pricingService).RegisterRoutes(api)
	riskhttp.NewHandler(riskService).RegisterRoutes(api)
	liquidityhttp.NewHandler(liquidityService).RegisterRoutes(api)
	evaluationhttp.NewHandler(evaluationService).RegisterRoutes(api)

	// 13. Start
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(rootCtx)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if producer != nil {
		publisher := messaging.NewOutboxPublisher(
			database.DB,
			producer,
			cfg.Decision.OutboxTopic,
			time.Duration(cfg.Decision.OutboxIntervalMS)*time.Millisecond,
			log,
		)
		g.Go(func() error {
			err := publisher.Run(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	// 14. Graceful Shutdown
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "error", err)
		}
		if producer != nil {
			if err := producer.Close(); err != nil {
				log.Error("kafka producer close failed", "error", err)
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
	}
}
