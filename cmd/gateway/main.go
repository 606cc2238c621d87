// 行情数据网关服务入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/marketgateway/internal/admission"
	alertapp "github.com/wyfcoding/marketgateway/internal/alert/application"
	alertmysql "github.com/wyfcoding/marketgateway/internal/alert/infrastructure/persistence/mysql"
	alerthttp "github.com/wyfcoding/marketgateway/internal/alert/interfaces/http"
	authapp "github.com/wyfcoding/marketgateway/internal/auth/application"
	authmysql "github.com/wyfcoding/marketgateway/internal/auth/infrastructure/persistence/mysql"
	authhttp "github.com/wyfcoding/marketgateway/internal/auth/interfaces/http"
	"github.com/wyfcoding/marketgateway/internal/broadcast"
	"github.com/wyfcoding/marketgateway/internal/health"
	"github.com/wyfcoding/marketgateway/internal/ingest"
	mdapp "github.com/wyfcoding/marketgateway/internal/marketdata/application"
	mdmysql "github.com/wyfcoding/marketgateway/internal/marketdata/infrastructure/persistence/mysql"
	mdredis "github.com/wyfcoding/marketgateway/internal/marketdata/infrastructure/persistence/redis"
	mdhttp "github.com/wyfcoding/marketgateway/internal/marketdata/interfaces/http"
	refapp "github.com/wyfcoding/marketgateway/internal/refdata/application"
	refmysql "github.com/wyfcoding/marketgateway/internal/refdata/infrastructure/persistence/mysql"
	refhttp "github.com/wyfcoding/marketgateway/internal/refdata/interfaces/http"
	"github.com/wyfcoding/marketgateway/pkg/cache"
	"github.com/wyfcoding/marketgateway/pkg/config"
	"github.com/wyfcoding/marketgateway/pkg/db"
	"github.com/wyfcoding/marketgateway/pkg/logger"
	"github.com/wyfcoding/marketgateway/pkg/metrics"
	"github.com/wyfcoding/marketgateway/pkg/middleware"
	"github.com/wyfcoding/marketgateway/pkg/mq"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

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
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	logger.Info(ctx, "Starting service",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		logger.Fatal(ctx, "Failed to register metrics", "error", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Fatal(ctx, "Failed to start metrics server", "error", err)
		}
	}

	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}, m)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to database", "error", err)
	}
	defer database.Close()

	if cfg.Environment == "dev" {
		if err := database.AutoMigrate(
			&authmysql.UserModel{},
			&refmysql.SymbolModel{},
			&mdmysql.PriceModel{},
			&alertmysql.AlertModel{},
		); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
	}

	redisCache, err := cache.New(cache.Config{
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
		logger.Fatal(ctx, "Failed to connect to Redis", "error", err)
	}
	defer redisCache.Close()

	var kafkaProducer *mq.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err = mq.NewKafkaProducer(mq.Config{
			Brokers:      cfg.Kafka.Brokers,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to create Kafka producer", "error", err)
		}
		defer kafkaProducer.Close()
	} else {
		logger.Info(ctx, "Kafka brokers not configured, event streaming disabled")
	}

	// 领域装配
	hub := broadcast.NewHub(m)

	tokenService := authapp.NewTokenService(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	authService := authapp.NewAuthService(authmysql.NewUserRepository(database.DB), tokenService)

	symbolService := refapp.NewSymbolService(refmysql.NewSymbolRepository(database.DB))

	var mdProducer mdapp.MessageProducer
	var alertProducer alertapp.MessageProducer
	if kafkaProducer != nil {
		mdProducer = kafkaProducer
		alertProducer = kafkaProducer
	}

	marketDataService := mdapp.NewMarketDataService(
		mdmysql.NewPriceRepository(database.DB),
		mdredis.NewPriceCache(redisCache),
		mdredis.NewAnalysisStore(redisCache),
		symbolService,
		hub,
		mdProducer,
		cfg.Kafka.PriceTopic,
		m,
	)

	alertService := alertapp.NewAlertService(
		alertmysql.NewAlertRepository(database.DB),
		symbolService,
		hub,
		alertProducer,
		cfg.Kafka.AlertTopic,
		m,
	)

	// HTTP 装配
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinRateLimitMiddleware(middleware.NewRateLimiter(cfg.HTTP.RateLimitBurst, cfg.HTTP.RateLimitPerSecond)),
	)
	engine.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HTTPRequestsTotal.Inc()
		m.HTTPRequestDuration.Observe(time.Since(start).Seconds())
	})

	// 准入规则按顺序求值，未命中的请求一律拒绝。
	// 内部健康检查供协作服务探活，不要求密钥
	filter := admission.NewFilter([]admission.Rule{
		{Prefix: "/api/auth/", Trust: admission.TrustOpen},
		{Prefix: "/sys/", Trust: admission.TrustOpen},
		{Prefix: "/ws", Trust: admission.TrustOpen},
		{Method: http.MethodGet, Prefix: "/internal/health", Trust: admission.TrustOpen},
		{Prefix: "/internal/", Trust: admission.TrustInternal},
		{Prefix: "/api/", Trust: admission.TrustUser},
	}, tokenService, cfg.Internal.Secret, m)
	engine.Use(filter.Middleware())

	authhttp.NewHandler(authService).RegisterRoutes(engine)
	refhttp.NewHandler(symbolService, marketDataService).RegisterRoutes(engine)
	mdhttp.NewHandler(marketDataService).RegisterRoutes(engine)
	alerthttp.NewHandler(alertService).RegisterRoutes(engine)
	ingest.NewHandler(marketDataService, alertService, cfg.ServiceName).RegisterRoutes(engine)
	broadcast.NewHandler(hub, cfg.WebSocket).RegisterRoutes(engine)
	health.NewHandler(cfg.ServiceName, cfg.Version, database, redisCache, cfg.Internal.AnalysisHealthURL).RegisterRoutes(engine)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(shutdownCtx)

	g.Go(func() error {
		logger.Info(ctx, "HTTP server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(timeoutCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "Server exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Server stopped")
}
