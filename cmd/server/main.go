package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"rottenstocks/internal/cache"
	"rottenstocks/internal/client/alphavantage"
	"rottenstocks/internal/client/reddit"
	sentclient "rottenstocks/internal/client/sentiment"
	"rottenstocks/internal/config"
	cronrunner "rottenstocks/internal/cron"
	"rottenstocks/internal/db"
	"rottenstocks/internal/handler"
	"rottenstocks/internal/logger"
	"rottenstocks/internal/rating"
	gormrepository "rottenstocks/internal/repository/gorm"
	"rottenstocks/internal/sentiment"
	"rottenstocks/internal/service"

	_ "rottenstocks/docs"
)

func main() {
	cfgPath := os.Getenv("RS_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("RS_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}
	defer db.Close(dbConn)

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		logger.Warn("failed to set timezone", zap.Error(err))
	}
	if err := db.AutoMigrate(dbConn); err != nil {
		logger.Fatal("auto-migrate failed", zap.Error(err))
	}

	var store cache.Store
	if cfg.Redis.Enabled {
		redisStore := cache.NewRedisStore(cfg.Redis)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisStore.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Fatal("redis unreachable", zap.Error(err))
		}
		store = redisStore
		logger.Info("cache backend: redis", zap.String("addr", cfg.Redis.Addr))
	} else {
		store = cache.NewMemoryStore()
		logger.Info("cache backend: memory")
	}

	repo := gormrepository.New(dbConn.Gorm)

	avClient := alphavantage.NewClient(&http.Client{Timeout: cfg.AlphaVantage.Timeout}, cfg.AlphaVantage)
	redditClient := reddit.NewClient(&http.Client{Timeout: cfg.Reddit.Timeout}, cfg.Reddit)
	scorer := sentclient.NewClient(cfg.Sentiment)

	aggregator := &sentiment.Aggregator{
		Repo:           repo,
		Scorer:         scorer,
		Logger:         logger,
		BatchSize:      cfg.Sentiment.BatchSize,
		PositiveCutoff: cfg.Rating.PositiveCutoff,
		NegativeCutoff: cfg.Rating.NegativeCutoff,
	}
	syncService := &service.SyncService{
		Repo:       repo,
		Cache:      store,
		Prices:     avClient,
		Social:     redditClient,
		Aggregator: aggregator,
		Calculator: rating.NewCalculator(cfg.Rating),
		Logger:     logger,
		SyncCfg:    cfg.Sync,
		CacheCfg:   cfg.Cache,
		RatingCfg:  cfg.Rating,
		PostLimit:  cfg.Reddit.PostLimit,
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	healthHandler := &handler.HealthHandler{DB: dbConn.Gorm}
	healthHandler.Register(engine)
	stockHandler := &handler.StockHandler{Repo: repo, Cache: store, Sync: syncService, Logger: logger}
	stockHandler.Register(engine)
	expertHandler := &handler.ExpertHandler{Repo: repo}
	expertHandler.Register(engine)
	syncHandler := &handler.SyncHandler{Repo: repo, Sync: syncService, Logger: logger}
	syncHandler.Register(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		if _, err := cronRunner.Add(cfg.Cron.Sync, syncService.Run); err != nil {
			logger.Warn("cron register sync failed", zap.Error(err))
		}
		cronRunner.Start()
		defer cronRunner.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
