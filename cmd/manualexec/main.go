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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"manualexec/internal/artifacts"
	"manualexec/internal/audit"
	"manualexec/internal/auth"
	"manualexec/internal/config"
	cronrunner "manualexec/internal/cron"
	"manualexec/internal/db"
	"manualexec/internal/docstore"
	"manualexec/internal/handler"
	"manualexec/internal/logger"
	"manualexec/internal/metrics"
	"manualexec/internal/planlock"
	"manualexec/internal/repository"
	gormrepository "manualexec/internal/repository/gorm"
	memoryrepository "manualexec/internal/repository/memory"
	"manualexec/internal/service"
	"manualexec/internal/stream"

	_ "manualexec/docs"
)

func main() {
	cfgPath := os.Getenv("MX_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("MX_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log, "manualexec")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres is optional: it backs the postgres store driver and keeps
	// runtime settings across restarts.
	var dbConn *db.DB
	var docRepo repository.DocumentRepository
	var settingsRepo repository.SystemSettingsRepository = memoryrepository.New()
	if strings.TrimSpace(cfg.DB.DSN) != "" {
		dbConn, err = db.Open(cfg.DB)
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
		repo := gormrepository.New(dbConn.Gorm)
		docRepo = repo
		settingsRepo = repo
	}

	store, err := docstore.Open(cfg.Store, docRepo)
	if err != nil {
		logger.Fatal("document store open failed", zap.Error(err))
	}
	artifactStore, err := artifacts.Open(ctx, cfg.Artifacts)
	if err != nil {
		logger.Fatal("artifact store open failed", zap.Error(err))
	}

	var redisClient *redis.Client
	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		}
		cancel()
	}
	locks, err := planlock.New(cfg.Lock, redisClient)
	if err != nil {
		logger.Fatal("plan lock init failed", zap.Error(err))
	}

	settingsSvc := &service.SettingsService{
		Repo: settingsRepo,
		Defaults: map[string]any{
			service.SettingDryRunPolicy:       cfg.Pipeline.DryRunPolicy,
			service.FeatureAutoRefreshSummary: cfg.Pipeline.AutoRefreshSummary,
			service.FeatureOpsSummaryCron:     cfg.Cron.Enabled,
		},
	}
	if err := settingsSvc.EnsureDefaults(ctx); err != nil {
		logger.Warn("init default settings failed", zap.Error(err))
	}

	hub := stream.NewHub(logger)
	pipeline, err := service.NewPipeline(service.Options{
		Store:     store,
		Artifacts: artifactStore,
		Locks:     locks,
		Settings:  settingsSvc,
		Logger:    logger,
		Pipeline:  cfg.Pipeline,
		Publisher: hub,
	})
	if err != nil {
		logger.Fatal("pipeline init failed", zap.Error(err))
	}

	auditSink, err := audit.Open(ctx, cfg.Audit)
	if err != nil {
		logger.Warn("audit sink unavailable, writes are not audited", zap.Error(err))
	}

	if !cfg.Auth.Disabled && strings.TrimSpace(cfg.Auth.Secret) == "" {
		logger.Fatal("auth.secret is empty; set MX_AUTH_SECRET or auth.disabled=true")
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())
	engine.Use(auth.Middleware(auth.JWT{
		Secret:   []byte(cfg.Auth.Secret),
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}, cfg.Auth.Disabled))
	engine.Use(audit.Middleware(auditSink, cfg.Audit.Agent, logger))

	healthHandler := &handler.HealthHandler{DB: dbConn, Store: store}
	healthHandler.Register(engine)
	handler.RegisterDocs(engine)
	loopHandler := &handler.ManualLoopHandler{Pipeline: pipeline, Hub: hub}
	loopHandler.Register(engine)
	settingsHandler := &handler.SettingsHandler{Settings: settingsSvc}
	settingsHandler.Register(engine)
	if cfg.Metrics.Enabled {
		engine.GET("/metrics", metrics.Handler())
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled && strings.TrimSpace(cfg.Cron.OpsSummary) != "" {
		_, err = cronRunner.Add("ops_summary", cfg.Cron.OpsSummary, func(ctx context.Context) error {
			if !settingsSvc.IsEnabled(ctx, service.FeatureOpsSummaryCron, true) {
				return nil
			}
			_, err := pipeline.Ops.Regenerate(ctx, service.Confirmed())
			return err
		})
		if err != nil {
			logger.Warn("cron register ops summary failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.Server.HTTPAddr),
			zap.String("store", store.Driver()),
			zap.String("artifacts", artifactStore.Driver()),
		)
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
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
