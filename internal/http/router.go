package http

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"site-config-dashboard/internal/config"
	"site-config-dashboard/internal/http/handlers"
	"site-config-dashboard/internal/http/middleware"
	"site-config-dashboard/internal/metrics"
	"site-config-dashboard/internal/services"
	"site-config-dashboard/internal/store"
)

type Deps struct {
	DB       *sql.DB
	Redis    *redis.Client
	Metrics  *metrics.PrometheusMetrics
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
}

func NewRouter(cfg *config.Config, deps *Deps) *gin.Engine {
	logger := deps.Logger.With().Str("component", "router").Logger()

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	router.GET("/healthz", handlers.NewHealthHandler(deps.DB, deps.Redis).Health)
	if deps.Gatherer != nil {
		router.GET("/metrics", middleware.RequireAPIKey(cfg.MetricsAPIKey),
			gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.GET("/ping", handlers.Ping)

	authService, err := services.NewAuthService(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("auth disabled")
	}

	var users handlers.UserStore
	var configService handlers.SiteConfigService
	var mediaRepo services.MediaRepository
	if deps.DB != nil {
		users = store.NewUserRepo(deps.DB)
		mediaRepo = store.NewMediaRepo(deps.DB)
		siteDeps := services.SiteConfigDeps{
			Configs:  store.NewSiteConfigRepo(deps.DB),
			Audit:    store.NewAuditRepo(deps.DB),
			Metrics:  deps.Metrics,
			CacheTTL: cfg.GlobalCacheTTL,
			Logger:   deps.Logger,
		}
		if deps.Redis != nil {
			siteDeps.Cache = store.NewRedisCache(deps.Redis, "site-config:")
		}
		configService = services.NewSiteConfigService(siteDeps)
	}

	authHandler := handlers.NewAuthHandler(authService, users, deps.Logger)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/bootstrap", authHandler.Bootstrap)

	localStorage := services.NewLocalStorage(cfg.LocalStorageRoot, cfg.LocalStorageBaseURL)
	api.GET("/local-files/*path", handlers.NewLocalFileHandler(localStorage).Serve)

	siteConfigHandler := handlers.NewSiteConfigHandler(configService, deps.Logger)
	api.GET("/site-config/global", requireService(configService != nil), siteConfigHandler.GetGlobal)

	secured := api.Group("")
	secured.Use(middleware.AuthRequired(authService))
	secured.GET("/auth/me", authHandler.Me)

	userHandler := handlers.NewUserHandler(authService, users)
	secured.PUT("/users/me/password", userHandler.ChangeMyPassword)
	secured.GET("/users", middleware.RequireAdmin(), userHandler.List)
	secured.POST("/users", middleware.RequireAdmin(), userHandler.Create)
	secured.PUT("/users/:id", middleware.RequireAdmin(), userHandler.Update)

	siteConfig := secured.Group("/site-config", requireService(configService != nil))
	siteConfig.GET("", siteConfigHandler.GetTenant)
	siteConfig.POST("", siteConfigHandler.Save)
	siteConfig.POST("/migrate", siteConfigHandler.Migrate)
	siteConfig.GET("/history", siteConfigHandler.History)
	siteConfig.POST("/reset", middleware.RequireAdmin(), siteConfigHandler.Reset)
	siteConfig.POST("/publish", middleware.RequireAdmin(), siteConfigHandler.Publish)

	var storage services.ObjectStorage = localStorage
	if cfg.OSSEnabled() {
		ossService, err := services.NewOSSService(cfg, deps.Redis)
		if err != nil {
			logger.Error().Err(err).Msg("oss init failed, using local storage")
		} else {
			storage = ossService
		}
	}
	uploadService := services.NewUploadService(storage, mediaRepo, deps.Metrics, cfg.UploadMaxBytes, deps.Logger)
	secured.POST("/uploads", requireService(mediaRepo != nil), handlers.NewUploadHandler(uploadService, deps.Logger).Upload)

	return router
}

// requireService answers 503 without an envelope when a backing store is
// missing, so editor sessions treat it as a transport failure.
func requireService(ready bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ready {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "db not ready"})
			return
		}
		c.Next()
	}
}
