package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/urbanmobility/taxi-backend-go/internal/config"
	"github.com/urbanmobility/taxi-backend-go/internal/database"
	"github.com/urbanmobility/taxi-backend-go/internal/handler"
	"github.com/urbanmobility/taxi-backend-go/internal/middleware"
	"github.com/urbanmobility/taxi-backend-go/internal/repository"
	"github.com/urbanmobility/taxi-backend-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, db *database.DB, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	if cfg.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(middleware.NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateWindow)))
	}

	tripRepo := repository.NewTripRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	tripService := service.NewTripService(tripRepo)
	statsService := service.NewStatsService(statsRepo, auditRepo)

	healthHandler := handler.NewHealthHandler(tripService)
	tripHandler := handler.NewTripHandler(tripService)
	statsHandler := handler.NewStatsHandler(statsService)

	// 健康检查
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	{
		trips := api.Group("/trips")
		{
			trips.GET("", tripHandler.GetTrips)
			trips.GET("/:id", tripHandler.GetTripByID)
		}

		api.GET("/stats", statsHandler.GetStatistics)

		patterns := api.Group("/patterns")
		{
			patterns.GET("/time", statsHandler.GetTimePatterns)
			patterns.GET("/speed", statsHandler.GetSpeedPatterns)
			patterns.GET("/locations", statsHandler.GetLocationPatterns)
		}

		api.GET("/audit", statsHandler.GetLatestAudit)
	}

	return r
}
