package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"appliance-alarm-backend/config"
	"appliance-alarm-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg config.ServerConfig, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(logger))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	caching := mw.Cache(h.cache, measurementCachePrefix, cfg.CacheTTL(), logger)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/measurements", caching, h.GetMeasurements)
		api.GET("/measurements/:name", caching, h.GetApplianceMeasurements)
		api.POST("/measurements", h.CreateMeasurement)

		api.GET("/devices", h.ListDevices)
		api.POST("/devices", h.CreateDevice)
		api.GET("/devices/:id", h.GetDevice)
		api.PUT("/devices/:id", h.UpdateDevice)
		api.DELETE("/devices/:id", h.DeleteDevice)

		api.POST("/users", h.CreateUser)
		api.GET("/users/:user_id", h.GetUser)
		api.PUT("/users/:user_id/thresholds", h.PutThresholds)
		api.GET("/users/:user_id/devices", h.GetUserDevices)
		api.GET("/users/:user_id/alarms", h.GetAlarms)
		api.POST("/users/:user_id/alarms/read", h.ReadAlarms)
		api.GET("/users/:user_id/alarms/export", h.ExportAlarms)
	}

	return r
}
