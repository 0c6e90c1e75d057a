package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fieldforge/backend/internal/config"
	"github.com/fieldforge/backend/internal/db"
	"github.com/fieldforge/backend/internal/http/handlers"
	"github.com/fieldforge/backend/internal/http/middleware"
	"github.com/fieldforge/backend/internal/metrics"
	"github.com/fieldforge/backend/internal/notify"
	"github.com/fieldforge/backend/internal/service"
	"github.com/fieldforge/backend/internal/stream"

	_ "github.com/fieldforge/backend/docs"
)

func Router(cfg config.Config, store *db.Store, intake *service.IntakeService, dispatcher *service.DispatchService, broker stream.Broker, notifier notify.Notifier, logger zerolog.Logger) *gin.Engine {
	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:        store,
		Intake:       intake,
		Dispatch:     dispatcher,
		Broker:       broker,
		Notifier:     notifier,
		Validator:    validator.New(),
		Logger:       logger,
		AdminKey:     cfg.AdminKey,
		TrackingBase: cfg.TrackingBase,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		// Customer-facing: intake plus the token-addressed tracking page.
		api.POST("/tickets", h.TicketCreate)
		api.GET("/track/:token", h.TrackTicket)
		api.GET("/track/:token/stream", h.TrackStream)

		api.GET("/tickets", h.TicketsList)
		api.GET("/tickets/:id", h.TicketDetails)
		api.GET("/tickets/:id/candidates", h.TicketCandidates)
		api.GET("/workers", h.WorkersList)
		api.GET("/workers/:id", h.WorkerDetails)
		api.GET("/workers/:id/assignments", h.WorkerAssignments)
		api.GET("/workers/:id/route", h.WorkerRoute)
		api.GET("/assignments", h.AssignmentsList)
		api.GET("/assignments/:id", h.AssignmentDetails)
		api.GET("/dashboard/stats", h.DashboardStats)
		api.GET("/dashboard/map", h.DashboardMap)
		api.GET("/dashboard/sla-alerts", h.SLAAlerts)
		api.GET("/stream", h.DashboardStream)
		api.GET("/sla/:severity", h.SLAPreview)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.PATCH("/tickets/:id", h.TicketUpdate)
		admin.POST("/tickets/:id/analyze", h.TicketAnalyze)
		admin.POST("/tickets/:id/assign", h.TicketAssign)
		admin.POST("/tickets/:id/cancel", h.TicketCancel)
		admin.POST("/process", h.Process)

		admin.POST("/workers", h.WorkerCreate)
		admin.POST("/workers/bulk", h.WorkersBulkImport)
		admin.PATCH("/workers/:id", h.WorkerUpdate)
		admin.POST("/workers/:id/location", h.WorkerLocation)
		admin.POST("/workers/:id/availability", h.WorkerAvailability)

		admin.POST("/assignments/:id/status", h.AssignmentStatus)

		admin.POST("/dispatch/fleet-plan", h.FleetPlan)
		admin.GET("/dispatch/clusters", h.Clusters)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
