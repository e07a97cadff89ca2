package cmd

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"queue-system/config"
	"queue-system/handlers"
	_ "queue-system/migrations"
	"queue-system/monitoring"
	"queue-system/security"
	"queue-system/services"
	"queue-system/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub
	pnConfig := pubnub.NewConfig()
	pnConfig.PublishKey = cfg.PubNubPublishKey
	pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
	pnConfig.SecretKey = cfg.PubNubSecretKey

	pn := pubnub.NewPubNub(pnConfig)

	// Initialize services
	queueService := services.NewQueueService(cfg)
	verifyService := services.NewVerifyService(queueService, cfg)
	aiService := services.NewAIService(redisClient, cfg)
	notifyService := services.NewNotifyService(queueService, services.NewPubNubPublisher(pn), redisClient, cfg)
	auditService := services.NewAuditService(app)
	queueService.SetAuditor(auditService)

	var monitor *monitoring.Monitor
	if cfg.EnableMetrics {
		monitor = monitoring.NewMonitor(queueService)
		queueService.SetMonitor(monitor)
		notifyService.SetMonitor(monitor)
		aiService.SetMonitor(monitor)
	}

	// Initialize handlers
	limiter := security.NewRateLimiter(redisClient)
	queueHandler := handlers.NewQueueHandler(app, queueService, verifyService, limiter, cfg)
	adminHandler := handlers.NewAdminHandler(app, queueService, auditService)
	aiHandler := handlers.NewAIHandler(app, queueService, aiService)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	notifyService.Start()

	app.OnTerminate().BindFunc(func(e *core.TerminateEvent) error {
		notifyService.Shutdown()
		if monitor != nil {
			monitor.Stop()
		}
		return e.Next()
	})

	// Register routes
	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Customer endpoints
		e.Router.POST("/api/v1/queue/register", queueHandler.Register)
		e.Router.GET("/api/v1/queue/status", queueHandler.GetStatus)
		e.Router.POST("/api/v1/queue/leave", queueHandler.Leave)
		e.Router.POST("/api/v1/queue/verify", queueHandler.Verify)
		e.Router.GET("/api/v1/queue/insights", aiHandler.GetInsights)

		// Admin endpoints
		e.Router.GET("/api/v1/admin/queue", adminHandler.ListQueue)
		e.Router.GET("/api/v1/admin/stats", adminHandler.GetStats)
		e.Router.POST("/api/v1/admin/call-next", adminHandler.CallNext)
		e.Router.POST("/api/v1/admin/serve", adminHandler.MarkServing)
		e.Router.POST("/api/v1/admin/complete", adminHandler.Complete)
		e.Router.POST("/api/v1/admin/cancel", adminHandler.Cancel)
		e.Router.POST("/api/v1/admin/remove", adminHandler.Remove)
		e.Router.POST("/api/v1/admin/toggle-pause", adminHandler.TogglePause)
		e.Router.POST("/api/v1/admin/service-time", adminHandler.SetServiceTime)
		e.Router.GET("/api/v1/admin/audit-today", adminHandler.AuditToday)
		e.Router.GET("/api/v1/admin/ai/prediction", aiHandler.GetPrediction)
		e.Router.GET("/api/v1/admin/ai/optimization", aiHandler.GetOptimization)

		// Metrics
		if cfg.EnableMetrics {
			e.Router.GET("/metrics", func(e *core.RequestEvent) error {
				if e.Auth == nil || e.Auth.Collection().Name != core.CollectionNameSuperusers {
					return apis.NewUnauthorizedError("Admin access required", nil)
				}
				promhttp.Handler().ServeHTTP(e.Response, e.Request)
				return nil
			})
		}

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}
