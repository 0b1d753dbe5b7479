package handlers

import (
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/services"
	"github.com/SAP-F-2025/assessment-delivery/internal/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	catalogHandler *CatalogHandler
	tokenParser    TokenParser
	logger         utils.Logger
}

// NewHandlerManager wires the handlers. tokenParser may be nil, in which
// case callers identify themselves with the X-User-ID header.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	tokenParser TokenParser,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), serviceManager.Export(), logger),
		catalogHandler: NewCatalogHandler(serviceManager.Catalog(), logger),
		tokenParser:    tokenParser,
		logger:         logger,
	}
}

// NewRouter builds the gin engine with middleware and all routes.
func (hm *HandlerManager) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.RequestID(hm.logger))
	router.Use(utils.LoggerMiddleware(hm.logger))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", UserIDHeader, utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Disposition", utils.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	hm.SetupRoutes(router)
	return router
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(Identity(hm.tokenParser, hm.logger))
	{
		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/export", hm.attemptHandler.ExportAttempt)
		}

		// Per-user catalog and history
		users := v1.Group("/users/:user_id")
		{
			users.GET("/tests", hm.catalogHandler.GetAccessibleTests)
			users.GET("/batteries", hm.catalogHandler.GetAccessibleBatteries)
			users.GET("/attempts", hm.attemptHandler.ListUserAttempts)
		}

		v1.GET("/tests/:id", hm.catalogHandler.GetTest)
		v1.GET("/batteries/:id", hm.catalogHandler.GetBattery)
	}
}
