package router

import (
	"time"

	"github.com/waynekuvi/appointflow-backend/internal/config"
	"github.com/waynekuvi/appointflow-backend/internal/handlers"
	"github.com/waynekuvi/appointflow-backend/internal/middleware"
	"github.com/waynekuvi/appointflow-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin router with the messaging API routes
func SetupRouter(db *gorm.DB, cfg *config.Config, dispatchService *services.DispatchService) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Relay-Secret"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Create middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// Create handlers
	organizationHandler := handlers.NewOrganizationHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, cfg, dispatchService)
	campaignHandler := handlers.NewCampaignHandler(db, dispatchService)
	executionHandler := handlers.NewExecutionHandler(db)
	messagingHandler := handlers.NewMessagingHandler(dispatchService)
	webhookHandler := handlers.NewWebhookHandler(db)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 routes
	api := r.Group("/api/v1")
	{
		// Health check
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
				"time":   time.Now().Format(time.RFC3339),
			})
		})

		// Webhook routes (authenticated by the relay secret, not a bearer token)
		webhooks := api.Group("/webhooks")
		{
			webhooks.PATCH("/executions/:id/delivery-status", webhookHandler.UpdateDeliveryStatus)
		}

		// Protected routes
		protected := api.Group("")
		protected.Use(authMiddleware.RequireOrg())
		{
			// Organization routes
			organization := protected.Group("/organization")
			{
				organization.GET("/messaging-settings", organizationHandler.GetMessagingSettings)
				organization.PUT("/messaging-settings", organizationHandler.UpdateMessagingSettings)
			}

			// Appointment routes
			appointments := protected.Group("/appointments")
			{
				appointments.POST("", appointmentHandler.BookAppointment)
				appointments.GET("", appointmentHandler.GetAppointments)
				appointments.GET("/:id", appointmentHandler.GetAppointmentByID)
				appointments.POST("/:id/complete", appointmentHandler.CompleteAppointment)
			}

			// Campaign routes
			campaigns := protected.Group("/campaigns")
			{
				campaigns.POST("", campaignHandler.CreateCampaign)
				campaigns.GET("", campaignHandler.GetCampaigns)
				campaigns.GET("/:id", campaignHandler.GetCampaignByID)
				campaigns.PUT("/:id", campaignHandler.UpdateCampaign)
				campaigns.DELETE("/:id", campaignHandler.DeleteCampaign)
				campaigns.POST("/:id/messages", campaignHandler.AddCampaignMessage)
				campaigns.PUT("/:id/messages/:messageId", campaignHandler.UpdateCampaignMessage)
				campaigns.DELETE("/:id/messages/:messageId", campaignHandler.DeleteCampaignMessage)
				campaigns.POST("/:id/test", campaignHandler.TestCampaign)
			}

			// Execution routes
			executions := protected.Group("/executions")
			{
				executions.GET("", executionHandler.GetExecutions)
				executions.GET("/:id", executionHandler.GetExecutionByID)
			}

			// Messaging trigger routes
			messaging := protected.Group("/messaging")
			{
				messaging.POST("/triggers", messagingHandler.TriggerCampaign)
			}
		}
	}

	return r
}
