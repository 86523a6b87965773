package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/waynekuvi/appointflow-backend/docs"
	"github.com/waynekuvi/appointflow-backend/internal/config"
	"github.com/waynekuvi/appointflow-backend/internal/database"
	"github.com/waynekuvi/appointflow-backend/internal/database/repository"
	"github.com/waynekuvi/appointflow-backend/internal/router"
	"github.com/waynekuvi/appointflow-backend/internal/services"
	"github.com/waynekuvi/appointflow-backend/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// @title Appointflow Messaging API
// @version 1.0
// @description Campaign-triggered messaging execution engine for appointment businesses

// @contact.name API Support
// @contact.email support@appointflow.io

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter `Bearer ` followed by your JWT token (e.g. "Bearer <token>")

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Set Swagger base path dynamically
	docs.SwaggerInfo.BasePath = getEnv("BASE_PATH", "/")

	// Configure logging
	configureLogging()

	// Initialize Sentry
	utils.InitSentry()

	// Load configuration
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET is required")
	}

	// Initialize database connection
	db, err := database.InitDB()
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize RabbitMQ service. Dispatch jobs run in-process when the
	// broker is unavailable.
	rabbitMQService, err := services.NewRabbitMQService()
	if err != nil {
		logrus.Warnf("Failed to initialize RabbitMQ: %v", err)
		rabbitMQService = nil
	} else {
		logrus.Info("RabbitMQ service initialized")
		defer rabbitMQService.Close()
	}

	// Initialize repositories shared by the dispatch path
	orgRepo := repository.NewOrganizationRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	messageRepo := repository.NewCampaignMessageRepository(db)
	executionRepo := repository.NewExecutionRepository(db)

	// Initialize the dispatch pipeline
	settingsProvider := services.NewOrgSettingsProvider(orgRepo)
	campaignService := services.NewCampaignService(campaignRepo, messageRepo)
	relayClient := services.NewRelayClient(cfg.RelayTimeout)
	dispatchService := services.NewDispatchService(
		settingsProvider,
		campaignService,
		campaignRepo,
		apptRepo,
		executionRepo,
		relayClient,
		rabbitMQService,
	)

	if err := dispatchService.StartConsumer(); err != nil {
		logrus.Warnf("Failed to start dispatch consumer: %v", err)
	}
	defer dispatchService.StopConsumer()

	// Start the dispatch sweeper (re-enqueues executions that never got a
	// dispatch attempt)
	sweeper := services.NewDispatchSweeper(executionRepo, dispatchService, cfg.SweepInterval, cfg.SweepAfter)
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize router
	r := router.SetupRouter(db, cfg, dispatchService)

	// Configure HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logrus.Infof("Server starting on port %s", cfg.Port)
		logrus.Infof("API Health Check: http://localhost:%s/api/v1/health", cfg.Port)
		logrus.Infof("Swagger UI: http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Create a deadline for server shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown the server
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited properly")
}

func configureLogging() {
	logLevel := getEnv("LOG_LEVEL", "info")
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
