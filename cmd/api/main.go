package main

import (
	"log"
	"os"
	"time"

	"faculty-appraisal-api/config"
	"faculty-appraisal-api/controllers"
	"faculty-appraisal-api/middleware"
	"faculty-appraisal-api/monitor"
	"faculty-appraisal-api/routes"
	"faculty-appraisal-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	startedAt := time.Now()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, logWriter := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	if err := config.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	appCfg := config.LoadAppConfig()

	// Initialize database
	config.InitDB()
	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := config.AutoMigrate(config.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		log.Println("Database schema migrated")
	}

	var notifier services.Notifier = services.NewMailNotifier()
	if config.LoadMailConfig().Host == "" {
		log.Println("SMTP_HOST is not set; notifications are stored but not e-mailed")
		notifier = nil
	}
	controllers.InitServices(config.DB, notifier)

	// Set Gin mode
	if appCfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = logWriter
	gin.DefaultErrorWriter = logWriter

	// Create Gin router
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Add security headers middleware
	router.Use(func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'self'")
		c.Next()
	})

	router.Use(middleware.CORSMiddleware())

	monitor.RegisterStatusRoute(router, config.DB, startedAt)
	monitor.RegisterLogsRoute(router, appCfg.MonitorToken, config.LogFilePath())

	routes.SetupRoutes(router, config.LoadJWTConfig())

	log.Printf("Server starting on port %s (environment=%q)", appCfg.Port, appCfg.Environment)
	if err := router.Run(":" + appCfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
