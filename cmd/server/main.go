package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planwise/calendar-server/internal/api"
	"github.com/planwise/calendar-server/internal/config"
	"github.com/planwise/calendar-server/internal/service"
	"github.com/planwise/calendar-server/internal/store"
	"github.com/planwise/calendar-server/internal/utils"
	"github.com/robfig/cron/v3"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.NewLogger()

	// Set up the CSV table stores
	events := store.NewEventStore(cfg.Storage.DataDir, logger)
	rules := store.NewRuleStore(cfg.Storage.DataDir, logger)
	users := store.NewUserStore(cfg.Storage.DataDir, logger)
	for _, s := range []interface{ Initialize() error }{events, rules, users} {
		if err := s.Initialize(); err != nil {
			log.Fatalf("Failed to initialize table store: %v", err)
		}
	}

	// Create services
	verifier := service.NewVerifier(cfg.Auth.PasswordScheme)
	eventSvc := service.NewEventService(events, rules, logger)
	userSvc := service.NewUserService(users, events, rules, verifier, cfg.Auth.JWTSecret, logger)
	backupSvc := service.NewBackupService(events, rules, users, cfg.Storage.BackupDir, logger)

	// Scheduled backups
	if cfg.Backup.Cron != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Backup.Cron, func() {
			if path, err := backupSvc.BackupAll(""); err != nil {
				logger.Error("scheduled backup failed: %v", err)
			} else {
				logger.Info("scheduled backup written to %s", path)
			}
		})
		if err != nil {
			log.Fatalf("Invalid backup schedule %q: %v", cfg.Backup.Cron, err)
		}
		scheduler.Start()
	}

	// Create API handler
	handler := api.NewHandler(eventSvc, userSvc, backupSvc)

	// Set up Gin router
	router := gin.Default()

	// Add middleware for JWT secret
	router.Use(func(c *gin.Context) {
		c.Set("jwtSecret", []byte(cfg.Auth.JWTSecret))
		c.Next()
	})

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
