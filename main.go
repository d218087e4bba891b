package main

import (
	"log"

	"github.com/ankitmaurya-byte/intervue/config"
	"github.com/ankitmaurya-byte/intervue/handlers"
	"github.com/ankitmaurya-byte/intervue/middleware"
	"github.com/ankitmaurya-byte/intervue/routes"
	"github.com/ankitmaurya-byte/intervue/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize services
	pollService := services.NewPollService(cfg.BanDuration)

	// Initialize WebSocket hub
	hub := services.NewHub(pollService)
	go hub.Run()

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(pollService, hub, cfg.JWTSecret)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, pollHandler, hub, cfg.JWTSecret)

	// Start server
	addr := cfg.BindAddress + ":" + cfg.Port
	log.Printf("Server starting on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
