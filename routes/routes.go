package routes

import (
	"log"
	"net/http"

	"github.com/ankitmaurya-byte/intervue/handlers"
	"github.com/ankitmaurya-byte/intervue/middleware"
	"github.com/ankitmaurya-byte/intervue/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the poll UI may be served from anywhere
	},
}

func SetupRoutes(
	router *gin.Engine,
	pollHandler *handlers.PollHandler,
	hub *services.Hub,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		poll := api.Group("/poll")
		{
			poll.POST("", pollHandler.CreatePoll)
			poll.GET("", pollHandler.GetPollState)
			poll.POST("/join", pollHandler.Join)
			poll.GET("/ban-check", pollHandler.CheckBan)

			// Teacher-only: requires the capability token from poll creation
			poll.POST("/questions", middleware.TeacherAuth(jwtSecret), pollHandler.PostQuestion)
		}
	}

	// WebSocket endpoint for the live poll room
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
