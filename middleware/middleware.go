package middleware

import (
	"net/http"
	"strings"

	"github.com/ankitmaurya-byte/intervue/services"

	"github.com/gin-gonic/gin"
)

// CORS allows the polling UI to talk to the API from any origin.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// TeacherAuth guards teacher-only routes with the capability token issued on
// poll creation, presented as a bearer credential.
func TeacherAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Teacher token required"})
			return
		}

		teacherID, err := services.VerifyTeacherToken(jwtSecret, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid teacher token"})
			return
		}

		c.Set("teacher_id", teacherID)
		c.Next()
	}
}
