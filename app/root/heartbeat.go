package root

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HEAD /api/heartbeat
func Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

// GET /api/validate, only reached when the token passed the JWT middleware
func Validate(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"msg":     "Token valid",
		"user_id": c.MustGet("userID").(string),
	})
}
