package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spdteam/dashboard-server/models"
)

// ValidateVertical rejects requests for anything other than the two document
// verticals (lifemap, thesis).
func ValidateVertical() gin.HandlerFunc {
	return func(c *gin.Context) {
		if v := c.Param("vertical"); !models.ValidVertical(v) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "Unknown vertical"})
			return
		}
		c.Next()
	}
}
