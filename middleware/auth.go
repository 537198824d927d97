package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

const (
	CtxUser    = "user"
	CtxSection = "sectionObj"
)

// AuthJWT checks Authorization: Bearer <token>, validates the JWT, loads the
// user and injects it into the context. Everything under /api except the
// login and health routes sits behind this guard.
func AuthJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		claims, err := utils.VerifyToken(rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		uid, err := strconv.ParseUint(claims.UserID, 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid subject"})
			return
		}

		var user models.User
		if err := config.DB.First(&user, uid).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "User not found"})
			return
		}

		c.Set(CtxUser, user)
		c.Next()
	}
}

// RequireTeacher blocks routes reserved for the teacher-facing tools.
func RequireTeacher() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if u := v.(models.User); !u.IsTeacher() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Teacher role required"})
			return
		}
		c.Next()
	}
}

// RequireStudent blocks routes that only make sense for a student session.
func RequireStudent() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get(CtxUser)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized"})
			return
		}
		if u := v.(models.User); u.Role != models.RoleStudent {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Student role required"})
			return
		}
		c.Next()
	}
}
