package controllers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"google.golang.org/api/idtoken"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

type googleLoginReq struct {
	IDToken string `json:"id_token" binding:"required"`
}

// GoogleLoginHandler verifies a Google ID token, checks the email against the
// known student/teacher roster and issues a session JWT with the role claim.
// Emails outside the roster are refused.
func GoogleLoginHandler(c *gin.Context) {
	var req googleLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	payload, err := idtoken.Validate(c.Request.Context(), req.IDToken, os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid Google token"})
		return
	}

	email, _ := payload.Claims["email"].(string)
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Google token has no email claim"})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusForbidden, gin.H{"message": "Email is not a registered student or teacher"})
		return
	}

	// refresh profile fields Google knows better than we do
	updates := map[string]interface{}{}
	if name, _ := payload.Claims["name"].(string); name != "" && user.Name == "" {
		updates["name"] = name
	}
	if picture, _ := payload.Claims["picture"].(string); picture != "" && user.PhotoURL != picture {
		updates["photo_url"] = picture
	}
	if len(updates) > 0 {
		config.DB.Model(&user).Updates(updates)
	}

	token, err := utils.GenerateToken(strconv.FormatUint(uint64(user.ID), 10), user.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not issue session token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Me returns the authenticated user.
func Me(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	c.JSON(http.StatusOK, gin.H{"user": u})
}
