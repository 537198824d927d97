package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/cache"
	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

// Section lists are fetched by several independent surfaces (navigation,
// list pages, review sheets); a short TTL keeps them from hammering the DB
// while write operations bust the entry explicitly.
var sectionCache = cache.New[string, []models.Section](30 * time.Second)

/* ========== GET /api/:vertical/sections ========== */

func ListSections(c *gin.Context) {
	vertical := c.Param("vertical")

	sections, err := sectionCache.GetOrLoad(vertical, func() ([]models.Section, error) {
		var out []models.Section
		err := config.DB.
			Where("vertical = ?", vertical).
			Order("sort_order ASC, id ASC").
			Find(&out).Error
		return out, err
	})
	if err != nil {
		// reads degrade to the empty state instead of an error screen
		c.JSON(http.StatusOK, gin.H{"sections": []models.Section{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sections": sections})
}

/* ========== POST /api/:vertical/sections (teacher) ========== */

type createSectionReq struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
	CoverImage  string `json:"cover_image"`
}

func CreateSection(c *gin.Context) {
	vertical := c.Param("vertical")

	var req createSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	section := models.Section{
		Vertical:    vertical,
		Title:       req.Title,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		CoverImage:  req.CoverImage,
	}
	if err := config.DB.Create(&section).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create section"})
		return
	}

	sectionCache.Invalidate(vertical)

	c.JSON(http.StatusCreated, gin.H{"section": section})
}

/* ========== PATCH /api/:vertical/sections/:id (teacher) ========== */

type updateSectionReq struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
	Locked      *bool   `json:"locked"`
	CoverImage  *string `json:"cover_image"`
}

func UpdateSection(c *gin.Context) {
	vertical := c.Param("vertical")
	section, ok := loadSection(c)
	if !ok {
		return
	}

	var req updateSectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.Locked != nil {
		updates["locked"] = *req.Locked
	}
	if req.CoverImage != nil {
		updates["cover_image"] = *req.CoverImage
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&section).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}

	sectionCache.Invalidate(vertical)

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

/* ========== POST /api/:vertical/sections/:id/share (teacher) ========== */

// ShareSection issues a preview link token for a section draft. The token is
// returned once; only its bcrypt hash is stored.
func ShareSection(c *gin.Context) {
	section, ok := loadSection(c)
	if !ok {
		return
	}

	token, err := utils.GeneratePreviewToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not generate token"})
		return
	}
	hash, err := utils.HashPreviewToken(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not hash token"})
		return
	}

	if err := config.DB.Model(&section).Update("preview_token_hash", hash).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not store token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"section_id": section.ID,
		"token":      token,
	})
}

/* ========== GET /preview/:vertical/sections/:id?token= ========== */

// PreviewSection renders a section draft, including unpublished questions,
// for holders of a valid preview token. No login required.
func PreviewSection(c *gin.Context) {
	section, ok := loadSection(c)
	if !ok {
		return
	}

	if !utils.VerifyPreviewToken(section.PreviewTokenHash, c.Query("token")) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Missing or invalid preview token"})
		return
	}

	var questions []models.TemplateQuestion
	config.DB.
		Where("section_id = ? AND is_archived = ?", section.ID, false).
		Order("sort_order ASC, id ASC").
		Find(&questions)

	c.JSON(http.StatusOK, gin.H{
		"section":   section,
		"questions": questions,
	})
}

// loadSection resolves :id within :vertical, answering 404/500 itself.
func loadSection(c *gin.Context) (models.Section, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid section id"})
		return models.Section{}, false
	}

	var section models.Section
	e := config.DB.Where("id = ? AND vertical = ?", id, c.Param("vertical")).First(&section).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Section not found"})
		return models.Section{}, false
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read section"})
		return models.Section{}, false
	}
	return section, true
}
