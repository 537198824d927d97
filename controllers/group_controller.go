package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
)

/* ========== GET /api/:vertical/custom_group ========== */

func ListGroups(c *gin.Context) {
	vertical := c.Param("vertical")

	q := config.DB.Where("vertical = ?", vertical)
	if sectionID := c.Query("section_id"); sectionID != "" {
		q = q.Where("section_id = ?", sectionID)
	}

	var groups []models.CustomGroup
	if err := q.Order("id ASC").Find(&groups).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"groups": []models.CustomGroup{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

/* ========== POST /api/:vertical/custom_group (teacher) ========== */

type createGroupReq struct {
	SectionID    uint   `json:"section_id" binding:"required"`
	Name         string `json:"name" binding:"required,min=1"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	DisplayType  string `json:"display_type"`
}

func CreateGroup(c *gin.Context) {
	vertical := c.Param("vertical")

	var req createGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	var section models.Section
	if err := config.DB.Where("id = ? AND vertical = ?", req.SectionID, vertical).First(&section).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Section not found"})
		return
	}

	group := models.CustomGroup{
		Vertical:     vertical,
		SectionID:    req.SectionID,
		Name:         req.Name,
		Description:  req.Description,
		Instructions: req.Instructions,
		DisplayType:  req.DisplayType,
	}
	if err := config.DB.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create group"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

/* ========== PATCH /api/:vertical/custom_group/:id (teacher) ========== */

type updateGroupReq struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Instructions *string `json:"instructions"`
	DisplayType  *string `json:"display_type"`
}

func UpdateGroup(c *gin.Context) {
	group, ok := loadGroup(c)
	if !ok {
		return
	}

	var req updateGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Instructions != nil {
		updates["instructions"] = *req.Instructions
	}
	if req.DisplayType != nil {
		updates["display_type"] = *req.DisplayType
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&group).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

/* ========== DELETE /api/:vertical/custom_group/:id (teacher) ========== */

// DeleteGroup removes a group and ungroups its questions. The questions (and
// the answers hanging off them) survive.
func DeleteGroup(c *gin.Context) {
	group, ok := loadGroup(c)
	if !ok {
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.TemplateQuestion{}).
			Where("custom_group_id = ?", group.ID).
			Update("custom_group_id", nil).Error; err != nil {
			return err
		}
		// group-scoped review rows fold back into the section scope
		if err := tx.Where("custom_group_id = ?", group.ID).
			Delete(&models.ReviewRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&group).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Delete failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func loadGroup(c *gin.Context) (models.CustomGroup, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid group id"})
		return models.CustomGroup{}, false
	}

	var group models.CustomGroup
	e := config.DB.Where("id = ? AND vertical = ?", id, c.Param("vertical")).First(&group).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Group not found"})
		return models.CustomGroup{}, false
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read group"})
		return models.CustomGroup{}, false
	}
	return group, true
}
