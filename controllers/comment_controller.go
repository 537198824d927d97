package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/eventbus"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
)

/* ========== GET /api/:vertical/comments ========== */

func GetComments(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	studentID, err := strconv.Atoi(c.Query("students_id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "students_id is required"})
		return
	}
	if !u.IsTeacher() && uint(studentID) != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Students can only read their own comments"})
		return
	}

	q := config.DB.Where("vertical = ? AND students_id = ?", c.Param("vertical"), studentID)
	if sectionID := c.Query("section_id"); sectionID != "" {
		q = q.Where("section_id = ?", sectionID)
	}
	if fieldName := c.Query("field_name"); fieldName != "" {
		q = q.Where("field_name = ?", fieldName)
	}

	var comments []models.Comment
	if err := q.Order("created_at ASC").Find(&comments).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"comments": []models.Comment{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

/* ========== POST /api/:vertical/comments ========== */

type createCommentReq struct {
	StudentID          uint   `json:"students_id" binding:"required"`
	SectionID          uint   `json:"section_id" binding:"required"`
	GroupID            *uint  `json:"custom_group_id"`
	FieldName          string `json:"field_name" binding:"required"`
	Body               string `json:"body" binding:"required,min=1"`
	IsRevisionFeedback bool   `json:"isRevisionFeedback"`
}

// CreateComment attaches a note to a single field or, with the sentinel field
// name, to a whole section/group. Field comments are teacher-only; section
// comments may come from either party.
func CreateComment(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	vertical := c.Param("vertical")

	var req createCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}
	if !u.IsTeacher() && req.FieldName != models.SectionCommentField {
		c.JSON(http.StatusForbidden, gin.H{"message": "Only teachers can comment on a field"})
		return
	}
	if !u.IsTeacher() && req.StudentID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Students can only comment on their own document"})
		return
	}

	comment := models.Comment{
		Vertical:           vertical,
		AuthorID:           u.ID,
		StudentID:          req.StudentID,
		SectionID:          req.SectionID,
		GroupID:            req.GroupID,
		FieldName:          req.FieldName,
		Body:               req.Body,
		IsRevisionFeedback: req.IsRevisionFeedback && u.IsTeacher(),
	}
	if err := config.DB.Create(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create comment"})
		return
	}

	eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
		Type:      eventbus.CountEventCommentCreated,
		Vertical:  vertical,
		StudentID: req.StudentID,
		SectionID: req.SectionID,
		Delta:     1,
	})

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

/* ========== PATCH /api/:vertical/comments/:id ========== */

type updateCommentReq struct {
	IsRead     *bool `json:"is_read"`
	IsResolved *bool `json:"is_resolved"`
}

// UpdateComment mutates the only two fields that change after creation:
// the read flag (with its timestamp) and the resolution flag. Each change
// broadcasts a count delta so sibling views adjust their tallies.
func UpdateComment(c *gin.Context) {
	comment, ok := loadComment(c)
	if !ok {
		return
	}

	var req updateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.IsRead != nil && *req.IsRead != comment.IsRead {
		updates["is_read"] = *req.IsRead
		if *req.IsRead {
			updates["read_at"] = time.Now()
		} else {
			updates["read_at"] = nil
		}
	}
	if req.IsResolved != nil && *req.IsResolved != comment.IsResolved {
		updates["is_resolved"] = *req.IsResolved
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&comment).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}

	if v, ok := updates["is_read"]; ok {
		delta := -1
		if v == false {
			delta = 1
		}
		eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
			Type:      eventbus.CountEventCommentRead,
			Vertical:  comment.Vertical,
			StudentID: comment.StudentID,
			SectionID: comment.SectionID,
			Delta:     delta,
		})
	}
	if _, ok := updates["is_resolved"]; ok {
		eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
			Type:      eventbus.CountEventCommentResolved,
			Vertical:  comment.Vertical,
			StudentID: comment.StudentID,
			SectionID: comment.SectionID,
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

/* ========== DELETE /api/:vertical/comments/:id (teacher) ========== */

func DeleteComment(c *gin.Context) {
	comment, ok := loadComment(c)
	if !ok {
		return
	}

	if err := config.DB.Delete(&comment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Delete failed"})
		return
	}

	if !comment.IsRead {
		eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
			Type:      eventbus.CountEventCommentRead,
			Vertical:  comment.Vertical,
			StudentID: comment.StudentID,
			SectionID: comment.SectionID,
			Delta:     -1,
		})
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func loadComment(c *gin.Context) (models.Comment, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid comment id"})
		return models.Comment{}, false
	}

	var comment models.Comment
	e := config.DB.Where("id = ? AND vertical = ?", id, c.Param("vertical")).First(&comment).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Comment not found"})
		return models.Comment{}, false
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read comment"})
		return models.Comment{}, false
	}
	return comment, true
}
