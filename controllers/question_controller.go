package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
)

/* ========== GET /api/:vertical/template ========== */

// ListTemplate returns the vertical's question template. Students only ever
// see published, non-archived questions; teachers can pass view=all for the
// authoring tools.
func ListTemplate(c *gin.Context) {
	vertical := c.Param("vertical")
	u := c.MustGet(middleware.CtxUser).(models.User)

	q := config.DB.Where("vertical = ?", vertical)

	view := c.DefaultQuery("view", "student")
	if view != "all" || !u.IsTeacher() {
		q = q.Where("is_published = ? AND is_archived = ?", true, false)
	}
	if sectionID := c.Query("section_id"); sectionID != "" {
		q = q.Where("section_id = ?", sectionID)
	}

	var questions []models.TemplateQuestion
	if err := q.Order("sort_order ASC, id ASC").Find(&questions).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"questions": []models.TemplateQuestion{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

/* ========== POST /api/:vertical/template (teacher) ========== */

type createQuestionReq struct {
	SectionID  uint            `json:"section_id" binding:"required"`
	GroupID    *uint           `json:"custom_group_id"`
	Label      string          `json:"label" binding:"required,min=1"`
	FieldName  string          `json:"field_name" binding:"required,min=1"`
	AnswerType string          `json:"answer_type" binding:"required"`
	MinWords   int             `json:"min_words"`
	Options    json.RawMessage `json:"options"`
}

func CreateQuestion(c *gin.Context) {
	vertical := c.Param("vertical")

	var req createQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}
	if !models.ValidAnswerType(req.AnswerType) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Unknown answer type"})
		return
	}
	if req.AnswerType != models.AnswerLongText && req.MinWords > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "min_words only applies to long text questions"})
		return
	}
	if len(req.Options) > 0 && !json.Valid(req.Options) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "options is not valid JSON"})
		return
	}

	var section models.Section
	if err := config.DB.Where("id = ? AND vertical = ?", req.SectionID, vertical).First(&section).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Section not found"})
		return
	}

	// next sort index = MAX(sort_order)+1 within the section
	type nextRes struct{ Next int }
	var r nextRes
	_ = config.DB.Model(&models.TemplateQuestion{}).
		Where("section_id = ?", req.SectionID).
		Select("COALESCE(MAX(sort_order), -1) + 1 AS next").
		Scan(&r).Error

	q := models.TemplateQuestion{
		Vertical:   vertical,
		SectionID:  req.SectionID,
		GroupID:    req.GroupID,
		Label:      req.Label,
		FieldName:  req.FieldName,
		AnswerType: req.AnswerType,
		MinWords:   req.MinWords,
		SortOrder:  r.Next,
	}
	if len(req.Options) > 0 {
		q.OptionsJSON = string(req.Options)
	}

	if err := config.DB.Create(&q).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not create question"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"question_id": q.ID, "section_id": q.SectionID})
}

/* ========== PATCH /api/:vertical/template/:id (teacher) ========== */

type updateQuestionReq struct {
	Label     *string          `json:"label"`
	FieldName *string          `json:"field_name"`
	MinWords  *int             `json:"min_words"`
	GroupID   *uint            `json:"custom_group_id"`
	Ungroup   bool             `json:"ungroup"`
	Options   *json.RawMessage `json:"options"`
	SortOrder *int             `json:"sort_order"`
}

func UpdateQuestion(c *gin.Context) {
	q, ok := loadQuestion(c)
	if !ok {
		return
	}

	var req updateQuestionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}
	if req.Options != nil && len(*req.Options) > 0 && !json.Valid(*req.Options) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "options is not valid JSON"})
		return
	}

	updates := map[string]interface{}{}
	if req.Label != nil {
		updates["label"] = *req.Label
	}
	if req.FieldName != nil {
		updates["field_name"] = *req.FieldName
	}
	if req.MinWords != nil {
		updates["min_words"] = *req.MinWords
	}
	if req.GroupID != nil {
		updates["custom_group_id"] = *req.GroupID
	}
	if req.Ungroup {
		updates["custom_group_id"] = nil
	}
	if req.Options != nil {
		updates["options_json"] = string(*req.Options)
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&q).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

/* ========== DELETE /api/:vertical/template/:id (teacher) ========== */

// ArchiveQuestion soft-archives a question. Rows are never hard-deleted so
// historical answers keep their prompt.
func ArchiveQuestion(c *gin.Context) {
	q, ok := loadQuestion(c)
	if !ok {
		return
	}

	if err := config.DB.Model(&q).Updates(map[string]interface{}{
		"is_archived":  true,
		"is_published": false,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Archive failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "archived"})
}

/* ========== POST /api/:vertical/publish_questions (teacher) ========== */

type publishQuestionsReq struct {
	SectionID   uint   `json:"section_id"`
	QuestionIDs []uint `json:"question_ids"`
}

// PublishQuestions flips the publication flag for a whole section or an
// explicit id list, making the questions visible to students.
func PublishQuestions(c *gin.Context) {
	vertical := c.Param("vertical")

	var req publishQuestionsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}
	if req.SectionID == 0 && len(req.QuestionIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "section_id or question_ids is required"})
		return
	}

	q := config.DB.Model(&models.TemplateQuestion{}).
		Where("vertical = ? AND is_archived = ?", vertical, false)
	if req.SectionID != 0 {
		q = q.Where("section_id = ?", req.SectionID)
	}
	if len(req.QuestionIDs) > 0 {
		q = q.Where("id IN ?", req.QuestionIDs)
	}

	res := q.Update("is_published", true)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Publish failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"published": res.RowsAffected})
}

func loadQuestion(c *gin.Context) (models.TemplateQuestion, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid question id"})
		return models.TemplateQuestion{}, false
	}

	var q models.TemplateQuestion
	e := config.DB.Where("id = ? AND vertical = ?", id, c.Param("vertical")).First(&q).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return models.TemplateQuestion{}, false
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read question"})
		return models.TemplateQuestion{}, false
	}
	return q, true
}
