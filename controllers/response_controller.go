package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

/* ========== GET /api/:vertical/responses_by_student ========== */

// GetResponsesByStudent returns the student's non-archived responses,
// optionally filtered to one section. Students can only fetch their own.
func GetResponsesByStudent(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	studentID, err := strconv.Atoi(c.Query("students_id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "students_id is required"})
		return
	}
	if !u.IsTeacher() && uint(studentID) != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Students can only read their own responses"})
		return
	}

	if sectionID, err := strconv.Atoi(c.Query("section_id")); err == nil && sectionID > 0 {
		byQuestion := Responses.LoadResponses(uint(studentID), uint(sectionID))
		out := make([]models.StudentResponse, 0, len(byQuestion))
		for _, r := range byQuestion {
			out = append(out, r)
		}
		c.JSON(http.StatusOK, gin.H{"responses": out})
		return
	}

	var responses []models.StudentResponse
	if err := config.DB.
		Joins("JOIN template_questions ON template_questions.id = student_responses.question_id").
		Where("student_responses.students_id = ? AND student_responses.is_archived = ? AND template_questions.vertical = ?",
			studentID, false, c.Param("vertical")).
		Find(&responses).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"responses": []models.StudentResponse{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

/* ========== PUT /api/:vertical/responses/stage (student) ========== */

type stageEditReq struct {
	QuestionID uint   `json:"question_id" binding:"required"`
	Value      string `json:"value"`
}

// StageResponse records an unsaved edit. The write lands after a 3-second
// quiet period or on an explicit flush, whichever comes first.
func StageResponse(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	var req stageEditReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	q, ok := editableQuestion(c, req.QuestionID)
	if !ok {
		return
	}
	if q.AnswerType == models.AnswerImage {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Image answers are uploaded, not staged"})
		return
	}

	Responses.StageEdit(u.ID, q.ID, req.Value)

	c.JSON(http.StatusAccepted, gin.H{
		"staged": true,
		"dirty":  Responses.Dirty(u.ID),
	})
}

/* ========== POST /api/:vertical/responses/flush (student) ========== */

// FlushResponses is the explicit save action: every dirty edit is written
// immediately. Failed rows stay dirty and are retried on the next flush.
func FlushResponses(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	res := Responses.Flush(u.ID)

	status := "saved"
	failed := []uint{}
	for id := range res.Failed {
		failed = append(failed, id)
	}
	if len(failed) > 0 {
		status = "error"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"saved":  res.Saved,
		"failed": failed,
	})
}

/* ========== PATCH /api/:vertical/responses/:id ========== */

type updateResponseReq struct {
	Value    *string `json:"student_response"`
	Archived *bool   `json:"is_archived"`
}

// UpdateResponse is the direct write path: a partial update carrying the new
// value, a recomputed word count and a fresh last-edited timestamp.
func UpdateResponse(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid response id"})
		return
	}

	var r models.StudentResponse
	e := config.DB.First(&r, id).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Response not found"})
		return
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read response"})
		return
	}
	if !u.IsTeacher() && r.StudentID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not your response"})
		return
	}

	var req updateResponseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Value != nil {
		if _, ok := editableQuestion(c, r.QuestionID); !ok {
			return
		}
		updates["student_response"] = *req.Value
		updates["word_count"] = utils.CountWords(*req.Value)
		updates["last_edited"] = time.Now()
	}
	if req.Archived != nil {
		updates["is_archived"] = *req.Archived
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Nothing to update"})
		return
	}

	if err := config.DB.Model(&r).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// editableQuestion loads a question and rejects edits against archived or
// unpublished questions and locked sections.
func editableQuestion(c *gin.Context, questionID uint) (models.TemplateQuestion, bool) {
	var q models.TemplateQuestion
	err := config.DB.
		Where("id = ? AND vertical = ? AND is_archived = ? AND is_published = ?",
			questionID, c.Param("vertical"), false, true).
		First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Question not found"})
		return q, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read question"})
		return q, false
	}

	var section models.Section
	if err := config.DB.First(&section, q.SectionID).Error; err == nil && section.Locked {
		c.JSON(http.StatusForbidden, gin.H{"message": "Section is locked"})
		return q, false
	}
	return q, true
}
