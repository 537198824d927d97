package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/detector"
	"github.com/spdteam/dashboard-server/eventbus"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/review"
)

/* ========== GET /api/:vertical/review ========== */

func GetReviews(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)

	studentID, err := strconv.Atoi(c.Query("students_id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "students_id is required"})
		return
	}
	if !u.IsTeacher() && uint(studentID) != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Students can only read their own reviews"})
		return
	}

	q := config.DB.Where("vertical = ? AND students_id = ?", c.Param("vertical"), studentID)
	if sectionID := c.Query("section_id"); sectionID != "" {
		q = q.Where("section_id = ?", sectionID)
	}

	var records []models.ReviewRecord
	if err := q.Order("section_id ASC, id ASC").Find(&records).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"reviews": []models.ReviewRecord{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": records})
}

/* ========== POST /api/:vertical/review_add_all ========== */

type syncReviewsReq struct {
	StudentID uint `json:"students_id" binding:"required"`
}

// SyncReviews materializes the missing review rows for a student: one per
// section plus one per (section, group) combination. Existing rows are left
// untouched.
func SyncReviews(c *gin.Context) {
	vertical := c.Param("vertical")

	var req syncReviewsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	var sections []models.Section
	if err := config.DB.Where("vertical = ?", vertical).Find(&sections).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read sections"})
		return
	}

	created := 0
	for _, section := range sections {
		n, err := ensureReviewRow(vertical, req.StudentID, section.ID, nil)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Sync failed"})
			return
		}
		created += n

		var groups []models.CustomGroup
		if err := config.DB.Where("section_id = ?", section.ID).Find(&groups).Error; err != nil {
			continue
		}
		for _, g := range groups {
			gid := g.ID
			n, err := ensureReviewRow(vertical, req.StudentID, section.ID, &gid)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"message": "Sync failed"})
				return
			}
			created += n
		}
	}

	c.JSON(http.StatusOK, gin.H{"created": created})
}

func ensureReviewRow(vertical string, studentID, sectionID uint, groupID *uint) (int, error) {
	q := config.DB.Model(&models.ReviewRecord{}).
		Where("vertical = ? AND students_id = ? AND section_id = ?", vertical, studentID, sectionID)
	if groupID == nil {
		q = q.Where("custom_group_id IS NULL")
	} else {
		q = q.Where("custom_group_id = ?", *groupID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	err := config.DB.Create(&models.ReviewRecord{
		Vertical:  vertical,
		StudentID: studentID,
		SectionID: sectionID,
		GroupID:   groupID,
		Status:    review.StatusBlank,
	}).Error
	if err != nil {
		return 0, err
	}
	return 1, nil
}

/* ========== PATCH /api/:vertical/review/:id (teacher, legacy) ========== */

type patchReviewReq struct {
	IsComplete     bool `json:"isComplete"`
	RevisionNeeded bool `json:"revisionNeeded"`
	ReadyReview    bool `json:"readyReview"`
}

// PatchReview accepts the legacy flag triplet and maps it through the
// enumerated status, so an invalid combination can no longer be stored.
func PatchReview(c *gin.Context) {
	record, ok := loadReview(c)
	if !ok {
		return
	}

	var req patchReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": "Payload is invalid", "error": err.Error()})
		return
	}

	newStatus := review.FromFlags(req.IsComplete, req.RevisionNeeded, req.ReadyReview)
	saveReviewStatus(c, record, newStatus)
}

/* ========== review transitions ========== */

type transitionReq struct {
	Comment string `json:"comment"`
}

// SubmitReview is the student submit-for-review action. The answers in scope
// must be non-empty and meet each question's minimum-word threshold; long
// answers additionally pass the AI-content-detection gate.
func SubmitReview(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	record, ok := loadReview(c)
	if !ok {
		return
	}
	if record.StudentID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not your review record"})
		return
	}

	newStatus, err := record.Status.SubmitForReview()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	questions := scopeQuestions(record)
	responses := Responses.LoadResponses(record.StudentID, record.SectionID)

	// validation happens entirely client side of the network: no detector
	// call and no write until every threshold is met
	for _, q := range questions {
		if q.AnswerType == models.AnswerImage {
			if r, ok := responses[q.ID]; !ok || r.ImageJSON == "" {
				c.JSON(http.StatusUnprocessableEntity, gin.H{
					"message":     "An image answer is missing",
					"question_id": q.ID,
				})
				return
			}
			continue
		}

		r, ok := responses[q.ID]
		if !ok || r.Value == "" {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message":     "An answer is still empty",
				"question_id": q.ID,
			})
			return
		}
		if q.MinWords > 0 && r.WordCount < q.MinWords {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"message":     "Answer is below the minimum word count",
				"question_id": q.ID,
				"min_words":   q.MinWords,
				"word_count":  r.WordCount,
			})
			return
		}
	}

	// hard gate: refuse the submission outright when the detector flags it
	for _, q := range questions {
		if q.AnswerType != models.AnswerLongText {
			continue
		}
		r := responses[q.ID]
		if r.WordCount < detector.MinGateWords {
			continue
		}
		result, err := detector.Default.Check(c.Request.Context(), r.Value, record.StudentID, q.ID)
		if err != nil {
			// the gate is a policy check, not a data dependency: fail open
			log.Printf("detector check failed for student %d question %d: %v", record.StudentID, q.ID, err)
			continue
		}
		if result.Blocked() {
			c.JSON(http.StatusForbidden, gin.H{
				"message":        "Submission was flagged as AI-generated and cannot be sent for review",
				"question_id":    q.ID,
				"ai_probability": result.AIProbability,
			})
			return
		}
	}

	saveReviewStatus(c, record, newStatus)
}

// WithdrawReview returns a pending submission to blank so the student can
// keep editing.
func WithdrawReview(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	record, ok := loadReview(c)
	if !ok {
		return
	}
	if record.StudentID != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Not your review record"})
		return
	}

	newStatus, err := record.Status.Withdraw()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	saveReviewStatus(c, record, newStatus)
}

// CompleteReview is the teacher accept action, optionally attaching a comment.
func CompleteReview(c *gin.Context) {
	record, ok := loadReview(c)
	if !ok {
		return
	}

	newStatus, err := record.Status.MarkComplete()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	attachTransitionComment(c, record, false)
	saveReviewStatus(c, record, newStatus)
}

// ReviseReview is the teacher reject action. The attached comment is flagged
// as revision feedback, the primary channel for teacher guidance.
func ReviseReview(c *gin.Context) {
	record, ok := loadReview(c)
	if !ok {
		return
	}

	newStatus, err := record.Status.RequestRevision()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	attachTransitionComment(c, record, true)
	saveReviewStatus(c, record, newStatus)
}

// ReopenReview clears a completed review back to blank.
func ReopenReview(c *gin.Context) {
	record, ok := loadReview(c)
	if !ok {
		return
	}

	newStatus, err := record.Status.Reopen()
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}
	saveReviewStatus(c, record, newStatus)
}

/* ========== GET /api/:vertical/review/progress ========== */

// GetProgress derives completeness per group by joining the published,
// non-archived questions in scope against the student's responses. Nothing
// here is stored; badges always recompute from source data.
func GetProgress(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Query("students_id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "students_id is required"})
		return
	}
	sectionID, err := strconv.Atoi(c.Query("section_id"))
	if err != nil || sectionID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "section_id is required"})
		return
	}

	var groups []models.CustomGroup
	config.DB.Where("section_id = ?", sectionID).Order("id ASC").Find(&groups)

	responses := Responses.LoadResponses(uint(studentID), uint(sectionID))

	scopes := []gin.H{}
	completedGroups := 0
	for _, g := range groups {
		gid := g.ID
		stat := scopeProgress(uint(sectionID), &gid, responses)
		stat["group_id"] = g.ID
		stat["group_name"] = g.Name
		if stat["complete"] == true {
			completedGroups++
		}
		scopes = append(scopes, stat)
	}

	// ungrouped questions report under the section-level scope
	ungrouped := scopeProgress(uint(sectionID), nil, responses)
	if ungrouped["total"].(int) > 0 {
		ungrouped["group_id"] = nil
		scopes = append(scopes, ungrouped)
	}

	c.JSON(http.StatusOK, gin.H{
		"section_id":       sectionID,
		"groups":           scopes,
		"completed_groups": completedGroups,
		"total_groups":     len(groups),
	})
}

func scopeProgress(sectionID uint, groupID *uint, responses map[uint]models.StudentResponse) gin.H {
	q := config.DB.
		Where("section_id = ? AND is_published = ? AND is_archived = ?", sectionID, true, false)
	if groupID == nil {
		q = q.Where("custom_group_id IS NULL")
	} else {
		q = q.Where("custom_group_id = ?", *groupID)
	}

	var questions []models.TemplateQuestion
	q.Find(&questions)

	counts := map[review.Status]int{}
	for _, question := range questions {
		status := review.StatusBlank
		if r, ok := responses[question.ID]; ok {
			status = r.Status
		}
		counts[status]++
	}

	total := len(questions)
	complete := counts[review.StatusComplete]
	percent := 0.0
	if total > 0 {
		percent = float64(complete) * 100 / float64(total)
	}

	return gin.H{
		"total":            total,
		"complete":         total > 0 && complete == total,
		"percent_complete": percent,
		"counts": gin.H{
			"complete":        counts[review.StatusComplete],
			"revision_needed": counts[review.StatusRevisionNeeded],
			"ready_review":    counts[review.StatusReadyReview],
			"blank":           counts[review.StatusBlank],
		},
	}
}

/* ========== helpers ========== */

func loadReview(c *gin.Context) (models.ReviewRecord, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid review id"})
		return models.ReviewRecord{}, false
	}

	var record models.ReviewRecord
	e := config.DB.Where("id = ? AND vertical = ?", id, c.Param("vertical")).First(&record).Error
	if errors.Is(e, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Review record not found"})
		return models.ReviewRecord{}, false
	}
	if e != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not read review record"})
		return models.ReviewRecord{}, false
	}
	return record, true
}

// scopeQuestions returns the published, non-archived questions a review record
// governs: the group's questions, or the section's ungrouped ones.
func scopeQuestions(record models.ReviewRecord) []models.TemplateQuestion {
	q := config.DB.
		Where("section_id = ? AND is_published = ? AND is_archived = ?", record.SectionID, true, false)
	if record.GroupID == nil {
		q = q.Where("custom_group_id IS NULL")
	} else {
		q = q.Where("custom_group_id = ?", *record.GroupID)
	}

	var questions []models.TemplateQuestion
	q.Order("sort_order ASC, id ASC").Find(&questions)
	return questions
}

// saveReviewStatus persists the transition (last write wins, no row locking),
// mirrors the status onto the scoped responses and broadcasts the
// pending-review delta.
func saveReviewStatus(c *gin.Context, record models.ReviewRecord, newStatus review.Status) {
	oldStatus := record.Status

	if err := config.DB.Model(&record).Updates(map[string]interface{}{
		"status":     newStatus,
		"updated_at": time.Now(),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not update review record"})
		return
	}

	// responses carry the same status so per-question progress stays in step
	questionIDs := []uint{}
	for _, q := range scopeQuestions(record) {
		questionIDs = append(questionIDs, q.ID)
	}
	if len(questionIDs) > 0 {
		config.DB.Model(&models.StudentResponse{}).
			Where("students_id = ? AND is_archived = ? AND question_id IN ?", record.StudentID, false, questionIDs).
			Update("status", newStatus)
	}

	delta := 0
	if oldStatus == review.StatusReadyReview {
		delta--
	}
	if newStatus == review.StatusReadyReview {
		delta++
	}
	if delta != 0 {
		eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
			Type:      eventbus.CountEventReviewChanged,
			Vertical:  record.Vertical,
			StudentID: record.StudentID,
			SectionID: record.SectionID,
			Delta:     delta,
		})
	}

	record.Status = newStatus
	c.JSON(http.StatusOK, gin.H{"review": record})
}

// attachTransitionComment stores the optional comment riding on a teacher
// transition; an empty body attaches nothing.
func attachTransitionComment(c *gin.Context, record models.ReviewRecord, revisionFeedback bool) {
	var req transitionReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Comment == "" {
		return
	}
	u := c.MustGet(middleware.CtxUser).(models.User)

	comment := models.Comment{
		Vertical:           record.Vertical,
		AuthorID:           u.ID,
		StudentID:          record.StudentID,
		SectionID:          record.SectionID,
		GroupID:            record.GroupID,
		FieldName:          models.SectionCommentField,
		Body:               req.Comment,
		IsRevisionFeedback: revisionFeedback,
	}
	if err := config.DB.Create(&comment).Error; err != nil {
		log.Printf("could not attach transition comment: %v", err)
		return
	}

	eventbus.PublishCount(c.Request.Context(), eventbus.CountEvent{
		Type:      eventbus.CountEventCommentCreated,
		Vertical:  record.Vertical,
		StudentID: record.StudentID,
		SectionID: record.SectionID,
		Delta:     1,
	})
}
