package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/spdteam/dashboard-server/cache"
	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/review"
)

// Display names are looked up by several surfaces per render; cached so the
// public view and exports do not hit the users table per row.
var studentNameCache = cache.New[uint, string](5 * time.Minute)

func studentDisplayName(id uint) string {
	name, err := studentNameCache.GetOrLoad(id, func() (string, error) {
		var u models.User
		if err := config.DB.First(&u, id).Error; err != nil {
			return "", err
		}
		return u.Name, nil
	})
	if err != nil {
		return ""
	}
	return name
}

/* ========== GET /public/:vertical/:studentId ========== */

// PublicView renders a student's completed answers for external sharing.
// No login: the route is keyed only by the student identifier, and only
// answers whose review reached complete are shown.
func PublicView(c *gin.Context) {
	vertical := c.Param("vertical")
	studentID, err := strconv.Atoi(c.Param("studentId"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid student id"})
		return
	}

	var sections []models.Section
	if err := config.DB.Where("vertical = ?", vertical).
		Order("sort_order ASC, id ASC").Find(&sections).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"sections": []gin.H{}})
		return
	}

	out := []gin.H{}
	for _, section := range sections {
		var questions []models.TemplateQuestion
		config.DB.
			Where("section_id = ? AND is_published = ? AND is_archived = ?", section.ID, true, false).
			Order("sort_order ASC, id ASC").
			Find(&questions)

		responses := Responses.LoadResponses(uint(studentID), section.ID)

		answers := []gin.H{}
		for _, q := range questions {
			r, ok := responses[q.ID]
			if !ok || r.Status != review.StatusComplete {
				continue
			}
			answer := gin.H{
				"question_id": q.ID,
				"label":       q.Label,
				"field_name":  q.FieldName,
				"answer_type": q.AnswerType,
				"value":       r.Value,
			}
			if img, err := r.Image(); err == nil && img != nil {
				answer["image"] = img
			}
			answers = append(answers, answer)
		}
		if len(answers) == 0 {
			continue
		}
		out = append(out, gin.H{
			"section_id":  section.ID,
			"title":       section.Title,
			"description": section.Description,
			"cover_image": section.CoverImage,
			"answers":     answers,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"students_id":  studentID,
		"student_name": studentDisplayName(uint(studentID)),
		"vertical":     vertical,
		"sections":     out,
	})
}
