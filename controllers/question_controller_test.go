package controllers

import (
	"fmt"
	"testing"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
)

func TestListTemplateStudentViewHidesDrafts(t *testing.T) {
	r := setupTest(t)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)

	section := makeSection(t, models.VerticalLifeMap, "Housing")
	published := makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, true)
	makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, false) // draft

	archived := makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, true)
	config.DB.Model(&archived).Updates(map[string]interface{}{"is_archived": true, "is_published": false})

	w := doJSON(r, "GET", "/api/lifemap/template", authToken(t, student), nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	questions := body["questions"].([]interface{})
	if len(questions) != 1 {
		t.Fatalf("student should see 1 question, got %d", len(questions))
	}
	q := questions[0].(map[string]interface{})
	if uint(q["id"].(float64)) != published.ID {
		t.Fatalf("student sees the wrong question: %v", q)
	}

	// view=all means nothing for a student
	w = doJSON(r, "GET", "/api/lifemap/template?view=all", authToken(t, student), nil)
	if got := len(decodeBody(t, w)["questions"].([]interface{})); got != 1 {
		t.Fatalf("student with view=all should still see 1 question, got %d", got)
	}

	w = doJSON(r, "GET", "/api/lifemap/template?view=all", authToken(t, teacher), nil)
	if got := len(decodeBody(t, w)["questions"].([]interface{})); got != 3 {
		t.Fatalf("teacher view=all should see 3 questions, got %d", got)
	}
}

func TestCreateQuestionAssignsNextSortOrder(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	section := makeSection(t, models.VerticalThesis, "Market")

	token := authToken(t, teacher)
	for i := 0; i < 2; i++ {
		w := doJSON(r, "POST", "/api/thesis/template", token, map[string]interface{}{
			"section_id":  section.ID,
			"label":       fmt.Sprintf("Question %d", i),
			"field_name":  fmt.Sprintf("q_%d", i),
			"answer_type": models.AnswerShortText,
		})
		if w.Code != 201 {
			t.Fatalf("create %d: expected 201, got %d (%s)", i, w.Code, w.Body.String())
		}
	}

	var questions []models.TemplateQuestion
	config.DB.Where("section_id = ?", section.ID).Order("sort_order ASC").Find(&questions)
	if len(questions) != 2 || questions[0].SortOrder != 0 || questions[1].SortOrder != 1 {
		t.Fatalf("unexpected sort orders: %+v", questions)
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)
	section := makeSection(t, models.VerticalLifeMap, "Housing")
	token := authToken(t, teacher)

	w := doJSON(r, "POST", "/api/lifemap/template", token, map[string]interface{}{
		"section_id": section.ID, "label": "x", "field_name": "x", "answer_type": "freeform",
	})
	if w.Code != 422 {
		t.Fatalf("unknown answer type: expected 422, got %d", w.Code)
	}

	// min_words is a long-text concept
	w = doJSON(r, "POST", "/api/lifemap/template", token, map[string]interface{}{
		"section_id": section.ID, "label": "x", "field_name": "x",
		"answer_type": models.AnswerShortText, "min_words": 50,
	})
	if w.Code != 422 {
		t.Fatalf("min_words on short text: expected 422, got %d", w.Code)
	}

	w = doJSON(r, "POST", "/api/lifemap/template", authToken(t, student), map[string]interface{}{
		"section_id": section.ID, "label": "x", "field_name": "x", "answer_type": models.AnswerShortText,
	})
	if w.Code != 403 {
		t.Fatalf("student create: expected 403, got %d", w.Code)
	}
}

func TestArchiveQuestionIsSoft(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	section := makeSection(t, models.VerticalLifeMap, "Housing")
	q := makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, true)

	w := doJSON(r, "DELETE", fmt.Sprintf("/api/lifemap/template/%d", q.ID), authToken(t, teacher), nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got models.TemplateQuestion
	if err := config.DB.First(&got, q.ID).Error; err != nil {
		t.Fatalf("archived question should still exist: %v", err)
	}
	if !got.IsArchived || got.IsPublished {
		t.Fatalf("expected archived+unpublished, got archived=%v published=%v", got.IsArchived, got.IsPublished)
	}
}

func TestPublishQuestionsBySection(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	section := makeSection(t, models.VerticalLifeMap, "Housing")
	makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, false)
	makeQuestion(t, models.VerticalLifeMap, section.ID, nil, models.AnswerShortText, 0, false)

	w := doJSON(r, "POST", "/api/lifemap/publish_questions", authToken(t, teacher), map[string]interface{}{
		"section_id": section.ID,
	})
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := decodeBody(t, w)["published"].(float64); got != 2 {
		t.Fatalf("expected 2 published, got %v", got)
	}

	var count int64
	config.DB.Model(&models.TemplateQuestion{}).
		Where("section_id = ? AND is_published = ?", section.ID, true).Count(&count)
	if count != 2 {
		t.Fatalf("expected 2 published rows, got %d", count)
	}
}

func TestUpdateQuestionUngroup(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	section := makeSection(t, models.VerticalLifeMap, "Housing")

	group := models.CustomGroup{Vertical: models.VerticalLifeMap, SectionID: section.ID, Name: "Costs"}
	config.DB.Create(&group)
	q := makeQuestion(t, models.VerticalLifeMap, section.ID, &group.ID, models.AnswerShortText, 0, true)

	w := doJSON(r, "PATCH", fmt.Sprintf("/api/lifemap/template/%d", q.ID), authToken(t, teacher),
		map[string]interface{}{"ungroup": true})
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got models.TemplateQuestion
	config.DB.First(&got, q.ID)
	if got.GroupID != nil {
		t.Fatalf("expected question ungrouped, got group %v", *got.GroupID)
	}
}
