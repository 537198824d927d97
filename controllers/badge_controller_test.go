package controllers

import (
	"fmt"
	"testing"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/review"
)

func badgeFor(t *testing.T, body map[string]interface{}, sectionID uint) map[string]interface{} {
	t.Helper()
	for _, raw := range body["badges"].([]interface{}) {
		b := raw.(map[string]interface{})
		if uint(b["section_id"].(float64)) == sectionID {
			return b
		}
	}
	t.Fatalf("no badge entry for section %d in %v", sectionID, body)
	return nil
}

func TestBadgesPrimeFromDatabase(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)
	section := makeSection(t, models.VerticalLifeMap, "Housing")

	// pre-existing unread comment and pending review
	config.DB.Create(&models.Comment{
		Vertical: models.VerticalLifeMap, AuthorID: teacher.ID, StudentID: student.ID,
		SectionID: section.ID, FieldName: "a", Body: "x",
	})
	makeReviewRow(t, models.VerticalLifeMap, student.ID, section.ID, nil, review.StatusReadyReview)

	w := doJSON(r, "GET", fmt.Sprintf("/api/lifemap/badges?students_id=%d", student.ID), authToken(t, student), nil)
	if w.Code != 200 {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	b := badgeFor(t, decodeBody(t, w), section.ID)
	if b["unread_comments"].(float64) != 1 || b["pending_reviews"].(float64) != 1 {
		t.Fatalf("unexpected primed counts: %v", b)
	}
}

func TestBadgesFollowEvents(t *testing.T) {
	r := setupTest(t)
	teacher := makeUser(t, "Mr. T", "t@school.edu", models.RoleTeacher)
	student := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)
	section := makeSection(t, models.VerticalLifeMap, "Housing")
	token := authToken(t, student)

	// prime the key at zero
	w := doJSON(r, "GET", fmt.Sprintf("/api/lifemap/badges?students_id=%d", student.ID), token, nil)
	b := badgeFor(t, decodeBody(t, w), section.ID)
	if b["unread_comments"].(float64) != 0 {
		t.Fatalf("expected 0 unread, got %v", b)
	}

	// a new comment bumps the primed tally without a re-read of the table
	w = doJSON(r, "POST", "/api/lifemap/comments", authToken(t, teacher), map[string]interface{}{
		"students_id": student.ID,
		"section_id":  section.ID,
		"field_name":  "a",
		"body":        "look here",
	})
	if w.Code != 201 {
		t.Fatalf("comment create: expected 201, got %d", w.Code)
	}
	commentID := uint(decodeBody(t, w)["comment"].(map[string]interface{})["id"].(float64))

	w = doJSON(r, "GET", fmt.Sprintf("/api/lifemap/badges?students_id=%d", student.ID), token, nil)
	b = badgeFor(t, decodeBody(t, w), section.ID)
	if b["unread_comments"].(float64) != 1 {
		t.Fatalf("expected 1 unread after create, got %v", b)
	}

	// reading it walks the tally back down
	w = doJSON(r, "PATCH", fmt.Sprintf("/api/lifemap/comments/%d", commentID), token,
		map[string]interface{}{"is_read": true})
	if w.Code != 200 {
		t.Fatalf("mark read: expected 200, got %d", w.Code)
	}

	w = doJSON(r, "GET", fmt.Sprintf("/api/lifemap/badges?students_id=%d", student.ID), token, nil)
	b = badgeFor(t, decodeBody(t, w), section.ID)
	if b["unread_comments"].(float64) != 0 {
		t.Fatalf("expected 0 unread after read, got %v", b)
	}
}

func TestBadgesOwnershipGuard(t *testing.T) {
	r := setupTest(t)
	ann := makeUser(t, "Ann", "ann@school.edu", models.RoleStudent)
	bob := makeUser(t, "Bob", "bob@school.edu", models.RoleStudent)
	makeSection(t, models.VerticalLifeMap, "Housing")

	w := doJSON(r, "GET", fmt.Sprintf("/api/lifemap/badges?students_id=%d", ann.ID), authToken(t, bob), nil)
	if w.Code != 403 {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}
