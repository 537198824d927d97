package store

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db error: %v", err)
	}
	if err := db.AutoMigrate(&models.Section{}, &models.TemplateQuestion{}, &models.StudentResponse{}); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	return db
}

func seedQuestion(t *testing.T, db *gorm.DB) models.TemplateQuestion {
	t.Helper()
	section := models.Section{Vertical: models.VerticalLifeMap, Title: "Housing"}
	if err := db.Create(&section).Error; err != nil {
		t.Fatalf("create section: %v", err)
	}
	q := models.TemplateQuestion{
		Vertical:    models.VerticalLifeMap,
		SectionID:   section.ID,
		Label:       "Where will you live?",
		FieldName:   "housing_plan",
		AnswerType:  models.AnswerLongText,
		MinWords:    50,
		IsPublished: true,
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("create question: %v", err)
	}
	return q
}

func TestStageFlushRoundTrip(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)

	s.StageEdit(1, q.ID, "first draft of my plan")
	if got := s.Dirty(1); len(got) != 1 || got[0] != q.ID {
		t.Fatalf("expected question %d dirty, got %v", q.ID, got)
	}

	res := s.Flush(1)
	if len(res.Failed) != 0 || len(res.Saved) != 1 {
		t.Fatalf("unexpected flush result: %+v", res)
	}
	if got := s.Dirty(1); len(got) != 0 {
		t.Fatalf("expected dirtiness cleared, got %v", got)
	}

	loaded := s.LoadResponses(1, q.SectionID)
	r, ok := loaded[q.ID]
	if !ok {
		t.Fatalf("expected response for question %d", q.ID)
	}
	if r.Value != "first draft of my plan" {
		t.Fatalf("round trip mismatch: %q", r.Value)
	}
	if r.WordCount != 5 {
		t.Fatalf("expected word count 5, got %d", r.WordCount)
	}
	if r.LastEdited.IsZero() {
		t.Fatalf("expected last-edited timestamp to be set")
	}
}

func TestFlushUpdatesExistingRow(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)

	s.StageEdit(1, q.ID, "v1")
	s.Flush(1)
	s.StageEdit(1, q.ID, "v2 with more words")
	s.Flush(1)

	var count int64
	db.Model(&models.StudentResponse{}).Where("students_id = ?", 1).Count(&count)
	if count != 1 {
		t.Fatalf("expected a single row per (student, question), got %d", count)
	}

	loaded := s.LoadResponses(1, q.SectionID)
	if loaded[q.ID].Value != "v2 with more words" {
		t.Fatalf("expected latest staged value, got %q", loaded[q.ID].Value)
	}
	if loaded[q.ID].WordCount != 4 {
		t.Fatalf("expected word count 4, got %d", loaded[q.ID].WordCount)
	}
}

func TestFailedFlushKeepsDirty(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)

	s.StageEdit(1, q.ID, "will fail first")

	if err := db.Migrator().DropTable(&models.StudentResponse{}); err != nil {
		t.Fatalf("drop table: %v", err)
	}
	res := s.Flush(1)
	if len(res.Failed) != 1 {
		t.Fatalf("expected failed write, got %+v", res)
	}
	if got := s.Dirty(1); len(got) != 1 {
		t.Fatalf("expected edit to stay dirty, got %v", got)
	}

	// backend recovers; next flush retries the same edit
	if err := db.AutoMigrate(&models.StudentResponse{}); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	res = s.Flush(1)
	if len(res.Failed) != 0 || len(res.Saved) != 1 {
		t.Fatalf("expected retried write to succeed: %+v", res)
	}
	if loaded := s.LoadResponses(1, q.SectionID); loaded[q.ID].Value != "will fail first" {
		t.Fatalf("expected retried value, got %q", loaded[q.ID].Value)
	}
}

func TestDebounceAutoFlush(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)
	s.quiet = 20 * time.Millisecond

	s.StageEdit(1, q.ID, "typed")
	s.StageEdit(1, q.ID, "typed more") // resets the timer

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(s.Dirty(1)) == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	loaded := s.LoadResponses(1, q.SectionID)
	if loaded[q.ID].Value != "typed more" {
		t.Fatalf("expected auto-flushed value, got %q", loaded[q.ID].Value)
	}
}

func TestLoadResponsesSkipsArchivedAndOtherSections(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)

	archived := models.StudentResponse{StudentID: 1, QuestionID: q.ID, Value: "old", IsArchived: true}
	if err := db.Create(&archived).Error; err != nil {
		t.Fatalf("create archived: %v", err)
	}

	other := models.Section{Vertical: models.VerticalLifeMap, Title: "Other"}
	db.Create(&other)

	loaded := s.LoadResponses(1, q.SectionID)
	if len(loaded) != 0 {
		t.Fatalf("archived responses must not load, got %v", loaded)
	}
	if got := s.LoadResponses(1, other.ID); len(got) != 0 {
		t.Fatalf("expected empty map for section with no questions, got %v", got)
	}
}

func TestAttachImage(t *testing.T) {
	db := newTestDB(t)
	q := seedQuestion(t, db)
	s := NewResponseStore(db)

	r, err := s.AttachImage(1, q.ID, `{"path":"https://cdn/x.png","name":"x.png","type":"image","size":123,"mime":"image/png"}`)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	img, err := r.Image()
	if err != nil || img == nil || img.Name != "x.png" {
		t.Fatalf("unexpected descriptor: %+v err %v", img, err)
	}

	// second upload patches the same row
	if _, err := s.AttachImage(1, q.ID, `{"path":"https://cdn/y.png","name":"y.png"}`); err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	var count int64
	db.Model(&models.StudentResponse{}).Where("students_id = ?", 1).Count(&count)
	if count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
}
