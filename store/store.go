package store

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/utils"
)

// QuietPeriod is how long a student's edits accumulate before an automatic
// flush. An explicit save flushes immediately.
const QuietPeriod = 3 * time.Second

type editKey struct {
	StudentID  uint
	QuestionID uint
}

// ResponseStore translates between staged, unsaved answer values and persisted
// response rows. Edits are marked dirty and written behind a debounce timer;
// rows that fail to persist stay dirty and are retried on the next flush.
type ResponseStore struct {
	db    *gorm.DB
	quiet time.Duration

	mu     sync.Mutex
	staged map[editKey]string
	timers map[uint]*time.Timer
}

func NewResponseStore(db *gorm.DB) *ResponseStore {
	return &ResponseStore{
		db:     db,
		quiet:  QuietPeriod,
		staged: make(map[editKey]string),
		timers: make(map[uint]*time.Timer),
	}
}

// LoadResponses returns the student's non-archived responses keyed by
// question id, filtered to the section's questions. Transport errors degrade
// to an empty map so the caller can still render the empty state.
func (s *ResponseStore) LoadResponses(studentID, sectionID uint) map[uint]models.StudentResponse {
	out := make(map[uint]models.StudentResponse)

	var questionIDs []uint
	if err := s.db.Model(&models.TemplateQuestion{}).
		Where("section_id = ?", sectionID).
		Pluck("id", &questionIDs).Error; err != nil {
		log.Printf("store: load question ids for section %d: %v", sectionID, err)
		return out
	}
	if len(questionIDs) == 0 {
		return out
	}

	var responses []models.StudentResponse
	if err := s.db.
		Where("students_id = ? AND is_archived = ? AND question_id IN ?", studentID, false, questionIDs).
		Find(&responses).Error; err != nil {
		log.Printf("store: load responses for student %d: %v", studentID, err)
		return out
	}

	for _, r := range responses {
		out[r.QuestionID] = r
	}
	return out
}

// StageEdit records a local, unsaved value, marks the question dirty and
// (re)starts the student's debounce timer. Image answers bypass staging and
// are written directly by the upload handler.
func (s *ResponseStore) StageEdit(studentID, questionID uint, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.staged[editKey{studentID, questionID}] = value

	if t, ok := s.timers[studentID]; ok {
		t.Stop()
	}
	s.timers[studentID] = time.AfterFunc(s.quiet, func() {
		s.Flush(studentID)
	})
}

// Dirty lists the student's question ids with staged, unflushed edits.
func (s *ResponseStore) Dirty(studentID uint) []uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []uint
	for k := range s.staged {
		if k.StudentID == studentID {
			ids = append(ids, k.QuestionID)
		}
	}
	return ids
}

// FlushResult reports, per question id, which staged edits persisted.
type FlushResult struct {
	Saved  []uint
	Failed map[uint]error
}

// Flush writes every dirty question for the student: existing rows get a
// partial update (value, recomputed word count, last-edited timestamp), first
// edits create the row. Dirtiness clears only for writes that succeed.
func (s *ResponseStore) Flush(studentID uint) FlushResult {
	s.mu.Lock()
	if t, ok := s.timers[studentID]; ok {
		t.Stop()
		delete(s.timers, studentID)
	}
	batch := make(map[uint]string)
	for k, v := range s.staged {
		if k.StudentID == studentID {
			batch[k.QuestionID] = v
		}
	}
	s.mu.Unlock()

	result := FlushResult{Failed: make(map[uint]error)}
	for questionID, value := range batch {
		if err := s.persist(studentID, questionID, value); err != nil {
			log.Printf("store: flush student %d question %d: %v", studentID, questionID, err)
			result.Failed[questionID] = err
			continue
		}
		result.Saved = append(result.Saved, questionID)
		s.mu.Lock()
		// a newer edit may have been staged while this one was in flight
		if s.staged[editKey{studentID, questionID}] == value {
			delete(s.staged, editKey{studentID, questionID})
		}
		s.mu.Unlock()
	}
	return result
}

func (s *ResponseStore) persist(studentID, questionID uint, value string) error {
	var existing models.StudentResponse
	err := s.db.
		Where("students_id = ? AND question_id = ? AND is_archived = ?", studentID, questionID, false).
		First(&existing).Error

	now := time.Now()
	words := utils.CountWords(value)

	if err == gorm.ErrRecordNotFound {
		return s.db.Create(&models.StudentResponse{
			StudentID:  studentID,
			QuestionID: questionID,
			Value:      value,
			WordCount:  words,
			LastEdited: now,
		}).Error
	}
	if err != nil {
		return err
	}

	return s.db.Model(&existing).Updates(map[string]interface{}{
		"student_response": value,
		"word_count":       words,
		"last_edited":      now,
	}).Error
}

// AttachImage patches the response record with the uploaded storage
// descriptor, creating the row on a first upload. Not debounced.
func (s *ResponseStore) AttachImage(studentID, questionID uint, imageJSON string) (*models.StudentResponse, error) {
	var existing models.StudentResponse
	err := s.db.
		Where("students_id = ? AND question_id = ? AND is_archived = ?", studentID, questionID, false).
		First(&existing).Error

	now := time.Now()
	if err == gorm.ErrRecordNotFound {
		r := models.StudentResponse{
			StudentID:  studentID,
			QuestionID: questionID,
			ImageJSON:  imageJSON,
			LastEdited: now,
		}
		if err := s.db.Create(&r).Error; err != nil {
			return nil, err
		}
		return &r, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(&existing).Updates(map[string]interface{}{
		"image_json":  imageJSON,
		"last_edited": now,
	}).Error; err != nil {
		return nil, err
	}
	existing.ImageJSON = imageJSON
	existing.LastEdited = now
	return &existing, nil
}
