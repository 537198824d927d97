package models

import (
	"encoding/json"
	"time"

	"github.com/spdteam/dashboard-server/review"
)

// StudentResponse is one student's answer to one TemplateQuestion. At most one
// non-archived response exists per (student, question) pair; edits mutate the
// row, deletion is a soft archive.
type StudentResponse struct {
	ID         uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	StudentID  uint          `gorm:"column:students_id;not null;index" json:"students_id"`
	QuestionID uint          `gorm:"column:question_id;not null;index" json:"question_id"`
	Value      string        `gorm:"column:student_response;type:text" json:"student_response"`
	ImageJSON  string        `gorm:"column:image_json;type:text" json:"-"`
	WordCount  int           `gorm:"column:word_count;default:0" json:"wordCount"`
	Status     review.Status `gorm:"column:status;size:20;not null;default:'blank'" json:"-"`
	LastEdited time.Time     `gorm:"column:last_edited" json:"last_edited"`
	IsArchived bool          `gorm:"column:is_archived;default:false" json:"is_archived"`
	CreatedAt  time.Time     `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Student  User             `gorm:"foreignKey:StudentID" json:"-"`
	Question TemplateQuestion `gorm:"foreignKey:QuestionID" json:"-"`
}

func (StudentResponse) TableName() string {
	return "student_responses"
}

// ImageDescriptor is the storage descriptor returned by the upload endpoint
// and stored verbatim on image-valued responses.
type ImageDescriptor struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Mime string `json:"mime"`
}

func (r StudentResponse) Image() (*ImageDescriptor, error) {
	if r.ImageJSON == "" {
		return nil, nil
	}
	var d ImageDescriptor
	if err := json.Unmarshal([]byte(r.ImageJSON), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// MarshalJSON flattens the status enum back into the legacy flag triplet the
// clients still read.
func (r StudentResponse) MarshalJSON() ([]byte, error) {
	isComplete, revisionNeeded, readyReview := r.Status.Flags()

	var image *ImageDescriptor
	if d, err := r.Image(); err == nil {
		image = d
	}

	type alias StudentResponse // avoid recursing into this method
	return json.Marshal(struct {
		alias
		IsComplete     bool             `json:"isComplete"`
		RevisionNeeded bool             `json:"revisionNeeded"`
		ReadyReview    bool             `json:"readyReview"`
		Image          *ImageDescriptor `json:"image,omitempty"`
	}{alias(r), isComplete, revisionNeeded, readyReview, image})
}
