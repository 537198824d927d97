package models

import (
	"encoding/json"
	"time"

	"github.com/spdteam/dashboard-server/review"
)

// ReviewRecord is the review status of one (student, section, group-or-null)
// combination. Missing rows are materialized by the "sync reviews" operation.
type ReviewRecord struct {
	ID        uint          `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Vertical  string        `gorm:"column:vertical;size:20;not null;index" json:"vertical"`
	StudentID uint          `gorm:"column:students_id;not null;index" json:"students_id"`
	SectionID uint          `gorm:"column:section_id;not null;index" json:"section_id"`
	GroupID   *uint         `gorm:"column:custom_group_id" json:"custom_group_id"`
	Status    review.Status `gorm:"column:status;size:20;not null;default:'blank'" json:"-"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Student User    `gorm:"foreignKey:StudentID" json:"-"`
	Section Section `gorm:"foreignKey:SectionID" json:"-"`
}

func (ReviewRecord) TableName() string {
	return "review_records"
}

func (r ReviewRecord) MarshalJSON() ([]byte, error) {
	isComplete, revisionNeeded, readyReview := r.Status.Flags()

	type alias ReviewRecord
	return json.Marshal(struct {
		alias
		Status         review.Status `json:"status"`
		IsComplete     bool          `json:"isComplete"`
		RevisionNeeded bool          `json:"revisionNeeded"`
		ReadyReview    bool          `json:"readyReview"`
	}{alias(r), r.Status, isComplete, revisionNeeded, readyReview})
}
