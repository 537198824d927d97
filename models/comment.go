package models

import "time"

// Comment is a teacher note attached to a single field or, with the
// SectionCommentField sentinel, to a whole section/group. Only read-state and
// resolution flags mutate after creation.
type Comment struct {
	ID                 uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Vertical           string     `gorm:"column:vertical;size:20;not null;index" json:"vertical"`
	AuthorID           uint       `gorm:"column:author_id;not null" json:"author_id"`
	StudentID          uint       `gorm:"column:students_id;not null;index" json:"students_id"`
	SectionID          uint       `gorm:"column:section_id;not null;index" json:"section_id"`
	GroupID            *uint      `gorm:"column:custom_group_id" json:"custom_group_id"`
	FieldName          string     `gorm:"column:field_name;size:100;not null" json:"field_name"`
	Body               string     `gorm:"column:body;type:text;not null" json:"body"`
	IsRead             bool       `gorm:"column:is_read;default:false" json:"is_read"`
	ReadAt             *time.Time `gorm:"column:read_at" json:"read_at"`
	IsRevisionFeedback bool       `gorm:"column:is_revision_feedback;default:false" json:"isRevisionFeedback"`
	IsResolved         bool       `gorm:"column:is_resolved;default:false" json:"is_resolved"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Author  User `gorm:"foreignKey:AuthorID" json:"-"`
	Student User `gorm:"foreignKey:StudentID" json:"-"`
}

func (Comment) TableName() string {
	return "comments"
}
