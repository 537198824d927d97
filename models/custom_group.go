package models

import "time"

// CustomGroup is an optional themed sub-cluster of questions inside a section.
// Deleting a group ungroups its questions instead of deleting them.
type CustomGroup struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Vertical     string    `gorm:"column:vertical;size:20;not null;index" json:"vertical"`
	SectionID    uint      `gorm:"column:section_id;not null;index" json:"section_id"`
	Name         string    `gorm:"column:name;size:255;not null" json:"name"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	Instructions string    `gorm:"column:instructions;type:text" json:"instructions"`
	DisplayType  string    `gorm:"column:display_type;size:30" json:"display_type"` // chart | gallery | table
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	Section   Section            `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
	Questions []TemplateQuestion `gorm:"foreignKey:GroupID" json:"-"`
}

func (CustomGroup) TableName() string {
	return "custom_groups"
}
