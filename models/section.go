package models

import "time"

// Section is one named unit of a document (e.g. "Housing"). Locked sections
// reject student edits.
type Section struct {
	ID          uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Vertical    string    `gorm:"column:vertical;size:20;not null;index" json:"vertical"`
	Title       string    `gorm:"column:title;size:255;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	SortOrder   int       `gorm:"column:sort_order;default:0" json:"sort_order"`
	Locked      bool      `gorm:"column:locked;default:false" json:"locked"`
	CoverImage  string    `gorm:"column:cover_image;size:255" json:"cover_image"`
	// bcrypt hash of the preview-link token, empty until a link is issued
	PreviewTokenHash string    `gorm:"column:preview_token_hash;type:text" json:"-"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Questions []TemplateQuestion `gorm:"foreignKey:SectionID" json:"-"`
	Groups    []CustomGroup      `gorm:"foreignKey:SectionID" json:"-"`
}

func (Section) TableName() string {
	return "sections"
}
