package models

import "time"

// Answer types a TemplateQuestion can take.
const (
	AnswerShortText = "short_text"
	AnswerLongText  = "long_text"
	AnswerCurrency  = "currency"
	AnswerImage     = "image"
	AnswerDropdown  = "dropdown"
	AnswerURL       = "url"
	AnswerDate      = "date"
)

// TemplateQuestion is a single prompt authored by a teacher. Questions are
// archived, never hard-deleted, so historical answers keep their parent.
type TemplateQuestion struct {
	ID          uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Vertical    string `gorm:"column:vertical;size:20;not null;index" json:"vertical"`
	SectionID   uint   `gorm:"column:section_id;not null;index" json:"section_id"`
	GroupID     *uint  `gorm:"column:custom_group_id" json:"custom_group_id"`
	Label       string `gorm:"column:label;type:text;not null" json:"label"`
	FieldName   string `gorm:"column:field_name;size:100;not null" json:"field_name"`
	AnswerType  string `gorm:"column:answer_type;size:30;not null" json:"answer_type"`
	MinWords    int    `gorm:"column:min_words;default:0" json:"min_words"` // long text only
	OptionsJSON string `gorm:"column:options_json;type:text" json:"options_json"` // dropdown choices
	IsPublished bool   `gorm:"column:is_published;default:false" json:"is_published"`
	IsArchived  bool   `gorm:"column:is_archived;default:false" json:"is_archived"`
	SortOrder   int    `gorm:"column:sort_order;default:0" json:"sort_order"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Section Section      `gorm:"foreignKey:SectionID;constraint:OnDelete:CASCADE" json:"-"`
	Group   *CustomGroup `gorm:"foreignKey:GroupID" json:"-"`
}

func (TemplateQuestion) TableName() string {
	return "template_questions"
}

func ValidAnswerType(t string) bool {
	switch t {
	case AnswerShortText, AnswerLongText, AnswerCurrency, AnswerImage, AnswerDropdown, AnswerURL, AnswerDate:
		return true
	}
	return false
}
