package models

// The two document verticals share one schema; every vertical-scoped row
// carries one of these discriminators.
const (
	VerticalLifeMap = "lifemap"
	VerticalThesis  = "thesis"
)

func ValidVertical(v string) bool {
	return v == VerticalLifeMap || v == VerticalThesis
}

// SectionCommentField is the sentinel field name for comments that target a
// whole section or group instead of a single question.
const SectionCommentField = "_section_comment"
