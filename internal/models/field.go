package models

import (
	"strings"
	"time"
)

type FieldType string

const (
	FieldShortText FieldType = "ShortText"
	FieldLongText  FieldType = "LongText"
	FieldRadio     FieldType = "Radio"
	FieldSelect    FieldType = "Select"
	FieldCheckbox  FieldType = "Checkbox"
	FieldDate      FieldType = "Date"
	FieldFile      FieldType = "File"
)

// HasOptions reports whether the field type carries an options list.
// Checkbox is deliberately excluded: its option slot holds a single
// affirmation text, not a list.
func (t FieldType) HasOptions() bool {
	return t == FieldRadio || t == FieldSelect
}

// IsText reports whether MaxLength applies to the field type.
func (t FieldType) IsText() bool {
	return t == FieldShortText || t == FieldLongText
}

// FieldDefinition is one question of a call's form. Order values are unique
// and dense (1..n) within a call; the repository renumbers on every mutation.
type FieldDefinition struct {
	ID       uint      `json:"id" gorm:"primaryKey"`
	CallID   uint      `json:"call_id" gorm:"not null;index:idx_fields_call_order,priority:1"`
	Label    string    `json:"label" gorm:"not null;size:500" validate:"required,min=1,max=500"`
	Type     FieldType `json:"type" gorm:"not null;size:20" validate:"required,field_type"`
	Required bool      `json:"required" gorm:"default:false"`
	Order    int       `json:"order" gorm:"not null;index:idx_fields_call_order,priority:2"`
	Category string    `json:"category" gorm:"size:100"`

	// Text types only; stored as a UI hint, not enforced on submission.
	MaxLength *int `json:"max_length" validate:"omitempty,min=1,max=10000"`

	// Radio/Select: comma-separated option list.
	// Checkbox: the affirmation text the applicant agrees to.
	// Empty for every other type; File additionally never carries MaxLength.
	OptionsPayload string `json:"options_payload" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (FieldDefinition) TableName() string {
	return "field_definitions"
}

// Options decodes the stored payload into the option list. For Checkbox
// fields the payload is the affirmation text; callers must branch on Type
// instead of calling this.
func (f *FieldDefinition) Options() []string {
	if !f.Type.HasOptions() || f.OptionsPayload == "" {
		return nil
	}
	return strings.Split(f.OptionsPayload, ",")
}

// Affirmation returns the agreement text of a Checkbox field.
func (f *FieldDefinition) Affirmation() string {
	if f.Type != FieldCheckbox {
		return ""
	}
	return f.OptionsPayload
}

// DecodeOptions splits the legacy compact "label|opt1,opt2" encoding used by
// older exports. Absence of '|' yields the whole string as label and an empty
// option list. For Checkbox fields the part after '|' is the affirmation
// text; use the label/affirmation pair directly instead of the list.
func DecodeOptions(payload string) (label string, options []string) {
	label, rest, found := strings.Cut(payload, "|")
	if !found || rest == "" {
		return label, nil
	}
	return label, strings.Split(rest, ",")
}

// EncodeOptions is the inverse of DecodeOptions, kept for on-disk
// compatibility with data produced by the legacy portal.
func EncodeOptions(label string, options []string) string {
	if len(options) == 0 {
		return label
	}
	return label + "|" + strings.Join(options, ",")
}
