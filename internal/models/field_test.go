package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldTypeHasOptions(t *testing.T) {
	assert.True(t, FieldRadio.HasOptions())
	assert.True(t, FieldSelect.HasOptions())

	// Checkbox carries an affirmation text, not an option list.
	assert.False(t, FieldCheckbox.HasOptions())
	assert.False(t, FieldShortText.HasOptions())
	assert.False(t, FieldFile.HasOptions())
}

func TestFieldOptions(t *testing.T) {
	radio := &FieldDefinition{Type: FieldRadio, OptionsPayload: "Manha,Tarde,Noite"}
	assert.Equal(t, []string{"Manha", "Tarde", "Noite"}, radio.Options())

	empty := &FieldDefinition{Type: FieldSelect}
	assert.Nil(t, empty.Options())

	checkbox := &FieldDefinition{Type: FieldCheckbox, OptionsPayload: "Declaro que as informacoes sao verdadeiras"}
	assert.Nil(t, checkbox.Options())
	assert.Equal(t, "Declaro que as informacoes sao verdadeiras", checkbox.Affirmation())

	text := &FieldDefinition{Type: FieldShortText}
	assert.Empty(t, text.Affirmation())
}

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		label   string
		options []string
	}{
		{
			name:    "label with options",
			payload: "Turno|Manha,Tarde,Noite",
			label:   "Turno",
			options: []string{"Manha", "Tarde", "Noite"},
		},
		{
			name:    "label only",
			payload: "Nome completo",
			label:   "Nome completo",
			options: nil,
		},
		{
			name:    "trailing separator",
			payload: "Turno|",
			label:   "Turno",
			options: nil,
		},
		{
			name:    "empty payload",
			payload: "",
			label:   "",
			options: nil,
		},
		{
			name:    "single option",
			payload: "Aceite|Li e concordo",
			label:   "Aceite",
			options: []string{"Li e concordo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, options := DecodeOptions(tt.payload)
			assert.Equal(t, tt.label, label)
			assert.Equal(t, tt.options, options)
		})
	}
}

func TestEncodeOptionsRoundTrip(t *testing.T) {
	payload := EncodeOptions("Turno", []string{"Manha", "Tarde"})
	assert.Equal(t, "Turno|Manha,Tarde", payload)

	label, options := DecodeOptions(payload)
	assert.Equal(t, "Turno", label)
	assert.Equal(t, []string{"Manha", "Tarde"}, options)

	// No options collapses to the bare label.
	assert.Equal(t, "Nome", EncodeOptions("Nome", nil))
}
