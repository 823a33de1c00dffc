// Package validator centralizes request validation: struct tags via
// go-playground/validator plus the custom domain tags.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/portal-editais/edital-service/internal/models"
)

type Validator struct {
	structValidator *validator.Validate
}

// New creates the shared validator instance with all custom tags registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)
	return &Validator{structValidator: structValidator}
}

// Validate checks a request struct against its validation tags.
func (v *Validator) Validate(s interface{}) error {
	return v.structValidator.Struct(s)
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("field_type", validateFieldType)
	validate.RegisterValidation("log_action", validateLogAction)

	// Report json names in error messages rather than Go field names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateFieldType(fl validator.FieldLevel) bool {
	validTypes := []models.FieldType{
		models.FieldShortText,
		models.FieldLongText,
		models.FieldRadio,
		models.FieldSelect,
		models.FieldCheckbox,
		models.FieldDate,
		models.FieldFile,
	}

	value := fl.Field().String()
	for _, validType := range validTypes {
		if string(validType) == value {
			return true
		}
	}
	return false
}

func validateLogAction(fl validator.FieldLevel) bool {
	validActions := []models.LogAction{
		models.ActionEnroll,
		models.ActionSelfCancel,
		models.ActionAdminCancel,
	}

	value := fl.Field().String()
	for _, validAction := range validActions {
		if string(validAction) == value {
			return true
		}
	}
	return false
}
