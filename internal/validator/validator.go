package validator

import (
	"reflect"
	"strings"

	"github.com/SAP-F-2025/assessment-delivery/internal/models"
	"github.com/go-playground/validator/v10"
)

// Reason values accepted on submit. Mirrors engine.Reason without importing it.
const (
	reasonManual  = "manual"
	reasonTimeout = "timeout"
)

// Validator wraps go-playground/validator with the delivery-specific tags.
type Validator struct {
	structValidator *validator.Validate
}

func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// Validate checks struct tags and returns ValidationErrors on failure.
func (v *Validator) Validate(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

// ValidateQuestion checks the correct-option invariant on top of struct tags.
func (v *Validator) ValidateQuestion(q *models.Question) error {
	if err := v.Validate(q); err != nil {
		return err
	}
	if err := q.Validate(); err != nil {
		return ValidationErrors{*NewValidationErrorWithRule("options", err.Error(), "correct_options", nil)}
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("selection_mode", validateSelectionMode)
	validate.RegisterValidation("attempt_reason", validateAttemptReason)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateSelectionMode(fl validator.FieldLevel) bool {
	switch models.SelectionMode(fl.Field().String()) {
	case models.ModeSingle, models.ModeMultiple:
		return true
	}
	return false
}

func validateAttemptReason(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case reasonManual, reasonTimeout:
		return true
	}
	return false
}
