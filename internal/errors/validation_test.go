package errors

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, *NewValidationError("test_id", "is required", nil))
	assert.Equal(t, "validation failed: test_id is required", errs.Error())

	errs = append(errs, *NewValidationErrorWithRule("reason", "must be manual or timeout", "attempt_reason", "later"))
	assert.Equal(t, "validation failed: test_id is required; reason must be manual or timeout", errs.Error())
	assert.Equal(t, "attempt_reason", errs[1].Rule)
}

func TestValidationErrors_Fields(t *testing.T) {
	errs := ValidationErrors{
		{Field: "options", Message: "first"},
		{Field: "options", Message: "second"},
		{Field: "mode", Message: "must be single or multiple"},
	}
	assert.Equal(t, map[string]string{
		"options": "first",
		"mode":    "must be single or multiple",
	}, errs.Fields())
}

func TestToValidationErrors(t *testing.T) {
	type payload struct {
		UserID   string `validate:"required"`
		Duration int    `validate:"min=1"`
		Limit    int    `validate:"max=5"`
		Email    string `validate:"omitempty,email"`
	}

	err := validator.New().Struct(payload{Duration: 0, Limit: 9, Email: "nope"})
	require.Error(t, err)

	errs := ToValidationErrors(err)
	require.Len(t, errs, 4)
	assert.Equal(t, "UserID", errs[0].Field)
	assert.Equal(t, "is required", errs[0].Message)
	assert.Equal(t, "required", errs[0].Rule)
	assert.Equal(t, "must be at least 1", errs[1].Message)
	assert.Equal(t, "must be at most 5", errs[2].Message)
	assert.Equal(t, `failed rule "email"`, errs[3].Message)
}

func TestToValidationErrors_OtherError(t *testing.T) {
	assert.Nil(t, ToValidationErrors(assert.AnError))
}
