package validate

import (
	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{
		validator: validator.New(),
	}
}

// Validate returns validator.ValidationErrors so callers can surface
// field-level violations.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
