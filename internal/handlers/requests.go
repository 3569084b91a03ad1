package handlers

import (
	"github.com/go-playground/validator/v10"
)

// CustomValidator wraps the go-playground/validator library to implement Echo's Validator interface.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// NavigateRequest is the DTO for following a footer link.
type NavigateRequest struct {
	Flow string `param:"flow" validate:"required,oneof=login signup forgot-password"`
}

// BlurRequest is the DTO for a field losing focus. The field values travel
// alongside it and are read per field name.
type BlurRequest struct {
	Field string `form:"field" validate:"required,oneof=email password confirmPassword"`
}
