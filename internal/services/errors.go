package services

import (
	"errors"
	"fmt"

	apperrors "github.com/bgitu-quiz/quiz-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// Test specific errors
	ErrTestNotFound        = errors.New("test not found")
	ErrInvalidPasscode     = errors.New("invalid passcode")
	ErrPasscodeNotRequired = errors.New("passcode is not required for this test")

	// Import specific errors
	ErrImportUnsupportedFormat = errors.New("unsupported file format")
	ErrImportEmptyFile         = errors.New("file has no data rows")
	ErrImportMissingColumn     = errors.New("missing required column")
	ErrImportNothingImported   = errors.New("no valid question rows")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Err     error                  `json:"-"`
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

func (bre *BusinessRuleError) Unwrap() error {
	return bre.Err
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// NewBusinessRuleError wraps a sentinel with request specific context
func NewBusinessRuleError(rule error, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Err:     rule,
		Rule:    rule.Error(),
		Message: message,
		Context: context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrTestNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidPasscode) ||
		errors.Is(err, ErrPasscodeNotRequired)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsBadRequest covers malformed uploads and requests that cannot be processed as sent
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest) ||
		errors.Is(err, ErrImportUnsupportedFormat) ||
		errors.Is(err, ErrImportEmptyFile) ||
		errors.Is(err, ErrImportMissingColumn) ||
		errors.Is(err, ErrImportNothingImported)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}
