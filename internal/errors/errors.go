package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeInsufficientPoints   ErrorType = "insufficient_points"
	ErrorTypeDegenerateStroke     ErrorType = "degenerate_stroke"
	ErrorTypeInvalidCrackGeometry ErrorType = "invalid_crack_geometry"
	ErrorTypeRatingInvariant      ErrorType = "rating_invariant_violation"
	ErrorTypeInvalidState         ErrorType = "invalid_state"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeValidation           ErrorType = "validation"
	ErrorTypeInternal             ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error carrying extra detail text
func (e *AppError) WithDetails(format string, args ...interface{}) *AppError {
	cp := *e
	cp.Details = fmt.Sprintf(format, args...)
	return &cp
}

func newError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewInsufficientPointsError is returned when a perimeter is locked with too few points
func NewInsufficientPointsError(message string, cause error) *AppError {
	return newError(ErrorTypeInsufficientPoints, http.StatusUnprocessableEntity, message, cause)
}

// NewDegenerateStrokeError is returned when a traced stroke collapses to nothing
func NewDegenerateStrokeError(message string, cause error) *AppError {
	return newError(ErrorTypeDegenerateStroke, http.StatusUnprocessableEntity, message, cause)
}

// NewInvalidCrackGeometryError is returned when endpoint classes and boundary crossings disagree
func NewInvalidCrackGeometryError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidCrackGeometry, http.StatusUnprocessableEntity, message, cause)
}

// NewRatingInvariantError reports metrics the rating rules cannot place. It is a defect, not a user error.
func NewRatingInvariantError(message string, cause error) *AppError {
	return newError(ErrorTypeRatingInvariant, http.StatusInternalServerError, message, cause)
}

// NewInvalidStateError is returned for operations not permitted in the current lifecycle phase
func NewInvalidStateError(message string, cause error) *AppError {
	return newError(ErrorTypeInvalidState, http.StatusConflict, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// IsType checks if the error, or any error it wraps, is of a specific type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// TypeOf returns the error type, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
