// Package apperrors defines the application error taxonomy and its HTTP
// rendering. Services return *AppError values; handlers pass them to
// Respond which maps them onto a standardized JSON error body.
package apperrors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cinelog/cinelog/internal/logger"
)

// AppError represents a structured error with HTTP context.
type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Cause      error                  `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes for the four taxonomy entries plus internal failures.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
)

// NewNotFound reports that a referenced entity does not exist.
func NewNotFound(resource string, id interface{}) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
		Context:    map[string]interface{}{"resource": resource, "id": id},
	}
}

// NewValidation reports malformed or out-of-range input.
func NewValidation(message string, field string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Context:    map[string]interface{}{"field": field},
	}
}

// NewPermissionDenied reports an operation attempted by a caller who does
// not own the target or lacks the required privilege.
func NewPermissionDenied(message string) *AppError {
	return &AppError{
		Code:       CodePermissionDenied,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict reports a uniqueness-constraint violation that is not
// swallowed as an idempotent no-op.
func NewConflict(resource string, message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Context:    map[string]interface{}{"resource": resource},
	}
}

// NewInternal wraps an unexpected failure, typically a database error.
func NewInternal(message string, cause error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// IsNotFound reports whether err is a NotFound application error.
func IsNotFound(err error) bool { return hasCode(err, CodeNotFound) }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return hasCode(err, CodeValidation) }

// IsPermissionDenied reports whether err is a PermissionDenied error.
func IsPermissionDenied(err error) bool { return hasCode(err, CodePermissionDenied) }

// IsConflict reports whether err is a Conflict error.
func IsConflict(err error) bool { return hasCode(err, CodeConflict) }

func hasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// Respond sends err as a standardized JSON response. Non-AppError values
// are rendered as internal errors without leaking the cause.
func Respond(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = NewInternal("unexpected error", err)
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	response := gin.H{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if len(appErr.Context) > 0 {
		response["details"] = appErr.Context
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"status", status,
			"code", appErr.Code,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"error", appErr.Error())
	}

	c.JSON(status, response)
}
