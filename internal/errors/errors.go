package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// WithDetails returns a copy of e carrying details. Predefined errors are
// shared, so they are never modified in place.
func (e *APIError) WithDetails(details interface{}) *APIError {
	c := *e
	c.Details = details
	return &c
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes shared by handlers and the problem mapper.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodeDatasetNotReady    = "DATASET_NOT_READY"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeWorkbookUnreadable = "WORKBOOK_UNREADABLE"
	CodeSchemaMismatch     = "SCHEMA_MISMATCH"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeExportFailed       = "EXPORT_FAILED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Predefined errors.
var (
	ErrSessionNotFound   = New(http.StatusNotFound, CodeSessionNotFound, "Session not found or expired")
	ErrDatasetNotReady   = New(http.StatusConflict, CodeDatasetNotReady, "Both the claims and the outstanding claims workbooks must be uploaded first")
	ErrPayloadTooLarge   = New(http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "Uploaded file exceeds the maximum allowed size")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, CodeRateLimitExceeded, "Rate limit exceeded")

	ErrServiceUnavailable = New(http.StatusServiceUnavailable, CodeServiceUnavailable, "Service temporarily unavailable")
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationError{
		Field:   field,
		Message: message,
	})
}

// WorkbookError reports an upload that could not be read as a workbook.
func WorkbookError(source string, err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeWorkbookUnreadable,
		fmt.Sprintf("The %s workbook could not be read", source), err.Error())
}

// SchemaDetails identifies the pipeline stage and column of a schema error.
type SchemaDetails struct {
	Stage  string `json:"stage"`
	Column string `json:"column"`
	Reason string `json:"reason"`
}

// SchemaError reports a workbook that lacks a required column.
func SchemaError(stage, column string, err error) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeSchemaMismatch,
		fmt.Sprintf("Required column %q is missing", column),
		SchemaDetails{Stage: stage, Column: column, Reason: err.Error()})
}

// ExportError reports a failure while writing a download.
func ExportError(format string, err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed,
		fmt.Sprintf("Failed to export %s", format), err.Error())
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}
