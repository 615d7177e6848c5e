package services

import "errors"

// Analysis service errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("session not found or expired")
	ErrDatasetNotReady = errors.New("dataset not ready")

	// Upload errors
	ErrInvalidSource     = errors.New("invalid source: must be klaim or os")
	ErrUploadTooLarge    = errors.New("upload exceeds the maximum allowed size")
	ErrUnsupportedFormat = errors.New("unsupported file format: upload an .xlsx workbook")
	ErrEmptyUpload       = errors.New("upload is empty")

	// Query errors
	ErrInvalidQuery = errors.New("invalid query")
)
