package http

import (
	"errors"
	"net/http"

	"github.com/revaldyhazza/analisadolproperty/internal/dataprocessing"
	apierrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	"github.com/revaldyhazza/analisadolproperty/internal/services"
)

// toAPIError maps service and pipeline errors onto API errors. Anything
// unrecognised is returned unchanged and rendered as an internal error.
func toAPIError(err error) error {
	var (
		apiErr    *apierrors.APIError
		schemaErr *dataprocessing.SchemaError
		loadErr   *dataprocessing.LoadError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, services.ErrSessionNotFound):
		return apierrors.ErrSessionNotFound
	case errors.Is(err, services.ErrDatasetNotReady):
		if errors.As(err, &schemaErr) {
			return apierrors.NewWithDetails(http.StatusConflict, apierrors.CodeDatasetNotReady,
				"The last dataset build failed; upload corrected workbooks",
				apierrors.SchemaDetails{Stage: schemaErr.Stage, Column: schemaErr.Column, Reason: schemaErr.Reason})
		}
		return apierrors.ErrDatasetNotReady
	case errors.Is(err, services.ErrUploadTooLarge):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, services.ErrUnsupportedFormat):
		return apierrors.New(http.StatusUnsupportedMediaType, apierrors.CodeInvalidRequest, err.Error())
	case errors.Is(err, services.ErrInvalidSource):
		return apierrors.ErrValidation("source", err.Error())
	case errors.Is(err, services.ErrEmptyUpload):
		return apierrors.ErrValidation("file", err.Error())
	case errors.Is(err, services.ErrInvalidQuery):
		return apierrors.InvalidRequestWithError(err)
	case errors.As(err, &schemaErr):
		return apierrors.SchemaError(schemaErr.Stage, schemaErr.Column, schemaErr)
	case errors.As(err, &loadErr):
		return apierrors.WorkbookError(loadErr.Source, loadErr)
	}
	return err
}
