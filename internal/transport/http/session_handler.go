package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/revaldyhazza/analisadolproperty/internal/errors"
	"github.com/revaldyhazza/analisadolproperty/internal/middleware"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// multipartOverhead is the allowance for multipart framing on top of the
// workbook size limit.
const multipartOverhead = 1 << 20

// formField is the multipart field holding the uploaded workbook.
const formField = "file"

// SessionHandler serves the analysis session endpoints.
type SessionHandler struct {
	service      AnalysisService
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
	logger       *slog.Logger
}

// NewSessionHandler creates a session handler. maxUpload bounds a single
// workbook in bytes.
func NewSessionHandler(service AnalysisService, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler,
	maxUpload int64, logger *slog.Logger) *SessionHandler {
	if validator == nil {
		validator = middleware.NewValidator()
	}
	return &SessionHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("handler", "session")),
	}
}

// Routes returns the session routes, mounted under /api/sessions.
func (h *SessionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/", h.CreateSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Delete("/", h.DeleteSession)
		r.Post("/uploads/{source}", h.Upload)
		r.Get("/options", h.Options)
		r.Post("/query", h.Query)
		r.Post("/export", h.Export)
		r.Get("/export", h.Export)
	})
	return r
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	resp := h.service.CreateSession(r.Context())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, api.Success(resp))
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Upload handles POST /api/sessions/{sessionID}/uploads/{source}
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	source := domain.Source(chi.URLParam(r, "source"))
	if !source.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("source", "must be klaim or os"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	file, header, err := r.FormFile(formField)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation(formField, "a workbook file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload+1))
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if int64(len(data)) > h.maxUpload {
		h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
		return
	}

	resp, err := h.service.Upload(r.Context(), id, source, header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, api.Success(resp))
}

// Options handles GET /api/sessions/{sessionID}/options
func (h *SessionHandler) Options(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Options(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, api.Success(resp))
}

// Query handles POST /api/sessions/{sessionID}/query
func (h *SessionHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req api.QueryRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp, err := h.service.Query(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}
	render.JSON(w, r, api.Success(resp))
}

// Export handles POST and GET /api/sessions/{sessionID}/export. GET reads
// the filters from the query string so the browser can download directly.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if r.Method == http.MethodGet {
		var err error
		if req, err = exportFromQuery(r); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		if err := h.validator.Struct(&req); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	} else if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	exp, err := h.service.Export(r.Context(), chi.URLParam(r, "sessionID"), req)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err))
		return
	}

	// Render fully before any header goes out so a failure is still a problem
	// response rather than a truncated download.
	var buf bytes.Buffer
	if err := exp.Write(&buf); err != nil {
		format := strings.TrimPrefix(filepath.Ext(exp.Filename), ".")
		h.errorHandler.HandleError(w, r, apierrors.ExportError(format, err))
		return
	}

	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	w.Header().Set("X-Row-Count", strconv.Itoa(exp.Rows))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.WarnContext(r.Context(), "export download interrupted",
			slog.String("file", exp.Filename),
			slog.String("error", err.Error()))
	}
}

// exportFromQuery reads an export request from URL parameters. Ranges may
// repeat or be comma separated.
func exportFromQuery(r *http.Request) (api.ExportRequest, error) {
	q := r.URL.Query()
	req := api.ExportRequest{
		QueryRequest: api.QueryRequest{
			DOLStart: q.Get("dol_start"),
			DOLEnd:   q.Get("dol_end"),
		},
		Format: q.Get("format"),
	}
	if req.Format == "" {
		req.Format = api.FormatXLSX
	}

	for _, v := range q["ranges"] {
		for _, label := range strings.Split(v, ",") {
			if label = strings.TrimSpace(label); label != "" {
				req.Ranges = append(req.Ranges, label)
			}
		}
	}

	for _, p := range []struct {
		name string
		dst  **int
	}{
		{"month_min", &req.MonthMin},
		{"month_max", &req.MonthMax},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, apierrors.ErrValidation(p.name, "must be an integer")
		}
		*p.dst = &n
	}

	if raw := q.Get("bom"); raw != "" {
		bom, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apierrors.ErrValidation("bom", "must be a boolean")
		}
		req.BOM = bom
	}
	return req, nil
}
