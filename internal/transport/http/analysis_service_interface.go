package http

import (
	"context"

	"github.com/revaldyhazza/analisadolproperty/internal/services"
	api "github.com/revaldyhazza/analisadolproperty/pkg/contracts/api/v1"
	"github.com/revaldyhazza/analisadolproperty/pkg/contracts/domain"
)

// AnalysisService is the session API the handlers depend on.
type AnalysisService interface {
	CreateSession(ctx context.Context) api.SessionResponse
	DeleteSession(ctx context.Context, id string) error
	HasSession(id string) bool
	Upload(ctx context.Context, id string, source domain.Source, filename string, data []byte) (*api.UploadResponse, error)
	Options(ctx context.Context, id string) (*api.OptionsResponse, error)
	Query(ctx context.Context, id string, req api.QueryRequest) (*api.QueryResponse, error)
	Export(ctx context.Context, id string, req api.ExportRequest) (*services.Export, error)
}

var _ AnalysisService = (*services.AnalysisService)(nil)
