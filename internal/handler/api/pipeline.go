package api

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"StockPulse/internal/domain/models"
	xhttp "StockPulse/pkg/http"
	xlogger "StockPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

type Ingester interface {
	Handle(ctx context.Context, ev models.ObjectCreated) (models.IngestSummary, error)
}

type Analyzer interface {
	Handle(ctx context.Context, detail models.IngestCompleted) (models.AnalyzeSummary, error)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type IngestRequest struct {
	Bucket string `json:"bucket" validate:"required"`
	Key    string `json:"key" validate:"required"`
}

type AnalyzeRequest struct {
	Bucket       string `json:"bucket" validate:"required"`
	Key          string `json:"key" validate:"required"`
	ValidCount   int    `json:"valid_count" validate:"gte=0"`
	InvalidCount int    `json:"invalid_count" validate:"gte=0"`
}

// PipelineHandler exposes manual triggers for both stages.
type PipelineHandler struct {
	logger  *xlogger.Logger
	ingest  Ingester
	analyze Analyzer
	checks  map[string]HealthCheck
}

func NewPipelineHandler(logger *xlogger.Logger, ingest Ingester, analyze Analyzer, checks map[string]HealthCheck) *PipelineHandler {
	return &PipelineHandler{logger: logger, ingest: ingest, analyze: analyze, checks: checks}
}

func (h *PipelineHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	g := e.Group("/api", mw...)
	g.POST("/ingest", h.Ingest)
	g.POST("/analyze", h.Analyze)
	e.GET("/healthz", h.Health)
}

func (h *PipelineHandler) Ingest(c echo.Context) error {
	req := &IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.ingest.Handle(c.Request().Context(), models.ObjectCreated{Bucket: req.Bucket, Key: req.Key})
	if err != nil {
		h.logger.Error("ingest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PipelineHandler) Analyze(c echo.Context) error {
	req := &AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.analyze.Handle(c.Request().Context(), models.IngestCompleted{
		Bucket:       models.BucketRef{Name: req.Bucket},
		Key:          req.Key,
		ValidCount:   req.ValidCount,
		InvalidCount: req.InvalidCount,
		RawCount:     req.ValidCount + req.InvalidCount,
	})
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, toAppError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Health runs every check with a shared deadline and reports 503 if any fails.
func (h *PipelineHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := map[string]string{}
	code := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	return xhttp.DataResponse(c, code, status)
}

func toAppError(err error) *xhttp.AppError {
	switch {
	case errors.Is(err, models.ErrObjectNotFound):
		return xhttp.NotFoundError("object not found").WithError(err)
	case errors.Is(err, models.ErrEnrichmentExhausted):
		return xhttp.BadGatewayError("enrichment failed").WithError(err)
	case errors.Is(err, models.ErrStorage):
		return xhttp.UnavailableError("storage unavailable").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
