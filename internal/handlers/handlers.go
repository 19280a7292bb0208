// Package handlers implements the HTTP boundary: request binding and
// validation, dispatch into internal/service, per-request timing
// headers, and the panic/error recovery that converts every failure
// into a structured {"error": ...} response per spec.md §7.
package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/gvasels/pcg-analyzer/internal/analysis"
	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/service"
	"github.com/gvasels/pcg-analyzer/internal/validation"
)

// Handlers holds the service layer the HTTP boundary dispatches into.
type Handlers struct {
	services *service.Services
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{services: services}
}

// RegisterRoutes registers the PCG analyzer routes with the Echo instance.
func (h *Handlers) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	pcg := api.Group("/pcg")

	pcg.POST("/analyze", h.AnalyzePCM)
	pcg.POST("/analyze/media", h.AnalyzeMedia)
	pcg.POST("/segment", h.SegmentHSMM)
	pcg.POST("/quality", h.QualityPCM)
	pcg.POST("/quality/media", h.QualityMedia)
	pcg.POST("/features", h.SpectralFeatures)
}

// AnalyzePCM handles POST /api/v1/pcg/analyze.
func (h *Handlers) AnalyzePCM(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.AnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	start := time.Now()
	report, stages, analyzeErr := h.services.AnalyzePCM(c.Request().Context(), req.SampleRate, req.Samples, req.UseHSMM, req.Hash)
	c.Response().Header().Set("X-Compute-Time", time.Since(start).String())
	setStageHeaders(c, stages)
	if analyzeErr != nil {
		return handleError(c, analyzeErr)
	}
	return success(c, report)
}

// AnalyzeMedia handles POST /api/v1/pcg/analyze/media.
func (h *Handlers) AnalyzeMedia(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.MediaAnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	start := time.Now()
	report, stages, analyzeErr := h.services.AnalyzeMedia(c.Request().Context(), req.MediaID, req.Auth, req.UseHSMM, req.Hash)
	c.Response().Header().Set("X-Compute-Time", time.Since(start).String())
	setStageHeaders(c, stages)
	if analyzeErr != nil {
		return handleError(c, analyzeErr)
	}
	return success(c, report)
}

// SegmentHSMM handles POST /api/v1/pcg/segment.
func (h *Handlers) SegmentHSMM(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.AnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	start := time.Now()
	result, segErr := h.services.SegmentHSMM(req.SampleRate, req.Samples)
	c.Response().Header().Set("X-Compute-Time", time.Since(start).String())
	if segErr != nil {
		return handleError(c, segErr)
	}
	return success(c, result)
}

// QualityPCM handles POST /api/v1/pcg/quality.
func (h *Handlers) QualityPCM(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.AnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	result, qualityErr := h.services.QualityPCM(req.SampleRate, req.Samples)
	if qualityErr != nil {
		return handleError(c, qualityErr)
	}
	return success(c, result)
}

// QualityMedia handles POST /api/v1/pcg/quality/media.
func (h *Handlers) QualityMedia(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.MediaAnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	result, qualityErr := h.services.QualityMedia(c.Request().Context(), req.MediaID, req.Auth)
	if qualityErr != nil {
		return handleError(c, qualityErr)
	}
	return success(c, result)
}

// SpectralFeatures handles POST /api/v1/pcg/features, the supplemented
// whole-buffer diagnostic bundle.
func (h *Handlers) SpectralFeatures(c echo.Context) (err error) {
	defer recoverToError(c, &err)
	requestID := ensureRequestID(c)
	h.services.Log.With("requestID", requestID).Debug("handling request")

	var req validation.AnalyzeRequest
	if bindErr := bindAndValidate(c, &req); bindErr != nil {
		return handleError(c, bindErr)
	}

	result, featErr := h.services.SpectralFeatures(req.SampleRate, req.Samples)
	if featErr != nil {
		return handleError(c, featErr)
	}
	return success(c, result)
}

// ensureRequestID returns the request ID the RequestID middleware set on
// the response, generating and setting a uuid fallback when that
// middleware is absent (the CLI path has no Echo middleware chain at all).
func ensureRequestID(c echo.Context) string {
	id := c.Response().Header().Get(echo.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
		c.Response().Header().Set(echo.HeaderXRequestID, id)
	}
	return id
}

// setStageHeaders emits one X-Stage-<Name> header per pipeline stage
// timing, e.g. X-Stage-Resample, X-Stage-Features, X-Stage-Hsmm,
// X-Stage-Features-Extraction, mirroring X-Compute-Time for the total.
func setStageHeaders(c echo.Context, stages analysis.StageTimings) {
	for name, d := range stages {
		c.Response().Header().Set("X-Stage-"+headerCase(name), d.String())
	}
}

// headerCase turns a hyphenated stage name like "features-extraction"
// into the header-conventional "Features-Extraction".
func headerCase(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		parts[i] = string(r)
	}
	return strings.Join(parts, "-")
}

// recoverToError converts a panic inside a handler into the same
// structured {"error": ...} shape handleError produces, so no exception
// propagates across the HTTP boundary (spec.md §7).
func recoverToError(c echo.Context, err *error) {
	if r := recover(); r != nil {
		var wrapped error
		switch v := r.(type) {
		case error:
			wrapped = v
		default:
			wrapped = models.ErrInternalServer
		}
		*err = handleError(c, wrapped)
	}
}

// handleError maps an error to its structured JSON response, using the
// error's own status code when it is an *models.APIError.
func handleError(c echo.Context, err error) error {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return c.JSON(apiErr.StatusCode, models.NewErrorResponse(apiErr))
	}
	return c.JSON(http.StatusInternalServerError, models.NewErrorResponse(models.ErrInternalServer))
}

// bindAndValidate binds the request body and validates it.
func bindAndValidate(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return models.ErrBadRequest
	}
	if err := c.Validate(v); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// success returns a JSON success response.
func success(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}
