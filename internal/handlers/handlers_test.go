package handlers

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/service"
)

type echoValidator struct{ v *validator.Validate }

func (ev *echoValidator) Validate(i interface{}) error { return ev.v.Struct(i) }

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &echoValidator{v: validator.New()}
	return e
}

func syntheticSamples(sr int, seconds float64) []float32 {
	n := int(seconds * float64(sr))
	y := make([]float32, n)
	for i := range y {
		t := float64(i) / float64(sr)
		y[i] = float32(0.5 * math.Sin(2*math.Pi*1.2*t))
	}
	return y
}

func doRequest(t *testing.T, h *Handlers, method, path string, body any, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := newTestEcho()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := handler(c)
	require.NoError(t, err)
	return rec
}

func TestAnalyzePCMHandlerSuccess(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{
		"sampleRate": 4000,
		"samples":    syntheticSamples(4000, 5),
		"useHsmm":    false,
	}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/analyze", body, h.AnalyzePCM)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Compute-Time"))
	for _, name := range []string{"Resample", "Features", "Hsmm", "Features-Extraction"} {
		assert.NotEmpty(t, rec.Header().Get("X-Stage-"+name), "missing X-Stage-%s header", name)
	}

	var report models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.InDelta(t, 5.0, report.DurationSec, 0.2)
}

func TestAnalyzePCMHandlerRejectsEmptyBuffer(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"sampleRate": 2000, "samples": []float32{}}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/analyze", body, h.AnalyzePCM)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
}

func TestAnalyzePCMHandlerRejectsMissingSampleRate(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"samples": syntheticSamples(2000, 1)}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/analyze", body, h.AnalyzePCM)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQualityPCMHandlerSilence(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"sampleRate": 2000, "samples": make([]float32, 8000)}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/quality", body, h.QualityPCM)

	assert.Equal(t, http.StatusOK, rec.Code)
	var q models.QualityReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.False(t, q.IsHeart)
}

func TestSegmentHSMMHandlerSuccess(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"sampleRate": 4000, "samples": syntheticSamples(4000, 6)}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/segment", body, h.SegmentHSMM)

	assert.Equal(t, http.StatusOK, rec.Code)
	var seg models.SegmentResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &seg))
	assert.Equal(t, 2000, seg.SampleRate)
}

func TestSpectralFeaturesHandlerSuccess(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"sampleRate": 4000, "samples": syntheticSamples(4000, 3)}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/features", body, h.SpectralFeatures)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyzeMediaHandlerWithoutMediaStoreFails(t *testing.T) {
	svc := service.New(nil, nil, nil)
	h := NewHandlers(svc)

	body := map[string]any{"mediaId": "abc123"}
	rec := doRequest(t, h, http.MethodPost, "/api/v1/pcg/analyze/media", body, h.AnalyzeMedia)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
