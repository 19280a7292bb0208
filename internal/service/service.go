// Package service wires the Analyzer core to its I/O-boundary
// collaborators (media fetch, content-addressed report cache) and
// implements the request-scoped orchestration around it: cache lookup
// before compute, best-effort cache write after.
package service

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gvasels/pcg-analyzer/internal/analysis"
	"github.com/gvasels/pcg-analyzer/internal/mediastore"
	"github.com/gvasels/pcg-analyzer/internal/models"
	"github.com/gvasels/pcg-analyzer/internal/numeric"
	"github.com/gvasels/pcg-analyzer/internal/reportcache"
	"github.com/gvasels/pcg-analyzer/internal/wav"
)

// Services bundles the analyzer core with its collaborators.
type Services struct {
	Analyzer *analysis.Analyzer
	Media    mediastore.Store
	Cache    reportcache.Cache
	Log      *log.Logger
}

// New constructs a Services. media and cache may be nil, in which case
// the *_media operations and caching are disabled respectively.
func New(media mediastore.Store, cache reportcache.Cache, logger *log.Logger) *Services {
	if logger == nil {
		logger = log.Default()
	}
	return &Services{
		Analyzer: analysis.NewAnalyzer(),
		Media:    media,
		Cache:    cache,
		Log:      logger,
	}
}

// AnalyzePCM runs the full pipeline, consulting the report cache first
// when a content hash is supplied and writing back best-effort after. The
// returned StageTimings is empty on a cache hit, since no stage actually ran.
func (s *Services) AnalyzePCM(ctx context.Context, sampleRate int, samples []float32, useHSMM bool, hash string) (*models.Report, analysis.StageTimings, error) {
	stageLog := s.Log.With("stage", "analyze_pcm")

	if hash != "" && s.Cache != nil {
		if cached, ok, err := s.Cache.Get(ctx, hash); err != nil {
			stageLog.Warn("cache lookup failed", "err", err)
		} else if ok {
			stageLog.Debug("cache hit", "hash", hash)
			return cached, analysis.StageTimings{}, nil
		}
	}

	report, stages, err := s.Analyzer.AnalyzePCM(sampleRate, samples, useHSMM)
	if err != nil {
		return nil, stages, err
	}

	if hash != "" && s.Cache != nil {
		if err := s.Cache.Put(ctx, hash, report); err != nil {
			stageLog.Warn("cache store failed", "hash", hash, "err", err)
		}
	}
	return report, stages, nil
}

// AnalyzeMedia fetches WAV bytes for mediaID from the media collaborator,
// decodes them, and delegates to AnalyzePCM. hash, when empty, is derived
// from the decoded buffer resampled to the analysis rate, so media-sourced
// requests still benefit from the cache.
func (s *Services) AnalyzeMedia(ctx context.Context, mediaID, authToken string, useHSMM bool, hash string) (*models.Report, analysis.StageTimings, error) {
	if s.Media == nil {
		return nil, nil, models.ErrMediaFetch
	}
	raw, err := s.Media.Fetch(ctx, mediaID, authToken)
	if err != nil {
		s.Log.With("stage", "analyze_media").Error("media fetch failed", "mediaID", mediaID, "err", err)
		return nil, nil, err
	}
	samples, sr, err := wav.Decode(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrUnsupportedWAVDType, err)
	}
	if hash == "" {
		resampled, sr2 := numeric.Resample(samples, sr, numeric.TargetSampleRate)
		hash = numeric.HashBuffer(sr2, resampled)
	}
	return s.AnalyzePCM(ctx, sr, samples, useHSMM, hash)
}

// SegmentHSMM runs only the segmenter, bypassing the report cache (its
// output isn't the cached artifact).
func (s *Services) SegmentHSMM(sampleRate int, samples []float32) (*models.SegmentResult, error) {
	return s.Analyzer.SegmentHSMM(sampleRate, samples)
}

// QualityPCM runs the quality gate.
func (s *Services) QualityPCM(sampleRate int, samples []float32) (*models.QualityReport, error) {
	return s.Analyzer.QualityPCM(sampleRate, samples)
}

// QualityMedia fetches WAV bytes for mediaID and runs the quality gate.
func (s *Services) QualityMedia(ctx context.Context, mediaID, authToken string) (*models.QualityReport, error) {
	if s.Media == nil {
		return nil, models.ErrMediaFetch
	}
	raw, err := s.Media.Fetch(ctx, mediaID, authToken)
	if err != nil {
		s.Log.With("stage", "quality_media").Error("media fetch failed", "mediaID", mediaID, "err", err)
		return nil, err
	}
	samples, sr, err := wav.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnsupportedWAVDType, err)
	}
	return s.QualityPCM(sr, samples)
}

// SpectralFeatures runs the supplemented whole-buffer spectral diagnostic
// bundle.
func (s *Services) SpectralFeatures(sampleRate int, samples []float32) (*models.SpectralFeatureReport, error) {
	return s.Analyzer.SpectralFeatures(sampleRate, samples)
}
