package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gvasels/pcg-analyzer/internal/models"
)

type fakeMediaStore struct {
	data []byte
	err  error
}

func (f *fakeMediaStore) Fetch(ctx context.Context, mediaID, authToken string) ([]byte, error) {
	return f.data, f.err
}

type fakeCache struct {
	get func(ctx context.Context, hash string) (*models.Report, bool, error)
	put func(ctx context.Context, hash string, report *models.Report) error
}

func (f *fakeCache) Get(ctx context.Context, hash string) (*models.Report, bool, error) {
	if f.get == nil {
		return nil, false, nil
	}
	return f.get(ctx, hash)
}

func (f *fakeCache) Put(ctx context.Context, hash string, report *models.Report) error {
	if f.put == nil {
		return nil
	}
	return f.put(ctx, hash, report)
}

func TestAnalyzeMediaWrapsMalformedWAVAsUnsupportedDType(t *testing.T) {
	svc := New(&fakeMediaStore{data: []byte("not a wav file at all")}, nil, nil)

	_, _, err := svc.AnalyzeMedia(context.Background(), "media-1", "", false, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedWAVDType))
	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, models.ErrUnsupportedWAVDType.StatusCode, apiErr.StatusCode)
}

func TestQualityMediaWrapsMalformedWAVAsUnsupportedDType(t *testing.T) {
	svc := New(&fakeMediaStore{data: []byte("not a wav file at all")}, nil, nil)

	_, err := svc.QualityMedia(context.Background(), "media-1", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedWAVDType))
}

func TestAnalyzeMediaWithoutMediaStoreFails(t *testing.T) {
	svc := New(nil, nil, nil)

	_, _, err := svc.AnalyzeMedia(context.Background(), "media-1", "", false, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrMediaFetch))
}

func TestAnalyzePCMReturnsCachedReportOnHit(t *testing.T) {
	cached := &models.Report{DurationSec: 99}
	cache := &fakeCache{
		get: func(ctx context.Context, hash string) (*models.Report, bool, error) {
			return cached, true, nil
		},
	}
	svc := New(nil, cache, nil)

	report, stages, err := svc.AnalyzePCM(context.Background(), 2000, make([]float32, 4000), false, "0123456789abcdef0123456789abcdef")

	require.NoError(t, err)
	assert.Same(t, cached, report)
	assert.Empty(t, stages)
}

func TestAnalyzePCMStoresResultOnCacheMiss(t *testing.T) {
	var stored *models.Report
	cache := &fakeCache{
		put: func(ctx context.Context, hash string, report *models.Report) error {
			stored = report
			return nil
		},
	}
	svc := New(nil, cache, nil)

	report, stages, err := svc.AnalyzePCM(context.Background(), 2000, make([]float32, 8000), false, "0123456789abcdef0123456789abcdef")

	require.NoError(t, err)
	assert.Same(t, report, stored)
	assert.NotEmpty(t, stages)
}
