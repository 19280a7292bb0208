// Package mediastore fetches the raw WAV bytes for a media_id from the
// "remote blob store" collaborator. The default implementation is a bare
// HTTP GET against the media service; internal/mediastore/s3store swaps
// in an S3 GetObject call for deployments where that collaborator is a
// bucket instead of an HTTP endpoint.
package mediastore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gvasels/pcg-analyzer/internal/models"
)

// Store fetches the WAV bytes backing a media_id.
type Store interface {
	Fetch(ctx context.Context, mediaID, authToken string) ([]byte, error)
}

// HTTPStore implements Store against `GET {baseURL}/file/{mediaID}` with
// an optional bearer token, per the media-store collaborator contract.
type HTTPStore struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPStore constructs an HTTPStore with a bounded-timeout client.
func NewHTTPStore(baseURL string) *HTTPStore {
	return &HTTPStore{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *HTTPStore) Fetch(ctx context.Context, mediaID, authToken string) ([]byte, error) {
	url := fmt.Sprintf("%s/file/%s", s.BaseURL, mediaID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMediaFetch, err)
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMediaFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: media service returned %d", models.ErrMediaFetch, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMediaFetch, err)
	}
	return data, nil
}
