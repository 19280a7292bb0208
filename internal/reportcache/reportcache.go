// Package reportcache implements the content-addressed Report cache
// collaborator of spec.md §4.1/§6.3: a 32-hex-digit hash maps to a prior
// Report. The default implementation talks to a bare HTTP cache service;
// internal/reportcache/dynamocache swaps in a DynamoDB-backed alternate.
package reportcache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gvasels/pcg-analyzer/internal/models"
)

// Cache looks up and stores Reports by content hash. Both operations are
// best-effort from the caller's perspective: a miss or store failure
// never fails the surrounding request.
type Cache interface {
	Get(ctx context.Context, hash string) (*models.Report, bool, error)
	Put(ctx context.Context, hash string, report *models.Report) error
}

// HTTPCache implements Cache against `GET/POST {baseURL}/cache/...`.
type HTTPCache struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPCache constructs an HTTPCache with a bounded-timeout client.
func NewHTTPCache(baseURL string) *HTTPCache {
	return &HTTPCache{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *HTTPCache) Get(ctx context.Context, hash string) (*models.Report, bool, error) {
	url := fmt.Sprintf("%s/cache/%s", c.BaseURL, hash)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("cache service returned %d", resp.StatusCode)
	}

	var report models.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, false, err
	}
	return &report, true, nil
}

func (c *HTTPCache) Put(ctx context.Context, hash string, report *models.Report) error {
	body, err := json.Marshal(struct {
		Hash string        `json:"hash"`
		Adv  *models.Report `json:"adv"`
	}{Hash: hash, Adv: report})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/cache", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cache service returned %d on store", resp.StatusCode)
	}
	return nil
}
