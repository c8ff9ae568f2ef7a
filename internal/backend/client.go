// Package backend is the HTTP client for the level-chain API: the project
// and dataset catalogs, submission and dbt conversion.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Dallionking/levelchain/internal/chain"
)

// DefaultBaseURL is used when no api.baseURL is configured.
const DefaultBaseURL = "http://localhost:5000/api"

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// Endpoint paths, relative to the base URL.
const (
	PathProjectIDs = "/project_ids"
	PathDatasets   = "/datasets"
	PathSubmit     = "/submit"
	PathConvert    = "/convert-to-dbt"
)

// Fallback messages when a non-2xx response carries none.
const (
	submitFallback  = "Failed to submit data"
	convertFallback = "Failed to convert to dbt"
)

// Client talks to the backend over REST.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// New returns a client for baseURL. Empty values fall back to the defaults.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ProjectIDs calls GET /project_ids.
func (c *Client) ProjectIDs(ctx context.Context) ([]string, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, PathProjectIDs, nil, &out, "Failed to load projects"); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("%s: %w: %s", PathProjectIDs, ErrBadStatus, firstNonEmpty(out.Error, out.Message, out.Status))
	}
	return out.ProjectIDs, nil
}

// Datasets calls GET /datasets.
func (c *Client) Datasets(ctx context.Context) ([]string, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, PathDatasets, nil, &out, "Failed to load datasets"); err != nil {
		return nil, err
	}
	if out.Status != "success" {
		return nil, fmt.Errorf("%s: %w: %s", PathDatasets, ErrBadStatus, firstNonEmpty(out.Error, out.Message, out.Status))
	}
	return out.Datasets, nil
}

// Submit calls POST /submit. The response body is not needed beyond the status.
func (c *Client) Submit(ctx context.Context, p SubmitPayload) error {
	return c.do(ctx, http.MethodPost, PathSubmit, p, nil, submitFallback)
}

// Convert calls POST /convert-to-dbt and re-keys the comparisons by level
// index. Keys that are not levelN are dropped.
func (c *Client) Convert(ctx context.Context, req ConvertRequest) (map[int]Conversion, error) {
	var out convertResponse
	if err := c.do(ctx, http.MethodPost, PathConvert, req, &out, convertFallback); err != nil {
		return nil, err
	}
	res := make(map[int]Conversion, len(out.Comparisons))
	for k, v := range out.Comparisons {
		i, ok := chain.ParseKey(k)
		if !ok {
			c.logger.Debug("ignoring comparison key", "key", k)
			continue
		}
		res[i] = v
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, fallback string) error {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", path, err)
	}
	c.logger.Debug("backend request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Endpoint: path, StatusCode: resp.StatusCode, Message: fallback}
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Message != "" {
			apiErr.Message = e.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
