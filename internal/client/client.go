// Package client wraps the external rendering and catalog backend API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/roomstage/roomstage/pkg/models"
)

// APIError carries the backend's HTTP status and message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend api: status %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed if retried.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Client is a thin HTTP wrapper around the backend API. All heavy lifting
// (AI generation, product matching) happens on the backend; this client only
// shapes requests and decodes responses.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// New creates a backend API client.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// SubmitRender submits a full or incremental render request and returns the
// asynchronous generation job tracking it.
func (c *Client) SubmitRender(ctx context.Context, req *models.RenderRequest) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := c.do(ctx, http.MethodPost, "/v1/renders", req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobStatus fetches the current state of a generation job.
func (c *Client) JobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error) {
	var job models.GenerationJob
	if err := c.do(ctx, http.MethodGet, "/v1/renders/"+url.PathEscape(jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// JobResult fetches the rendered image for a succeeded job.
func (c *Client) JobResult(ctx context.Context, jobID string) (*models.RenderResult, error) {
	var result models.RenderResult
	if err := c.do(ctx, http.MethodGet, "/v1/renders/"+url.PathEscape(jobID)+"/result", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchProducts queries the multi-store catalog.
func (c *Client) SearchProducts(ctx context.Context, query string, limit int) ([]models.Product, error) {
	values := url.Values{}
	values.Set("q", query)
	if limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", limit))
	}
	var out struct {
		Products []models.Product `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/products?"+values.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return out.Products, nil
}

// ListCuratedLooks fetches the editor-curated looks feed.
func (c *Client) ListCuratedLooks(ctx context.Context) ([]models.CuratedLook, error) {
	var out struct {
		Looks []models.CuratedLook `json:"looks"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/looks", nil, &out); err != nil {
		return nil, err
	}
	return out.Looks, nil
}

// UploadRoomPhoto stores a room photo and returns its backend reference.
func (c *Client) UploadRoomPhoto(ctx context.Context, image []byte, mimeType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/rooms", bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", mimeType)
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	var out struct {
		Ref string `json:"ref"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return out.Ref, nil
}

// SendEvents delivers a batch of analytics events to the ingestion endpoint.
func (c *Client) SendEvents(ctx context.Context, endpoint string, events any) error {
	if endpoint == "" {
		endpoint = "/v1/events"
	}
	return c.do(ctx, http.MethodPost, endpoint, events, nil)
}
