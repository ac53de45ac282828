package chartdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rebeliceyang/lazychart/internal/models"
	"github.com/rs/zerolog"
)

// DataPath is the chart data endpoint relative to the backend URL
const DataPath = "/api/v1/chart/data"

// Fetcher runs chart data requests. The data panel only depends on this.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Result, error)
}

// Result is a successful fetch with its bookkeeping
type Result struct {
	RequestID string
	Queries   []models.QueryResult
	Duration  time.Duration
}

// Client talks to the chart data endpoint over HTTP
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithToken sets the bearer token sent with every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the client's logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch posts req and decodes the result list
func (c *Client) Fetch(ctx context.Context, req Request) (*Result, error) {
	requestID := req.ID
	if requestID == "" {
		requestID = uuid.New().String()
	}
	start := time.Now()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chart data request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+DataPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chart data request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("result_type", req.ResultType).
		Str("datasource", req.FormData.Datasource()).
		Logger()
	logger.Debug().Msg("fetching chart data")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.Warn().Err(err).Msg("chart data request failed")
		return nil, fmt.Errorf("chart data request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart data response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		ce := parseClientError(resp.StatusCode, payload)
		logger.Warn().Int("status", resp.StatusCode).Str("error", Normalize(ce)).Msg("chart data request rejected")
		return nil, ce
	}

	var decoded Response
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode chart data response: %w", err)
	}

	res := &Result{
		RequestID: requestID,
		Queries:   decoded.Result,
		Duration:  time.Since(start),
	}
	logger.Debug().
		Int("result_sets", len(res.Queries)).
		Dur("duration", res.Duration).
		Msg("chart data fetched")
	return res, nil
}
