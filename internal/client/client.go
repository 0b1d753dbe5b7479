// Package client talks to the delivery API over HTTP and implements
// engine.Backend, so a Machine can run against a remote service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SAP-F-2025/assessment-delivery/internal/engine"
	"github.com/SAP-F-2025/assessment-delivery/internal/models"
)

const (
	apiPrefix      = "/api/v1"
	userIDHeader   = "X-User-ID"
	defaultTimeout = 15 * time.Second
)

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     string
	token      string
	logger     *slog.Logger
}

var _ engine.Backend = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserID identifies the caller with the X-User-ID header. Only honoured
// by servers running without token verification.
func WithUserID(userID string) Option {
	return func(c *Client) { c.userID = userID }
}

func WithBearerToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ===== ATTEMPTS =====

func (c *Client) StartAttempt(ctx context.Context, req engine.StartAttemptRequest) (*engine.StartAttemptResponse, error) {
	var resp engine.StartAttemptResponse
	if err := c.do(ctx, http.MethodPost, "/attempts/start", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SaveAnswer(ctx context.Context, req engine.SaveAnswerRequest) error {
	path := fmt.Sprintf("/attempts/%d/answers", req.AttemptID)
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) SubmitAttempt(ctx context.Context, req engine.SubmitAttemptRequest) error {
	path := fmt.Sprintf("/attempts/%d/submit", req.AttemptID)
	return c.do(ctx, http.MethodPost, path, req, nil)
}

func (c *Client) GetAttemptByID(ctx context.Context, attemptID uint) (*models.TestAttempt, error) {
	var attempt models.TestAttempt
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/attempts/%d", attemptID), nil, &attempt); err != nil {
		return nil, err
	}
	return &attempt, nil
}

// ===== CATALOG =====

func (c *Client) GetAccessibleTests(ctx context.Context, userID string) ([]models.Test, error) {
	var tests []models.Test
	path := "/users/" + url.PathEscape(userID) + "/tests"
	if err := c.do(ctx, http.MethodGet, path, nil, &tests); err != nil {
		return nil, err
	}
	return tests, nil
}

func (c *Client) GetAccessibleBatteries(ctx context.Context, userID string) ([]models.Battery, error) {
	var batteries []models.Battery
	path := "/users/" + url.PathEscape(userID) + "/batteries"
	if err := c.do(ctx, http.MethodGet, path, nil, &batteries); err != nil {
		return nil, err
	}
	return batteries, nil
}

func (c *Client) GetTest(ctx context.Context, testID uint) (*models.Test, error) {
	var test models.Test
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tests/%d", testID), nil, &test); err != nil {
		return nil, err
	}
	return &test, nil
}

func (c *Client) GetBattery(ctx context.Context, batteryID uint) (*models.Battery, error) {
	var battery models.Battery
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/batteries/%d", batteryID), nil, &battery); err != nil {
		return nil, err
	}
	return &battery, nil
}

// ===== TRANSPORT =====

// do sends body as JSON and decodes the envelope's data into out when out
// is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set(userIDHeader, c.userID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("API call",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration", time.Since(start))

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	if resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Code: env.Code}
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
