package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/consent-management/internal"
)

// API is the surface every resource service consumes. Client is the
// real implementation; tests substitute in-memory fakes.
type API interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, body, out any) error
}

type ClientConfig struct {
	BaseURL string
	Timeout time.Duration
	// Token supplies the bearer token per request; token storage itself
	// lives outside this module.
	Token func() string
}

// Client is the single HTTP door to the consent platform backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      func() string
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      cfg.Token,
		logger:     logger,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete optionally carries a body; /remove-role is a DELETE with a
// JSON payload.
func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return internal.NewInternalError("failed to marshal request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return internal.NewInternalError("failed to build request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("api request failed", "method", method, "path", path, "error", err)
		return internal.NewNetworkError("request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return c.errorFromResponse(method, path, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.logger.Error("failed to decode api response", "method", method, "path", path, "error", err)
		return internal.NewNetworkError("failed to decode response", resp.StatusCode, err)
	}
	return nil
}

// errorPayload covers both error shapes the backend emits: a wrapped
// {"error": {"message": ...}} and a flat {"message": ...}.
type errorPayload struct {
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
	Message string `json:"message"`
}

func (c *Client) errorFromResponse(method, path string, resp *http.Response) error {
	var payload errorPayload
	message := ""
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Error != nil && payload.Error.Message != "" {
			message = payload.Error.Message
		} else if payload.Message != "" {
			message = payload.Message
		}
	}

	c.logger.Warn("api request rejected",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"message", message)

	switch resp.StatusCode {
	case http.StatusNotFound:
		if message == "" {
			message = "resource not found"
		}
		return internal.NewNotFoundError(message, internal.ErrCodeUpstreamRejected)
	case http.StatusUnauthorized:
		if message == "" {
			message = "authentication required"
		}
		return internal.NewUnauthorizedError(message, internal.ErrCodeUpstreamRejected)
	case http.StatusForbidden:
		if message == "" {
			message = "access denied"
		}
		return internal.NewForbiddenError(message, internal.ErrCodeUpstreamRejected)
	default:
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return internal.NewNetworkError(message, resp.StatusCode, nil)
	}
}

// MessageOr returns the server-provided error message when the error
// carries one, else the resource-specific fallback.
func MessageOr(err error, fallback string) string {
	if appErr, ok := internal.IsAppError(err); ok && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}
