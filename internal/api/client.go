package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-trips/internal/apperr"
	"github.com/ukydev/fleet-trips/internal/config"
	"github.com/ukydev/fleet-trips/internal/models"
)

// Client talks to the fleet REST backend. All failures leave it as
// *apperr.Error.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *logrus.Entry) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client for the configured backend.
func New(cfg config.Config, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.APIBaseURL,
		token:   cfg.APIToken,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	if c.baseURL == "" {
		c.baseURL = config.DefaultAPIBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) do(ctx context.Context, method, path string, in, out any, fallback string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperr.Unknown(fmt.Errorf("failed to marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return apperr.Unknown(fmt.Errorf("failed to build request: %w", err))
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	entry := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	resp, err := c.http.Do(req)
	if err != nil {
		entry.WithError(err).Warn("Request failed")
		return apperr.Connection(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		entry.WithError(err).Warn("Failed to read response")
		return apperr.Connection(err)
	}
	entry.WithField("status", resp.StatusCode).Debug("Request completed")

	if resp.StatusCode >= http.StatusBadRequest {
		var eb models.ErrorBody
		_ = json.Unmarshal(data, &eb)
		return apperr.FromStatus(resp.StatusCode, eb.Text(), fallback)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		entry.WithError(err).Warn("Failed to decode response")
		return apperr.Unknown(fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any, fallback string) error {
	return c.do(ctx, http.MethodGet, path, nil, out, fallback)
}

func escape(segment string) string { return url.PathEscape(segment) }

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var e *apperr.Error
	return errors.As(err, &e) && e.Kind == apperr.KindNotFound
}
