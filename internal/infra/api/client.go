// File: internal/infra/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"car-deal-negotiator/internal/config"
	derror "car-deal-negotiator/internal/error"
	"car-deal-negotiator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const maxErrorBodyBytes = 64 << 10

// Client talks JSON to the deal-negotiation backend. It is stateless apart
// from configuration and the cookie jar, so one instance is safely shared
// across concurrent calls.
type Client struct {
	baseURL  string
	mockMode bool
	httpc    *http.Client
	log      *zerolog.Logger
}

func NewClient(cfg config.APIConfig, logger *zerolog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("api base url empty")
	}
	// Cookie jar carries the session credentials on every call.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		mockMode: cfg.MockMode,
		httpc:    &http.Client{Timeout: cfg.Timeout, Jar: jar},
		log:      logger,
	}, nil
}

// doJSON performs one logical request: marshal body, dispatch (rewriting the
// path first when mock mode is on), and either decode the 2xx response into
// out or return a taxonomized error. op is the metrics/log label.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	if c.mockMode {
		path = RewriteMockPath(path)
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		metrics.IncNetworkFailure(op)
		if derror.Taxonomized(err) {
			return err
		}
		c.log.Warn().Str("op", op).Err(err).Msg("transport failure")
		return &derror.NetworkError{Message: method + " " + path, Cause: err}
	}
	defer resp.Body.Close()
	metrics.ObserveAPIRequest(op, method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.errorFromResponse(op, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse mines the error body for a message and builds the typed
// error. Falls back to the HTTP status text when the body is not JSON.
func (c *Client) errorFromResponse(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	var details map[string]any
	message := http.StatusText(resp.StatusCode)
	if len(raw) > 0 && json.Unmarshal(raw, &details) == nil {
		if m := errorMessage(details); m != "" {
			message = m
		}
	} else {
		details = nil
	}

	err := derror.FromStatus(resp.StatusCode, message, details)
	c.log.Debug().Str("op", op).Int("status", resp.StatusCode).Str("message", message).
		Msg("api error response")
	return err
}

// errorMessage extracts the server's message from the known error body
// shapes: {detail: string}, {detail: [{msg}]}, {message: string}.
func errorMessage(details map[string]any) string {
	switch d := details["detail"].(type) {
	case string:
		return d
	case []any:
		var msgs []string
		for _, it := range d {
			if obj, ok := it.(map[string]any); ok {
				if msg, ok := obj["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	if m, ok := details["message"].(string); ok {
		return m
	}
	return ""
}
