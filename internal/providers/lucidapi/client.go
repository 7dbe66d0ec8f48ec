// Package lucidapi is the HTTP client for the Lucid backend: conversation
// CRUD, audio transcription, and the reflection endpoint.
package lucidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Config controls backend client settings.
type Config struct {
	BaseURL string
	UserID  string
	// TranscribeTimeout bounds one transcription upload.
	TranscribeTimeout time.Duration
	// RequestTimeout bounds conversation and reflection calls. Zero disables
	// the bound, matching the reference behavior.
	RequestTimeout time.Duration
	// MaxAudioBytes rejects oversized uploads client-side before the request.
	MaxAudioBytes int
}

// Client is a stateless gateway to the Lucid backend. It performs no retries;
// failures are logged and returned verbatim to the caller.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TranscribeTimeout <= 0 {
		cfg.TranscribeTimeout = 30 * time.Second
	}
	return &Client{cfg: cfg, http: &http.Client{}, log: log}
}

// doJSON performs one JSON request. A nil out discards the response body.
func (c *Client) doJSON(ctx context.Context, method string, path string, body any, out any) error {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := fmt.Errorf("%s %s returned status %d", method, path, resp.StatusCode)
		c.log.Error("request rejected", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.log.Error("response decode failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeJSON(r io.Reader, out any) error {
	if err := json.NewDecoder(r).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
