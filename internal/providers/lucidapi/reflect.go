package lucidapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"lucid/internal/domain"
)

type reflectRequest struct {
	UserInput string `json:"user_input"`
	SessionID string `json:"session_id"`
}

type reflectResponse struct {
	Response string `json:"response"`
}

// Reflect submits one user turn to the reflection endpoint and returns the
// assistant reply text. Non-success statuses are *domain.ReflectionError
// values.
func (c *Client) Reflect(ctx context.Context, userInput string, sessionID string) (string, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	payload, err := json.Marshal(reflectRequest{UserInput: userInput, SessionID: sessionID})
	if err != nil {
		return "", fmt.Errorf("failed to encode reflection request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/reflect", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create reflection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("reflection request failed", zap.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Error("reflection request rejected", zap.Int("status", resp.StatusCode))
		return "", &domain.ReflectionError{StatusCode: resp.StatusCode}
	}

	var out reflectResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}
