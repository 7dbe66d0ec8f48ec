package lucidapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"

	"lucid/internal/domain"
)

type transcribeResponse struct {
	Transcript string `json:"transcript"`
}

// Transcribe uploads one finished audio buffer and returns the transcript.
// The call is bounded by the configured transcription timeout and never
// retried; failures are classified as *domain.TranscribeError values.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if c.cfg.MaxAudioBytes > 0 && len(audio) > c.cfg.MaxAudioBytes {
		return "", domain.NewTranscribeError(domain.TranscribePayloadTooLarge,
			fmt.Errorf("audio buffer is %d bytes, limit is %d", len(audio), c.cfg.MaxAudioBytes))
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.TranscribeTimeout)
	defer cancel()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", domain.NewTranscribeError(domain.TranscribeGeneric, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", domain.NewTranscribeError(domain.TranscribeGeneric, err)
	}
	if err := writer.Close(); err != nil {
		return "", domain.NewTranscribeError(domain.TranscribeGeneric, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/transcribe", &body)
	if err != nil {
		return "", domain.NewTranscribeError(domain.TranscribeGeneric, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		kind := domain.TranscribeGeneric
		if errors.Is(err, context.DeadlineExceeded) {
			kind = domain.TranscribeTimeout
		}
		c.log.Error("transcription request failed", zap.String("kind", string(kind)), zap.Error(err))
		return "", domain.NewTranscribeError(kind, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusRequestEntityTooLarge:
		return "", domain.NewTranscribeError(domain.TranscribePayloadTooLarge,
			fmt.Errorf("transcription service rejected upload with status %d", resp.StatusCode))
	case resp.StatusCode >= 500:
		return "", domain.NewTranscribeError(domain.TranscribeServiceUnavailable,
			fmt.Errorf("transcription service returned status %d", resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", domain.NewTranscribeError(domain.TranscribeGeneric,
			fmt.Errorf("transcription service returned status %d", resp.StatusCode))
	}

	var out transcribeResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return "", domain.NewTranscribeError(domain.TranscribeGeneric, err)
	}
	return out.Transcript, nil
}
