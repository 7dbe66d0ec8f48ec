package lucidapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lucid/internal/domain"
)

func TestTranscribeUploadsMultipartFile(t *testing.T) {
	t.Parallel()

	var gotField string
	var gotFilename string
	var gotAudio []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/transcribe", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		gotField = "file"
		gotFilename = header.Filename
		gotAudio, err = io.ReadAll(file)
		require.NoError(t, err)

		_, _ = w.Write([]byte(`{"transcript":"hello world"}`))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	transcript, err := client.Transcribe(context.Background(), []byte("RIFFdata"), "recording.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello world", transcript)
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "recording.wav", gotFilename)
	assert.Equal(t, []byte("RIFFdata"), gotAudio)
}

func TestTranscribeOversizedBufferRejectedLocally(t *testing.T) {
	t.Parallel()

	requested := false
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		requested = true
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, MaxAudioBytes: 4}, zap.NewNop())
	_, err := client.Transcribe(context.Background(), []byte("too big"), "recording.wav")

	var transcribeErr *domain.TranscribeError
	require.ErrorAs(t, err, &transcribeErr)
	assert.Equal(t, domain.TranscribePayloadTooLarge, transcribeErr.Kind)
	assert.False(t, requested, "oversized buffer must not reach the network")
}

func TestTranscribeClassifiesStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		want   domain.TranscribeErrorKind
	}{
		{"payload too large", http.StatusRequestEntityTooLarge, domain.TranscribePayloadTooLarge},
		{"service unavailable", http.StatusBadGateway, domain.TranscribeServiceUnavailable},
		{"generic rejection", http.StatusBadRequest, domain.TranscribeGeneric},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			client := newTestClient(server.URL)
			_, err := client.Transcribe(context.Background(), []byte("audio"), "recording.wav")

			var transcribeErr *domain.TranscribeError
			require.ErrorAs(t, err, &transcribeErr)
			assert.Equal(t, tc.want, transcribeErr.Kind)
		})
	}
}

func TestTranscribeTimeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{BaseURL: server.URL, TranscribeTimeout: 50 * time.Millisecond}, zap.NewNop())
	_, err := client.Transcribe(context.Background(), []byte("audio"), "recording.wav")

	var transcribeErr *domain.TranscribeError
	require.ErrorAs(t, err, &transcribeErr)
	assert.Equal(t, domain.TranscribeTimeout, transcribeErr.Kind)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestTranscribeDecodeFailureIsGeneric(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(server.Close)

	client := newTestClient(server.URL)
	_, err := client.Transcribe(context.Background(), []byte("audio"), "recording.wav")

	var transcribeErr *domain.TranscribeError
	require.ErrorAs(t, err, &transcribeErr)
	assert.Equal(t, domain.TranscribeGeneric, transcribeErr.Kind)
}
