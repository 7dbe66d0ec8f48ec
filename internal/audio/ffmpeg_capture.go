// Package audio captures microphone audio through an ffmpeg subprocess,
// producing a WAV stream suitable for the transcription upload.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

// FFmpegCapture implements ports.AudioCapture using ffmpeg.
type FFmpegCapture struct {
	command string
}

func NewFFmpegCapture(command string) *FFmpegCapture {
	if command == "" {
		command = "ffmpeg"
	}
	return &FFmpegCapture{command: command}
}

func (c *FFmpegCapture) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	if _, err := exec.LookPath(c.command); err != nil {
		return nil, domain.NewCaptureError(domain.CaptureUnsupported,
			fmt.Errorf("capture command %q is not available: %w", c.command, err))
	}

	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-acodec", "pcm_s16le",
		"-f", "wav",
		"-",
	}

	cmd := exec.CommandContext(ctx, c.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, domain.NewCaptureError(domain.CaptureUnavailable,
			fmt.Errorf("failed to create capture stdout pipe: %w", err))
	}
	if err := cmd.Start(); err != nil {
		return nil, domain.NewCaptureError(domain.CaptureUnavailable,
			fmt.Errorf("failed to start capture process: %w", err))
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	// An immediate exit means the device could not be opened at all.
	select {
	case err := <-waitErr:
		detail := strings.TrimSpace(stderr.String())
		if err == nil {
			err = errors.New("capture process exited before recording started")
		}
		return nil, classifyStartFailure(err, detail)
	case <-time.After(250 * time.Millisecond):
	}

	return &captureSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		waitErr: waitErr,
	}, nil
}

// classifyStartFailure maps device-open failures onto the capture error
// taxonomy using the recorder's stderr output.
func classifyStartFailure(err error, detail string) *domain.CaptureError {
	wrapped := err
	if detail != "" {
		wrapped = fmt.Errorf("%w: %s", err, detail)
	}

	lowered := strings.ToLower(detail)
	switch {
	case strings.Contains(lowered, "permission denied"), strings.Contains(lowered, "access denied"):
		return domain.NewCaptureError(domain.CapturePermissionDenied, wrapped)
	case strings.Contains(lowered, "no such"),
		strings.Contains(lowered, "not found"),
		strings.Contains(lowered, "cannot open"),
		strings.Contains(lowered, "device"):
		return domain.NewCaptureError(domain.CaptureNoDevice, wrapped)
	default:
		return domain.NewCaptureError(domain.CaptureUnavailable, wrapped)
	}
}

type captureSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	waitErr <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *captureSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *captureSession) Close() error {
	return s.Stop()
}

// Stop releases the capture device: interrupt first so ffmpeg can finalize
// the WAV stream, kill if it does not exit in time.
func (s *captureSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			if s.process != nil {
				_ = s.process.Kill()
			}
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

// normalizeStopErr drops exit errors: an interrupted recorder reports a
// non-zero status even on a clean stop.
func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
