package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"go.uber.org/zap"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

var ErrNoActiveRecording = errors.New("no active recording session")

// CaptureController owns the microphone permission/recording lifecycle. At
// most one recording session exists at a time; the device is released on
// every exit path.
type CaptureController struct {
	audio  ports.AudioCapture
	events ports.EventSink
	log    *zap.Logger
	cfg    ports.AudioConfig

	mu      sync.Mutex
	state   domain.CaptureState
	session *recordingSession
	lastErr *domain.CaptureError
}

type recordingSession struct {
	cancel context.CancelFunc
	audio  ports.AudioSession

	bufMu   sync.Mutex
	buf     bytes.Buffer
	readErr error

	done chan struct{}
}

func NewCaptureController(audio ports.AudioCapture, events ports.EventSink, log *zap.Logger, cfg ports.AudioConfig) *CaptureController {
	return &CaptureController{
		audio:  audio,
		events: events,
		log:    log,
		cfg:    cfg,
		state:  domain.CaptureStateIdle,
	}
}

// Start begins a new recording session. Calling Start while a session is
// already recording is a no-op returning the current state. After an error,
// the error must be acknowledged before a new session can start.
func (c *CaptureController) Start(ctx context.Context) (domain.CaptureState, error) {
	c.mu.Lock()
	switch c.state {
	case domain.CaptureStateRecording, domain.CaptureStateRequestingPermission, domain.CaptureStateStopping:
		state := c.state
		c.mu.Unlock()
		return state, nil
	case domain.CaptureStateError:
		err := c.lastErr
		c.mu.Unlock()
		return domain.CaptureStateError, err
	}
	c.state = domain.CaptureStateRequestingPermission
	c.mu.Unlock()

	c.events.CaptureStateChanged(domain.CaptureStateRequestingPermission, domain.ReasonPermissionRequested)

	sessionCtx, cancel := context.WithCancel(ctx)
	audioSession, err := c.audio.Start(sessionCtx, c.cfg)
	if err != nil {
		cancel()
		captureErr := asCaptureError(err)
		c.log.Warn("capture start failed", zap.String("kind", string(captureErr.Kind)), zap.Error(err))

		c.mu.Lock()
		c.state = domain.CaptureStateError
		c.lastErr = captureErr
		c.mu.Unlock()

		c.events.CaptureStateChanged(domain.CaptureStateError, domain.ReasonCaptureFailed)
		c.events.ClientError(domain.ErrorCodeCapture, captureErr.Error())
		return domain.CaptureStateError, captureErr
	}

	session := &recordingSession{
		cancel: cancel,
		audio:  audioSession,
		done:   make(chan struct{}),
	}
	go session.drain()

	c.mu.Lock()
	c.session = session
	c.state = domain.CaptureStateRecording
	c.mu.Unlock()

	c.events.CaptureStateChanged(domain.CaptureStateRecording, domain.ReasonRecordingStarted)
	return domain.CaptureStateRecording, nil
}

// Stop finalizes the active session into one audio buffer and releases the
// device. It is a no-op error when no session is recording.
func (c *CaptureController) Stop(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	if c.state != domain.CaptureStateRecording || c.session == nil {
		c.mu.Unlock()
		return nil, ErrNoActiveRecording
	}
	session := c.session
	c.state = domain.CaptureStateStopping
	c.mu.Unlock()

	c.events.CaptureStateChanged(domain.CaptureStateStopping, domain.ReasonTranscribing)

	stopErr := session.audio.Stop()
	select {
	case <-session.done:
	case <-ctx.Done():
	}
	session.cancel()

	audio, readErr := session.result()

	c.mu.Lock()
	c.session = nil
	if len(audio) == 0 {
		err := firstErr(readErr, stopErr)
		if err == nil {
			err = errors.New("no audio captured")
		}
		captureErr := asCaptureError(err)
		c.state = domain.CaptureStateError
		c.lastErr = captureErr
		c.mu.Unlock()

		c.log.Warn("capture stop produced no audio", zap.Error(err))
		c.events.CaptureStateChanged(domain.CaptureStateError, domain.ReasonCaptureFailed)
		c.events.ClientError(domain.ErrorCodeCapture, captureErr.Error())
		return nil, captureErr
	}
	c.state = domain.CaptureStateIdle
	c.mu.Unlock()

	if stopErr != nil {
		c.log.Warn("capture device did not stop cleanly", zap.Error(stopErr))
	}

	c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonTranscriptReady)
	return audio, nil
}

// Abort discards the active session without producing audio. The device is
// still released.
func (c *CaptureController) Abort() error {
	c.mu.Lock()
	session := c.session
	if session == nil {
		if c.state == domain.CaptureStateError {
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		return ErrNoActiveRecording
	}
	c.session = nil
	c.state = domain.CaptureStateIdle
	c.mu.Unlock()

	session.cancel()
	_ = session.audio.Stop()
	<-session.done

	c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonRecordingDiscarded)
	return nil
}

// Acknowledge clears a capture error, returning the controller to idle.
func (c *CaptureController) Acknowledge() {
	c.mu.Lock()
	if c.state != domain.CaptureStateError {
		c.mu.Unlock()
		return
	}
	c.state = domain.CaptureStateIdle
	c.lastErr = nil
	c.mu.Unlock()

	c.events.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonErrorAcknowledged)
}

// State returns the current capture state.
func (c *CaptureController) State() domain.CaptureState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close releases any held device. Used on shutdown.
func (c *CaptureController) Close() {
	if err := c.Abort(); err != nil && !errors.Is(err, ErrNoActiveRecording) {
		c.log.Warn("capture close failed", zap.Error(err))
	}
}

func (s *recordingSession) drain() {
	defer close(s.done)

	buf := make([]byte, 4096)
	for {
		n, err := s.audio.Read(buf)
		if n > 0 {
			s.bufMu.Lock()
			s.buf.Write(buf[:n])
			s.bufMu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.bufMu.Lock()
				s.readErr = err
				s.bufMu.Unlock()
			}
			return
		}
	}
}

func (s *recordingSession) result() ([]byte, error) {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	out := make([]byte, s.buf.Len())
	copy(out, s.buf.Bytes())
	return out, s.readErr
}

func asCaptureError(err error) *domain.CaptureError {
	var captureErr *domain.CaptureError
	if errors.As(err, &captureErr) {
		return captureErr
	}
	return domain.NewCaptureError(domain.CaptureUnavailable, err)
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
