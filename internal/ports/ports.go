package ports

import (
	"context"
	"io"

	"lucid/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture session. The reader yields encoded audio
// until the device is stopped or fails.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture creates microphone capture sessions. Start errors are
// *domain.CaptureError values.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// Transcriber uploads one finished audio buffer and returns transcript text.
// Failures are *domain.TranscribeError values; the caller decides whether to
// retry.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Reflector performs one remote reflection call.
type Reflector interface {
	Reflect(ctx context.Context, userInput string, sessionID string) (string, error)
}

// ConversationStore is a stateless gateway to the remote conversation store.
// Operations perform no retries and surface network/HTTP errors verbatim.
type ConversationStore interface {
	ListConversations(ctx context.Context) ([]domain.Conversation, error)
	GetConversation(ctx context.Context, id string) (*domain.ConversationWithMessages, error)
	CreateConversation(ctx context.Context, title string) (*domain.Conversation, error)
	StartConversation(ctx context.Context, firstMessage string) (*domain.ConversationWithMessages, error)
	AddMessage(ctx context.Context, conversationID string, role domain.Role, content string) (*domain.Message, error)
	DeleteConversation(ctx context.Context, id string) error
}

// SpeechHandle is one active utterance.
type SpeechHandle interface {
	// Done reports playback completion, with a non-nil error on playback
	// failure. Implementations send the result once and then close the
	// channel; stopping an utterance also completes it.
	Done() <-chan error
	Stop() error
}

// SpeechSynthesizer starts speech playback for one text.
type SpeechSynthesizer interface {
	Speak(ctx context.Context, text string) (SpeechHandle, error)
}

// EventSink emits backend state/events to the UI.
type EventSink interface {
	CaptureStateChanged(state domain.CaptureState, reason domain.StateReason)
	TurnStateChanged(state domain.TurnState, reason domain.StateReason)
	TranscriptReady(text string)
	MessageAppended(msg domain.Message)
	MessageRemapped(tempID string, serverID string)
	DepthClassified(messageID string, depth domain.Depth)
	SpeechStarted(messageID string)
	SpeechEnded(messageID string)
	PatternMirror()
	SilenceModeChanged(active bool)
	ClientError(code domain.ErrorCode, detail string)
}
