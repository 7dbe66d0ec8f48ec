package domain

import "time"

// CaptureState models the microphone capture lifecycle.
type CaptureState string

const (
	CaptureStateIdle                 CaptureState = "idle"
	CaptureStateRequestingPermission CaptureState = "requesting_permission"
	CaptureStateRecording            CaptureState = "recording"
	CaptureStateStopping             CaptureState = "stopping"
	CaptureStateError                CaptureState = "error"
)

// TurnState models one user submission through the reflection cycle.
type TurnState string

const (
	TurnStateIdle               TurnState = "idle"
	TurnStateComposing          TurnState = "composing"
	TurnStateSubmitting         TurnState = "submitting"
	TurnStateAwaitingReflection TurnState = "awaiting_reflection"
	TurnStateClassifying        TurnState = "classifying"
	TurnStatePersistingReply    TurnState = "persisting_reply"
	TurnStateErrorFallback      TurnState = "error_fallback"
)

// Depth is a heuristic tag describing the conceptual layer of a reply.
type Depth string

const (
	DepthSurface  Depth = "surface"
	DepthPattern  Depth = "pattern"
	DepthIdentity Depth = "identity"
	DepthRoot     Depth = "root"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StateReason provides a structured reason for state transitions.
type StateReason string

const (
	ReasonStartup             StateReason = "startup"
	ReasonPermissionRequested StateReason = "permission_requested"
	ReasonRecordingStarted    StateReason = "recording_started"
	ReasonTranscribing        StateReason = "transcribing"
	ReasonTranscriptReady     StateReason = "transcript_ready"
	ReasonRecordingDiscarded  StateReason = "recording_discarded"
	ReasonCaptureFailed       StateReason = "capture_failed"
	ReasonErrorAcknowledged   StateReason = "error_acknowledged"
	ReasonSubmitAccepted      StateReason = "submit_accepted"
	ReasonConversationStarted StateReason = "conversation_started"
	ReasonAwaitingReflection  StateReason = "awaiting_reflection"
	ReasonReflectionReceived  StateReason = "reflection_received"
	ReasonReflectionFailed    StateReason = "reflection_failed"
	ReasonPersistingReply     StateReason = "persisting_reply"
	ReasonTurnComplete        StateReason = "turn_complete"
	ReasonConversationLoaded  StateReason = "conversation_loaded"
	ReasonConversationReset   StateReason = "conversation_reset"
	ReasonInputChanged        StateReason = "input_changed"
)

// ErrorCode identifies non-fatal and fatal backend errors surfaced to the UI.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeCapture       ErrorCode = "capture"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeReflection    ErrorCode = "reflection"
	ErrorCodeSync          ErrorCode = "sync"
	ErrorCodeSpeech        ErrorCode = "speech"
)

// Conversation is a remote conversation summary.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one immutable entry of a conversation transcript. Depth is a
// client-side annotation computed from assistant text; it is never persisted.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	Depth          Depth     `json:"depth,omitempty"`
}

// ConversationWithMessages is a conversation plus its ordered transcript.
type ConversationWithMessages struct {
	Conversation
	Messages []Message `json:"messages"`
}

// Status summarizes the current client runtime state for the UI.
type Status struct {
	Capture              CaptureState `json:"capture"`
	Turn                 TurnState    `json:"turn"`
	ActiveConversationID string       `json:"active_conversation_id,omitempty"`
	TurnCount            int          `json:"turn_count"`
	PatternMirror        bool         `json:"pattern_mirror"`
	SilenceMode          bool         `json:"silence_mode"`
	SpeakingMessageID    string       `json:"speaking_message_id,omitempty"`
	Message              string       `json:"message,omitempty"`
}
