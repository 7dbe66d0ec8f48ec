package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

var (
	ErrTurnInFlight    = errors.New("a turn is already in flight")
	ErrSilenceMode     = errors.New("silence mode is active")
	ErrRecordingActive = errors.New("a recording session is active")
	ErrEmptyInput      = errors.New("input is empty")
)

// FallbackReply is appended locally when the reflection call fails, so the
// conversation never stalls. It is never persisted.
const FallbackReply = "Take a breath. What feels most true for you right now?"

// TurnConfig controls orchestrator behavior.
type TurnConfig struct {
	// SessionID tags reflection calls. Generated when empty.
	SessionID string
	// SilenceWindow is the input-lock cool-down after a reflective question.
	SilenceWindow time.Duration
	// PatternMirrorTurns is the turn count that arms the one-shot pattern
	// mirror.
	PatternMirrorTurns int
}

// TurnOrchestrator drives one full reflection turn: capture, transcription,
// submission, reflection, depth classification, and persistence. It
// exclusively owns the pending input buffer and the active conversation
// pointer.
type TurnOrchestrator struct {
	capture     *CaptureController
	transcriber ports.Transcriber
	reflector   ports.Reflector
	store       ports.ConversationStore
	events      ports.EventSink
	log         *zap.Logger
	cfg         TurnConfig

	now   func() time.Time
	newID func() string

	mu                 sync.Mutex
	state              domain.TurnState
	activeID           string
	messages           []domain.Message
	pendingInput       string
	turnCount          int
	patternMirrorShown bool
	silenceUntil       time.Time
	silenceTimer       *time.Timer
}

func NewTurnOrchestrator(
	capture *CaptureController,
	transcriber ports.Transcriber,
	reflector ports.Reflector,
	store ports.ConversationStore,
	events ports.EventSink,
	log *zap.Logger,
	cfg TurnConfig,
) *TurnOrchestrator {
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.SilenceWindow <= 0 {
		cfg.SilenceWindow = 8 * time.Second
	}
	if cfg.PatternMirrorTurns <= 0 {
		cfg.PatternMirrorTurns = 4
	}
	return &TurnOrchestrator{
		capture:     capture,
		transcriber: transcriber,
		reflector:   reflector,
		store:       store,
		events:      events,
		log:         log,
		cfg:         cfg,
		state:       domain.TurnStateIdle,
		now:         time.Now,
		newID:       func() string { return "local-" + uuid.NewString() },
	}
}

// Capture returns the capture controller owned by this orchestrator.
func (o *TurnOrchestrator) Capture() *CaptureController { return o.capture }

// StartRecording begins microphone capture for the pending turn.
func (o *TurnOrchestrator) StartRecording(ctx context.Context) (domain.CaptureState, error) {
	return o.capture.Start(ctx)
}

// FinishRecording stops capture, transcribes the finished buffer, and merges
// the transcript into the pending input. A transcription failure leaves the
// pending input unchanged.
func (o *TurnOrchestrator) FinishRecording(ctx context.Context) error {
	audio, err := o.capture.Stop(ctx)
	if err != nil {
		return err
	}

	transcript, err := o.transcriber.Transcribe(ctx, audio, "recording.wav")
	if err != nil {
		o.log.Warn("transcription failed", zap.Error(err))
		o.events.ClientError(domain.ErrorCodeTranscription, err.Error())
		return err
	}

	o.AppendTranscript(transcript)
	return nil
}

// UpdateInput replaces the typed portion of the pending input buffer.
func (o *TurnOrchestrator) UpdateInput(text string) {
	o.mu.Lock()
	if o.state != domain.TurnStateIdle && o.state != domain.TurnStateComposing {
		o.mu.Unlock()
		return
	}
	o.pendingInput = text
	changed := o.setComposingLocked()
	o.mu.Unlock()

	if changed != "" {
		o.events.TurnStateChanged(domain.TurnState(changed), domain.ReasonInputChanged)
	}
}

// AppendTranscript merges transcribed text into the pending input buffer.
func (o *TurnOrchestrator) AppendTranscript(transcript string) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return
	}

	o.mu.Lock()
	if o.pendingInput == "" {
		o.pendingInput = transcript
	} else {
		o.pendingInput = strings.TrimSpace(o.pendingInput) + " " + transcript
	}
	changed := o.setComposingLocked()
	o.mu.Unlock()

	o.events.TranscriptReady(transcript)
	if changed != "" {
		o.events.TurnStateChanged(domain.TurnState(changed), domain.ReasonTranscriptReady)
	}
}

// PendingInput returns the current pending input buffer.
func (o *TurnOrchestrator) PendingInput() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingInput
}

// Submit runs one full turn for the pending input buffer. It rejects
// re-entrant submissions while a turn is in flight, while silence mode is
// active, and while a recording session is in progress.
func (o *TurnOrchestrator) Submit(ctx context.Context) error {
	captureState := o.capture.State()

	o.mu.Lock()
	if o.state != domain.TurnStateIdle && o.state != domain.TurnStateComposing {
		o.mu.Unlock()
		return ErrTurnInFlight
	}
	if o.now().Before(o.silenceUntil) {
		o.mu.Unlock()
		return ErrSilenceMode
	}
	if captureState == domain.CaptureStateRecording || captureState == domain.CaptureStateStopping {
		o.mu.Unlock()
		return ErrRecordingActive
	}

	text := strings.TrimSpace(o.pendingInput)
	if text == "" {
		o.mu.Unlock()
		return ErrEmptyInput
	}

	tempID := o.newID()
	userMsg := domain.Message{
		ID:             tempID,
		ConversationID: o.activeID,
		Role:           domain.RoleUser,
		Content:        text,
		Timestamp:      o.now(),
	}
	o.messages = append(o.messages, userMsg)
	o.turnCount++
	o.pendingInput = ""
	o.state = domain.TurnStateSubmitting
	o.mu.Unlock()

	o.events.MessageAppended(userMsg)
	o.events.TurnStateChanged(domain.TurnStateSubmitting, domain.ReasonSubmitAccepted)

	o.persistUserMessage(ctx, tempID, text)
	reply := o.requestReflection(ctx, text)
	o.finishTurn(reply)
	return nil
}

// persistUserMessage stores the user message remotely, creating the
// conversation on first message. Sync failures are logged and surfaced but do
// not roll back the optimistic local message.
func (o *TurnOrchestrator) persistUserMessage(ctx context.Context, tempID string, text string) {
	o.mu.Lock()
	activeID := o.activeID
	o.mu.Unlock()

	if activeID == "" {
		conversation, err := o.store.StartConversation(ctx, text)
		if err != nil {
			o.log.Error("start conversation failed", zap.Error(err))
			o.events.ClientError(domain.ErrorCodeSync, err.Error())
			return
		}

		serverMsg := firstUserMessage(conversation.Messages)
		o.mu.Lock()
		o.activeID = conversation.ID
		if serverMsg != nil {
			o.remapLocked(tempID, *serverMsg)
		}
		o.mu.Unlock()

		if serverMsg != nil {
			o.events.MessageRemapped(tempID, serverMsg.ID)
		}
		o.events.TurnStateChanged(domain.TurnStateSubmitting, domain.ReasonConversationStarted)
		return
	}

	serverMsg, err := o.store.AddMessage(ctx, activeID, domain.RoleUser, text)
	if err != nil {
		o.log.Error("add user message failed", zap.String("conversation_id", activeID), zap.Error(err))
		o.events.ClientError(domain.ErrorCodeSync, err.Error())
		return
	}

	o.mu.Lock()
	o.remapLocked(tempID, *serverMsg)
	o.mu.Unlock()
	o.events.MessageRemapped(tempID, serverMsg.ID)
}

// requestReflection calls the reflection endpoint and returns the assistant
// message to append. On failure the fixed fallback reply is used and nothing
// is persisted for it.
func (o *TurnOrchestrator) requestReflection(ctx context.Context, text string) domain.Message {
	o.setState(domain.TurnStateAwaitingReflection, domain.ReasonAwaitingReflection)

	replyText, err := o.reflector.Reflect(ctx, text, o.cfg.SessionID)
	if err != nil {
		o.log.Error("reflection call failed", zap.Error(err))
		o.events.ClientError(domain.ErrorCodeReflection, err.Error())
		o.setState(domain.TurnStateErrorFallback, domain.ReasonReflectionFailed)

		fallback := o.appendAssistant(FallbackReply, "")
		return fallback
	}

	o.setState(domain.TurnStateClassifying, domain.ReasonReflectionReceived)
	depth := ClassifyDepth(replyText)
	reply := o.appendAssistant(replyText, depth)
	o.events.DepthClassified(reply.ID, depth)

	o.setState(domain.TurnStatePersistingReply, domain.ReasonPersistingReply)
	o.persistReply(ctx, reply)
	return reply
}

func (o *TurnOrchestrator) persistReply(ctx context.Context, reply domain.Message) {
	o.mu.Lock()
	activeID := o.activeID
	o.mu.Unlock()
	if activeID == "" {
		// Conversation creation failed earlier this turn; nothing to attach to.
		o.log.Warn("skipping reply persistence without active conversation")
		return
	}

	serverMsg, err := o.store.AddMessage(ctx, activeID, domain.RoleAssistant, reply.Content)
	if err != nil {
		o.log.Error("add assistant message failed", zap.String("conversation_id", activeID), zap.Error(err))
		o.events.ClientError(domain.ErrorCodeSync, err.Error())
		return
	}

	o.mu.Lock()
	o.remapLocked(reply.ID, *serverMsg)
	o.mu.Unlock()
	o.events.MessageRemapped(reply.ID, serverMsg.ID)
}

// finishTurn applies side-gating for the produced assistant message and
// returns the orchestrator to idle.
func (o *TurnOrchestrator) finishTurn(reply domain.Message) {
	o.mu.Lock()
	firePatternMirror := o.turnCount >= o.cfg.PatternMirrorTurns && !o.patternMirrorShown
	if firePatternMirror {
		o.patternMirrorShown = true
	}
	enterSilence := strings.Contains(reply.Content, "?")
	if enterSilence {
		o.silenceUntil = o.now().Add(o.cfg.SilenceWindow)
		if o.silenceTimer != nil {
			o.silenceTimer.Stop()
		}
		o.silenceTimer = time.AfterFunc(o.cfg.SilenceWindow, o.clearSilence)
	}
	o.state = domain.TurnStateIdle
	o.mu.Unlock()

	if firePatternMirror {
		o.events.PatternMirror()
	}
	if enterSilence {
		o.events.SilenceModeChanged(true)
	}
	o.events.TurnStateChanged(domain.TurnStateIdle, domain.ReasonTurnComplete)
}

func (o *TurnOrchestrator) clearSilence() {
	o.mu.Lock()
	if o.now().Before(o.silenceUntil) {
		o.mu.Unlock()
		return
	}
	o.silenceUntil = time.Time{}
	o.mu.Unlock()

	o.events.SilenceModeChanged(false)
}

// LoadConversation replaces the transcript with a stored conversation.
func (o *TurnOrchestrator) LoadConversation(ctx context.Context, id string) ([]domain.Message, error) {
	o.mu.Lock()
	if o.state != domain.TurnStateIdle && o.state != domain.TurnStateComposing {
		o.mu.Unlock()
		return nil, ErrTurnInFlight
	}
	o.mu.Unlock()

	conversation, err := o.store.GetConversation(ctx, id)
	if err != nil {
		o.log.Error("get conversation failed", zap.String("conversation_id", id), zap.Error(err))
		o.events.ClientError(domain.ErrorCodeSync, err.Error())
		return nil, err
	}

	o.mu.Lock()
	o.activeID = conversation.ID
	o.messages = append([]domain.Message(nil), conversation.Messages...)
	o.pendingInput = ""
	o.state = domain.TurnStateIdle
	messages := o.transcriptLocked()
	o.mu.Unlock()

	o.events.TurnStateChanged(domain.TurnStateIdle, domain.ReasonConversationLoaded)
	return messages, nil
}

// Reset clears the transcript and active conversation, returning the
// orchestrator to a fresh, unsaved state. The session-scoped turn counter and
// pattern-mirror flag are kept.
func (o *TurnOrchestrator) Reset() {
	o.mu.Lock()
	o.activeID = ""
	o.messages = nil
	o.pendingInput = ""
	if o.state == domain.TurnStateComposing {
		o.state = domain.TurnStateIdle
	}
	o.mu.Unlock()

	o.events.TurnStateChanged(domain.TurnStateIdle, domain.ReasonConversationReset)
}

// Transcript returns a snapshot of the visible transcript.
func (o *TurnOrchestrator) Transcript() []domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transcriptLocked()
}

// ActiveConversationID returns the active conversation id, empty when the
// conversation is unsaved.
func (o *TurnOrchestrator) ActiveConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

// Status reports the orchestrator's contribution to the client status.
func (o *TurnOrchestrator) Status() domain.Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return domain.Status{
		Capture:              o.capture.State(),
		Turn:                 o.state,
		ActiveConversationID: o.activeID,
		TurnCount:            o.turnCount,
		PatternMirror:        o.patternMirrorShown,
		SilenceMode:          o.now().Before(o.silenceUntil),
	}
}

// Close stops timers and releases the capture device. Used on shutdown.
func (o *TurnOrchestrator) Close() {
	o.mu.Lock()
	if o.silenceTimer != nil {
		o.silenceTimer.Stop()
		o.silenceTimer = nil
	}
	o.mu.Unlock()

	o.capture.Close()
}

func (o *TurnOrchestrator) setState(state domain.TurnState, reason domain.StateReason) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
	o.events.TurnStateChanged(state, reason)
}

// setComposingLocked flips idle to composing based on the pending input and
// returns the new state name when it changed.
func (o *TurnOrchestrator) setComposingLocked() string {
	if o.state == domain.TurnStateIdle && strings.TrimSpace(o.pendingInput) != "" {
		o.state = domain.TurnStateComposing
		return string(domain.TurnStateComposing)
	}
	if o.state == domain.TurnStateComposing && strings.TrimSpace(o.pendingInput) == "" {
		o.state = domain.TurnStateIdle
		return string(domain.TurnStateIdle)
	}
	return ""
}

func (o *TurnOrchestrator) appendAssistant(text string, depth domain.Depth) domain.Message {
	o.mu.Lock()
	msg := domain.Message{
		ID:             o.newID(),
		ConversationID: o.activeID,
		Role:           domain.RoleAssistant,
		Content:        text,
		Timestamp:      o.now(),
		Depth:          depth,
	}
	o.messages = append(o.messages, msg)
	o.mu.Unlock()

	o.events.MessageAppended(msg)
	return msg
}

// remapLocked replaces a temporary local id with the server-assigned message
// in place, preserving list position. The swap happens under the transcript
// mutex so no reader observes both ids.
func (o *TurnOrchestrator) remapLocked(tempID string, server domain.Message) {
	for i := range o.messages {
		if o.messages[i].ID != tempID {
			continue
		}
		depth := o.messages[i].Depth
		o.messages[i] = server
		o.messages[i].Depth = depth
		return
	}
}

func (o *TurnOrchestrator) transcriptLocked() []domain.Message {
	out := make([]domain.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

func firstUserMessage(messages []domain.Message) *domain.Message {
	for i := range messages {
		if messages[i].Role == domain.RoleUser {
			return &messages[i]
		}
	}
	return nil
}
