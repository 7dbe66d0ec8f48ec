package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/zap"

	"lucid/internal/bootstrap"
	"lucid/internal/config"
	"lucid/internal/domain"
	"lucid/internal/usecase"
)

const (
	eventCapture       = "lucid:capture"
	eventTurn          = "lucid:turn"
	eventTranscript    = "lucid:transcript"
	eventMessage       = "lucid:message"
	eventRemap         = "lucid:remap"
	eventDepth         = "lucid:depth"
	eventSpeech        = "lucid:speech"
	eventPatternMirror = "lucid:pattern-mirror"
	eventSilence       = "lucid:silence"
	eventError         = "lucid:error"
)

// App is the Wails application root.
type App struct {
	ctx context.Context
	log *zap.Logger

	orchestrator *usecase.TurnOrchestrator
	speech       *usecase.SpeechController
	cache        *usecase.ConversationListCache
	cfg          config.Config
	bootErr      error
}

func NewApp(log *zap.Logger) *App {
	return &App{log: log}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a, a.log)
	if err != nil {
		a.bootErr = err
		a.ClientError(domain.ErrorCodeStartup, err.Error())
		return
	}

	a.cfg = services.Config
	a.orchestrator = services.Orchestrator
	a.speech = services.Speech
	a.cache = services.Cache
	a.CaptureStateChanged(domain.CaptureStateIdle, domain.ReasonStartup)
}

func (a *App) shutdown(_ context.Context) {
	if a.speech != nil {
		a.speech.Stop()
	}
	if a.orchestrator != nil {
		a.orchestrator.Close()
	}
	_ = a.log.Sync()
}

// StartRecording begins microphone capture.
func (a *App) StartRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if _, err := a.orchestrator.StartRecording(a.ctx); err != nil {
		return a.GetStatus(), err
	}
	return a.GetStatus(), nil
}

// StopRecording stops capture, transcribes the buffer, and merges the
// transcript into the pending input.
func (a *App) StopRecording() (domain.Status, error) {
	if err := a.requireReady(); err != nil {
		return domain.Status{}, err
	}
	if err := a.orchestrator.FinishRecording(a.ctx); err != nil {
		return a.GetStatus(), err
	}
	return a.GetStatus(), nil
}

// AbortRecording discards an in-progress recording.
func (a *App) AbortRecording() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if err := a.orchestrator.Capture().Abort(); err != nil {
		if errors.Is(err, usecase.ErrNoActiveRecording) {
			return nil
		}
		return err
	}
	return nil
}

// AcknowledgeCaptureError clears a surfaced capture error so recording can be
// retried.
func (a *App) AcknowledgeCaptureError() {
	if a.orchestrator == nil {
		return
	}
	a.orchestrator.Capture().Acknowledge()
}

// UpdateInput replaces the typed portion of the pending input buffer.
func (a *App) UpdateInput(text string) {
	if a.orchestrator == nil {
		return
	}
	a.orchestrator.UpdateInput(text)
}

// SubmitTurn runs one full reflection turn for the given typed text merged
// with any pending transcript.
func (a *App) SubmitTurn(text string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if text != "" {
		a.orchestrator.UpdateInput(text)
	}
	return a.orchestrator.Submit(a.ctx)
}

// ToggleSpeech starts or stops speech playback for one assistant message.
func (a *App) ToggleSpeech(text string, messageID string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.speech.Toggle(a.ctx, text, messageID)
}

// StopSpeech cancels any active speech playback.
func (a *App) StopSpeech() {
	if a.speech != nil {
		a.speech.Stop()
	}
}

// RefreshConversations reloads the conversation sidebar from the remote store.
func (a *App) RefreshConversations() ([]domain.Conversation, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.cache.Refresh(a.ctx)
}

// LoadConversation replaces the transcript with a stored conversation.
func (a *App) LoadConversation(id string) ([]domain.Message, error) {
	if err := a.requireReady(); err != nil {
		return nil, err
	}
	return a.orchestrator.LoadConversation(a.ctx, id)
}

// DeleteConversation removes a conversation remotely and locally.
func (a *App) DeleteConversation(id string) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	return a.cache.Remove(a.ctx, id)
}

// NewConversation resets to a fresh, unsaved conversation.
func (a *App) NewConversation() {
	if a.orchestrator != nil {
		a.orchestrator.Reset()
	}
}

// GetTranscript returns the visible transcript.
func (a *App) GetTranscript() []domain.Message {
	if a.orchestrator == nil {
		return nil
	}
	return a.orchestrator.Transcript()
}

// GetStatus returns the current client status.
func (a *App) GetStatus() domain.Status {
	if a.orchestrator == nil {
		if a.bootErr != nil {
			return domain.Status{
				Capture: domain.CaptureStateError,
				Turn:    domain.TurnStateIdle,
				Message: a.bootErr.Error(),
			}
		}
		return domain.Status{Capture: domain.CaptureStateIdle, Turn: domain.TurnStateIdle}
	}
	status := a.orchestrator.Status()
	status.SpeakingMessageID = a.speech.SpeakingMessageID()
	return status
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.orchestrator == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// CaptureStateChanged emits capture lifecycle updates to the frontend.
func (a *App) CaptureStateChanged(state domain.CaptureState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventCapture, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// TurnStateChanged emits turn lifecycle updates to the frontend.
func (a *App) TurnStateChanged(state domain.TurnState, reason domain.StateReason) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTurn, map[string]string{
		"state":   string(state),
		"reason":  string(reason),
		"message": stateReasonMessage(reason),
	})
}

// TranscriptReady emits freshly transcribed text.
func (a *App) TranscriptReady(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventTranscript, map[string]string{"text": text})
}

// MessageAppended emits a newly visible transcript message.
func (a *App) MessageAppended(msg domain.Message) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventMessage, msg)
}

// MessageRemapped tells the frontend a temporary id became server-assigned.
func (a *App) MessageRemapped(tempID string, serverID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventRemap, map[string]string{
		"temp_id":   tempID,
		"server_id": serverID,
	})
}

// DepthClassified emits the heuristic depth tag for an assistant message.
func (a *App) DepthClassified(messageID string, depth domain.Depth) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventDepth, map[string]string{
		"message_id": messageID,
		"depth":      string(depth),
	})
}

// SpeechStarted emits the start of speech playback.
func (a *App) SpeechStarted(messageID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSpeech, map[string]string{"message_id": messageID, "state": "started"})
}

// SpeechEnded emits the end of speech playback.
func (a *App) SpeechEnded(messageID string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSpeech, map[string]string{"message_id": messageID, "state": "ended"})
}

// PatternMirror emits the one-shot recurring-theme affordance.
func (a *App) PatternMirror() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPatternMirror, map[string]bool{"active": true})
}

// SilenceModeChanged emits silence-mode transitions.
func (a *App) SilenceModeChanged(active bool) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventSilence, map[string]bool{"active": active})
}

// ClientError emits backend errors to the UI.
func (a *App) ClientError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func stateReasonMessage(reason domain.StateReason) string {
	switch reason {
	case domain.ReasonStartup:
		return "Ready"
	case domain.ReasonPermissionRequested:
		return "Requesting microphone access"
	case domain.ReasonRecordingStarted:
		return "Recording"
	case domain.ReasonTranscribing:
		return "Recording stopped. Transcribing..."
	case domain.ReasonTranscriptReady:
		return "Transcript added to your message"
	case domain.ReasonRecordingDiscarded:
		return "Recording discarded"
	case domain.ReasonCaptureFailed:
		return "Microphone unavailable"
	case domain.ReasonErrorAcknowledged:
		return "Ready to try again"
	case domain.ReasonSubmitAccepted:
		return "Sending"
	case domain.ReasonConversationStarted:
		return "Conversation saved"
	case domain.ReasonAwaitingReflection:
		return "Reflecting..."
	case domain.ReasonReflectionReceived:
		return "Reflection received"
	case domain.ReasonReflectionFailed:
		return "Reflection unavailable"
	case domain.ReasonPersistingReply:
		return "Saving"
	case domain.ReasonTurnComplete:
		return ""
	case domain.ReasonConversationLoaded:
		return "Conversation loaded"
	case domain.ReasonConversationReset:
		return "New conversation"
	default:
		return ""
	}
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeCapture:
		return "Microphone error"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeReflection:
		return "Reflection service error"
	case domain.ErrorCodeSync:
		return "Conversation sync error"
	case domain.ErrorCodeSpeech:
		return "Speech playback error"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
