package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

type fakeAudioCapture struct {
	mu       sync.Mutex
	sessions []ports.AudioSession
	err      error
	calls    int
}

func (f *fakeAudioCapture) Start(_ context.Context, _ ports.AudioConfig) (ports.AudioSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.sessions) == 0 {
		return nil, errors.New("no audio session configured")
	}
	session := f.sessions[0]
	f.sessions = f.sessions[1:]
	return session, nil
}

type fakeAudioSession struct {
	mu        sync.Mutex
	chunks    [][]byte
	index     int
	stopCalls int
	stopErr   error
}

func (f *fakeAudioSession) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index >= len(f.chunks) {
		return 0, io.EOF
	}
	n := copy(p, f.chunks[f.index])
	f.index++
	return n, nil
}

func (f *fakeAudioSession) Close() error { return nil }

func (f *fakeAudioSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return f.stopErr
}

func (f *fakeAudioSession) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeReflector struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   []string
	blockCh chan struct{}
}

func (f *fakeReflector) Reflect(_ context.Context, userInput string, _ string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, userInput)
	block := f.blockCh
	reply, err := f.reply, f.err
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

type addCall struct {
	conversationID string
	role           domain.Role
	content        string
}

type fakeStore struct {
	mu sync.Mutex

	listResult []domain.Conversation
	listErr    error

	getResult *domain.ConversationWithMessages
	getErr    error

	startResult *domain.ConversationWithMessages
	startErr    error
	startCalls  int

	addErr   error
	addCalls []addCall
	addSeq   int

	deleteErr error
	deleted   []string
}

func (f *fakeStore) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeStore) GetConversation(_ context.Context, _ string) (*domain.ConversationWithMessages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getResult, nil
}

func (f *fakeStore) CreateConversation(_ context.Context, title string) (*domain.Conversation, error) {
	return &domain.Conversation{ID: "created", Title: title}, nil
}

func (f *fakeStore) StartConversation(_ context.Context, _ string) (*domain.ConversationWithMessages, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startResult, nil
}

func (f *fakeStore) AddMessage(_ context.Context, conversationID string, role domain.Role, content string) (*domain.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls = append(f.addCalls, addCall{conversationID: conversationID, role: role, content: content})
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.addSeq++
	return &domain.Message{
		ID:             fmt.Sprintf("srv-%d", f.addSeq),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}, nil
}

func (f *fakeStore) DeleteConversation(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) snapshotAdds() []addCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]addCall, len(f.addCalls))
	copy(out, f.addCalls)
	return out
}

type fakeSpeechHandle struct {
	mu        sync.Mutex
	done      chan error
	stopCalls int
	completed bool
}

func newFakeSpeechHandle() *fakeSpeechHandle {
	return &fakeSpeechHandle{done: make(chan error, 1)}
}

func (f *fakeSpeechHandle) Done() <-chan error { return f.done }

func (f *fakeSpeechHandle) Stop() error {
	f.mu.Lock()
	f.stopCalls++
	f.mu.Unlock()
	f.complete(nil)
	return nil
}

func (f *fakeSpeechHandle) complete(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completed {
		return
	}
	f.completed = true
	f.done <- err
	close(f.done)
}

func (f *fakeSpeechHandle) stops() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopCalls
}

type fakeSynthesizer struct {
	mu      sync.Mutex
	handles []*fakeSpeechHandle
	err     error
}

func (f *fakeSynthesizer) Speak(_ context.Context, _ string) (ports.SpeechHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(f.handles) == 0 {
		return nil, errors.New("no speech handle configured")
	}
	handle := f.handles[0]
	f.handles = f.handles[1:]
	return handle, nil
}

type captureEvent struct {
	state  domain.CaptureState
	reason domain.StateReason
}

type turnEvent struct {
	state  domain.TurnState
	reason domain.StateReason
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

type remapEvent struct {
	tempID   string
	serverID string
}

type fakeEventSink struct {
	mu sync.Mutex

	captureStates  []captureEvent
	turnStates     []turnEvent
	transcripts    []string
	messages       []domain.Message
	remaps         []remapEvent
	depths         map[string]domain.Depth
	speechStarted  []string
	speechEnded    []string
	patternMirrors int
	silenceChanges []bool
	errors         []errEvent
}

func newFakeEventSink() *fakeEventSink {
	return &fakeEventSink{depths: map[string]domain.Depth{}}
}

func (f *fakeEventSink) CaptureStateChanged(state domain.CaptureState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureStates = append(f.captureStates, captureEvent{state: state, reason: reason})
}

func (f *fakeEventSink) TurnStateChanged(state domain.TurnState, reason domain.StateReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turnStates = append(f.turnStates, turnEvent{state: state, reason: reason})
}

func (f *fakeEventSink) TranscriptReady(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transcripts = append(f.transcripts, text)
}

func (f *fakeEventSink) MessageAppended(msg domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
}

func (f *fakeEventSink) MessageRemapped(tempID string, serverID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remaps = append(f.remaps, remapEvent{tempID: tempID, serverID: serverID})
}

func (f *fakeEventSink) DepthClassified(messageID string, depth domain.Depth) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.depths[messageID] = depth
}

func (f *fakeEventSink) SpeechStarted(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechStarted = append(f.speechStarted, messageID)
}

func (f *fakeEventSink) SpeechEnded(messageID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.speechEnded = append(f.speechEnded, messageID)
}

func (f *fakeEventSink) PatternMirror() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patternMirrors++
}

func (f *fakeEventSink) SilenceModeChanged(active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.silenceChanges = append(f.silenceChanges, active)
}

func (f *fakeEventSink) ClientError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotCaptureStates() []captureEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]captureEvent, len(f.captureStates))
	copy(out, f.captureStates)
	return out
}

func (f *fakeEventSink) snapshotTurnStates() []turnEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]turnEvent, len(f.turnStates))
	copy(out, f.turnStates)
	return out
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func (f *fakeEventSink) patternMirrorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patternMirrors
}

func (f *fakeEventSink) speechEvents() ([]string, []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	started := make([]string, len(f.speechStarted))
	copy(started, f.speechStarted)
	ended := make([]string, len(f.speechEnded))
	copy(ended, f.speechEnded)
	return started, ended
}
