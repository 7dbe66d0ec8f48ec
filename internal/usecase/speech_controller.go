package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"lucid/internal/domain"
	"lucid/internal/ports"
)

// SpeechController plays synthesized speech for one assistant message at a
// time. A new Speak call unconditionally pre-empts the current utterance;
// there is no queueing.
type SpeechController struct {
	synth  ports.SpeechSynthesizer
	events ports.EventSink
	log    *zap.Logger

	mu      sync.Mutex
	current *utterance
}

type utterance struct {
	messageID string
	handle    ports.SpeechHandle
}

func NewSpeechController(synth ports.SpeechSynthesizer, events ports.EventSink, log *zap.Logger) *SpeechController {
	return &SpeechController{synth: synth, events: events, log: log}
}

// Speak cancels any active utterance and starts a new one for messageID.
func (c *SpeechController) Speak(ctx context.Context, text string, messageID string) error {
	c.Stop()

	handle, err := c.synth.Speak(ctx, text)
	if err != nil {
		c.log.Warn("speech synthesis failed to start", zap.String("message_id", messageID), zap.Error(err))
		c.events.ClientError(domain.ErrorCodeSpeech, err.Error())
		return err
	}

	active := &utterance{messageID: messageID, handle: handle}
	c.mu.Lock()
	c.current = active
	c.mu.Unlock()

	c.events.SpeechStarted(messageID)
	go c.watch(active)
	return nil
}

// Toggle stops the utterance when messageID is already playing, otherwise
// starts a new one for it.
func (c *SpeechController) Toggle(ctx context.Context, text string, messageID string) error {
	c.mu.Lock()
	playingSame := c.current != nil && c.current.messageID == messageID
	c.mu.Unlock()

	if playingSame {
		c.Stop()
		return nil
	}
	return c.Speak(ctx, text, messageID)
}

// Stop cancels the active utterance. Safe to call when nothing is playing.
func (c *SpeechController) Stop() {
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()
	if active == nil {
		return
	}

	if err := active.handle.Stop(); err != nil {
		c.log.Warn("speech stop failed", zap.String("message_id", active.messageID), zap.Error(err))
	}
}

// SpeakingMessageID returns the id of the message currently being spoken,
// empty when nothing is playing.
func (c *SpeechController) SpeakingMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return ""
	}
	return c.current.messageID
}

func (c *SpeechController) watch(active *utterance) {
	err := <-active.handle.Done()

	c.mu.Lock()
	if c.current == active {
		c.current = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("speech playback errored", zap.String("message_id", active.messageID), zap.Error(err))
		c.events.ClientError(domain.ErrorCodeSpeech, err.Error())
	}
	c.events.SpeechEnded(active.messageID)
}
