// Package speech plays synthesized speech through a platform TTS command
// (say on macOS, espeak-ng elsewhere).
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"lucid/internal/ports"
)

// CommandSynthesizer implements ports.SpeechSynthesizer by spawning a TTS
// subprocess per utterance, with the text appended as the final argument.
type CommandSynthesizer struct {
	command string
	args    []string
}

func NewCommandSynthesizer(command string, args ...string) *CommandSynthesizer {
	return &CommandSynthesizer{command: command, args: args}
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text string) (ports.SpeechHandle, error) {
	if s.command == "" {
		return nil, errors.New("no speech command configured")
	}
	if _, err := exec.LookPath(s.command); err != nil {
		return nil, fmt.Errorf("speech command %q is not available: %w", s.command, err)
	}

	args := append(append([]string(nil), s.args...), text)
	cmd := exec.CommandContext(ctx, s.command, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start speech command: %w", err)
	}

	utterance := &Utterance{cmd: cmd, done: make(chan error, 1)}
	go utterance.wait()
	return utterance, nil
}

// Utterance is one active speech playback owned by the synthesizer process.
type Utterance struct {
	cmd  *exec.Cmd
	done chan error

	mu       sync.Mutex
	stopped  bool
	stopOnce sync.Once
}

func (u *Utterance) Done() <-chan error { return u.done }

// Stop kills the playback process. Safe to call more than once.
func (u *Utterance) Stop() error {
	var err error
	u.stopOnce.Do(func() {
		u.mu.Lock()
		u.stopped = true
		u.mu.Unlock()
		if u.cmd.Process != nil {
			err = u.cmd.Process.Kill()
		}
	})
	return err
}

func (u *Utterance) wait() {
	err := u.cmd.Wait()

	u.mu.Lock()
	stopped := u.stopped
	u.mu.Unlock()

	// A kill-induced exit is a clean stop, not a playback failure.
	var exitErr *exec.ExitError
	if stopped && errors.As(err, &exitErr) {
		err = nil
	}

	u.done <- err
	close(u.done)
}
