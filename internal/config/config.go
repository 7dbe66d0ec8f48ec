package config

import (
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration for the client.
type Config struct {
	API    APIConfig
	Audio  AudioConfig
	Speech SpeechConfig
	Turn   TurnConfig
}

type APIConfig struct {
	BaseURL           string
	UserID            string
	TranscribeTimeout time.Duration
	RequestTimeout    time.Duration
	MaxAudioBytes     int
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SpeechConfig struct {
	Command string
	Args    []string
}

type TurnConfig struct {
	SilenceWindow      time.Duration
	PatternMirrorTurns int
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() (Config, error) {
	cfg := Config{
		API: APIConfig{
			BaseURL:           envOrDefault("LUCID_API_BASE", "http://localhost:8000"),
			UserID:            envOrDefault("LUCID_USER_ID", "550e8400-e29b-41d4-a716-446655440000"),
			TranscribeTimeout: time.Duration(envOrDefaultInt("LUCID_TRANSCRIBE_TIMEOUT_MS", 30000)) * time.Millisecond,
			RequestTimeout:    time.Duration(envOrDefaultInt("LUCID_REQUEST_TIMEOUT_MS", 60000)) * time.Millisecond,
			MaxAudioBytes:     envOrDefaultInt("LUCID_MAX_AUDIO_BYTES", 10<<20),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("LUCID_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("LUCID_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("LUCID_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("LUCID_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("LUCID_CHANNELS", 1),
		},
		Speech: SpeechConfig{
			Command: envOrDefault("LUCID_SPEECH_COMMAND", defaultSpeechCommand()),
		},
		Turn: TurnConfig{
			SilenceWindow:      time.Duration(envOrDefaultInt("LUCID_SILENCE_WINDOW_MS", 8000)) * time.Millisecond,
			PatternMirrorTurns: envOrDefaultInt("LUCID_PATTERN_MIRROR_TURNS", 4),
		},
	}

	if args := strings.TrimSpace(os.Getenv("LUCID_SPEECH_ARGS")); args != "" {
		cfg.Speech.Args = strings.Fields(args)
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.API.TranscribeTimeout <= 0 {
		cfg.API.TranscribeTimeout = 30 * time.Second
	}
	if cfg.Turn.SilenceWindow <= 0 {
		cfg.Turn.SilenceWindow = 8 * time.Second
	}
	if cfg.Turn.PatternMirrorTurns <= 0 {
		cfg.Turn.PatternMirrorTurns = 4
	}

	return cfg, nil
}

func defaultSpeechCommand() string {
	if runtime.GOOS == "darwin" {
		return "say"
	}
	return "espeak-ng"
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
