package bootstrap

import (
	"go.uber.org/zap"

	"lucid/internal/audio"
	"lucid/internal/config"
	"lucid/internal/ports"
	"lucid/internal/providers/lucidapi"
	"lucid/internal/speech"
	"lucid/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Orchestrator *usecase.TurnOrchestrator
	Speech       *usecase.SpeechController
	Cache        *usecase.ConversationListCache
	Config       config.Config
}

// Build wires all backend dependencies for the current runtime.
func Build(eventSink ports.EventSink, log *zap.Logger) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	client := lucidapi.NewClient(lucidapi.Config{
		BaseURL:           cfg.API.BaseURL,
		UserID:            cfg.API.UserID,
		TranscribeTimeout: cfg.API.TranscribeTimeout,
		RequestTimeout:    cfg.API.RequestTimeout,
		MaxAudioBytes:     cfg.API.MaxAudioBytes,
	}, log.Named("lucidapi"))

	capture := usecase.NewCaptureController(
		audio.NewFFmpegCapture(cfg.Audio.RecorderCommand),
		eventSink,
		log.Named("capture"),
		ports.AudioConfig{
			SampleRate:  cfg.Audio.SampleRate,
			Channels:    cfg.Audio.Channels,
			InputFormat: cfg.Audio.InputFormat,
			InputDevice: cfg.Audio.InputDevice,
		},
	)

	orchestrator := usecase.NewTurnOrchestrator(
		capture,
		client,
		client,
		client,
		eventSink,
		log.Named("turn"),
		usecase.TurnConfig{
			SilenceWindow:      cfg.Turn.SilenceWindow,
			PatternMirrorTurns: cfg.Turn.PatternMirrorTurns,
		},
	)

	speechController := usecase.NewSpeechController(
		speech.NewCommandSynthesizer(cfg.Speech.Command, cfg.Speech.Args...),
		eventSink,
		log.Named("speech"),
	)

	cache := usecase.NewConversationListCache(client, orchestrator, eventSink, log.Named("conversations"))

	return Services{
		Orchestrator: orchestrator,
		Speech:       speechController,
		Cache:        cache,
		Config:       cfg,
	}, nil
}
