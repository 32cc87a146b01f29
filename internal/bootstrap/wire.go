package bootstrap

import (
	"fmt"

	"go.uber.org/zap"

	"debrief/internal/audio"
	"debrief/internal/config"
	"debrief/internal/ports"
	"debrief/internal/redact"
	"debrief/internal/session"
	"debrief/internal/transport"
	"debrief/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Session  *session.Manager
	Recorder *usecase.Recorder
	Pipeline *usecase.PipelineTracker
	Redactor ports.Redactor
	Config   config.Config
	Logger   *zap.Logger
}

// Build wires all backend dependencies for the current runtime.
func Build() (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return Services{}, err
	}

	redactor, err := redact.NewEngine(cfg.Redact.Path)
	if err != nil {
		return Services{}, err
	}

	dialer := transport.NewWSDialer(
		transport.Config{HandshakeTimeout: cfg.Server.HandshakeTimeout},
		logger.Named("transport"),
	)
	manager := session.Shared(dialer, cfg.Server.URL, logger.Named("session"))

	recorder := usecase.NewRecorder(
		audio.NewFFmpegCapture(cfg.Audio.RecorderCommand),
		manager,
		usecase.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
		},
	)

	return Services{
		Session:  manager,
		Recorder: recorder,
		Pipeline: usecase.NewPipelineTracker(),
		Redactor: redactor,
		Config:   cfg,
		Logger:   logger,
	}, nil
}

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	logCfg := zap.NewProductionConfig()
	logCfg.Level = atomicLevel
	return logCfg.Build()
}
