package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores runtime configuration for the desktop client.
type Config struct {
	Server ServerConfig
	Audio  AudioConfig
	Redact RedactConfig
	Log    LogConfig
}

type ServerConfig struct {
	URL              string
	HandshakeTimeout time.Duration
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type RedactConfig struct {
	Path string
}

type LogConfig struct {
	Level string
}

// Load resolves configuration from a local .env file, environment
// variables, and sensible defaults.
func Load() (Config, error) {
	_ = godotenv.Load()

	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, errors.New("could not determine home directory")
	}

	redactPath := strings.TrimSpace(os.Getenv("DEBRIEF_REDACT_FILE"))
	if redactPath == "" {
		redactPath = filepath.Join(home, ".config", "debrief", "redactions.rules")
	}

	cfg := Config{
		Server: ServerConfig{
			URL:              envOrDefault("DEBRIEF_SERVER_URL", "wss://api.debrief.app/ws/meeting"),
			HandshakeTimeout: time.Duration(envOrDefaultInt("DEBRIEF_HANDSHAKE_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("DEBRIEF_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("DEBRIEF_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("DEBRIEF_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("DEBRIEF_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("DEBRIEF_CHANNELS", 1),
		},
		Redact: RedactConfig{Path: redactPath},
		Log:    LogConfig{Level: envOrDefault("DEBRIEF_LOG_LEVEL", "info")},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Server.HandshakeTimeout <= 0 {
		cfg.Server.HandshakeTimeout = 10 * time.Second
	}

	return cfg, nil
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
