// Package config loads the agent worker configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full configuration for one agent worker process.
type Config struct {
	// Room service credentials.
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string
	AgentIdentity    string
	RoomName         string

	// Speech/LLM provider.
	RealtimeURL           string
	OpenAIAPIKey          string
	RealtimeModel         string
	Voice                 string
	TranscriptionModel    string
	TranscriptionLanguage string

	// Provider-side voice activity detection.
	VADActivationThreshold float64
	VADPrefixPadding       time.Duration
	VADSilenceDuration     time.Duration
	VADMinSpeechDuration   time.Duration
	VADSampleRate          int

	// Audio.
	PlaybackVolume float64

	// Paths.
	RecordingsDir string
	CatalogPath   string

	// Timeouts.
	ParticipantWaitTimeout time.Duration
}

// LoadFromEnv reads the configuration, applying the defaults the original
// deployment shipped with, and validates it.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		LiveKitURL:             envOr("LIVEKIT_URL", "ws://localhost:7880"),
		LiveKitAPIKey:          strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY")),
		LiveKitAPISecret:       strings.TrimSpace(os.Getenv("LIVEKIT_API_SECRET")),
		AgentIdentity:          envOr("TUTOR_AGENT_IDENTITY", "chinese-tutor"),
		RoomName:               strings.TrimSpace(os.Getenv("TUTOR_ROOM")),
		RealtimeURL:            envOr("TUTOR_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		OpenAIAPIKey:           strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		RealtimeModel:          envOr("TUTOR_REALTIME_MODEL", "gpt-4o-mini-realtime-preview"),
		Voice:                  envOr("TUTOR_VOICE", "coral"),
		TranscriptionModel:     envOr("TUTOR_STT_MODEL", "gpt-4o-mini-transcribe"),
		TranscriptionLanguage:  envOr("TUTOR_STT_LANGUAGE", "zh"),
		VADActivationThreshold: envFloat64Or("TUTOR_VAD_ACTIVATION_THRESHOLD", 0.65),
		VADPrefixPadding:       envDurationOr("TUTOR_VAD_PREFIX_PADDING", 300*time.Millisecond),
		VADSilenceDuration:     envDurationOr("TUTOR_VAD_SILENCE_DURATION", 600*time.Millisecond),
		VADMinSpeechDuration:   envDurationOr("TUTOR_VAD_MIN_SPEECH_DURATION", 100*time.Millisecond),
		VADSampleRate:          envIntOr("TUTOR_VAD_SAMPLE_RATE", 16000),
		PlaybackVolume:         envFloat64Or("TUTOR_PLAYBACK_VOLUME", 0.8),
		RecordingsDir:          envOr("TUTOR_RECORDINGS_DIR", "conversation_audio"),
		CatalogPath:            envOr("TUTOR_TOPICS_FILE", "TrumChinese.conversation_topics.json"),
		ParticipantWaitTimeout: envDurationOr("TUTOR_PARTICIPANT_WAIT_TIMEOUT", 2*time.Minute),
	}

	if cfg.LiveKitAPIKey == "" {
		return Config{}, fmt.Errorf("LIVEKIT_API_KEY must be set")
	}
	if cfg.LiveKitAPISecret == "" {
		return Config{}, fmt.Errorf("LIVEKIT_API_SECRET must be set")
	}
	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("OPENAI_API_KEY must be set")
	}
	if cfg.RoomName == "" {
		return Config{}, fmt.Errorf("TUTOR_ROOM must be set")
	}
	if cfg.VADActivationThreshold <= 0 || cfg.VADActivationThreshold > 1 {
		return Config{}, fmt.Errorf("TUTOR_VAD_ACTIVATION_THRESHOLD must be in (0, 1]")
	}
	if cfg.VADPrefixPadding < 0 {
		return Config{}, fmt.Errorf("TUTOR_VAD_PREFIX_PADDING must be >= 0")
	}
	if cfg.VADSilenceDuration <= 0 {
		return Config{}, fmt.Errorf("TUTOR_VAD_SILENCE_DURATION must be > 0")
	}
	if cfg.VADMinSpeechDuration <= 0 {
		return Config{}, fmt.Errorf("TUTOR_VAD_MIN_SPEECH_DURATION must be > 0")
	}
	if cfg.VADSampleRate <= 0 {
		return Config{}, fmt.Errorf("TUTOR_VAD_SAMPLE_RATE must be > 0")
	}
	if cfg.PlaybackVolume < 0 || cfg.PlaybackVolume > 1 {
		return Config{}, fmt.Errorf("TUTOR_PLAYBACK_VOLUME must be in [0, 1]")
	}
	if cfg.ParticipantWaitTimeout <= 0 {
		return Config{}, fmt.Errorf("TUTOR_PARTICIPANT_WAIT_TIMEOUT must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
