package config

import (
	"testing"
	"time"
)

var agentEnvKeys = []string{
	"LIVEKIT_URL",
	"LIVEKIT_API_KEY",
	"LIVEKIT_API_SECRET",
	"OPENAI_API_KEY",
	"TUTOR_AGENT_IDENTITY",
	"TUTOR_ROOM",
	"TUTOR_REALTIME_URL",
	"TUTOR_REALTIME_MODEL",
	"TUTOR_VOICE",
	"TUTOR_STT_MODEL",
	"TUTOR_STT_LANGUAGE",
	"TUTOR_VAD_ACTIVATION_THRESHOLD",
	"TUTOR_VAD_PREFIX_PADDING",
	"TUTOR_VAD_SILENCE_DURATION",
	"TUTOR_VAD_MIN_SPEECH_DURATION",
	"TUTOR_VAD_SAMPLE_RATE",
	"TUTOR_PLAYBACK_VOLUME",
	"TUTOR_RECORDINGS_DIR",
	"TUTOR_TOPICS_FILE",
	"TUTOR_PARTICIPANT_WAIT_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range agentEnvKeys {
		t.Setenv(key, "")
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("LIVEKIT_API_KEY", "key")
	t.Setenv("LIVEKIT_API_SECRET", "secret")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TUTOR_ROOM", "room-chinese-1-2-abcd1234")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.RealtimeModel != "gpt-4o-mini-realtime-preview" {
		t.Errorf("RealtimeModel = %q", cfg.RealtimeModel)
	}
	if cfg.TranscriptionLanguage != "zh" {
		t.Errorf("TranscriptionLanguage = %q", cfg.TranscriptionLanguage)
	}
	if cfg.VADActivationThreshold != 0.65 {
		t.Errorf("VADActivationThreshold = %v", cfg.VADActivationThreshold)
	}
	if cfg.VADSilenceDuration != 600*time.Millisecond {
		t.Errorf("VADSilenceDuration = %v", cfg.VADSilenceDuration)
	}
	if cfg.VADSampleRate != 16000 {
		t.Errorf("VADSampleRate = %d", cfg.VADSampleRate)
	}
	if cfg.RecordingsDir != "conversation_audio" {
		t.Errorf("RecordingsDir = %q", cfg.RecordingsDir)
	}
	if cfg.CatalogPath != "TrumChinese.conversation_topics.json" {
		t.Errorf("CatalogPath = %q", cfg.CatalogPath)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("TUTOR_VAD_ACTIVATION_THRESHOLD", "0.5")
	t.Setenv("TUTOR_VAD_SILENCE_DURATION", "900ms")
	t.Setenv("TUTOR_PLAYBACK_VOLUME", "0.4")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.VADActivationThreshold != 0.5 {
		t.Errorf("VADActivationThreshold = %v", cfg.VADActivationThreshold)
	}
	if cfg.VADSilenceDuration != 900*time.Millisecond {
		t.Errorf("VADSilenceDuration = %v", cfg.VADSilenceDuration)
	}
	if cfg.PlaybackVolume != 0.4 {
		t.Errorf("PlaybackVolume = %v", cfg.PlaybackVolume)
	}
}

func TestLoadFromEnv_Validation(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"missing livekit key", "LIVEKIT_API_KEY", ""},
		{"missing livekit secret", "LIVEKIT_API_SECRET", ""},
		{"missing openai key", "OPENAI_API_KEY", ""},
		{"missing room", "TUTOR_ROOM", ""},
		{"threshold out of range", "TUTOR_VAD_ACTIVATION_THRESHOLD", "1.5"},
		{"volume out of range", "TUTOR_PLAYBACK_VOLUME", "2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			t.Setenv(tc.key, tc.val)
			if _, err := LoadFromEnv(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFromEnv_MalformedNumbersFallBack(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("TUTOR_VAD_SAMPLE_RATE", "not-a-number")
	t.Setenv("TUTOR_VAD_PREFIX_PADDING", "banana")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.VADSampleRate != 16000 {
		t.Errorf("VADSampleRate = %d, want default", cfg.VADSampleRate)
	}
	if cfg.VADPrefixPadding != 300*time.Millisecond {
		t.Errorf("VADPrefixPadding = %v, want default", cfg.VADPrefixPadding)
	}
}
