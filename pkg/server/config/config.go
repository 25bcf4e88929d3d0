// Package config loads the token/catalog service configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config is the full configuration for the token/catalog HTTP service.
type Config struct {
	Addr string

	// Room service credentials; the token endpoint signs against these.
	LiveKitURL       string
	LiveKitAPIKey    string
	LiveKitAPISecret string

	CatalogPath string

	// CORSAllowedOrigins is the set of allowed origins. A "*" entry allows
	// any origin, which is how the original deployment ran.
	CORSAllowedOrigins map[string]struct{}

	TokenTTL time.Duration

	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

// LoadFromEnv reads the configuration and validates it.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("TUTOR_SERVER_ADDR", ":5001"),
		LiveKitURL:          envOr("LIVEKIT_URL", "ws://localhost:7880"),
		LiveKitAPIKey:       strings.TrimSpace(os.Getenv("LIVEKIT_API_KEY")),
		LiveKitAPISecret:    strings.TrimSpace(os.Getenv("LIVEKIT_API_SECRET")),
		CatalogPath:         envOr("TUTOR_TOPICS_FILE", "TrumChinese.conversation_topics.json"),
		CORSAllowedOrigins:  parseOrigins(envOr("TUTOR_SERVER_CORS_ORIGINS", "*")),
		TokenTTL:            envDurationOr("TUTOR_TOKEN_TTL", 6*time.Hour),
		ReadHeaderTimeout:   envDurationOr("TUTOR_SERVER_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:         envDurationOr("TUTOR_SERVER_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("TUTOR_SERVER_SHUTDOWN_GRACE", 10*time.Second),
	}

	if cfg.LiveKitAPIKey == "" {
		return Config{}, fmt.Errorf("LIVEKIT_API_KEY must be set")
	}
	if cfg.LiveKitAPISecret == "" {
		return Config{}, fmt.Errorf("LIVEKIT_API_SECRET must be set")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("TUTOR_SERVER_CORS_ORIGINS must name at least one origin or *")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("TUTOR_TOKEN_TTL must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 || cfg.ReadTimeout <= 0 || cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("server timeouts must be > 0")
	}

	return cfg, nil
}

func parseOrigins(raw string) map[string]struct{} {
	origins := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			origins[part] = struct{}{}
		}
	}
	return origins
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
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
