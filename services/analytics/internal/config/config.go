package config

import (
	"errors"
	"time"

	platformconfig "github.com/example/drone-academy/internal/platform/config"
)

// Config holds all configuration for the analytics consumer service.
type Config struct {
	ServiceName      string
	LogLevel         string
	NATSURL          string
	PostHogAPIKey    string
	PostHogHost      string // cloud or self-hosted endpoint
	FlushInterval    time.Duration
	PostHogBatchSize int // events buffered by the SDK before a flush
	FetchBatchSize   int // messages per JetStream fetch
	FetchWait        time.Duration
}

// Load reads Config from environment variables.
func Load() (Config, error) {
	key := platformconfig.EnvString("POSTHOG_API_KEY", "")
	if key == "" {
		return Config{}, errors.New("POSTHOG_API_KEY is required")
	}
	return Config{
		ServiceName:      platformconfig.EnvString("SERVICE_NAME", "analytics"),
		LogLevel:         platformconfig.EnvString("LOG_LEVEL", "info"),
		NATSURL:          platformconfig.EnvString("NATS_URL", ""),
		PostHogAPIKey:    key,
		PostHogHost:      platformconfig.EnvString("POSTHOG_HOST", "https://app.posthog.com"),
		FlushInterval:    platformconfig.EnvDuration("POSTHOG_FLUSH_INTERVAL", 5*time.Second),
		PostHogBatchSize: platformconfig.EnvInt("POSTHOG_BATCH_SIZE", 100),
		FetchBatchSize:   platformconfig.EnvInt("WORKER_BATCH_SIZE", 200),
		FetchWait:        platformconfig.EnvDuration("WORKER_BATCH_INTERVAL", 2*time.Second),
	}, nil
}
