// Package config loads the academy service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/drone-academy/internal/platform/breaker"
	platformconfig "github.com/example/drone-academy/internal/platform/config"
	"github.com/example/drone-academy/services/academy/internal/authz"
	"github.com/example/drone-academy/services/academy/internal/llm"
	"github.com/example/drone-academy/services/academy/internal/quiz"
	"github.com/example/drone-academy/services/academy/internal/transcript"
	"github.com/example/drone-academy/services/academy/internal/youtube"
)

const (
	BackendLLM    = "llm"
	BackendRemote = "remote"
)

// Clients configures the upstream integrations. The command line tools load
// only this part.
type Clients struct {
	YouTube    youtube.Config
	Transcript transcript.Config

	// GenerationBackend is "llm" (in-process model calls) or "remote"
	// (a hosted content generation endpoint at GenerationURL).
	GenerationBackend string
	GenerationURL     string
	GenerationAPIKey  string
	LLM               llm.Config

	Breaker breaker.Settings
}

type Config struct {
	App platformconfig.AppConfig
	Clients

	JWTSecret   []byte
	DatabaseURL string
	RedisURL    string
	NATSURL     string

	PassScore   int
	AdminEmails []string

	CertSigningSecret string
	CertLinkTTL       time.Duration
	PublicBaseURL     string

	PlaylistCacheTTL time.Duration
	CourseListTTL    time.Duration
	SessionIdleTTL   time.Duration

	GenerationRate  float64
	GenerationBurst int
}

func Load() (Config, error) {
	app, err := platformconfig.Load()
	if err != nil {
		return Config{}, err
	}
	secret := platformconfig.EnvString("JWT_SECRET", "")
	if secret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	clients, err := LoadClients()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		App:               app,
		Clients:           clients,
		JWTSecret:         []byte(secret),
		DatabaseURL:       platformconfig.EnvString("DATABASE_URL", ""),
		RedisURL:          platformconfig.EnvString("REDIS_URL", ""),
		NATSURL:           platformconfig.EnvString("NATS_URL", ""),
		PassScore:         platformconfig.EnvInt("KNOWLEDGE_CHECK_PASS_SCORE", quiz.DefaultThreshold),
		AdminEmails:       platformconfig.EnvList("ADMIN_EMAILS", authz.DefaultAdminEmails),
		CertSigningSecret: platformconfig.EnvString("CERT_SIGNING_SECRET", secret),
		CertLinkTTL:       platformconfig.EnvDuration("CERT_LINK_TTL", 365*24*time.Hour),
		PublicBaseURL:     strings.TrimRight(platformconfig.EnvString("PUBLIC_BASE_URL", "http://localhost"+app.HTTP.Addr), "/"),
		PlaylistCacheTTL:  platformconfig.EnvDuration("PLAYLIST_CACHE_TTL", 6*time.Hour),
		CourseListTTL:     platformconfig.EnvDuration("COURSE_LIST_CACHE_TTL", 60*time.Second),
		SessionIdleTTL:    platformconfig.EnvDuration("SESSION_IDLE_TTL", 30*time.Minute),
		GenerationBurst:   platformconfig.EnvInt("GENERATION_RATE_BURST", 5),
	}

	rate, err := envFloat("GENERATION_RATE_PER_SEC", 0.2)
	if err != nil {
		return Config{}, err
	}
	cfg.GenerationRate = rate

	if cfg.PassScore < 1 || cfg.PassScore > 100 {
		return Config{}, fmt.Errorf("KNOWLEDGE_CHECK_PASS_SCORE must be 1..100, got %d", cfg.PassScore)
	}
	return cfg, nil
}

// LoadClients reads the upstream integration settings and validates the
// selected generation backend.
func LoadClients() (Clients, error) {
	c := Clients{
		YouTube: youtube.Config{
			APIKey:   platformconfig.EnvString("YOUTUBE_API_KEY", ""),
			Endpoint: platformconfig.EnvString("YOUTUBE_ENDPOINT", ""),
		},
		Transcript: transcript.Config{
			BaseURL:     platformconfig.EnvString("TRANSCRIPT_BASE_URL", "http://localhost:3000/api/transcript"),
			MaxAttempts: platformconfig.EnvInt("TRANSCRIPT_MAX_ATTEMPTS", transcript.DefaultMaxAttempts),
			BaseDelay:   platformconfig.EnvDuration("TRANSCRIPT_BASE_DELAY", transcript.DefaultBaseDelay),
		},
		GenerationBackend: strings.ToLower(platformconfig.EnvString("GENERATION_BACKEND", BackendLLM)),
		GenerationURL:     platformconfig.EnvString("GENERATION_URL", ""),
		GenerationAPIKey:  platformconfig.EnvString("GENERATION_API_KEY", ""),
		LLM:               llm.ConfigFromEnv(),
		Breaker:           breaker.SettingsFromEnv(),
	}
	switch c.GenerationBackend {
	case BackendLLM:
		if err := c.LLM.Validate(); err != nil {
			return Clients{}, err
		}
	case BackendRemote:
		if c.GenerationURL == "" {
			return Clients{}, errors.New("GENERATION_URL is required when GENERATION_BACKEND=remote")
		}
	default:
		return Clients{}, fmt.Errorf("GENERATION_BACKEND must be %q or %q, got %q", BackendLLM, BackendRemote, c.GenerationBackend)
	}
	return c, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := platformconfig.EnvString(key, "")
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("%s must be a non-negative number, got %q", key, v)
	}
	return f, nil
}
