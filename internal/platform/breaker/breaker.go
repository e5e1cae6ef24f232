// Package breaker builds circuit breakers for outbound HTTP dependencies.
package breaker

import (
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/drone-academy/internal/platform/config"
)

type Settings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// SettingsFromEnv reads CB_MAX_REQUESTS, CB_INTERVAL, CB_TIMEOUT and CB_FAILURE_THRESHOLD.
func SettingsFromEnv() Settings {
	return Settings{
		MaxRequests:      uint32(config.EnvInt("CB_MAX_REQUESTS", 3)),
		Interval:         config.EnvDuration("CB_INTERVAL", 60*time.Second),
		Timeout:          config.EnvDuration("CB_TIMEOUT", 30*time.Second),
		FailureThreshold: uint32(config.EnvInt("CB_FAILURE_THRESHOLD", 5)),
	}
}

func New(name string, s Settings, log *zap.Logger) *gobreaker.CircuitBreaker {
	if log == nil {
		log = zap.NewNop()
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit-breaker state change", zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
}

// Do runs fn through cb when cb is non-nil.
func Do[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	if cb == nil {
		return fn()
	}
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}
