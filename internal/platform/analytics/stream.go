package analytics

import (
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	StreamName    = "ANALYTICS"
	StreamSubject = "analytics.>"
)

// EnsureStream creates the ANALYTICS JetStream stream, or updates it when the
// configuration drifted. Both the publishers and the consumer call it.
func EnsureStream(js nats.JetStreamContext, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	cfg := &nats.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{StreamSubject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
	}

	_, err := js.AddStream(cfg)
	if err == nil {
		log.Info("analytics: stream created", zap.String("stream", StreamName))
		return nil
	}
	if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		return nil
	}
	if _, updateErr := js.UpdateStream(cfg); updateErr != nil {
		return updateErr
	}
	return nil
}
