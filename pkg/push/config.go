package push

import (
	"log/slog"
	"time"

	"github.com/pushline/pushline-go/pkg/log"
	"github.com/pushline/pushline-go/pkg/persistence"
)

// DefaultQueueSize is the task buffer size of the ops and dispatch workers.
const DefaultQueueSize = 64

// Config configures a Manager.
type Config struct {
	// Connection is the native protocol connection performing
	// subscribe/verify/decrypt against the push service (required).
	Connection Connection

	// Transport is the OS-level push transport delivering tokens and
	// encrypted messages (required).
	Transport Transport

	// Store persists the registration token and the last verification
	// timestamp (required).
	Store persistence.Store

	// Reporter receives errors for crash/telemetry reporting.
	// If nil, errors are only logged.
	Reporter Reporter

	// VerifyInterval is the minimum time between verification passes
	// triggered through TryVerifySubscriptions (default: 24h).
	VerifyInterval time.Duration

	// QueueSize is the task buffer size of the internal workers
	// (default: DefaultQueueSize).
	QueueSize int

	// RestartBackoffInitial is the first transport-restart retry delay.
	RestartBackoffInitial time.Duration

	// RestartBackoffMax is the maximum transport-restart retry delay.
	RestartBackoffMax time.Duration

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives push event records.
	// If nil, event capture is disabled.
	EventLogger log.Logger
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.Connection == nil {
		return ErrInvalidConfig
	}
	if c.Transport == nil {
		return ErrInvalidConfig
	}
	if c.Store == nil {
		return ErrInvalidConfig
	}
	if c.VerifyInterval < 0 {
		return ErrInvalidConfig
	}
	return nil
}
