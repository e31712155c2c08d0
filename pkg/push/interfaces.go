package push

import (
	"context"
)

// Connection is the native protocol connection the manager drives. It
// performs the actual subscribe/unsubscribe/decrypt/verify operations against
// the push backend.
//
// Subscribe, Unsubscribe, UnsubscribeAll, UpdateToken, and VerifyConnection
// may block on network I/O and honor ctx. Decrypt and IsInitialized are
// synchronous; Decrypt must not be called before IsInitialized reports true.
type Connection interface {
	// Subscribe registers channelID under scope and returns the subscription
	// material. The response's channel ID is authoritative.
	Subscribe(ctx context.Context, channelID ChannelID, scope string) (SubscriptionResponse, error)

	// Unsubscribe drops one subscription. The bool reports whether the
	// backend knew the channel.
	Unsubscribe(ctx context.Context, channelID ChannelID) (bool, error)

	// UnsubscribeAll drops every subscription for this registration.
	UnsubscribeAll(ctx context.Context) (bool, error)

	// UpdateToken informs the backend of a new registration token. The bool
	// reports whether the registration changed server-side.
	UpdateToken(ctx context.Context, token string) (bool, error)

	// VerifyConnection checks the registration with the remote service and
	// returns the subscriptions it reported as changed. An empty slice means
	// the registration was checked and nothing changed.
	VerifyConnection(ctx context.Context) ([]SubscriptionUpdate, error)

	// Decrypt decrypts one inbound message and returns the plaintext.
	Decrypt(msg EncryptedMessage) ([]byte, error)

	// IsInitialized reports whether the native layer holds a usable session.
	IsInitialized() bool

	// Close releases the native session.
	Close() error
}

// Transport is the OS-level push transport service. It owns the device
// registration token and delivers raw tokens and encrypted messages
// asynchronously; integrations forward those callbacks into
// Manager.OnNewToken and Manager.OnMessageReceived.
type Transport interface {
	// Start begins token and message delivery.
	Start(ctx context.Context) error

	// Stop halts delivery.
	Stop() error

	// DeleteToken invalidates the device registration token. A replacement
	// arrives later through the token callback.
	DeleteToken(ctx context.Context) error
}

// Reporter receives every error the manager swallows, for crash/telemetry
// reporting. Implementations must not panic.
type Reporter interface {
	// ReportError records one caught error.
	ReportError(err error)
}
