package log

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Event represents a push event captured by the manager.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one manager run (UUID).
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Type-specific payload (one of these will be set).
	Token        *TokenEvent        `cbor:"4,keyasint,omitempty"`
	Subscription *SubscriptionEvent `cbor:"5,keyasint,omitempty"`
	Message      *MessageEvent      `cbor:"6,keyasint,omitempty"`
	Verify       *VerifyEvent       `cbor:"7,keyasint,omitempty"`
	StateChange  *StateChangeEvent  `cbor:"8,keyasint,omitempty"`
	Error        *ErrorEventData    `cbor:"9,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryToken indicates a registration token lifecycle event.
	CategoryToken Category = 0
	// CategorySubscription indicates a subscription registry change.
	CategorySubscription Category = 1
	// CategoryMessage indicates an inbound message dispatch.
	CategoryMessage Category = 2
	// CategoryVerify indicates a verification pass.
	CategoryVerify Category = 3
	// CategoryState indicates a manager state change.
	CategoryState Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryToken:
		return "TOKEN"
	case CategorySubscription:
		return "SUBSCRIPTION"
	case CategoryMessage:
		return "MESSAGE"
	case CategoryVerify:
		return "VERIFY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// TokenEvent captures registration token lifecycle.
// Raw tokens are credentials and are never recorded; Digest identifies
// a token across events without revealing it.
type TokenEvent struct {
	// Action performed on the token.
	Action TokenAction `cbor:"1,keyasint"`

	// Digest is a short identifier derived from the token.
	Digest string `cbor:"2,keyasint,omitempty"`
}

// TokenAction indicates what happened to the registration token.
type TokenAction uint8

const (
	// TokenRefreshed indicates a new token was accepted and persisted.
	TokenRefreshed TokenAction = 0
	// TokenUnchanged indicates a duplicate delivery was ignored.
	TokenUnchanged TokenAction = 1
	// TokenCleared indicates the token was dropped for renewal.
	TokenCleared TokenAction = 2
)

// String returns the token action name.
func (a TokenAction) String() string {
	switch a {
	case TokenRefreshed:
		return "REFRESHED"
	case TokenUnchanged:
		return "UNCHANGED"
	case TokenCleared:
		return "CLEARED"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionEvent captures a subscription registry change.
type SubscriptionEvent struct {
	// Action performed on the entry.
	Action SubscriptionAction `cbor:"1,keyasint"`

	// Feature is the feature scope string.
	Feature string `cbor:"2,keyasint"`

	// ChannelID identifies the subscription.
	ChannelID string `cbor:"3,keyasint,omitempty"`

	// Endpoint is the push endpoint URL.
	Endpoint string `cbor:"4,keyasint,omitempty"`
}

// SubscriptionAction indicates what happened to a registry entry.
type SubscriptionAction uint8

const (
	// SubscriptionCreated indicates a new subscription was stored.
	SubscriptionCreated SubscriptionAction = 0
	// SubscriptionUpdated indicates a verification pass reconciled the entry.
	SubscriptionUpdated SubscriptionAction = 1
	// SubscriptionRemoved indicates the entry was removed.
	SubscriptionRemoved SubscriptionAction = 2
)

// String returns the subscription action name.
func (a SubscriptionAction) String() string {
	switch a {
	case SubscriptionCreated:
		return "CREATED"
	case SubscriptionUpdated:
		return "UPDATED"
	case SubscriptionRemoved:
		return "REMOVED"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one inbound push message.
type MessageEvent struct {
	// ChannelID the message arrived on.
	ChannelID string `cbor:"1,keyasint"`

	// Feature is the resolved feature scope (empty when unresolved).
	Feature string `cbor:"2,keyasint,omitempty"`

	// Outcome of dispatch.
	Outcome MessageOutcome `cbor:"3,keyasint"`

	// Size is the decrypted payload size in bytes.
	Size int `cbor:"4,keyasint,omitempty"`
}

// MessageOutcome indicates how an inbound message was handled.
type MessageOutcome uint8

const (
	// MessageDispatched indicates the plaintext reached observers.
	MessageDispatched MessageOutcome = 0
	// MessageUnknownChannel indicates the channel ID did not resolve.
	MessageUnknownChannel MessageOutcome = 1
	// MessageNotReady indicates the connection was not initialized.
	MessageNotReady MessageOutcome = 2
	// MessageDecryptFailed indicates decryption failed.
	MessageDecryptFailed MessageOutcome = 3
)

// String returns the message outcome name.
func (o MessageOutcome) String() string {
	switch o {
	case MessageDispatched:
		return "DISPATCHED"
	case MessageUnknownChannel:
		return "UNKNOWN_CHANNEL"
	case MessageNotReady:
		return "NOT_READY"
	case MessageDecryptFailed:
		return "DECRYPT_FAILED"
	default:
		return "UNKNOWN"
	}
}

// VerifyEvent captures one verification pass.
type VerifyEvent struct {
	// Changed is the number of reconciled subscriptions.
	Changed int `cbor:"1,keyasint"`

	// Skipped is the number of reported entries with no matching feature.
	Skipped int `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures manager lifecycle transitions.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`
}

// ErrorEventData captures errors routed through the error sink.
type ErrorEventData struct {
	// Kind classifies the failing operation.
	Kind string `cbor:"1,keyasint,omitempty"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

// TokenDigest returns a short non-reversible identifier for a token,
// safe to record in events. Empty tokens yield an empty digest.
func TokenDigest(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
