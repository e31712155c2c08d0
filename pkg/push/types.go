package push

import (
	"fmt"

	"github.com/google/uuid"
)

// FeatureType identifies which logical consumer a subscription and its
// messages belong to. The set is closed and fixed at compile time.
type FeatureType uint8

const (
	// FeatureTypeWebPush carries standard web push messages for sites.
	FeatureTypeWebPush FeatureType = iota

	// FeatureTypeServices carries messages for internal account services.
	FeatureTypeServices
)

// String returns the feature type name.
func (t FeatureType) String() string {
	switch t {
	case FeatureTypeWebPush:
		return "WebPush"
	case FeatureTypeServices:
		return "Services"
	default:
		return "UNKNOWN"
	}
}

// Scope returns the stable lowercase scope string sent to the push backend
// when subscribing on behalf of this feature type.
func (t FeatureType) Scope() string {
	switch t {
	case FeatureTypeWebPush:
		return "webpush"
	case FeatureTypeServices:
		return "services"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a member of the closed feature type set.
func (t FeatureType) Valid() bool {
	return t <= FeatureTypeServices
}

// AllFeatureTypes returns the full closed set of feature types in a fresh
// slice, in declaration order.
func AllFeatureTypes() []FeatureType {
	return []FeatureType{FeatureTypeWebPush, FeatureTypeServices}
}

// ParseFeatureType converts a name or scope string ("WebPush", "services")
// into a FeatureType.
func ParseFeatureType(s string) (FeatureType, error) {
	for _, t := range AllFeatureTypes() {
		if s == t.String() || s == t.Scope() {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFeatureType, s)
}

// ChannelID is the opaque identifier of one subscription, assigned by the
// push backend. It joins inbound encrypted messages to a feature type.
type ChannelID string

// newChannelID mints a fresh candidate channel ID for a subscribe request.
// The backend's response carries the authoritative value.
func newChannelID() ChannelID {
	return ChannelID(uuid.NewString())
}

// Subscription binds endpoint and key material to one channel/feature pair.
type Subscription struct {
	// ChannelID is the backend-assigned subscription identifier.
	ChannelID ChannelID

	// FeatureType is the logical consumer this subscription serves.
	FeatureType FeatureType

	// Endpoint is the URL application servers push to.
	Endpoint string

	// PublicKey is the base64url-encoded P-256 public key for this channel.
	PublicKey string

	// AuthSecret is the base64url-encoded authentication secret.
	AuthSecret string
}

// SubscriptionResponse is the connection's answer to a subscribe request.
type SubscriptionResponse struct {
	// ChannelID is the authoritative channel identifier. It may differ from
	// the candidate the client proposed.
	ChannelID ChannelID

	// Endpoint is the URL application servers push to.
	Endpoint string

	// PublicKey is the base64url-encoded P-256 public key for this channel.
	PublicKey string

	// AuthSecret is the base64url-encoded authentication secret.
	AuthSecret string
}

// SubscriptionUpdate describes one subscription the remote service reported
// as changed during a verification pass.
type SubscriptionUpdate struct {
	// ChannelID identifies the affected subscription.
	ChannelID ChannelID

	// Scope is the scope string the subscription was created with. Used to
	// recover the feature type when the channel ID is no longer known.
	Scope string

	// Endpoint is the new endpoint URL.
	Endpoint string

	// PublicKey is the new base64url-encoded public key.
	PublicKey string

	// AuthSecret is the new base64url-encoded authentication secret.
	AuthSecret string
}

// EncryptedMessage is a raw inbound push message as delivered by the OS
// transport, before decryption.
type EncryptedMessage struct {
	// ChannelID identifies the subscription the message was sent to.
	ChannelID ChannelID

	// Body is the encrypted payload.
	Body []byte

	// Encoding names the content encoding (e.g. "aes128gcm").
	Encoding string

	// Salt is the encryption salt for encodings that carry it out of band.
	Salt string

	// CryptoKey is the sender public key for encodings that carry it out of
	// band.
	CryptoKey string
}

// ManagerState represents the coordinator lifecycle state.
type ManagerState uint8

const (
	// StateIdle - manager created but not initialized.
	StateIdle ManagerState = iota

	// StateStarting - initialization in progress.
	StateStarting

	// StateRunning - manager is running normally.
	StateRunning

	// StateStopping - shutdown in progress.
	StateStopping

	// StateStopped - manager has shut down.
	StateStopped
)

// String returns the state name.
func (s ManagerState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStarting:
		return "STARTING"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}
