package examples

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/pushline/pushline-go/pkg/push"
)

// ErrNotBound is returned when the loopback is started before a sink
// was bound.
var ErrNotBound = errors.New("loopback: no sink bound")

// ErrStopped is returned when a delivery is injected while the
// transport side is not running.
var ErrStopped = errors.New("loopback: transport stopped")

// Sink receives transport callbacks. *push.Manager satisfies it.
type Sink interface {
	OnNewToken(token string)
	OnMessageReceived(msg push.EncryptedMessage)
}

// Loopback is an in-process push provider implementing both the
// Connection and Transport ports. It keeps registrations in memory and
// lets callers inject deliveries, standing in for the OS push transport
// and the subscription service at once.
//
// Wire it on both sides of a manager, then bind the manager back as the
// callback sink:
//
//	lb := examples.NewLoopback()
//	manager, err := push.NewManager(push.Config{
//		Connection: lb,
//		Transport:  lb,
//		Store:      persistence.NewMemoryStore(),
//	})
//	lb.Bind(manager)
type Loopback struct {
	mu sync.Mutex

	sink Sink

	started bool

	// token is the registration held by the transport side; activeToken
	// is what the connection side last received via UpdateToken.
	token       string
	activeToken string

	subscriptions map[push.ChannelID]*loopbackSubscription
	pending       []push.SubscriptionUpdate
}

type loopbackSubscription struct {
	scope      string
	endpoint   string
	publicKey  string
	authSecret string
}

// NewLoopback creates an empty loopback provider.
func NewLoopback() *Loopback {
	return &Loopback{
		subscriptions: make(map[push.ChannelID]*loopbackSubscription),
	}
}

// Bind sets the callback sink. Must be called before Start.
func (l *Loopback) Bind(sink Sink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink = sink
}

// Start marks the transport as running and delivers the registration
// token through the sink, minting one on first start. The delivery is
// synchronous, like an OS transport raising its callback during
// registration.
func (l *Loopback) Start(_ context.Context) error {
	l.mu.Lock()
	if l.sink == nil {
		l.mu.Unlock()
		return ErrNotBound
	}
	l.started = true
	if l.token == "" {
		l.token = "loopback-" + uuid.NewString()
	}
	sink, token := l.sink, l.token
	l.mu.Unlock()

	sink.OnNewToken(token)
	return nil
}

// Stop marks the transport as stopped. The registration token survives,
// as it does on a real device.
func (l *Loopback) Stop() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = false
	return nil
}

// DeleteToken discards the registration; the next Start mints a fresh
// token.
func (l *Loopback) DeleteToken(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.token = ""
	return nil
}

// Subscribe records a subscription and returns a synthetic endpoint and
// key material for it.
func (l *Loopback) Subscribe(_ context.Context, channelID push.ChannelID, scope string) (push.SubscriptionResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub := &loopbackSubscription{
		scope:      scope,
		endpoint:   newEndpoint(scope, channelID),
		publicKey:  newSecret(32),
		authSecret: newSecret(16),
	}
	l.subscriptions[channelID] = sub

	return push.SubscriptionResponse{
		ChannelID:  channelID,
		Endpoint:   sub.endpoint,
		PublicKey:  sub.publicKey,
		AuthSecret: sub.authSecret,
	}, nil
}

// Unsubscribe removes the subscription. Reports whether it existed.
func (l *Loopback) Unsubscribe(_ context.Context, channelID push.ChannelID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.subscriptions[channelID]
	delete(l.subscriptions, channelID)
	return ok, nil
}

// UnsubscribeAll removes every subscription.
func (l *Loopback) UnsubscribeAll(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.subscriptions = make(map[push.ChannelID]*loopbackSubscription)
	return true, nil
}

// UpdateToken accepts the token; the connection side is initialized
// from here on.
func (l *Loopback) UpdateToken(_ context.Context, token string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeToken = token
	return true, nil
}

// VerifyConnection reports the updates queued by RotateEndpoint since
// the last pass.
func (l *Loopback) VerifyConnection(_ context.Context) ([]push.SubscriptionUpdate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	updates := l.pending
	l.pending = nil
	return updates, nil
}

// Decrypt unwraps a loopback delivery: the body is base64, not
// ciphertext.
func (l *Loopback) Decrypt(msg push.EncryptedMessage) ([]byte, error) {
	plaintext, err := base64.StdEncoding.DecodeString(string(msg.Body))
	if err != nil {
		return nil, fmt.Errorf("loopback: undecodable body: %w", err)
	}
	return plaintext, nil
}

// IsInitialized reports whether a token has been forwarded over the
// connection.
func (l *Loopback) IsInitialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeToken != ""
}

// Close drops the connection-side state.
func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.activeToken = ""
	return nil
}

// Deliver injects a push message for the channel, base64-wrapping the
// payload the way Start delivers tokens: synchronously through the
// sink. The transport must be running; a stopped transport delivers
// nothing.
func (l *Loopback) Deliver(channelID push.ChannelID, payload []byte) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return ErrStopped
	}
	if _, ok := l.subscriptions[channelID]; !ok {
		l.mu.Unlock()
		return fmt.Errorf("loopback: unknown channel %q", channelID)
	}
	if l.sink == nil {
		l.mu.Unlock()
		return ErrNotBound
	}
	sink := l.sink
	l.mu.Unlock()

	sink.OnMessageReceived(push.EncryptedMessage{
		ChannelID: channelID,
		Body:      []byte(base64.StdEncoding.EncodeToString(payload)),
		Encoding:  "loopback",
		Salt:      newSecret(16),
		CryptoKey: newSecret(32),
	})
	return nil
}

// RotateEndpoint assigns the subscription a new endpoint and key
// material and queues the change for the next verification pass, the
// way a push service rotates endpoints server-side.
func (l *Loopback) RotateEndpoint(channelID push.ChannelID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	sub, ok := l.subscriptions[channelID]
	if !ok {
		return fmt.Errorf("loopback: unknown channel %q", channelID)
	}

	sub.endpoint = newEndpoint(sub.scope, channelID)
	sub.publicKey = newSecret(32)
	sub.authSecret = newSecret(16)

	l.pending = append(l.pending, push.SubscriptionUpdate{
		ChannelID:  channelID,
		Scope:      sub.scope,
		Endpoint:   sub.endpoint,
		PublicKey:  sub.publicKey,
		AuthSecret: sub.authSecret,
	})
	return nil
}

// CurrentToken returns the registration token held by the transport
// side, for display in demos.
func (l *Loopback) CurrentToken() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.token
}

// SubscriptionCount returns the number of active subscriptions.
func (l *Loopback) SubscriptionCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subscriptions)
}

func newEndpoint(scope string, channelID push.ChannelID) string {
	return fmt.Sprintf("https://loopback.push.example/%s/%s/%s", scope, channelID, newSecret(6))
}

// newSecret returns n random bytes, base64url-encoded.
func newSecret(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// Compile-time interface satisfaction checks.
var (
	_ push.Connection = (*Loopback)(nil)
	_ push.Transport  = (*Loopback)(nil)
)
