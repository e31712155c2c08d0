// Package mock provides scriptable push collaborators for testing.
package mock

import (
	"context"
	"sync"

	"github.com/pushline/pushline-go/pkg/push"
)

// Connection is a scriptable push.Connection. The zero value behaves as
// an initialized connection that accepts every request: subscribes echo
// the requested channel, verification reports no changes, and decrypt
// returns the body unchanged. Set the Func fields to script behavior.
type Connection struct {
	mu sync.RWMutex

	// Uninitialized makes IsInitialized report false.
	Uninitialized bool

	// Handlers override the default behavior when set.
	SubscribeFunc        func(ctx context.Context, channelID push.ChannelID, scope string) (push.SubscriptionResponse, error)
	UnsubscribeFunc      func(ctx context.Context, channelID push.ChannelID) (bool, error)
	UnsubscribeAllFunc   func(ctx context.Context) (bool, error)
	UpdateTokenFunc      func(ctx context.Context, token string) (bool, error)
	VerifyConnectionFunc func(ctx context.Context) ([]push.SubscriptionUpdate, error)
	DecryptFunc          func(msg push.EncryptedMessage) ([]byte, error)

	subscribed   []string
	unsubscribed []push.ChannelID
	tokens       []string
	decrypted    []push.EncryptedMessage

	verifyCalls         int
	unsubscribeAllCalls int
	closeCalls          int
}

// Subscribe records the request and returns a response echoing the
// requested channel ID with a synthetic endpoint.
func (c *Connection) Subscribe(ctx context.Context, channelID push.ChannelID, scope string) (push.SubscriptionResponse, error) {
	c.mu.Lock()
	c.subscribed = append(c.subscribed, scope)
	fn := c.SubscribeFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, channelID, scope)
	}
	return push.SubscriptionResponse{
		ChannelID:  channelID,
		Endpoint:   "https://push.example/" + string(channelID),
		PublicKey:  "test-public-key",
		AuthSecret: "test-auth-secret",
	}, nil
}

// Unsubscribe records the channel and reports success.
func (c *Connection) Unsubscribe(ctx context.Context, channelID push.ChannelID) (bool, error) {
	c.mu.Lock()
	c.unsubscribed = append(c.unsubscribed, channelID)
	fn := c.UnsubscribeFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, channelID)
	}
	return true, nil
}

// UnsubscribeAll records the call and reports success.
func (c *Connection) UnsubscribeAll(ctx context.Context) (bool, error) {
	c.mu.Lock()
	c.unsubscribeAllCalls++
	fn := c.UnsubscribeAllFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return true, nil
}

// UpdateToken records the token and reports success.
func (c *Connection) UpdateToken(ctx context.Context, token string) (bool, error) {
	c.mu.Lock()
	c.tokens = append(c.tokens, token)
	fn := c.UpdateTokenFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx, token)
	}
	return true, nil
}

// VerifyConnection records the call and reports no changes.
func (c *Connection) VerifyConnection(ctx context.Context) ([]push.SubscriptionUpdate, error) {
	c.mu.Lock()
	c.verifyCalls++
	fn := c.VerifyConnectionFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil, nil
}

// Decrypt records the message and returns the body unchanged.
func (c *Connection) Decrypt(msg push.EncryptedMessage) ([]byte, error) {
	c.mu.Lock()
	c.decrypted = append(c.decrypted, msg)
	fn := c.DecryptFunc
	c.mu.Unlock()

	if fn != nil {
		return fn(msg)
	}
	return msg.Body, nil
}

// IsInitialized reports the scripted initialization state.
func (c *Connection) IsInitialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.Uninitialized
}

// SetUninitialized flips the initialization state.
func (c *Connection) SetUninitialized(uninitialized bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Uninitialized = uninitialized
}

// Close records the call.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return nil
}

// SubscribedScopes returns the scopes of all subscribe requests, in order.
func (c *Connection) SubscribedScopes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.subscribed))
	copy(out, c.subscribed)
	return out
}

// UnsubscribedChannels returns all unsubscribed channel IDs, in order.
func (c *Connection) UnsubscribedChannels() []push.ChannelID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]push.ChannelID, len(c.unsubscribed))
	copy(out, c.unsubscribed)
	return out
}

// TokenUpdates returns all forwarded tokens, in order.
func (c *Connection) TokenUpdates() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// VerifyCalls returns the number of verification requests.
func (c *Connection) VerifyCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.verifyCalls
}

// DecryptCalls returns the number of decrypt requests.
func (c *Connection) DecryptCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.decrypted)
}

// UnsubscribeAllCalls returns the number of unsubscribe-all requests.
func (c *Connection) UnsubscribeAllCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unsubscribeAllCalls
}

// CloseCalls returns the number of Close calls.
func (c *Connection) CloseCalls() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closeCalls
}

// Compile-time interface satisfaction check.
var _ push.Connection = (*Connection)(nil)
