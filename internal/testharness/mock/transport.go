package mock

import (
	"context"
	"sync"

	"github.com/pushline/pushline-go/pkg/push"
)

// Transport is a scriptable push.Transport. The zero value starts and
// stops without errors and never delivers anything on its own; tests
// drive deliveries through the manager directly.
type Transport struct {
	mu sync.RWMutex

	// Handlers override the default behavior when set.
	StartFunc       func(ctx context.Context) error
	StopFunc        func() error
	DeleteTokenFunc func(ctx context.Context) error

	startCalls       int
	stopCalls        int
	deleteTokenCalls int
}

// Start records the call.
func (t *Transport) Start(ctx context.Context) error {
	t.mu.Lock()
	t.startCalls++
	fn := t.StartFunc
	t.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Stop records the call.
func (t *Transport) Stop() error {
	t.mu.Lock()
	t.stopCalls++
	fn := t.StopFunc
	t.mu.Unlock()

	if fn != nil {
		return fn()
	}
	return nil
}

// DeleteToken records the call.
func (t *Transport) DeleteToken(ctx context.Context) error {
	t.mu.Lock()
	t.deleteTokenCalls++
	fn := t.DeleteTokenFunc
	t.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// StartCalls returns the number of Start calls.
func (t *Transport) StartCalls() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.startCalls
}

// StopCalls returns the number of Stop calls.
func (t *Transport) StopCalls() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.stopCalls
}

// DeleteTokenCalls returns the number of DeleteToken calls.
func (t *Transport) DeleteTokenCalls() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deleteTokenCalls
}

// Compile-time interface satisfaction check.
var _ push.Transport = (*Transport)(nil)
