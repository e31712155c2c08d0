package mock

import (
	"sync"

	"github.com/pushline/pushline-go/pkg/push"
)

// Reporter records errors routed through the manager's error sink.
type Reporter struct {
	mu     sync.RWMutex
	errors []error
}

// ReportError records the error.
func (r *Reporter) ReportError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

// Errors returns all reported errors, in order.
func (r *Reporter) Errors() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]error, len(r.errors))
	copy(out, r.errors)
	return out
}

// Count returns the number of reported errors.
func (r *Reporter) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.errors)
}

// Compile-time interface satisfaction check.
var _ push.Reporter = (*Reporter)(nil)
