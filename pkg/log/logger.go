package log

// Logger is the interface applications implement to receive push events.
// Pass nil or NoopLogger to disable capture.
//
// Implementations must be safe for concurrent use: the manager logs from
// its worker goroutines. Log should return quickly; a slow sink stalls
// the workers.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. Use when capture is disabled.
// Safe for concurrent use and usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// MultiLogger fans one event stream out to several sinks, typically a
// FileLogger for capture plus a SlogAdapter for console debugging.
// Nil sinks are dropped at construction.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger creates a MultiLogger over the given sinks.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	kept := make([]Logger, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			kept = append(kept, s)
		}
	}
	return &MultiLogger{sinks: kept}
}

// Log forwards the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

// Compile-time interface satisfaction checks.
var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
