package log

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends push events to a CBOR capture file. Safe for
// concurrent use from multiple goroutines.
type FileLogger struct {
	mu      sync.Mutex
	file    *os.File // nil once closed
	encoder *cbor.Encoder
}

// NewFileLogger opens the capture file at path, creating it if needed.
// Events append to an existing file. Permissions are 0600: captures
// carry subscription endpoints.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &FileLogger{file: f, encoder: NewEncoder(f)}, nil
}

// Log appends the event. Encoding errors are swallowed; capture must not
// disrupt the manager.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return
	}
	_ = l.encoder.Encode(event)
}

// Close closes the capture file. Safe to call more than once; later Log
// calls are silently dropped.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Compile-time interface satisfaction check.
var _ Logger = (*FileLogger)(nil)
