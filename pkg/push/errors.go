package push

import (
	"errors"
	"fmt"
)

// Manager errors.
var (
	ErrNotStarted         = errors.New("push manager not started")
	ErrAlreadyStarted     = errors.New("push manager already started")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrUnknownFeatureType = errors.New("unknown feature type")
)

// ErrorKind classifies a failure funneled through the error sink.
type ErrorKind uint8

const (
	// KindSubscribe - a subscribe request against the connection failed.
	KindSubscribe ErrorKind = iota

	// KindUnsubscribe - an unsubscribe request against the connection failed.
	KindUnsubscribe

	// KindTokenUpdate - pushing a registration token to the connection failed.
	KindTokenUpdate

	// KindVerify - a verification pass against the remote service failed.
	KindVerify

	// KindDecrypt - decrypting an inbound message failed.
	KindDecrypt

	// KindTransport - starting, stopping, or resetting the OS transport failed.
	KindTransport

	// KindStorage - reading or writing persisted state failed.
	KindStorage
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindSubscribe:
		return "SUBSCRIBE"
	case KindUnsubscribe:
		return "UNSUBSCRIBE"
	case KindTokenUpdate:
		return "TOKEN_UPDATE"
	case KindVerify:
		return "VERIFY"
	case KindDecrypt:
		return "DECRYPT"
	case KindTransport:
		return "TRANSPORT"
	case KindStorage:
		return "STORAGE"
	default:
		return "UNKNOWN"
	}
}

// Error wraps a collaborator failure with the operation that hit it. All
// connection, transport, and storage failures reach the error sink as *Error;
// they never propagate to public API callers.
type Error struct {
	// Kind classifies the failed operation.
	Kind ErrorKind

	// Op names the manager operation that was running (e.g. "subscribe").
	Op string

	// Err is the underlying failure.
	Err error
}

// Error returns the formatted message.
func (e *Error) Error() string {
	return fmt.Sprintf("push %s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying failure.
func (e *Error) Unwrap() error {
	return e.Err
}

// wrapErr builds the sink error for a failed operation.
func wrapErr(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
