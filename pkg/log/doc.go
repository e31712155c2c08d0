// Package log provides structured push event capture for pushline.
//
// This package defines the Logger interface and Event types for recording
// what the push manager did: token lifecycle, subscription changes, message
// dispatch outcomes, verification passes, state transitions, and errors.
// It is separate from operational logging (slog) - event capture provides
// a complete machine-readable trace for debugging and analysis.
//
// # Basic Usage
//
// Applications configure capture by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.EventLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.EventLogger, _ = log.NewFileLogger("/var/log/pushline/agent.plog")
//
//	// Both: use MultiLogger
//	fileLogger, _ := log.NewFileLogger("/var/log/pushline/agent.plog")
//	cfg.EventLogger = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # Event Types
//
// Each event carries one typed payload matching its category:
//   - Token: registration token lifecycle (TokenEvent, digest only)
//   - Subscription: created/updated/removed entries (SubscriptionEvent)
//   - Message: inbound message dispatch outcomes (MessageEvent)
//   - Verify: verification pass results (VerifyEvent)
//   - State: manager lifecycle transitions (StateChangeEvent)
//   - Error: failures routed through the error sink (ErrorEventData)
//
// Registration tokens are credentials; events record a short digest and
// never the raw value.
//
// # File Format
//
// Log files use CBOR encoding with .plog extension. The pushline-log CLI
// tool provides viewing, filtering, and export capabilities.
package log
