package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes push events to an slog.Logger.
// Useful for development when you want to see events in console.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}

	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session_id", event.SessionID))
	}

	// Add type-specific attributes
	switch {
	case event.Token != nil:
		attrs = append(attrs, slog.String("action", event.Token.Action.String()))
		if event.Token.Digest != "" {
			attrs = append(attrs, slog.String("token_digest", event.Token.Digest))
		}
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("action", event.Subscription.Action.String()),
			slog.String("feature", event.Subscription.Feature),
		)
		if event.Subscription.ChannelID != "" {
			attrs = append(attrs, slog.String("channel_id", event.Subscription.ChannelID))
		}
		if event.Subscription.Endpoint != "" {
			attrs = append(attrs, slog.String("endpoint", event.Subscription.Endpoint))
		}
	case event.Message != nil:
		attrs = append(attrs,
			slog.String("channel_id", event.Message.ChannelID),
			slog.String("outcome", event.Message.Outcome.String()),
		)
		if event.Message.Feature != "" {
			attrs = append(attrs, slog.String("feature", event.Message.Feature))
		}
		if event.Message.Size > 0 {
			attrs = append(attrs, slog.Int("size", event.Message.Size))
		}
	case event.Verify != nil:
		attrs = append(attrs, slog.Int("changed", event.Verify.Changed))
		if event.Verify.Skipped > 0 {
			attrs = append(attrs, slog.Int("skipped", event.Verify.Skipped))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.String("old_state", event.StateChange.OldState),
			slog.String("new_state", event.StateChange.NewState),
		)
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Kind != "" {
			attrs = append(attrs, slog.String("error_kind", event.Error.Kind))
		}
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "push", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
