// Package commands implements the pushline-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/pushline/pushline-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	SessionPrefix string
	Category      *log.Category
	Feature       string
}

// matches returns true if the event passes the view filter.
func (f ViewFilter) matches(event log.Event) bool {
	if f.SessionPrefix != "" && !strings.HasPrefix(event.SessionID, f.SessionPrefix) {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.Feature != "" && eventFeature(event) != f.Feature {
		return false
	}
	return true
}

// eventFeature extracts the feature scope an event refers to, if any.
func eventFeature(event log.Event) string {
	switch {
	case event.Subscription != nil:
		return event.Subscription.Feature
	case event.Message != nil:
		return event.Message.Feature
	default:
		return ""
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sess:id] CATEGORY Label
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenSessionID(event.SessionID)

	// Determine event label
	var label string
	switch {
	case event.Token != nil:
		label = event.Token.Action.String()
	case event.Subscription != nil:
		label = event.Subscription.Action.String()
	case event.Message != nil:
		label = event.Message.Outcome.String()
	case event.Verify != nil:
		label = "PASS"
	case event.StateChange != nil:
		label = event.StateChange.NewState
	case event.Error != nil:
		label = "Error"
	default:
		label = "Unknown"
	}

	fmt.Fprintf(w, "%s [sess:%s] %-12s %s\n", ts, sessionID, event.Category.String(), label)

	// Type-specific details
	switch {
	case event.Token != nil:
		formatTokenDetails(w, event.Token)
	case event.Subscription != nil:
		formatSubscriptionDetails(w, event.Subscription)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.Verify != nil:
		formatVerifyDetails(w, event.Verify)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenSessionID returns the first 8 characters of the session ID.
func shortenSessionID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// formatTokenDetails writes token event details.
func formatTokenDetails(w io.Writer, token *log.TokenEvent) {
	if token.Digest != "" {
		fmt.Fprintf(w, "  Digest: %s\n", token.Digest)
	}
}

// formatSubscriptionDetails writes subscription event details.
func formatSubscriptionDetails(w io.Writer, sub *log.SubscriptionEvent) {
	fmt.Fprintf(w, "  Feature: %s\n", sub.Feature)
	if sub.ChannelID != "" {
		fmt.Fprintf(w, "  Channel: %s\n", sub.ChannelID)
	}
	if sub.Endpoint != "" {
		fmt.Fprintf(w, "  Endpoint: %s\n", sub.Endpoint)
	}
}

// formatMessageDetails writes message event details.
func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	fmt.Fprintf(w, "  Channel: %s\n", msg.ChannelID)
	if msg.Feature != "" {
		fmt.Fprintf(w, "  Feature: %s\n", msg.Feature)
	}
	if msg.Size > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", msg.Size)
	}
}

// formatVerifyDetails writes verification pass details.
func formatVerifyDetails(w io.Writer, verify *log.VerifyEvent) {
	fmt.Fprintf(w, "  Changed: %d\n", verify.Changed)
	if verify.Skipped > 0 {
		fmt.Fprintf(w, "  Skipped: %d\n", verify.Skipped)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, errData *log.ErrorEventData) {
	if errData.Kind != "" {
		fmt.Fprintf(w, "  Kind: %s\n", errData.Kind)
	}
	fmt.Fprintf(w, "  Message: %s\n", errData.Message)
	if errData.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", errData.Context)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "token":
		return log.CategoryToken, nil
	case "subscription", "sub":
		return log.CategorySubscription, nil
	case "message":
		return log.CategoryMessage, nil
	case "verify":
		return log.CategoryVerify, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be token, subscription, message, verify, state, or error)", s)
	}
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		if !filter.matches(event) {
			continue
		}

		formatEvent(output, event)
	}

	return nil
}
