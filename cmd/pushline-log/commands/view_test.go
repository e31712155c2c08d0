package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pushline/pushline-go/pkg/log"
)

func TestFormatTokenEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryToken,
		Token: &log.TokenEvent{
			Action: log.TokenRefreshed,
			Digest: "1a2b3c4d",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	// Check timestamp format
	if !strings.Contains(output, "2026-02-03T10:15:32.123456Z") {
		t.Errorf("expected RFC3339Nano timestamp, got: %s", output)
	}

	// Check session ID (shortened)
	if !strings.Contains(output, "[sess:abc12345]") {
		t.Errorf("expected shortened session ID, got: %s", output)
	}

	// Check category and action
	if !strings.Contains(output, "TOKEN") {
		t.Errorf("expected TOKEN category, got: %s", output)
	}
	if !strings.Contains(output, "REFRESHED") {
		t.Errorf("expected REFRESHED action, got: %s", output)
	}

	// Check digest
	if !strings.Contains(output, "Digest: 1a2b3c4d") {
		t.Errorf("expected token digest, got: %s", output)
	}
}

func TestFormatSubscriptionEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			Action:    log.SubscriptionCreated,
			Feature:   "services",
			ChannelID: "chan-001",
			Endpoint:  "https://push.example/chan-001",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "SUBSCRIPTION") {
		t.Errorf("expected SUBSCRIPTION category, got: %s", output)
	}
	if !strings.Contains(output, "CREATED") {
		t.Errorf("expected CREATED action, got: %s", output)
	}
	if !strings.Contains(output, "Feature: services") {
		t.Errorf("expected feature detail, got: %s", output)
	}
	if !strings.Contains(output, "Channel: chan-001") {
		t.Errorf("expected channel detail, got: %s", output)
	}
	if !strings.Contains(output, "Endpoint: https://push.example/chan-001") {
		t.Errorf("expected endpoint detail, got: %s", output)
	}
}

func TestFormatMessageEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			ChannelID: "chan-001",
			Feature:   "webpush",
			Outcome:   log.MessageDispatched,
			Size:      42,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "MESSAGE") {
		t.Errorf("expected MESSAGE category, got: %s", output)
	}
	if !strings.Contains(output, "DISPATCHED") {
		t.Errorf("expected DISPATCHED outcome, got: %s", output)
	}
	if !strings.Contains(output, "Channel: chan-001") {
		t.Errorf("expected channel detail, got: %s", output)
	}
	if !strings.Contains(output, "Feature: webpush") {
		t.Errorf("expected feature detail, got: %s", output)
	}
	if !strings.Contains(output, "Size: 42 bytes") {
		t.Errorf("expected size detail, got: %s", output)
	}
}

func TestFormatMessageEventUnknownChannel(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryMessage,
		Message: &log.MessageEvent{
			ChannelID: "chan-gone",
			Outcome:   log.MessageUnknownChannel,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "UNKNOWN_CHANNEL") {
		t.Errorf("expected UNKNOWN_CHANNEL outcome, got: %s", output)
	}

	// Feature and size lines should NOT appear when unset
	if strings.Contains(output, "Feature:") {
		t.Errorf("expected no feature detail, got: %s", output)
	}
	if strings.Contains(output, "Size:") {
		t.Errorf("expected no size detail, got: %s", output)
	}
}

func TestFormatVerifyEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryVerify,
		Verify: &log.VerifyEvent{
			Changed: 2,
			Skipped: 1,
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "VERIFY") {
		t.Errorf("expected VERIFY category, got: %s", output)
	}
	if !strings.Contains(output, "Changed: 2") {
		t.Errorf("expected changed count, got: %s", output)
	}
	if !strings.Contains(output, "Skipped: 1") {
		t.Errorf("expected skipped count, got: %s", output)
	}
}

func TestFormatStateChangeEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 30, 0, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: "IDLE",
			NewState: "STARTING",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "STATE") {
		t.Errorf("expected STATE category, got: %s", output)
	}
	if !strings.Contains(output, "IDLE -> STARTING") {
		t.Errorf("expected state transition, got: %s", output)
	}
}

func TestFormatStateChangeEventNoOldState(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 30, 0, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryState,
		StateChange: &log.StateChangeEvent{
			NewState: "RUNNING",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "-> RUNNING") {
		t.Errorf("expected transition without old state, got: %s", output)
	}
}

func TestFormatErrorEvent(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 15, 32, 123456000, time.UTC)
	event := log.Event{
		Timestamp: ts,
		SessionID: "abc12345-6789-0123-4567-890abcdef012",
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Kind:    "transport",
			Message: "connection refused",
			Context: "initialize",
		},
	}

	var buf bytes.Buffer
	formatEvent(&buf, event)
	output := buf.String()

	if !strings.Contains(output, "ERROR") {
		t.Errorf("expected ERROR category, got: %s", output)
	}
	if !strings.Contains(output, "Kind: transport") {
		t.Errorf("expected error kind, got: %s", output)
	}
	if !strings.Contains(output, "Message: connection refused") {
		t.Errorf("expected error message, got: %s", output)
	}
	if !strings.Contains(output, "Context: initialize") {
		t.Errorf("expected error context, got: %s", output)
	}
}

func TestViewFilterMatches(t *testing.T) {
	cat := log.CategoryMessage
	tests := []struct {
		name   string
		filter ViewFilter
		event  log.Event
		want   bool
	}{
		{
			name:   "empty filter matches all",
			filter: ViewFilter{},
			event:  log.Event{SessionID: "any", Category: log.CategoryToken},
			want:   true,
		},
		{
			name:   "session prefix match",
			filter: ViewFilter{SessionPrefix: "abc1"},
			event:  log.Event{SessionID: "abc12345-6789"},
			want:   true,
		},
		{
			name:   "session prefix mismatch",
			filter: ViewFilter{SessionPrefix: "abc1"},
			event:  log.Event{SessionID: "def45678-0123"},
			want:   false,
		},
		{
			name:   "category match",
			filter: ViewFilter{Category: &cat},
			event:  log.Event{Category: log.CategoryMessage, Message: &log.MessageEvent{}},
			want:   true,
		},
		{
			name:   "category mismatch",
			filter: ViewFilter{Category: &cat},
			event:  log.Event{Category: log.CategoryToken, Token: &log.TokenEvent{}},
			want:   false,
		},
		{
			name:   "feature matches subscription events",
			filter: ViewFilter{Feature: "services"},
			event: log.Event{
				Category:     log.CategorySubscription,
				Subscription: &log.SubscriptionEvent{Feature: "services"},
			},
			want: true,
		},
		{
			name:   "feature matches message events",
			filter: ViewFilter{Feature: "webpush"},
			event: log.Event{
				Category: log.CategoryMessage,
				Message:  &log.MessageEvent{Feature: "webpush"},
			},
			want: true,
		},
		{
			name:   "feature excludes other features",
			filter: ViewFilter{Feature: "webpush"},
			event: log.Event{
				Category: log.CategoryMessage,
				Message:  &log.MessageEvent{Feature: "services"},
			},
			want: false,
		},
		{
			name:   "feature excludes events without a feature",
			filter: ViewFilter{Feature: "webpush"},
			event:  log.Event{Category: log.CategoryState, StateChange: &log.StateChangeEvent{NewState: "RUNNING"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.matches(tt.event); got != tt.want {
				t.Errorf("matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input    string
		expected log.Category
		wantErr  bool
	}{
		{"token", log.CategoryToken, false},
		{"TOKEN", log.CategoryToken, false},
		{"subscription", log.CategorySubscription, false},
		{"sub", log.CategorySubscription, false},
		{"message", log.CategoryMessage, false},
		{"verify", log.CategoryVerify, false},
		{"state", log.CategoryState, false},
		{"error", log.CategoryError, false},
		{"invalid", 0, true},
	}

	for _, tt := range tests {
		got, err := parseCategory(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseCategory(%q) expected error", tt.input)
			}
		} else {
			if err != nil {
				t.Errorf("parseCategory(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("parseCategory(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		}
	}
}

func TestRunView(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			SessionID: "session-one",
			Category:  log.CategoryToken,
			Token:     &log.TokenEvent{Action: log.TokenRefreshed, Digest: "aabbccdd"},
		},
		{
			Timestamp: ts.Add(time.Second),
			SessionID: "session-one",
			Category:  log.CategoryMessage,
			Message:   &log.MessageEvent{ChannelID: "chan-1", Feature: "services", Outcome: log.MessageDispatched, Size: 11},
		},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "REFRESHED") {
		t.Errorf("expected token event in output, got: %s", output)
	}
	if !strings.Contains(output, "DISPATCHED") {
		t.Errorf("expected message event in output, got: %s", output)
	}
}

func TestRunViewWithCategoryFilter(t *testing.T) {
	ts := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{
			Timestamp: ts,
			SessionID: "session-one",
			Category:  log.CategoryToken,
			Token:     &log.TokenEvent{Action: log.TokenRefreshed, Digest: "aabbccdd"},
		},
		{
			Timestamp: ts.Add(time.Second),
			SessionID: "session-one",
			Category:  log.CategoryMessage,
			Message:   &log.MessageEvent{ChannelID: "chan-1", Outcome: log.MessageDispatched, Size: 11},
		},
	}

	path := createTestLogFile(t, events)

	cat := log.CategoryMessage
	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}

	output := buf.String()
	if strings.Contains(output, "REFRESHED") {
		t.Errorf("expected token event filtered out, got: %s", output)
	}
	if !strings.Contains(output, "DISPATCHED") {
		t.Errorf("expected message event in output, got: %s", output)
	}
}

func TestRunViewMissingFile(t *testing.T) {
	err := RunView("/nonexistent/path.plog", ViewFilter{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
