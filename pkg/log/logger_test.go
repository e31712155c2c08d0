package log

import (
	"testing"
	"time"
)

// recordingLogger records events for testing
type recordingLogger struct {
	events []Event
}

func (r *recordingLogger) Log(event Event) {
	r.events = append(r.events, event)
}

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		SessionID: "test-session",
		Category:  CategoryState,
	}

	// Bare event
	logger.Log(event)

	// Token payload
	event.Token = &TokenEvent{Action: TokenRefreshed, Digest: "a1b2c3d4"}
	logger.Log(event)

	// Subscription payload
	event.Token = nil
	event.Subscription = &SubscriptionEvent{Action: SubscriptionCreated, Feature: "webpush"}
	logger.Log(event)

	// Message payload
	event.Subscription = nil
	event.Message = &MessageEvent{ChannelID: "chan-1", Outcome: MessageDispatched}
	logger.Log(event)

	// Verify payload
	event.Message = nil
	event.Verify = &VerifyEvent{Changed: 1}
	logger.Log(event)

	// Error payload
	event.Verify = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestNoopLoggerIsZeroValue(t *testing.T) {
	var logger NoopLogger
	logger.Log(Event{})
}

func TestMultiLoggerCallsAll(t *testing.T) {
	rec1 := &recordingLogger{}
	rec2 := &recordingLogger{}
	rec3 := &recordingLogger{}

	multi := NewMultiLogger(rec1, rec2, rec3)

	event := Event{
		Timestamp: time.Now(),
		SessionID: "session-123",
		Category:  CategoryToken,
		Token:     &TokenEvent{Action: TokenRefreshed},
	}
	multi.Log(event)

	for i, rec := range []*recordingLogger{rec1, rec2, rec3} {
		if len(rec.events) != 1 {
			t.Errorf("logger %d: got %d events, want 1", i, len(rec.events))
			continue
		}
		if rec.events[0].SessionID != "session-123" {
			t.Errorf("logger %d: SessionID = %q, want %q", i, rec.events[0].SessionID, "session-123")
		}
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	multi := NewMultiLogger()

	// Should not panic with no loggers
	multi.Log(Event{Timestamp: time.Now(), Category: CategoryState})
}

func TestMultiLoggerDropsNilSinks(t *testing.T) {
	rec := &recordingLogger{}
	multi := NewMultiLogger(nil, rec, nil)

	multi.Log(Event{Timestamp: time.Now(), SessionID: "session-456", Category: CategoryVerify})

	if len(rec.events) != 1 {
		t.Fatalf("got %d events, want 1", len(rec.events))
	}
	if rec.events[0].SessionID != "session-456" {
		t.Errorf("SessionID = %q, want %q", rec.events[0].SessionID, "session-456")
	}
}
