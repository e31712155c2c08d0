package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.plog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, reader *Reader) []Event {
	t.Helper()
	var events []Event
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		events = append(events, event)
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s1", Category: CategoryState},
		{Timestamp: time.Now(), SessionID: "s1", Category: CategoryToken, Token: &TokenEvent{Action: TokenRefreshed}},
		{Timestamp: time.Now(), SessionID: "s1", Category: CategoryVerify, Verify: &VerifyEvent{Changed: 1}},
	}
	path := createTestLogFile(t, events)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].Category != CategoryState {
		t.Errorf("first event Category = %v, want %v", read[0].Category, CategoryState)
	}
	if read[2].Category != CategoryVerify {
		t.Errorf("last event Category = %v, want %v", read[2].Category, CategoryVerify)
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	event, err := reader.Next()
	if err != io.EOF {
		t.Errorf("expected io.EOF, got err=%v, event=%+v", err, event)
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "does-not-exist.plog"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReaderFilterBySessionID(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "session-A", Category: CategoryState},
		{Timestamp: time.Now(), SessionID: "session-B", Category: CategoryState},
		{Timestamp: time.Now(), SessionID: "session-A", Category: CategoryToken},
	}
	path := createTestLogFile(t, events)

	reader, err := NewFilteredReader(path, Filter{SessionID: "session-A"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	for _, event := range read {
		if event.SessionID != "session-A" {
			t.Errorf("event SessionID = %q, want %q", event.SessionID, "session-A")
		}
	}
}

func TestReaderFilterByCategory(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), Category: CategoryState},
		{Timestamp: time.Now(), Category: CategoryToken, Token: &TokenEvent{Action: TokenRefreshed}},
		{Timestamp: time.Now(), Category: CategoryToken, Token: &TokenEvent{Action: TokenCleared}},
	}
	path := createTestLogFile(t, events)

	category := CategoryToken
	reader, err := NewFilteredReader(path, Filter{Category: &category})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 2 {
		t.Fatalf("got %d events, want 2", len(read))
	}
	if read[0].Token.Action != TokenRefreshed || read[1].Token.Action != TokenCleared {
		t.Error("filtered events out of order or wrong")
	}
}

func TestReaderFilterByFeature(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), Category: CategorySubscription, Subscription: &SubscriptionEvent{Action: SubscriptionCreated, Feature: "webpush"}},
		{Timestamp: time.Now(), Category: CategorySubscription, Subscription: &SubscriptionEvent{Action: SubscriptionCreated, Feature: "services"}},
		{Timestamp: time.Now(), Category: CategoryMessage, Message: &MessageEvent{ChannelID: "c1", Feature: "webpush", Outcome: MessageDispatched}},
		{Timestamp: time.Now(), Category: CategoryState},
	}
	path := createTestLogFile(t, events)

	reader, err := NewFilteredReader(path, Filter{Feature: "webpush"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 2 {
		t.Fatalf("got %d events, want 2 (subscription and message)", len(read))
	}
	if read[0].Subscription == nil || read[1].Message == nil {
		t.Errorf("unexpected events: %+v", read)
	}
}

func TestReaderFilterByTimeWindow(t *testing.T) {
	base := time.Date(2026, 8, 14, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, Category: CategoryState},
		{Timestamp: base.Add(time.Minute), Category: CategoryState},
		{Timestamp: base.Add(2 * time.Minute), Category: CategoryState},
	}
	path := createTestLogFile(t, events)

	start := base.Add(30 * time.Second)
	end := base.Add(90 * time.Second)
	reader, err := NewFilteredReader(path, Filter{TimeStart: &start, TimeEnd: &end})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 1 {
		t.Fatalf("got %d events, want 1", len(read))
	}
	if !read[0].Timestamp.Equal(base.Add(time.Minute)) {
		t.Errorf("wrong event selected: %v", read[0].Timestamp)
	}
}
