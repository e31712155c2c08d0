package examples

import (
	"context"
	"sync"
	"testing"

	"github.com/pushline/pushline-go/pkg/push"
)

// recordingSink records callbacks raised by the loopback.
type recordingSink struct {
	mu     sync.Mutex
	tokens []string
	msgs   []push.EncryptedMessage
}

func (s *recordingSink) OnNewToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
}

func (s *recordingSink) OnMessageReceived(msg push.EncryptedMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
}

func TestLoopbackStartRequiresSink(t *testing.T) {
	lb := NewLoopback()
	if err := lb.Start(context.Background()); err != ErrNotBound {
		t.Fatalf("Start() error = %v, want ErrNotBound", err)
	}
}

func TestLoopbackTokenLifecycle(t *testing.T) {
	lb := NewLoopback()
	sink := &recordingSink{}
	lb.Bind(sink)
	ctx := context.Background()

	if err := lb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if len(sink.tokens) != 1 {
		t.Fatalf("got %d token deliveries, want 1", len(sink.tokens))
	}
	first := sink.tokens[0]
	if first == "" {
		t.Fatal("delivered token is empty")
	}
	if lb.CurrentToken() != first {
		t.Errorf("CurrentToken() = %q, want %q", lb.CurrentToken(), first)
	}

	// A plain restart redelivers the same registration.
	if err := lb.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := lb.Start(ctx); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	if sink.tokens[1] != first {
		t.Errorf("restart delivered %q, want the original token %q", sink.tokens[1], first)
	}

	// Deleting the registration mints a fresh token on the next start.
	if err := lb.DeleteToken(ctx); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if err := lb.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := lb.Start(ctx); err != nil {
		t.Fatalf("restart after delete error = %v", err)
	}
	if sink.tokens[2] == first {
		t.Error("token survived DeleteToken")
	}
}

func TestLoopbackSubscribeAndDeliver(t *testing.T) {
	lb := NewLoopback()
	sink := &recordingSink{}
	lb.Bind(sink)
	ctx := context.Background()

	if err := lb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	resp, err := lb.Subscribe(ctx, "chan-1", "webpush")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if resp.ChannelID != "chan-1" {
		t.Errorf("ChannelID = %q, want %q", resp.ChannelID, "chan-1")
	}
	if resp.Endpoint == "" || resp.PublicKey == "" || resp.AuthSecret == "" {
		t.Errorf("incomplete subscription response: %+v", resp)
	}

	if err := lb.Deliver("chan-1", []byte("hello loopback")); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}
	if len(sink.msgs) != 1 {
		t.Fatalf("got %d deliveries, want 1", len(sink.msgs))
	}

	msg := sink.msgs[0]
	if string(msg.Body) == "hello loopback" {
		t.Error("body was delivered unwrapped")
	}
	plaintext, err := lb.Decrypt(msg)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if string(plaintext) != "hello loopback" {
		t.Errorf("Decrypt() = %q, want %q", plaintext, "hello loopback")
	}
}

func TestLoopbackDeliverUnknownChannel(t *testing.T) {
	lb := NewLoopback()
	lb.Bind(&recordingSink{})

	if err := lb.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := lb.Deliver("nope", []byte("x")); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestLoopbackDeliverWhileStopped(t *testing.T) {
	lb := NewLoopback()
	sink := &recordingSink{}
	lb.Bind(sink)
	ctx := context.Background()

	if err := lb.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := lb.Subscribe(ctx, "chan-1", "webpush"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if err := lb.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if err := lb.Deliver("chan-1", []byte("x")); err != ErrStopped {
		t.Errorf("Deliver() error = %v, want ErrStopped", err)
	}
	if len(sink.msgs) != 0 {
		t.Errorf("got %d deliveries on a stopped transport, want 0", len(sink.msgs))
	}
}

func TestLoopbackUnsubscribe(t *testing.T) {
	lb := NewLoopback()
	ctx := context.Background()

	if _, err := lb.Subscribe(ctx, "chan-1", "services"); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	found, err := lb.Unsubscribe(ctx, "chan-1")
	if err != nil || !found {
		t.Errorf("Unsubscribe() = %v, %v; want true, nil", found, err)
	}
	found, err = lb.Unsubscribe(ctx, "chan-1")
	if err != nil || found {
		t.Errorf("second Unsubscribe() = %v, %v; want false, nil", found, err)
	}
	if lb.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", lb.SubscriptionCount())
	}
}

func TestLoopbackRotateEndpoint(t *testing.T) {
	lb := NewLoopback()
	ctx := context.Background()

	resp, err := lb.Subscribe(ctx, "chan-1", "webpush")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := lb.RotateEndpoint("chan-1"); err != nil {
		t.Fatalf("RotateEndpoint() error = %v", err)
	}
	if err := lb.RotateEndpoint("unknown"); err == nil {
		t.Error("expected error for unknown channel")
	}

	updates, err := lb.VerifyConnection(ctx)
	if err != nil {
		t.Fatalf("VerifyConnection() error = %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(updates))
	}
	if updates[0].ChannelID != "chan-1" || updates[0].Scope != "webpush" {
		t.Errorf("unexpected update: %+v", updates[0])
	}
	if updates[0].Endpoint == resp.Endpoint {
		t.Error("rotation kept the old endpoint")
	}

	// A second pass reports nothing; the queue drained.
	updates, err = lb.VerifyConnection(ctx)
	if err != nil {
		t.Fatalf("second VerifyConnection() error = %v", err)
	}
	if len(updates) != 0 {
		t.Errorf("got %d updates after drain, want 0", len(updates))
	}
}

func TestLoopbackInitialization(t *testing.T) {
	lb := NewLoopback()
	ctx := context.Background()

	if lb.IsInitialized() {
		t.Error("fresh loopback reports initialized")
	}

	if _, err := lb.UpdateToken(ctx, "tok"); err != nil {
		t.Fatalf("UpdateToken() error = %v", err)
	}
	if !lb.IsInitialized() {
		t.Error("loopback not initialized after UpdateToken")
	}

	if err := lb.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if lb.IsInitialized() {
		t.Error("loopback still initialized after Close")
	}
}
