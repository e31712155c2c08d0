package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pushline/pushline-go/pkg/log"
	"github.com/pushline/pushline-go/pkg/persistence"
)

// Manager coordinates push registration, subscriptions, and message
// dispatch for a client. All state-mutating operations are serialized on
// one internal worker; observer callbacks run on a second worker so OS
// callback paths are never blocked by user code.
type Manager struct {
	mu sync.RWMutex

	// Configuration
	config Config

	// Lifecycle state
	state ManagerState

	// External collaborators
	conn      Connection
	transport Transport
	store     persistence.Store
	reporter  Reporter

	// Subscription bookkeeping
	registry  *registry
	observers *observerBus

	// Serialized workers (created on Initialize)
	ops      *taskQueue
	dispatch *taskQueue

	// Base context for connection calls
	ctx    context.Context
	cancel context.CancelFunc

	// Transport restart retry
	restartBackoff *backoff
	restartTimer   *time.Timer

	// Token already forwarded to the connection this run.
	// Mutated only on the ops worker.
	tokenSynced bool

	// Identifies one manager run in the event log
	sessionID string

	// Logging
	logger      *slog.Logger
	eventLogger log.Logger
}

// NewManager creates a manager from the given configuration.
func NewManager(config Config) (*Manager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.VerifyInterval == 0 {
		config.VerifyInterval = DefaultVerifyInterval
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}

	return &Manager{
		config:         config,
		state:          StateIdle,
		conn:           config.Connection,
		transport:      config.Transport,
		store:          config.Store,
		reporter:       config.Reporter,
		registry:       newRegistry(),
		observers:      newObserverBus(),
		restartBackoff: newBackoff(config.RestartBackoffInitial, config.RestartBackoffMax),
		logger:         config.Logger,
		eventLogger:    config.EventLogger,
	}, nil
}

// Initialize starts the manager: its workers, then the transport. If a
// persisted token exists it is forwarded to the connection, and an
// overdue verification pass is scheduled; both run on the ops worker so
// the caller is never blocked on network latency.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateIdle && m.state != StateStopped {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	from := m.state
	m.state = StateStarting
	m.sessionID = uuid.NewString()
	m.tokenSynced = false
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.ops = newTaskQueue(m.config.QueueSize)
	m.dispatch = newTaskQueue(m.config.QueueSize)
	m.mu.Unlock()
	m.logTransition(from, StateStarting)

	// The transport may deliver a token before Start returns; the
	// workers are already accepting tasks at this point.
	if err := m.transport.Start(m.ctx); err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		m.logTransition(StateStarting, StateIdle)
		m.cancel()
		m.ops.stop()
		m.dispatch.stop()
		return wrapErr(KindTransport, "initialize", err)
	}

	m.setState(StateRunning)
	m.enqueueOp(m.replayPersistedState)

	m.debugLog("push manager started", "sessionID", m.sessionID)
	return nil
}

// Shutdown stops the manager: the transport first, then, if the
// connection reports itself initialized, an unsubscribe-all, then the
// connection and the workers. Local subscription state does not survive
// a shutdown. Collaborator failures are logged, never returned;
// shutdown always completes.
func (m *Manager) Shutdown() error {
	m.mu.Lock()
	if m.state != StateRunning {
		m.mu.Unlock()
		return ErrNotStarted
	}
	m.state = StateStopping
	ops := m.ops
	dispatch := m.dispatch
	timer := m.restartTimer
	m.restartTimer = nil
	m.mu.Unlock()
	m.logTransition(StateRunning, StateStopping)

	if timer != nil {
		timer.Stop()
	}

	if err := m.transport.Stop(); err != nil {
		m.debugLog("transport stop failed", "error", err)
	}

	// Tear the connection down on the ops worker, behind any in-flight
	// operation.
	done := make(chan struct{})
	if ops.enqueue(func() {
		defer close(done)
		if m.conn.IsInitialized() {
			if _, err := m.conn.UnsubscribeAll(m.ctx); err != nil {
				m.debugLog("unsubscribe all failed", "error", err)
			}
		}
		m.registry.clear()
		if err := m.conn.Close(); err != nil {
			m.debugLog("connection close failed", "error", err)
		}
	}) {
		<-done
	}

	m.cancel()
	ops.stop()
	dispatch.stop()

	m.setState(StateStopped)
	m.debugLog("push manager stopped")
	return nil
}

// OnNewToken delivers a registration token from the OS transport. Safe
// to call from any goroutine; the manager deduplicates against the
// persisted token, so duplicate deliveries are cheap no-ops.
func (m *Manager) OnNewToken(token string) {
	if !m.enqueueOp(func() { m.handleNewToken(token) }) {
		m.debugLog("dropping token, manager not running")
	}
}

// OnMessageReceived delivers an encrypted message from the OS transport.
// Safe to call from any goroutine. Messages for unknown channels are
// expected noise and are dropped without notifying anyone.
func (m *Manager) OnMessageReceived(msg EncryptedMessage) {
	if !m.enqueueOp(func() { m.handleMessage(msg) }) {
		m.debugLog("dropping message, manager not running", "channelID", string(msg.ChannelID))
	}
}

// Subscribe requests a subscription for the feature type. The outcome is
// announced to subscription observers; failures go to the error sink.
func (m *Manager) Subscribe(feature FeatureType) {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		m.subscribeFeature(feature)
	})
}

// SubscribeAll subscribes every feature type.
func (m *Manager) SubscribeAll() {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		for _, feature := range AllFeatureTypes() {
			m.subscribeFeature(feature)
		}
	})
}

// Unsubscribe drops the subscription for the feature type. A no-op when
// the connection is not initialized. The registry entry is removed even
// when the remote call fails; local state follows caller intent.
func (m *Manager) Unsubscribe(feature FeatureType) {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		m.unsubscribeFeature(feature)
	})
}

// RenewRegistration discards the current registration and restarts the
// transport; a fresh token then arrives through OnNewToken. This is the
// recovery path for registration corruption.
func (m *Manager) RenewRegistration() {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		m.renewRegistration()
	})
}

// TryVerifySubscriptions runs a verification pass only when the
// verification interval has elapsed since the last pass; otherwise it
// returns without side effects. Intended to be driven by a periodic
// timer.
func (m *Manager) TryVerifySubscriptions() {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		last, _ := m.store.LastVerified()
		if !verificationDue(last, time.Now(), m.config.VerifyInterval) {
			return
		}
		m.verifySubscriptions()
	})
}

// VerifyActiveSubscriptions runs an unconditional verification pass.
func (m *Manager) VerifyActiveSubscriptions() {
	m.enqueueOp(func() {
		if !m.active() {
			return
		}
		m.verifySubscriptions()
	})
}

// RegisterForPushMessages registers a handler for decrypted messages of
// the feature type. The returned func unregisters it.
func (m *Manager) RegisterForPushMessages(feature FeatureType, handler MessageHandler) func() {
	return m.observers.addMessage(feature, handler, nil)
}

// RegisterForPushMessagesWithLiveness ties the registration to a
// liveness probe: once alive reports false, the registration is pruned
// and the handler is never called again. The probe is evaluated on the
// dispatch worker and must be fast and must not call back into the
// Manager.
func (m *Manager) RegisterForPushMessagesWithLiveness(feature FeatureType, handler MessageHandler, alive func() bool) func() {
	return m.observers.addMessage(feature, handler, alive)
}

// RegisterForSubscriptions registers a handler called once per created,
// replaced, or reconciled subscription. The returned func unregisters it.
func (m *Manager) RegisterForSubscriptions(handler SubscriptionHandler) func() {
	return m.observers.addSubscription(handler, nil)
}

// RegisterForSubscriptionsWithLiveness ties the registration to a
// liveness probe, like RegisterForPushMessagesWithLiveness.
func (m *Manager) RegisterForSubscriptionsWithLiveness(handler SubscriptionHandler, alive func() bool) func() {
	return m.observers.addSubscription(handler, alive)
}

// OnError is the single error sink: it logs the error, records it in
// the event log, and forwards it to the Reporter. It never propagates.
func (m *Manager) OnError(err error) {
	if err == nil {
		return
	}
	m.debugLog("push error", "error", err)

	data := &log.ErrorEventData{Message: err.Error()}
	var perr *Error
	if errors.As(err, &perr) {
		data.Kind = perr.Kind.String()
		data.Context = perr.Op
	}
	m.logEvent(log.Event{Category: log.CategoryError, Error: data})

	if m.reporter != nil {
		m.reporter.ReportError(err)
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() ManagerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// GetSubscription returns the active subscription for the feature type.
func (m *Manager) GetSubscription(feature FeatureType) (Subscription, bool) {
	return m.registry.get(feature)
}

// Subscriptions returns a snapshot of all active subscriptions keyed by
// feature type.
func (m *Manager) Subscriptions() map[FeatureType]Subscription {
	return m.registry.snapshot()
}

// replayPersistedState forwards the stored token to the connection and
// runs a verification pass when one is overdue. Runs on the ops worker
// behind any token the transport delivered during startup.
func (m *Manager) replayPersistedState() {
	if !m.active() {
		return
	}

	if token, ok := m.store.Token(); ok && !m.tokenSynced {
		if _, err := m.conn.UpdateToken(m.ctx, token); err != nil {
			m.OnError(wrapErr(KindTokenUpdate, "initialize", err))
		} else {
			m.tokenSynced = true
		}
	}

	last, _ := m.store.LastVerified()
	if verificationDue(last, time.Now(), m.config.VerifyInterval) {
		m.verifySubscriptions()
	}
}

func (m *Manager) handleNewToken(token string) {
	if !m.active() {
		return
	}

	if current, ok := m.store.Token(); ok && current == token {
		m.debugLog("token unchanged, ignoring")
		m.logEvent(log.Event{
			Category: log.CategoryToken,
			Token:    &log.TokenEvent{Action: log.TokenUnchanged, Digest: log.TokenDigest(token)},
		})
		return
	}

	if err := m.store.SetToken(token); err != nil {
		// Keep pushing the token even when it cannot be persisted;
		// the connection needs it more than the store does.
		m.OnError(wrapErr(KindStorage, "token update", err))
	}
	m.restartBackoff.reset()
	m.logEvent(log.Event{
		Category: log.CategoryToken,
		Token:    &log.TokenEvent{Action: log.TokenRefreshed, Digest: log.TokenDigest(token)},
	})

	if _, err := m.conn.UpdateToken(m.ctx, token); err != nil {
		m.OnError(wrapErr(KindTokenUpdate, "token update", err))
		return
	}
	m.tokenSynced = true

	// Re-key every known subscription against the new token. With an
	// empty registry (first run) the full feature set is bootstrapped.
	types := m.registry.types()
	if len(types) == 0 {
		types = AllFeatureTypes()
	}
	for _, feature := range types {
		m.subscribeFeature(feature)
	}
}

func (m *Manager) handleMessage(msg EncryptedMessage) {
	if !m.active() {
		return
	}

	feature, ok := m.registry.resolve(msg.ChannelID)
	if !ok {
		m.debugLog("dropping message for unknown channel", "channelID", string(msg.ChannelID))
		m.logEvent(log.Event{
			Category: log.CategoryMessage,
			Message:  &log.MessageEvent{ChannelID: string(msg.ChannelID), Outcome: log.MessageUnknownChannel},
		})
		return
	}

	if !m.conn.IsInitialized() {
		m.debugLog("dropping message, connection not initialized", "feature", feature.String())
		m.logEvent(log.Event{
			Category: log.CategoryMessage,
			Message:  &log.MessageEvent{ChannelID: string(msg.ChannelID), Feature: feature.Scope(), Outcome: log.MessageNotReady},
		})
		return
	}

	plaintext, err := m.conn.Decrypt(msg)
	if err != nil {
		m.OnError(wrapErr(KindDecrypt, "message dispatch", err))
		m.logEvent(log.Event{
			Category: log.CategoryMessage,
			Message:  &log.MessageEvent{ChannelID: string(msg.ChannelID), Feature: feature.Scope(), Outcome: log.MessageDecryptFailed},
		})
		return
	}

	m.logEvent(log.Event{
		Category: log.CategoryMessage,
		Message: &log.MessageEvent{
			ChannelID: string(msg.ChannelID),
			Feature:   feature.Scope(),
			Outcome:   log.MessageDispatched,
			Size:      len(plaintext),
		},
	})

	m.enqueueDispatch(func() {
		if !m.active() {
			return
		}
		for _, handler := range m.observers.messageHandlers(feature) {
			handler(feature, plaintext)
		}
	})
}

func (m *Manager) subscribeFeature(feature FeatureType) {
	if !feature.Valid() {
		m.OnError(wrapErr(KindSubscribe, "subscribe", ErrUnknownFeatureType))
		return
	}

	channelID := newChannelID()
	resp, err := m.conn.Subscribe(m.ctx, channelID, feature.Scope())
	if err != nil {
		m.OnError(wrapErr(KindSubscribe, "subscribe "+feature.Scope(), err))
		return
	}

	sub := Subscription{
		ChannelID:   resp.ChannelID,
		FeatureType: feature,
		Endpoint:    resp.Endpoint,
		PublicKey:   resp.PublicKey,
		AuthSecret:  resp.AuthSecret,
	}
	if sub.ChannelID == "" {
		sub.ChannelID = channelID
	}
	m.registry.put(sub)

	m.logEvent(log.Event{
		Category: log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			Action:    log.SubscriptionCreated,
			Feature:   feature.Scope(),
			ChannelID: string(sub.ChannelID),
			Endpoint:  sub.Endpoint,
		},
	})
	m.notifySubscription(feature, sub)
}

func (m *Manager) unsubscribeFeature(feature FeatureType) {
	if !m.conn.IsInitialized() {
		return
	}
	sub, ok := m.registry.get(feature)
	if !ok {
		return
	}

	if _, err := m.conn.Unsubscribe(m.ctx, sub.ChannelID); err != nil {
		m.OnError(wrapErr(KindUnsubscribe, "unsubscribe "+feature.Scope(), err))
	}

	// Removed locally even when the remote call failed.
	m.registry.remove(feature)
	m.logEvent(log.Event{
		Category: log.CategorySubscription,
		Subscription: &log.SubscriptionEvent{
			Action:    log.SubscriptionRemoved,
			Feature:   feature.Scope(),
			ChannelID: string(sub.ChannelID),
		},
	})
}

func (m *Manager) renewRegistration() {
	if err := m.store.ClearToken(); err != nil {
		m.OnError(wrapErr(KindStorage, "renew registration", err))
	}
	m.tokenSynced = false

	if err := m.transport.DeleteToken(m.ctx); err != nil {
		m.OnError(wrapErr(KindTransport, "renew registration", err))
	}

	m.logEvent(log.Event{
		Category: log.CategoryToken,
		Token:    &log.TokenEvent{Action: log.TokenCleared},
	})
	m.restartTransport()
}

func (m *Manager) restartTransport() {
	if err := m.transport.Stop(); err != nil {
		m.debugLog("transport stop failed", "error", err)
	}
	if err := m.transport.Start(m.ctx); err != nil {
		m.OnError(wrapErr(KindTransport, "transport restart", err))
		m.scheduleRestartRetry()
		return
	}
	m.restartBackoff.reset()
	m.debugLog("transport restarted")
}

// scheduleRestartRetry re-enqueues a transport restart after a backoff
// delay. The timer fires off-worker; the restart itself runs on the ops
// worker again.
func (m *Manager) scheduleRestartRetry() {
	delay := m.restartBackoff.next()
	m.debugLog("scheduling transport restart", "delay", delay, "attempt", m.restartBackoff.attemptCount())

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateRunning {
		return
	}
	if m.restartTimer != nil {
		m.restartTimer.Stop()
	}
	m.restartTimer = time.AfterFunc(delay, func() {
		m.enqueueOp(func() {
			if !m.active() {
				return
			}
			m.restartTransport()
		})
	})
}

func (m *Manager) verifySubscriptions() {
	updates, err := m.conn.VerifyConnection(m.ctx)
	if err != nil {
		m.OnError(wrapErr(KindVerify, "verify subscriptions", err))
		return
	}

	changed, skipped := 0, 0
	for _, update := range updates {
		feature, ok := m.resolveUpdate(update)
		if !ok {
			m.debugLog("skipping unmatched subscription update",
				"channelID", string(update.ChannelID), "scope", update.Scope)
			skipped++
			continue
		}

		sub := Subscription{
			ChannelID:   update.ChannelID,
			FeatureType: feature,
			Endpoint:    update.Endpoint,
			PublicKey:   update.PublicKey,
			AuthSecret:  update.AuthSecret,
		}
		m.registry.put(sub)
		m.logEvent(log.Event{
			Category: log.CategorySubscription,
			Subscription: &log.SubscriptionEvent{
				Action:    log.SubscriptionUpdated,
				Feature:   feature.Scope(),
				ChannelID: string(sub.ChannelID),
				Endpoint:  sub.Endpoint,
			},
		})
		m.notifySubscription(feature, sub)
		changed++
	}

	// Advanced even when nothing changed: "checked, unchanged" is
	// different from "never checked".
	if err := m.store.SetLastVerified(time.Now()); err != nil {
		m.OnError(wrapErr(KindStorage, "verify subscriptions", err))
	}

	m.logEvent(log.Event{
		Category: log.CategoryVerify,
		Verify:   &log.VerifyEvent{Changed: changed, Skipped: skipped},
	})
	m.debugLog("verification pass complete", "changed", changed, "skipped", skipped)
}

// resolveUpdate maps a reported subscription update to a feature type:
// by channel ID first, scope string as fallback.
func (m *Manager) resolveUpdate(update SubscriptionUpdate) (FeatureType, bool) {
	if feature, ok := m.registry.resolve(update.ChannelID); ok {
		return feature, true
	}
	return m.registry.resolveScope(update.Scope)
}

func (m *Manager) notifySubscription(feature FeatureType, sub Subscription) {
	m.enqueueDispatch(func() {
		if !m.active() {
			return
		}
		for _, handler := range m.observers.subscriptionHandlers() {
			handler(feature, sub)
		}
	})
}

// active reports whether tasks may act on shared state. Tasks accepted
// before shutdown still drain, but their effects are discarded once the
// manager is stopping.
func (m *Manager) active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateStarting || m.state == StateRunning
}

// enqueueOp submits a state-mutating task to the ops worker.
func (m *Manager) enqueueOp(fn func()) bool {
	m.mu.RLock()
	q := m.ops
	m.mu.RUnlock()
	if q == nil {
		return false
	}
	return q.enqueue(fn)
}

// enqueueDispatch submits an observer callback task to the dispatch worker.
func (m *Manager) enqueueDispatch(fn func()) {
	m.mu.RLock()
	q := m.dispatch
	m.mu.RUnlock()
	if q != nil {
		q.enqueue(fn)
	}
}

func (m *Manager) setState(state ManagerState) {
	m.mu.Lock()
	from := m.state
	m.state = state
	m.mu.Unlock()
	if from != state {
		m.logTransition(from, state)
	}
}

func (m *Manager) logTransition(from, to ManagerState) {
	m.debugLog("state changed", "from", from.String(), "to", to.String())
	m.logEvent(log.Event{
		Category:    log.CategoryState,
		StateChange: &log.StateChangeEvent{OldState: from.String(), NewState: to.String()},
	})
}

// logEvent stamps and records an event if capture is enabled.
func (m *Manager) logEvent(event log.Event) {
	if m.eventLogger == nil {
		return
	}
	event.Timestamp = time.Now()
	m.mu.RLock()
	event.SessionID = m.sessionID
	m.mu.RUnlock()
	m.eventLogger.Log(event)
}

// debugLog logs a debug message if logging is enabled.
func (m *Manager) debugLog(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}
