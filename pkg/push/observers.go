package push

import "sync"

// MessageHandler receives decrypted message payloads for a feature type.
type MessageHandler func(feature FeatureType, payload []byte)

// SubscriptionHandler is notified when the active subscription for a
// feature type is created, replaced, or reconciled.
type SubscriptionHandler func(feature FeatureType, sub Subscription)

// messageObserver is one registered message handler.
type messageObserver struct {
	id      uint64
	handler MessageHandler

	// alive reports whether the observing component still exists.
	// Nil means the registration never expires.
	alive func() bool
}

// subscriptionObserver is one registered subscription handler.
type subscriptionObserver struct {
	id      uint64
	handler SubscriptionHandler
	alive   func() bool
}

// observerBus holds message observers per feature type and a flat list of
// subscription observers, both in registration order. Dead registrations
// (alive() false) are pruned before every dispatch snapshot and before
// every new registration, so destroyed observers never receive callbacks.
type observerBus struct {
	mu sync.Mutex

	nextID uint64

	messages      map[FeatureType][]*messageObserver
	subscriptions []*subscriptionObserver
}

func newObserverBus() *observerBus {
	return &observerBus{
		messages: make(map[FeatureType][]*messageObserver),
	}
}

// addMessage registers a message handler for a feature type and returns an
// unregister func. A nil alive func means the registration never expires.
func (b *observerBus) addMessage(feature FeatureType, handler MessageHandler, alive func() bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneMessagesLocked(feature)

	b.nextID++
	obs := &messageObserver{id: b.nextID, handler: handler, alive: alive}
	b.messages[feature] = append(b.messages[feature], obs)

	id := obs.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.messages[feature]
		for i, o := range list {
			if o.id == id {
				b.messages[feature] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// addSubscription registers a subscription handler and returns an
// unregister func.
func (b *observerBus) addSubscription(handler SubscriptionHandler, alive func() bool) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneSubscriptionsLocked()

	b.nextID++
	obs := &subscriptionObserver{id: b.nextID, handler: handler, alive: alive}
	b.subscriptions = append(b.subscriptions, obs)

	id := obs.id
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, o := range b.subscriptions {
			if o.id == id {
				b.subscriptions = append(b.subscriptions[:i], b.subscriptions[i+1:]...)
				return
			}
		}
	}
}

// messageHandlers prunes dead registrations for the feature type and
// returns the live handlers in registration order. The snapshot is
// invoked outside the bus lock.
func (b *observerBus) messageHandlers(feature FeatureType) []MessageHandler {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneMessagesLocked(feature)

	list := b.messages[feature]
	if len(list) == 0 {
		return nil
	}
	handlers := make([]MessageHandler, len(list))
	for i, o := range list {
		handlers[i] = o.handler
	}
	return handlers
}

// subscriptionHandlers prunes dead registrations and returns the live
// handlers in registration order.
func (b *observerBus) subscriptionHandlers() []SubscriptionHandler {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pruneSubscriptionsLocked()

	if len(b.subscriptions) == 0 {
		return nil
	}
	handlers := make([]SubscriptionHandler, len(b.subscriptions))
	for i, o := range b.subscriptions {
		handlers[i] = o.handler
	}
	return handlers
}

func (b *observerBus) pruneMessagesLocked(feature FeatureType) {
	list := b.messages[feature]
	live := list[:0]
	for _, o := range list {
		if o.alive == nil || o.alive() {
			live = append(live, o)
		}
	}
	if len(live) == 0 {
		delete(b.messages, feature)
		return
	}
	b.messages[feature] = live
}

func (b *observerBus) pruneSubscriptionsLocked() {
	live := b.subscriptions[:0]
	for _, o := range b.subscriptions {
		if o.alive == nil || o.alive() {
			live = append(live, o)
		}
	}
	b.subscriptions = live
}
