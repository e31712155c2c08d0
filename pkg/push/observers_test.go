package push

import "testing"

func TestObserverBus(t *testing.T) {
	t.Run("MessageRegistrationOrder", func(t *testing.T) {
		bus := newObserverBus()

		var order []int
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) { order = append(order, 1) }, nil)
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) { order = append(order, 2) }, nil)
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) { order = append(order, 3) }, nil)

		for _, h := range bus.messageHandlers(FeatureTypeWebPush) {
			h(FeatureTypeWebPush, nil)
		}

		if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
			t.Errorf("dispatch order = %v, want [1 2 3]", order)
		}
	})

	t.Run("MessageObserversAreScopedToFeature", func(t *testing.T) {
		bus := newObserverBus()
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) {}, nil)

		if handlers := bus.messageHandlers(FeatureTypeServices); len(handlers) != 0 {
			t.Errorf("messageHandlers(Services) = %d handlers, want 0", len(handlers))
		}
		if handlers := bus.messageHandlers(FeatureTypeWebPush); len(handlers) != 1 {
			t.Errorf("messageHandlers(WebPush) = %d handlers, want 1", len(handlers))
		}
	})

	t.Run("Unregister", func(t *testing.T) {
		bus := newObserverBus()

		var calls int
		unregister := bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) { calls++ }, nil)
		unregister()

		if handlers := bus.messageHandlers(FeatureTypeWebPush); len(handlers) != 0 {
			t.Errorf("handlers = %d after unregister, want 0", len(handlers))
		}
		// A second call is harmless.
		unregister()
	})

	t.Run("DeadRegistrationPrunedBeforeDispatch", func(t *testing.T) {
		bus := newObserverBus()

		alive := true
		var calls int
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) { calls++ }, func() bool { return alive })

		for _, h := range bus.messageHandlers(FeatureTypeWebPush) {
			h(FeatureTypeWebPush, nil)
		}
		if calls != 1 {
			t.Fatalf("calls = %d while alive, want 1", calls)
		}

		alive = false
		if handlers := bus.messageHandlers(FeatureTypeWebPush); len(handlers) != 0 {
			t.Errorf("handlers = %d after death, want 0", len(handlers))
		}
	})

	t.Run("DeadRegistrationPrunedOnAdd", func(t *testing.T) {
		bus := newObserverBus()

		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) {}, func() bool { return false })
		bus.addMessage(FeatureTypeWebPush, func(FeatureType, []byte) {}, nil)

		if handlers := bus.messageHandlers(FeatureTypeWebPush); len(handlers) != 1 {
			t.Errorf("handlers = %d, want only the live one", len(handlers))
		}
	})

	t.Run("SubscriptionObservers", func(t *testing.T) {
		bus := newObserverBus()

		var got []FeatureType
		bus.addSubscription(func(feature FeatureType, sub Subscription) { got = append(got, feature) }, nil)
		unregister := bus.addSubscription(func(FeatureType, Subscription) { t.Error("unregistered handler called") }, nil)
		unregister()

		for _, h := range bus.subscriptionHandlers() {
			h(FeatureTypeServices, Subscription{})
		}

		if len(got) != 1 || got[0] != FeatureTypeServices {
			t.Errorf("notified features = %v, want [Services]", got)
		}
	})

	t.Run("DeadSubscriptionObserverPruned", func(t *testing.T) {
		bus := newObserverBus()

		alive := true
		bus.addSubscription(func(FeatureType, Subscription) {}, func() bool { return alive })
		alive = false

		if handlers := bus.subscriptionHandlers(); len(handlers) != 0 {
			t.Errorf("handlers = %d after death, want 0", len(handlers))
		}
	})
}
