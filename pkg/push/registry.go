package push

import "sync"

// registry tracks the active subscription per feature type together with a
// reverse index from channel ID to feature type. Both views are kept
// consistent under one lock.
type registry struct {
	mu sync.RWMutex

	// Active subscription per feature type
	byType map[FeatureType]Subscription

	// Reverse index for resolving inbound channel IDs
	byChannel map[ChannelID]FeatureType
}

func newRegistry() *registry {
	return &registry{
		byType:    make(map[FeatureType]Subscription),
		byChannel: make(map[ChannelID]FeatureType),
	}
}

// put records sub as the active subscription for its feature type, replacing
// any previous entry and its channel index entry.
func (r *registry) put(sub Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.byType[sub.FeatureType]; ok {
		delete(r.byChannel, prev.ChannelID)
	}
	r.byType[sub.FeatureType] = sub
	r.byChannel[sub.ChannelID] = sub.FeatureType
}

// remove drops the subscription for the given feature type and returns it.
func (r *registry) remove(feature FeatureType) (Subscription, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.byType[feature]
	if !ok {
		return Subscription{}, false
	}
	delete(r.byType, feature)
	delete(r.byChannel, sub.ChannelID)
	return sub, true
}

// get returns the active subscription for the given feature type.
func (r *registry) get(feature FeatureType) (Subscription, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byType[feature]
	return sub, ok
}

// resolve maps a channel ID back to its feature type.
func (r *registry) resolve(channelID ChannelID) (FeatureType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	feature, ok := r.byChannel[channelID]
	return feature, ok
}

// resolveScope maps a scope string back to a registered feature type.
// Fallback for reported channel IDs that are not in the index.
func (r *registry) resolveScope(scope string) (FeatureType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for feature := range r.byType {
		if feature.Scope() == scope {
			return feature, true
		}
	}
	return 0, false
}

// types returns the feature types with an active subscription, in the
// enumeration's stable order.
func (r *registry) types() []FeatureType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var types []FeatureType
	for _, feature := range AllFeatureTypes() {
		if _, ok := r.byType[feature]; ok {
			types = append(types, feature)
		}
	}
	return types
}

// snapshot returns a copy of all active subscriptions keyed by feature type.
func (r *registry) snapshot() map[FeatureType]Subscription {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := make(map[FeatureType]Subscription, len(r.byType))
	for feature, sub := range r.byType {
		subs[feature] = sub
	}
	return subs
}

// size returns the number of active subscriptions.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}

// clear removes all subscriptions.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType = make(map[FeatureType]Subscription)
	r.byChannel = make(map[ChannelID]FeatureType)
}
