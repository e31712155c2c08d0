// Package push implements the client-side push subscription manager.
//
// This package ties the lower-level components into one cohesive API for
// applications that receive push messages through an autopush-style service:
//
// # Manager
//
// Manager coordinates the push lifecycle. It handles:
//   - Transport startup/shutdown and registration token sync
//   - Per-feature subscriptions keyed by logical channel
//   - Periodic verification of subscriptions against the remote service
//   - Decryption and fan-out of inbound messages to observers
//
// Example usage:
//
//	cfg := push.Config{
//	    Connection: conn,
//	    Transport:  transport,
//	    Store:      persistence.NewFileStore("/var/lib/pushline/state.json"),
//	}
//
//	mgr, err := push.NewManager(cfg)
//	mgr.Initialize(ctx)
//	defer mgr.Shutdown()
//
//	unregister := mgr.RegisterForPushMessages(push.FeatureTypeServices,
//	    func(t push.FeatureType, message []byte) {
//	        // handle decrypted payload
//	    })
//	defer unregister()
//
//	mgr.Subscribe(push.FeatureTypeServices)
//
// # Execution Model
//
// All state-mutating operations run sequentially on one internal worker, so
// OS callbacks (OnNewToken, OnMessageReceived), API calls, and timer firings
// may arrive concurrently but never interleave against shared state. Observer
// callbacks run on a second worker: user code cannot block the state machine
// or the OS delivery path, and callbacks for one event run in registration
// order.
//
// # Error Policy
//
// Connection and transport failures never surface to API callers. They are
// funneled through the configured Reporter (and the operational/event logs);
// the caller-visible signal is the absence of an observer notification.
//
// # External Collaborators
//
// The native protocol connection, the OS transport service, and the state
// store are consumed through the Connection, Transport, and persistence.Store
// interfaces. This package never implements message encryption or the push
// service wire protocol.
package push
