// Package persistence provides runtime state persistence for push clients.
//
// This package handles the storage of the two pieces of registration state
// that must survive process restarts: the device registration token and the
// timestamp of the last successful subscription verification. Subscriptions
// themselves are not persisted; they are re-established against the live
// connection after a token change or verification pass.
package persistence
