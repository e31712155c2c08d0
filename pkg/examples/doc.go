// Package examples provides reference implementations demonstrating how
// to wire the pushline library without a real push service.
//
// The loopback service implements both the Connection and Transport
// ports against in-process state:
//   - Start delivers a registration token through the manager callback
//   - Deliver injects messages as if pushed by a server
//   - RotateEndpoint simulates server-side subscription rotation
//
// Message bodies are base64-wrapped rather than encrypted; the loopback
// demonstrates the dispatch pipeline, not Web Push cryptography.
package examples
