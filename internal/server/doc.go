// Package server implements the core chat relay for linechat.
//
// The implementation is organized into specialized files for configuration,
// the client registry, readiness multiplexing, line framing, and the event
// loop itself to keep the codebase maintainable and testable as the project
// grows.
package server
