// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"errors"
	"fmt"
)

// AuthError represents an HTTP failure during the machine-credential
// handshake. Authentication failures are fatal and are never retried.
type AuthError struct {
	// StatusCode is the HTTP status code returned by the auth endpoint
	StatusCode int

	// Body is the raw response body
	Body string
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return fmt.Sprintf("swarm: machine auth failed: %d: %s", e.StatusCode, e.Body)
}

// APIError represents a non-2xx response from the swarm REST API.
//
// Transient statuses (502, 503, 504) are retried transparently by the
// transport before an APIError surfaces; every other non-2xx status is
// returned to the caller immediately. Retrying the whole operation is the
// caller's decision.
type APIError struct {
	// StatusCode is the HTTP status code received
	StatusCode int

	// Body is the raw response body
	Body string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("swarm: api error: %d: %s", e.StatusCode, e.Body)
}

// ProtocolError indicates client/server desynchronization on the streaming
// channel (a reply frame matched against the wrong request) or an
// unrecognized change kind in a history record. It is fatal for the
// affected call and usually for the streaming connection as a whole.
type ProtocolError struct {
	// Reason describes the violation
	Reason string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	return "swarm: protocol violation: " + e.Reason
}

// StreamError carries a server-reported failure of a streamed request. The
// reason string is surfaced verbatim; when the server supplies none, the
// full reply frame is used instead.
type StreamError struct {
	// Reason is the server-supplied failure reason
	Reason string
}

// Error implements the error interface
func (e *StreamError) Error() string {
	return "swarm: " + e.Reason
}

// ErrForbidden is returned when access to a resource is denied.
var ErrForbidden = errors.New("swarm: access denied to resource")

// transientStatuses are the HTTP statuses retried by the transport with
// exponential backoff. Everything else propagates as an APIError.
var transientStatuses = map[int]bool{
	502: true,
	503: true,
	504: true,
}
