// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

// TestAuthErrorMessage tests AuthError formatting
func TestAuthErrorMessage(t *testing.T) {
	err := &AuthError{StatusCode: 403, Body: "unknown machine credential"}
	msg := err.Error()
	if !strings.Contains(msg, "403") {
		t.Errorf("Expected status code in message, got %q", msg)
	}
	if !strings.Contains(msg, "unknown machine credential") {
		t.Errorf("Expected body in message, got %q", msg)
	}
}

// TestAPIErrorMessage tests APIError formatting
func TestAPIErrorMessage(t *testing.T) {
	err := &APIError{StatusCode: 404, Body: "no such container"}
	msg := err.Error()
	if !strings.Contains(msg, "404") {
		t.Errorf("Expected status code in message, got %q", msg)
	}
	if !strings.Contains(msg, "no such container") {
		t.Errorf("Expected body in message, got %q", msg)
	}
}

// TestProtocolErrorMessage tests ProtocolError formatting
func TestProtocolErrorMessage(t *testing.T) {
	err := &ProtocolError{Reason: "reply correlation id 7 does not match request 6"}
	if !strings.Contains(err.Error(), "protocol violation") {
		t.Errorf("Expected protocol violation marker, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "correlation id 7") {
		t.Errorf("Expected reason in message, got %q", err.Error())
	}
}

// TestStreamErrorMessage tests StreamError formatting
func TestStreamErrorMessage(t *testing.T) {
	err := &StreamError{Reason: "switch unreachable"}
	if !strings.Contains(err.Error(), "switch unreachable") {
		t.Errorf("Expected reason in message, got %q", err.Error())
	}
}

// TestAPIErrForbidden tests the 403 to ErrForbidden mapping
func TestAPIErrForbidden(t *testing.T) {
	res := apiRes{StatusCode: http.StatusForbidden, Body: []byte("denied")}
	if !errors.Is(res.apiErr(), ErrForbidden) {
		t.Errorf("Expected 403 to map to ErrForbidden")
	}

	res = apiRes{StatusCode: http.StatusNotFound, Body: []byte("missing")}
	err := res.apiErr()
	if errors.Is(err, ErrForbidden) {
		t.Errorf("Expected 404 not to map to ErrForbidden")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", apiErr.StatusCode)
	}
}

// TestTransientStatuses tests the retryable status set
func TestTransientStatuses(t *testing.T) {
	for _, status := range []int{502, 503, 504} {
		if !transientStatuses[status] {
			t.Errorf("Expected %d to be transient", status)
		}
	}
	for _, status := range []int{200, 400, 401, 403, 404, 410, 500} {
		if transientStatuses[status] {
			t.Errorf("Expected %d not to be transient", status)
		}
	}
}
