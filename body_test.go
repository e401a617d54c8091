// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"strings"
	"testing"
)

// TestBodySet tests basic Set operation
func TestBodySet(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    interface{}
		wantJSON string
	}{
		{
			name:     "set string value",
			path:     "display_name",
			value:    "Building 78",
			wantJSON: `{"display_name":"Building 78"}`,
		},
		{
			name:     "set boolean value",
			path:     "enabled",
			value:    true,
			wantJSON: `{"enabled":true}`,
		},
		{
			name:     "set integer value",
			path:     "vlan",
			value:    100,
			wantJSON: `{"vlan":100}`,
		},
		{
			name:     "set nested value",
			path:     "acl.admins",
			value:    "netops",
			wantJSON: `{"acl":{"admins":"netops"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := Body{}.Set(tt.path, tt.value)
			json, err := body.String()
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if json != tt.wantJSON {
				t.Errorf("Expected JSON %s, got %s", tt.wantJSON, json)
			}
		})
	}
}

// TestBodySetChaining tests method chaining
func TestBodySetChaining(t *testing.T) {
	body := Body{}.
		Set("display_name", "Building 78").
		Set("ro_community", "public").
		Set("rw_community", "private")

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(json, `"display_name":"Building 78"`) {
		t.Errorf("Expected JSON to contain display_name field")
	}
	if !strings.Contains(json, `"ro_community":"public"`) {
		t.Errorf("Expected JSON to contain ro_community field")
	}
	if !strings.Contains(json, `"rw_community":"private"`) {
		t.Errorf("Expected JSON to contain rw_community field")
	}
}

// TestBodyDelete tests value removal
func TestBodyDelete(t *testing.T) {
	body := Body{}.
		Set("display_name", "Building 78").
		Set("ro_community", "public").
		Delete("ro_community")

	json, err := body.String()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if json != `{"display_name":"Building 78"}` {
		t.Errorf("Expected ro_community removed, got %s", json)
	}
}

// TestBodyErrorPropagation tests that a build error sticks
func TestBodyErrorPropagation(t *testing.T) {
	// An empty path is invalid for sjson
	body := Body{}.
		Set("", "oops").
		Set("display_name", "Building 78")

	if body.Err() == nil {
		t.Fatalf("Expected error for empty path, got nil")
	}
	if _, err := body.String(); err == nil {
		t.Errorf("Expected String to surface the error")
	}
	if res := body.Res(); res != "" {
		t.Errorf("Expected empty Res after error, got %q", res)
	}
	if _, err := body.Bytes(); err == nil {
		t.Errorf("Expected Bytes to surface the error")
	}
}

// TestBodyEmpty tests the Empty predicate
func TestBodyEmpty(t *testing.T) {
	if !(Body{}).Empty() {
		t.Errorf("Expected zero body to be empty")
	}

	body := Body{}.Set("vlan", 100)
	if body.Empty() {
		t.Errorf("Expected populated body to be non-empty")
	}

	cleared := body.Delete("vlan")
	if !cleared.Empty() {
		t.Errorf("Expected body to be empty after deleting the only key")
	}
}
