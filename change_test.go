// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"errors"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// TestDecodeChange tests dispatch into the change variants
func TestDecodeChange(t *testing.T) {
	tests := []struct {
		name     string
		blob     string
		wantKind string
		check    func(t *testing.T, ch Change)
	}{
		{
			name:     "polled switch change",
			blob:     `{"type":"switch","time":1700000000,"changes":{"uptime":86400}}`,
			wantKind: ChangeKindSwitch,
			check: func(t *testing.T, ch Change) {
				if _, ok := ch.(*SwitchChange); !ok {
					t.Errorf("Expected *SwitchChange, got %T", ch)
				}
				if ch.Changes().Get("uptime").Int() != 86400 {
					t.Errorf("Expected changed uptime in map")
				}
			},
		},
		{
			name:     "written switch change",
			blob:     `{"type":"switch_write","time":1700000000,"user":"uqjdoe","changes":{}}`,
			wantKind: ChangeKindSwitchWrite,
			check: func(t *testing.T, ch Change) {
				write, ok := ch.(*SwitchWriteChange)
				if !ok {
					t.Fatalf("Expected *SwitchWriteChange, got %T", ch)
				}
				if write.User() != "uqjdoe" {
					t.Errorf("Expected user uqjdoe, got %q", write.User())
				}
			},
		},
		{
			name:     "polled interface change",
			blob:     `{"type":"interface","index":7,"time":1700000000,"changes":{"oper_status":"down"}}`,
			wantKind: ChangeKindInterface,
			check: func(t *testing.T, ch Change) {
				intf, ok := ch.(*InterfaceChange)
				if !ok {
					t.Fatalf("Expected *InterfaceChange, got %T", ch)
				}
				if intf.Index() != 7 {
					t.Errorf("Expected index 7, got %d", intf.Index())
				}
			},
		},
		{
			name:     "written interface change",
			blob:     `{"type":"interface_write","index":7,"time":1700000000,"user":"uqjdoe","changes":{"vlan":100}}`,
			wantKind: ChangeKindInterfaceWrite,
			check: func(t *testing.T, ch Change) {
				write, ok := ch.(*InterfaceWriteChange)
				if !ok {
					t.Fatalf("Expected *InterfaceWriteChange, got %T", ch)
				}
				if write.User() != "uqjdoe" || write.Index() != 7 {
					t.Errorf("Expected user and index, got %q / %d", write.User(), write.Index())
				}
			},
		},
	}

	client := newTestClient(t, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := decodeChange(client, "a.b.sw1", gjson.Parse(tt.blob))
			if err != nil {
				t.Fatalf("Expected no error, got: %v", err)
			}
			if ch.Kind() != tt.wantKind {
				t.Errorf("Expected kind %q, got %q", tt.wantKind, ch.Kind())
			}
			if !ch.Time().Equal(time.Unix(1700000000, 0)) {
				t.Errorf("Expected change time, got %v", ch.Time())
			}
			if ch.Switch() != client.Switch("a.b.sw1") {
				t.Errorf("Expected change switch to share identity with cache lookup")
			}
			tt.check(t, ch)
		})
	}
}

// TestDecodeChangeUnknownKind tests that unknown kinds are a protocol
// violation
func TestDecodeChangeUnknownKind(t *testing.T) {
	client := newTestClient(t, nil, nil)

	_, err := decodeChange(client, "a.b.sw1", gjson.Parse(`{"type":"firmware","time":1700000000}`))
	if err == nil {
		t.Fatalf("Expected error for unknown change kind")
	}
	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Errorf("Expected *ProtocolError, got %T: %v", err, err)
	}
}

// TestDecodeChangeLog tests log ordering and failure propagation
func TestDecodeChangeLog(t *testing.T) {
	client := newTestClient(t, nil, nil)

	res := gjson.Parse(`{"logs":[
		{"type":"switch","time":1},
		{"type":"interface","index":3,"time":2}
	]}`)
	changes, err := decodeChangeLog(client, "a.b.sw1", res)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("Expected 2 changes, got %d", len(changes))
	}
	if changes[0].RawTime() != 1 || changes[1].RawTime() != 2 {
		t.Errorf("Expected server ordering to be preserved")
	}

	bad := gjson.Parse(`{"logs":[{"type":"switch","time":1},{"type":"mystery","time":2}]}`)
	if _, err := decodeChangeLog(client, "a.b.sw1", bad); err == nil {
		t.Errorf("Expected error for log containing unknown kind")
	}
}
