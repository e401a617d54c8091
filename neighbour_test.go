// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"net/http"
	"testing"
)

// TestMACSearch tests instance-wide MAC search ordering and resolution
func TestMACSearch(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/macs/aa:bb" {
			t.Errorf("Expected path /macs/aa:bb, got %s", r.URL.Path)
		}
		// Deliberately unsorted.
		w.Write([]byte(`{"interfaces":[
			{"path":"b.sw2","index":1,"mac":"aa:bb:cc:dd:ee:03","time":1700000030},
			{"path":"a.sw1","index":5,"mac":"aa:bb:cc:dd:ee:02","time":1700000020},
			{"path":"a.sw1","index":2,"mac":"aa:bb:cc:dd:ee:01","time":1700000010}
		]}`))
	})

	client := newTestClient(t, api, nil)

	neis, err := client.MACSearch(context.Background(), "aa:bb")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(neis) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(neis))
	}

	// Sorted ascending by (path, index).
	wantOrder := []string{"aa:bb:cc:dd:ee:01", "aa:bb:cc:dd:ee:02", "aa:bb:cc:dd:ee:03"}
	for i, want := range wantOrder {
		if neis[i].MAC() != want {
			t.Errorf("Expected MAC %q at position %d, got %q", want, i, neis[i].MAC())
		}
	}

	if neis[0].Interface() != client.Interface("a.sw1", 2) {
		t.Errorf("Expected result interface to share identity with cache lookup")
	}
	if neis[0].Switch() != client.Switch("a.sw1") {
		t.Errorf("Expected result switch to share identity with cache lookup")
	}
	if neis[0].RawTime() != 1700000010 {
		t.Errorf("Expected last-seen time, got %d", neis[0].RawTime())
	}
}

// TestMACSearchFailure tests error propagation
func TestMACSearchFailure(t *testing.T) {
	client := newTestClient(t, jsonHandler(http.StatusNotFound, "no matches"), nil)

	_, err := client.MACSearch(context.Background(), "aa:bb")
	if err == nil {
		t.Fatalf("Expected error for 404, got nil")
	}
}
