// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

const (
	testUser     = "m1"
	testEndpoint = "swarm.example.org"
	testCookie   = "c0ffee"
)

var testKey = base64.StdEncoding.EncodeToString([]byte("secret"))

// wsHandlerFunc services one streaming connection in tests. The connection
// is closed when the handler returns.
type wsHandlerFunc func(t *testing.T, conn *websocket.Conn)

// wsReadLoop is the default streaming handler: it consumes frames (and
// control messages) until the client disconnects.
func wsReadLoop(_ *testing.T, conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func newTestCredential(t *testing.T) *Credential {
	t.Helper()
	cred, err := NewCredential(testUser, testKey, testEndpoint)
	if err != nil {
		t.Fatalf("Expected no error creating credential, got: %v", err)
	}
	return cred
}

// newTestClient builds a client against a local test server which mints
// cookies, serves the REST API from api (rooted at /api) and services the
// streaming connection with wsHandler (wsReadLoop when nil).
func newTestClient(t *testing.T, api http.Handler, wsHandler wsHandlerFunc, opts ...func(*Client)) *Client {
	t.Helper()

	if wsHandler == nil {
		wsHandler = wsReadLoop
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/machauth", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cookie":"` + testCookie + `"}`))
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Expected streaming upgrade to succeed, got: %v", err)
			return
		}
		defer conn.Close()
		wsHandler(t, conn)
	})
	if api != nil {
		mux.Handle("/api/", http.StripPrefix("/api", api))
	}

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	cred := newTestCredential(t)
	cred.AuthURL = ts.URL + "/machauth"

	opts = append([]func(*Client){
		APIBaseURL(ts.URL + "/api"),
		StreamURL("ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"),
		BackoffMinDelay(1 * time.Millisecond),
		BackoffMaxDelay(10 * time.Millisecond),
		OperationTimeout(5 * time.Second),
	}, opts...)

	client, err := NewClient(cred, opts...)
	if err != nil {
		t.Fatalf("Expected no error creating client, got: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// jsonHandler serves a fixed JSON body with a fixed status on every request.
func jsonHandler(status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
}

// failingAPI fails the test on any REST request; used where a call must be
// satisfied locally.
func failingAPI(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("Expected no REST request, got %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusInternalServerError)
	})
}
