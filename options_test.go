// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// TestOptions tests that each functional option sets its field
func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   func(*Client)
		check func(*Client) bool
	}{
		{
			name:  "Endpoint",
			opt:   Endpoint("swarm.test.example.org"),
			check: func(c *Client) bool { return c.Endpoint == "swarm.test.example.org" },
		},
		{
			name:  "MaxRetries",
			opt:   MaxRetries(3),
			check: func(c *Client) bool { return c.MaxRetries == 3 },
		},
		{
			name:  "BackoffMinDelay",
			opt:   BackoffMinDelay(2 * time.Second),
			check: func(c *Client) bool { return c.BackoffMinDelay == 2*time.Second },
		},
		{
			name:  "BackoffMaxDelay",
			opt:   BackoffMaxDelay(30 * time.Second),
			check: func(c *Client) bool { return c.BackoffMaxDelay == 30*time.Second },
		},
		{
			name:  "BackoffDelayFactor",
			opt:   BackoffDelayFactor(1.5),
			check: func(c *Client) bool { return c.BackoffDelayFactor == 1.5 },
		},
		{
			name:  "OperationTimeout",
			opt:   OperationTimeout(10 * time.Second),
			check: func(c *Client) bool { return c.OperationTimeout == 10*time.Second },
		},
		{
			name:  "ContainerCacheSize",
			opt:   ContainerCacheSize(5),
			check: func(c *Client) bool { return c.containerCacheSize == 5 },
		},
		{
			name:  "SwitchCacheSize",
			opt:   SwitchCacheSize(5),
			check: func(c *Client) bool { return c.switchCacheSize == 5 },
		},
		{
			name:  "InterfaceCacheSize",
			opt:   InterfaceCacheSize(5),
			check: func(c *Client) bool { return c.interfaceCacheSize == 5 },
		},
		{
			name:  "APIBaseURL",
			opt:   APIBaseURL("http://localhost:8080/api"),
			check: func(c *Client) bool { return c.apiURL == "http://localhost:8080/api" },
		},
		{
			name:  "StreamURL",
			opt:   StreamURL("ws://localhost:8080/api/ws"),
			check: func(c *Client) bool { return c.wsURL == "ws://localhost:8080/api/ws" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &Client{}
			tt.opt(client)
			if !tt.check(client) {
				t.Errorf("Expected option %s to be applied", tt.name)
			}
		})
	}
}

// TestWithHTTPClient tests the HTTP client option
func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 5 * time.Second}

	client := &Client{}
	WithHTTPClient(custom)(client)
	if client.httpClient != custom {
		t.Errorf("Expected custom HTTP client to be applied")
	}

	// nil leaves the existing client untouched
	WithHTTPClient(nil)(client)
	if client.httpClient != custom {
		t.Errorf("Expected nil HTTP client to be ignored")
	}
}

// TestWithDialer tests the WebSocket dialer option
func TestWithDialer(t *testing.T) {
	custom := &websocket.Dialer{HandshakeTimeout: 5 * time.Second}

	client := &Client{}
	WithDialer(custom)(client)
	if client.dialer != custom {
		t.Errorf("Expected custom dialer to be applied")
	}

	WithDialer(nil)(client)
	if client.dialer != custom {
		t.Errorf("Expected nil dialer to be ignored")
	}
}

// TestWithLogger tests the logger option
func TestWithLogger(t *testing.T) {
	logger := NewDefaultLogger(LogLevelError)

	client := &Client{logger: &NoOpLogger{}}
	WithLogger(logger)(client)
	if client.logger != logger {
		t.Errorf("Expected custom logger to be applied")
	}

	WithLogger(nil)(client)
	if client.logger != logger {
		t.Errorf("Expected nil logger to be ignored")
	}
}
