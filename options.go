// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Client configuration options using the functional options pattern

// Endpoint overrides the swarm instance hostname. By default the
// credential's endpoint is used.
func Endpoint(endpoint string) func(*Client) {
	return func(c *Client) {
		c.Endpoint = endpoint
	}
}

// MaxRetries sets the maximum number of retries for transient HTTP
// failures (default: 5)
//
// Only 502, 503 and 504 responses are retried; all other statuses surface
// immediately.
func MaxRetries(retries int) func(*Client) {
	return func(c *Client) {
		c.MaxRetries = retries
	}
}

// BackoffMinDelay sets the minimum backoff delay (default: 1s)
func BackoffMinDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMinDelay = duration
	}
}

// BackoffMaxDelay sets the maximum backoff delay (default: 60s)
func BackoffMaxDelay(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.BackoffMaxDelay = duration
	}
}

// BackoffDelayFactor sets the backoff multiplication factor (default: 2.0)
func BackoffDelayFactor(factor float64) func(*Client) {
	return func(c *Client) {
		c.BackoffDelayFactor = factor
	}
}

// OperationTimeout bounds the streaming handshake and each streamed-frame
// read (default: 30s). A hung server fails the streamed call with a read
// deadline error instead of blocking forever.
func OperationTimeout(duration time.Duration) func(*Client) {
	return func(c *Client) {
		c.OperationTimeout = duration
	}
}

// ContainerCacheSize bounds the container identity cache (default: 50)
func ContainerCacheSize(size int) func(*Client) {
	return func(c *Client) {
		c.containerCacheSize = size
	}
}

// SwitchCacheSize bounds the switch identity cache (default: 20)
func SwitchCacheSize(size int) func(*Client) {
	return func(c *Client) {
		c.switchCacheSize = size
	}
}

// InterfaceCacheSize bounds the interface identity cache (default: 100)
func InterfaceCacheSize(size int) func(*Client) {
	return func(c *Client) {
		c.interfaceCacheSize = size
	}
}

// APIBaseURL overrides the REST base URL derived from the endpoint
// (https://{endpoint}/api). Primarily for testing against local instances.
func APIBaseURL(url string) func(*Client) {
	return func(c *Client) {
		c.apiURL = url
	}
}

// StreamURL overrides the streaming connection URL derived from the
// endpoint (wss://{endpoint}/api/ws). Primarily for testing against local
// instances.
func StreamURL(url string) func(*Client) {
	return func(c *Client) {
		c.wsURL = url
	}
}

// WithHTTPClient sets the HTTP client used for REST calls
func WithHTTPClient(client *http.Client) func(*Client) {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithDialer sets the WebSocket dialer used to open the streaming
// connection
func WithDialer(dialer *websocket.Dialer) func(*Client) {
	return func(c *Client) {
		if dialer != nil {
			c.dialer = dialer
		}
	}
}

// WithLogger configures a custom logger for the client
//
// By default the client uses NoOpLogger which discards all log messages.
//
// Example:
//
//	logger := swarm.NewDefaultLogger(swarm.LogLevelInfo)
//	client, _ := swarm.NewClient(cred, swarm.WithLogger(logger))
func WithLogger(logger Logger) func(*Client) {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}
