// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// Default client configuration values
const (
	DefaultEndpoint           = "swarm.netman.uq.edu.au"
	DefaultMaxRetries         = 5
	DefaultBackoffMinDelay    = 1 * time.Second
	DefaultBackoffMaxDelay    = 60 * time.Second
	DefaultBackoffDelayFactor = 2
	DefaultOperationTimeout   = 30 * time.Second

	DefaultContainerCacheSize = 50
	DefaultSwitchCacheSize    = 20
	DefaultInterfaceCacheSize = 100
)

// Client is the basic client object for interacting with the swarm API.
//
// A Client owns one retrying HTTP session and one persistent WebSocket
// connection, both established by NewClient. Entity proxies are obtained
// through the Container, Switch and Interface identity caches.
//
// Plain HTTP calls may run concurrently; streamed calls are serialized
// internally (see doc.go).
type Client struct {
	cred *Credential

	// Endpoint is the hostname of the swarm instance
	Endpoint string

	// Retry configuration for transient HTTP failures (502/503/504)
	MaxRetries         int
	BackoffMinDelay    time.Duration
	BackoffMaxDelay    time.Duration
	BackoffDelayFactor float64

	// OperationTimeout bounds each streamed-protocol frame read
	OperationTimeout time.Duration

	apiURL string
	wsURL  string

	httpClient *http.Client
	dialer     *websocket.Dialer

	// wsMu guards ws teardown; streamMu serializes streamed requests
	wsMu sync.Mutex
	ws   *websocket.Conn

	streamMu   sync.Mutex
	nextCookie uint64 // guarded by streamMu, never reused

	// write queue, flushed by Write
	writeMu    sync.Mutex
	writespecs []WriteSpec

	caches *objectCaches

	containerCacheSize int
	switchCacheSize    int
	interfaceCacheSize int

	logger Logger
}

// NewClient creates a swarm client for the given machine credential.
//
// The machine-credential handshake is performed (unless the credential
// already holds a cookie) and the persistent streaming connection is opened
// before NewClient returns; a client that cannot reach the service fails
// fast here. The streaming connection is not re-established on drop. A
// dropped connection is fatal for subsequent streamed calls and the client
// should be rebuilt.
//
// Example:
//
//	cred, err := swarm.NewCredential("m1", key, "swarm.netman.uq.edu.au")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := swarm.NewClient(cred,
//	    swarm.MaxRetries(3),
//	    swarm.WithLogger(swarm.NewDefaultLogger(swarm.LogLevelInfo)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
func NewClient(cred *Credential, opts ...func(*Client)) (*Client, error) {
	if cred == nil {
		return nil, fmt.Errorf("swarm: credential cannot be nil")
	}

	client := &Client{
		cred:               cred,
		Endpoint:           cred.Endpoint,
		MaxRetries:         DefaultMaxRetries,
		BackoffMinDelay:    DefaultBackoffMinDelay,
		BackoffMaxDelay:    DefaultBackoffMaxDelay,
		BackoffDelayFactor: DefaultBackoffDelayFactor,
		OperationTimeout:   DefaultOperationTimeout,
		containerCacheSize: DefaultContainerCacheSize,
		switchCacheSize:    DefaultSwitchCacheSize,
		interfaceCacheSize: DefaultInterfaceCacheSize,
		httpClient:         &http.Client{},
		dialer:             websocket.DefaultDialer,
		logger:             &NoOpLogger{},
	}

	// Apply functional options
	for _, opt := range opts {
		opt(client)
	}

	if client.Endpoint == "" {
		client.Endpoint = DefaultEndpoint
	}
	if client.apiURL == "" {
		client.apiURL = "https://" + client.Endpoint + "/api"
	}
	if client.wsURL == "" {
		client.wsURL = "wss://" + client.Endpoint + "/api/ws"
	}

	if err := client.validateConfig(); err != nil {
		return nil, err
	}

	caches, err := newObjectCaches(client.containerCacheSize, client.switchCacheSize, client.interfaceCacheSize)
	if err != nil {
		return nil, err
	}
	client.caches = caches

	ctx, cancel := context.WithTimeout(context.Background(), client.OperationTimeout)
	defer cancel()

	if err := client.connect(ctx); err != nil {
		return nil, err
	}

	client.logger.Info("swarm client created",
		"endpoint", client.Endpoint,
		"user", cred.User)

	return client, nil
}

// validateConfig validates client configuration before connection
func (c *Client) validateConfig() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("swarm: endpoint cannot be empty")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("swarm: max retries must be non-negative, got: %d", c.MaxRetries)
	}
	if c.BackoffMinDelay <= 0 {
		return fmt.Errorf("swarm: backoff min delay must be positive, got: %v", c.BackoffMinDelay)
	}
	if c.BackoffMaxDelay <= c.BackoffMinDelay {
		return fmt.Errorf("swarm: backoff max delay (%v) must be greater than min delay (%v)",
			c.BackoffMaxDelay, c.BackoffMinDelay)
	}
	if c.BackoffDelayFactor < 1.0 {
		return fmt.Errorf("swarm: backoff delay factor must be >= 1.0, got: %f", c.BackoffDelayFactor)
	}
	if c.OperationTimeout <= 0 {
		return fmt.Errorf("swarm: operation timeout must be positive, got: %v", c.OperationTimeout)
	}
	if c.containerCacheSize <= 0 || c.switchCacheSize <= 0 || c.interfaceCacheSize <= 0 {
		return fmt.Errorf("swarm: cache sizes must be positive, got: %d/%d/%d",
			c.containerCacheSize, c.switchCacheSize, c.interfaceCacheSize)
	}
	return nil
}

// connect obtains the session cookie and opens the streaming connection.
func (c *Client) connect(ctx context.Context) error {
	cookie, err := c.cred.Cookie(ctx)
	if err != nil {
		return err
	}

	// The cookie rides both as an HTTP cookie and as a query parameter on
	// connection establishment.
	wsURL := c.wsURL
	if strings.Contains(wsURL, "?") {
		wsURL += "&cookie=" + cookie
	} else {
		wsURL += "?cookie=" + cookie
	}

	header := http.Header{}
	header.Set("Origin", c.apiURL)
	header.Set("Cookie", CookieName+"="+cookie)

	conn, resp, err := c.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			c.logger.Error("streaming connection rejected",
				"endpoint", c.Endpoint,
				"status", resp.StatusCode)
		}
		return fmt.Errorf("swarm: failed to open streaming connection: %w", err)
	}

	// Keepalive probe, matching the handshake the service expects.
	if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.OperationTimeout)); err != nil {
		conn.Close()
		return fmt.Errorf("swarm: streaming connection ping failed: %w", err)
	}

	c.ws = conn

	c.logger.Debug("streaming connection established",
		"endpoint", c.Endpoint)

	return nil
}

// Close closes the streaming connection and releases the client.
//
// Thread-safe: safe to call multiple times (subsequent calls are no-ops).
// The client cannot be reused after Close.
func (c *Client) Close() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return nil
	}

	conn := c.ws
	c.ws = nil

	err := conn.Close()
	if err != nil {
		return err
	}

	c.logger.Info("swarm client closed",
		"endpoint", c.Endpoint)

	return nil
}

// teardown closes the streaming connection after a failure that leaves
// unread frames of an abandoned call on it. The connection can no longer
// be trusted for correlation, so subsequent streamed calls fail fast
// instead of reading another call's tail.
func (c *Client) teardown() {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()

	if c.ws == nil {
		return
	}
	c.ws.Close()
	c.ws = nil

	c.logger.Warn("streaming connection abandoned after failed call",
		"endpoint", c.Endpoint)
}

// Backoff calculates the delay before retry attempt using exponential
// backoff with jitter.
//
// The formula is: delay = min(minDelay * (factor ^ attempt) + jitter, maxDelay)
// where jitter is a random value in [0, delay * 0.1] to prevent thundering
// herd. Uses crypto/rand, falling back to timestamp-based jitter if that
// fails.
func (c *Client) Backoff(attempt int) time.Duration {
	delay := float64(c.BackoffMinDelay) * math.Pow(c.BackoffDelayFactor, float64(attempt))

	if math.IsInf(delay, 1) || delay > float64(c.BackoffMaxDelay) {
		delay = float64(c.BackoffMaxDelay)
	}

	jitterMax := int64(delay * 0.1)
	if jitterMax > 0 {
		var jitterBytes [8]byte
		if _, err := rand.Read(jitterBytes[:]); err == nil {
			jitter := int64(binary.BigEndian.Uint64(jitterBytes[:]) & 0x7FFFFFFFFFFFFFFF)
			delay += float64(jitter % jitterMax)
		} else {
			timestamp := time.Now().UnixNano()
			delay += float64((timestamp%jitterMax + jitterMax) % jitterMax)
		}
	}

	return time.Duration(delay)
}

// apiRes is a raw REST response: status code plus body.
type apiRes struct {
	StatusCode int
	Body       []byte
}

// JSON parses the response body for querying with gjson.
func (r apiRes) JSON() gjson.Result {
	return gjson.ParseBytes(r.Body)
}

// apiErr builds the error for a non-2xx response. Access denials map to
// ErrForbidden so callers can test with errors.Is.
func (r apiRes) apiErr() error {
	if r.StatusCode == http.StatusForbidden {
		return ErrForbidden
	}
	return &APIError{StatusCode: r.StatusCode, Body: string(r.Body)}
}

// do sends one REST request with the session cookie attached, retrying
// transient statuses (502/503/504) with exponential backoff. Any other
// response, success or not, is returned to the caller as-is.
func (c *Client) do(ctx context.Context, method, path string, body []byte, contentType string) (apiRes, error) {
	cookie, err := c.cred.Cookie(ctx)
	if err != nil {
		return apiRes{}, err
	}

	url := c.apiURL + path

	var res apiRes
	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return apiRes{}, fmt.Errorf("swarm: failed to create request: %w", err)
		}
		req.AddCookie(&http.Cookie{Name: CookieName, Value: cookie})
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return apiRes{}, fmt.Errorf("swarm: request failed: %w", err)
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return apiRes{}, fmt.Errorf("swarm: failed to read response: %w", err)
		}

		res = apiRes{StatusCode: resp.StatusCode, Body: data}

		if !transientStatuses[res.StatusCode] || attempt >= c.MaxRetries {
			return res, nil
		}

		backoff := c.Backoff(attempt)
		c.logger.Warn("transient error, retrying",
			"method", method,
			"path", path,
			"status", res.StatusCode,
			"attempt", attempt+1,
			"max_retries", c.MaxRetries,
			"backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return apiRes{}, fmt.Errorf("swarm: canceled during backoff: %w", ctx.Err())
		}
	}
}

// get issues a GET request against the swarm REST API.
func (c *Client) get(ctx context.Context, path string) (apiRes, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// post issues a POST request against the swarm REST API.
func (c *Client) post(ctx context.Context, path string, body []byte, contentType string) (apiRes, error) {
	return c.do(ctx, http.MethodPost, path, body, contentType)
}

// del issues a DELETE request against the swarm REST API.
func (c *Client) del(ctx context.Context, path string) (apiRes, error) {
	return c.do(ctx, http.MethodDelete, path, nil, "")
}
