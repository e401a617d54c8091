// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultAuthURL is the machine authentication endpoint used to exchange a
// signed handshake for a session cookie.
const DefaultAuthURL = "https://api.uqcloud.net/machauth"

// CookieName is the name of the session cookie expected by the swarm API.
const CookieName = "EAIT_WEB"

// hmacSHA256Algorithm is the algorithm identifier sent in the handshake
// request body.
const hmacSHA256Algorithm = 2

// Credential is a machine authentication credential. It exchanges a signed,
// time-stamped handshake for a session cookie and memoizes the cookie for
// its own lifetime; no expiry tracking is performed.
//
// The zero value is not usable; construct with NewCredential.
type Credential struct {
	// User is the machine credential identity
	User string

	// Endpoint is the hostname of the final target API the cookie is
	// minted for
	Endpoint string

	// AuthURL is the machine authentication endpoint. Defaults to
	// DefaultAuthURL; override only when testing against a local
	// instance.
	AuthURL string

	// HTTPClient performs the handshake request. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	key []byte // unexported for security

	mu     sync.Mutex
	cookie string

	// now allows tests to pin the handshake timestamp
	now func() time.Time
}

// NewCredential creates a machine credential for the given target endpoint.
//
// user and key must be obtained from the authentication provider; key is
// base64-encoded. endpoint must be the hostname of the final target API.
//
// Returns an error if the key is not valid base64.
func NewCredential(user, key, endpoint string) (*Credential, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("swarm: credential key is not valid base64: %w", err)
	}
	return &Credential{
		User:       user,
		Endpoint:   endpoint,
		AuthURL:    DefaultAuthURL,
		HTTPClient: http.DefaultClient,
		key:        raw,
		now:        time.Now,
	}, nil
}

// sign computes the handshake signature over the timestamp and endpoint:
// HMAC-SHA256(key, u64be(timestamp) ++ endpoint).
func (c *Credential) sign(stamp int64) []byte {
	blob := make([]byte, 8, 8+len(c.Endpoint))
	binary.BigEndian.PutUint64(blob, uint64(stamp))
	blob = append(blob, []byte(c.Endpoint)...)

	mac := hmac.New(sha256.New, c.key)
	mac.Write(blob)
	return mac.Sum(nil)
}

// Cookie returns the session cookie for the credential, performing the
// machine authentication handshake on first use and memoizing the result.
//
// Replaying a timestamp-signed handshake within a short window is
// intentional; the server is responsible for anti-replay. A non-200
// handshake response returns an *AuthError and is never retried.
func (c *Credential) Cookie(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cookie != "" {
		return c.cookie, nil
	}

	stamp := c.now().Unix()
	sig := c.sign(stamp)

	body, err := json.Marshal(map[string]any{
		"time":      stamp,
		"target":    c.Endpoint,
		"user":      c.User,
		"signature": base64.StdEncoding.EncodeToString(sig),
		"algorithm": hmacSHA256Algorithm,
	})
	if err != nil {
		return "", fmt.Errorf("swarm: failed to encode handshake: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.AuthURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("swarm: failed to create handshake request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("swarm: handshake request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("swarm: failed to read handshake response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	c.cookie = gjson.GetBytes(data, "cookie").String()
	return c.cookie, nil
}

// HasCookie returns true if a session cookie has already been obtained.
//
// This method only indicates that a cookie exists without exposing it.
func (c *Credential) HasCookie() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cookie != ""
}
