// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Streamed frame kinds
const (
	frameReply        = "reply"
	framePartialReply = "partial_reply"
)

// Streamed reply statuses
const (
	statusOK    = "ok"
	statusError = "error"
)

// SystemStats are basic statistics about the swarm installation itself.
type SystemStats struct {
	// Uptime in the form `X days, Y hrs, Z mins and Q s`
	Uptime string

	// Switches is the total number of switches in the swarm instance
	Switches int

	// Interfaces is the total number of interfaces in the swarm instance
	Interfaces int
}

// Stream is a cursor over the reply frames of one streamed request. It is
// lazy, single-pass and non-restartable:
//
//	st, err := client.streamRequest(ctx, "get_stats", nil)
//	if err != nil { ... }
//	defer st.Close()
//	for st.Next() {
//	    frame := st.Frame()
//	    ...
//	}
//	if err := st.Err(); err != nil { ... }
//
// Partial replies are yielded as they arrive; the terminal ok reply is
// yielded once and ends iteration. The client's stream lock is held from
// request send until Close, so at most one streamed request is ever in
// flight per connection.
type Stream struct {
	c      *Client
	ctx    context.Context
	cookie uint64

	frame  gjson.Result
	err    error
	done   bool
	closed bool
}

// streamRequest allocates a correlation ID, sends one request frame over
// the streaming connection and returns a Stream over its replies. The
// correlation ID is strictly increasing and never reused for the life of
// the session.
func (c *Client) streamRequest(ctx context.Context, method string, args any) (*Stream, error) {
	c.streamMu.Lock()

	if c.ws == nil {
		c.streamMu.Unlock()
		return nil, fmt.Errorf("swarm: streaming connection is closed")
	}

	c.nextCookie++
	cookie := c.nextCookie

	if args == nil {
		args = []any{}
	}
	req := map[string]any{
		"cookie": cookie,
		"method": method,
		"args":   args,
	}

	c.logger.Debug("streamed request",
		"method", method,
		"cookie", cookie)

	if err := c.ws.WriteJSON(req); err != nil {
		c.streamMu.Unlock()
		return nil, fmt.Errorf("swarm: failed to send streamed request: %w", err)
	}

	return &Stream{c: c, ctx: ctx, cookie: cookie}, nil
}

// Next advances to the next reply frame. It returns false when the stream
// is exhausted or failed; check Err afterwards.
func (s *Stream) Next() bool {
	if s.closed || s.done || s.err != nil {
		return false
	}

	for {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return false
		}

		// A hung server fails the read instead of blocking forever.
		_ = s.c.ws.SetReadDeadline(time.Now().Add(s.c.OperationTimeout))
		_, data, err := s.c.ws.ReadMessage()
		if err != nil {
			s.err = fmt.Errorf("swarm: streamed read failed: %w", err)
			return false
		}

		// Empty frames are keepalive noise.
		if len(data) == 0 {
			continue
		}
		frame := gjson.ParseBytes(data)
		if frame.Type == gjson.Null {
			continue
		}

		if got := frame.Get("cookie").Uint(); got != s.cookie {
			s.err = &ProtocolError{Reason: fmt.Sprintf("reply correlation id %d does not match request %d", got, s.cookie)}
			return false
		}

		switch frame.Get("type").String() {
		case framePartialReply:
			s.frame = frame
			return true
		case frameReply:
			s.done = true
			if frame.Get("status").String() == statusError {
				if reason := frame.Get("reason"); reason.Exists() {
					s.err = &StreamError{Reason: reason.String()}
				} else {
					s.err = &StreamError{Reason: frame.Raw}
				}
				return false
			}
			s.frame = frame
			return true
		default:
			// Unknown frame kinds are skipped, like empty frames.
			continue
		}
	}
}

// Frame returns the current reply frame. Only valid after Next returned
// true.
func (s *Stream) Frame() gjson.Result {
	return s.frame
}

// Err returns the first error encountered while iterating, if any.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the stream and the client's streamed-request slot.
//
// Closing an unfinished stream first drains the remaining frames of the
// call, so the next streamed request starts at a frame boundary instead of
// reading this call's tail. A stream that failed before its terminal reply
// (canceled context, expired read deadline, correlation mismatch) cannot be
// drained; its tail frames are still on the connection, so the connection
// is torn down and later streamed calls fail fast.
func (s *Stream) Close() error {
	if s.closed {
		return nil
	}

	for s.Next() {
	}

	if s.err != nil && !s.done {
		s.c.teardown()
	}

	s.closed = true
	s.c.streamMu.Unlock()
	return nil
}

// Stats retrieves basic statistics about swarm's operating state over the
// streaming connection.
func (c *Client) Stats(ctx context.Context) (SystemStats, error) {
	st, err := c.streamRequest(ctx, "get_stats", nil)
	if err != nil {
		return SystemStats{}, err
	}
	defer st.Close()

	if !st.Next() {
		if err := st.Err(); err != nil {
			return SystemStats{}, err
		}
		return SystemStats{}, &ProtocolError{Reason: "get_stats produced no reply"}
	}

	data := st.Frame().Get("data")
	return SystemStats{
		Uptime:     data.Get("uptime").String(),
		Switches:   int(data.Get("switches").Int()),
		Interfaces: int(data.Get("interfaces").Int()),
	}, nil
}
