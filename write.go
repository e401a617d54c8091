// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

// WriteSpec is one queued attribute mutation destined for a switch
// interface. Specs accumulate on the client in order and are flushed as a
// single streamed request by Write.
type WriteSpec struct {
	// Path is the owning switch's hierarchy path
	Path string `json:"path"`

	// Attribute is the interface attribute to change
	Attribute string `json:"attribute"`

	// Index is the SNMP interface index
	Index int `json:"index"`

	// Value is the new attribute value
	Value any `json:"value"`
}

// WriteProgress is an update on the progress of a write operation.
type WriteProgress struct {
	finished    bool
	hasProgress bool
	done        int
	total       int
}

// Finished returns true if the write has finished and no further updates
// will be received.
func (p WriteProgress) Finished() bool {
	return p.finished
}

// Progress returns the write operation's progress as (done, total). It
// fails when the frame carried no progress information.
func (p WriteProgress) Progress() (int, int, error) {
	if !p.hasProgress {
		return 0, 0, fmt.Errorf("swarm: no progress information available")
	}
	return p.done, p.total, nil
}

// Percent returns the write operation's progress as a percentage. A
// finished write is always 100; otherwise the integer quotient
// 100*done/total. It fails when the frame carried no progress information
// or an empty total.
func (p WriteProgress) Percent() (int, error) {
	if p.finished {
		return 100, nil
	}
	if !p.hasProgress || p.total == 0 {
		return 0, fmt.Errorf("swarm: no progress information available")
	}
	return (100 * p.done) / p.total, nil
}

// progressFromFrame decodes one streamed frame into a WriteProgress.
func progressFromFrame(frame gjson.Result) WriteProgress {
	p := WriteProgress{
		finished: frame.Get("type").String() == frameReply,
	}
	if prog := frame.Get("progress"); prog.IsObject() {
		p.hasProgress = true
		p.done = int(prog.Get("done").Int())
		p.total = int(prog.Get("size").Int())
	}
	return p
}

// WriteStream is a cursor over the progress of one Write call.
type WriteStream struct {
	c  *Client
	st *Stream // nil when the queue was empty

	sent int
	cur  WriteProgress

	emptyYielded bool
	err          error
}

// Dirty returns true if there are outstanding changes ready to be written
// by calling Write.
func (c *Client) Dirty() bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return len(c.writespecs) > 0
}

// queueWrite appends one mutation to the client-wide write queue.
func (c *Client) queueWrite(spec WriteSpec) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.writespecs = append(c.writespecs, spec)
}

// pendingValue returns the most recently queued value for an interface
// attribute, if any. Reads of writable interface attributes consult this
// before falling back to the cached remote snapshot.
func (c *Client) pendingValue(path string, index int, attribute string) (any, bool) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	for i := len(c.writespecs) - 1; i >= 0; i-- {
		s := c.writespecs[i]
		if s.Path == path && s.Index == index && s.Attribute == attribute {
			return s.Value, true
		}
	}
	return nil, false
}

// Write flushes any queued changes to the switches as one streamed
// request, and performs a commit operation on each switch if commit is
// true.
//
// If the queue is empty, the returned stream yields exactly one
// already-finished progress without touching the network. Otherwise
// progress frames arrive as the service works through the queue; the queue
// is cleared only once the terminal ok reply is observed. On a terminal
// error the queue is left intact so the caller may retry.
//
//	ws, err := client.Write(ctx, true)
//	if err != nil { ... }
//	defer ws.Close()
//	for ws.Next() {
//	    p := ws.Progress()
//	    ...
//	}
//	if err := ws.Err(); err != nil { ... }
func (c *Client) Write(ctx context.Context, commit bool) (*WriteStream, error) {
	c.writeMu.Lock()
	specs := make([]WriteSpec, len(c.writespecs))
	copy(specs, c.writespecs)
	c.writeMu.Unlock()

	if len(specs) == 0 {
		return &WriteStream{c: c}, nil
	}

	st, err := c.streamRequest(ctx, "write", []any{specs, commit})
	if err != nil {
		return nil, err
	}

	return &WriteStream{c: c, st: st, sent: len(specs)}, nil
}

// Next advances to the next progress update. It returns false when the
// write has finished or failed; check Err afterwards.
func (w *WriteStream) Next() bool {
	if w.st == nil {
		// Empty queue: one synthetic already-finished progress.
		if w.emptyYielded {
			return false
		}
		w.emptyYielded = true
		w.cur = WriteProgress{finished: true}
		return true
	}

	if !w.st.Next() {
		w.err = w.st.Err()
		return false
	}

	frame := w.st.Frame()
	w.cur = progressFromFrame(frame)

	if frame.Get("type").String() == frameReply && frame.Get("status").String() == statusOK {
		// Only now is the flush known to have been accepted; drop the
		// specs that were sent, keeping any queued since.
		w.c.writeMu.Lock()
		if w.sent <= len(w.c.writespecs) {
			w.c.writespecs = w.c.writespecs[w.sent:]
		} else {
			w.c.writespecs = nil
		}
		w.c.writeMu.Unlock()
	}

	return true
}

// Progress returns the current progress update. Only valid after Next
// returned true.
func (w *WriteStream) Progress() WriteProgress {
	return w.cur
}

// Err returns the first error encountered by the write, if any.
func (w *WriteStream) Err() error {
	return w.err
}

// Close releases the underlying stream.
func (w *WriteStream) Close() error {
	if w.st == nil {
		return nil
	}
	return w.st.Close()
}
