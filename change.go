// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"time"

	"github.com/tidwall/gjson"
)

// Change kind tags as they appear in history records.
const (
	ChangeKindInterface      = "interface"
	ChangeKindSwitch         = "switch"
	ChangeKindInterfaceWrite = "interface_write"
	ChangeKindSwitchWrite    = "switch_write"
)

// Change represents a change made to a switch or switch interface, as
// recorded in the service's history log. Changes are read-only and are
// reconstructed fresh on every history query.
//
// Concrete types are SwitchChange, InterfaceChange, SwitchWriteChange and
// InterfaceWriteChange; switch on the concrete type (or Kind) for
// kind-specific fields.
type Change interface {
	// Kind is the change kind tag
	Kind() string

	// Switch is the switch which had this change made to it (or
	// recorded it)
	Switch() *Switch

	// Changes is the map of attributes which changed
	Changes() gjson.Result

	// Time is the time at which the change was made or noticed
	Time() time.Time

	// RawTime is the change time as seconds since the UNIX epoch
	RawTime() int64
}

// changeRecord carries the fields common to every change kind.
type changeRecord struct {
	c       *Client
	kind    string
	path    string
	stamp   int64
	changes gjson.Result
}

func (r *changeRecord) Kind() string          { return r.kind }
func (r *changeRecord) Switch() *Switch       { return r.c.Switch(r.path) }
func (r *changeRecord) Changes() gjson.Result { return r.changes }
func (r *changeRecord) Time() time.Time       { return time.Unix(r.stamp, 0) }
func (r *changeRecord) RawTime() int64        { return r.stamp }

// SwitchChange is a change made to a switch (not one of its interfaces),
// detected by the poller rather than written via swarm.
type SwitchChange struct {
	changeRecord
}

// SwitchWriteChange is a change made to a switch via swarm.
type SwitchWriteChange struct {
	SwitchChange
	user string
}

// User is the username of the user who wrote this change.
func (c *SwitchWriteChange) User() string { return c.user }

// InterfaceChange is a change made to a switch interface which was detected
// by the poller rather than written via swarm.
type InterfaceChange struct {
	changeRecord
	index int
}

// Index is the SNMP index of the affected interface.
func (c *InterfaceChange) Index() int { return c.index }

// Interface is the interface affected by this change.
func (c *InterfaceChange) Interface() *Interface {
	return c.c.Interface(c.path, c.index)
}

// InterfaceWriteChange is a change made to a switch interface via swarm.
type InterfaceWriteChange struct {
	InterfaceChange
	user string
}

// User is the username of the user who wrote this change.
func (c *InterfaceWriteChange) User() string { return c.user }

// decodeChange dispatches one history record into its Change variant by
// kind tag. Unknown tags are a protocol violation, not a silent default.
func decodeChange(c *Client, path string, blob gjson.Result) (Change, error) {
	rec := changeRecord{
		c:       c,
		kind:    blob.Get("type").String(),
		path:    path,
		stamp:   blob.Get("time").Int(),
		changes: blob.Get("changes"),
	}

	switch rec.kind {
	case ChangeKindSwitch:
		return &SwitchChange{changeRecord: rec}, nil
	case ChangeKindSwitchWrite:
		return &SwitchWriteChange{
			SwitchChange: SwitchChange{changeRecord: rec},
			user:         blob.Get("user").String(),
		}, nil
	case ChangeKindInterface:
		return &InterfaceChange{
			changeRecord: rec,
			index:        int(blob.Get("index").Int()),
		}, nil
	case ChangeKindInterfaceWrite:
		return &InterfaceWriteChange{
			InterfaceChange: InterfaceChange{
				changeRecord: rec,
				index:        int(blob.Get("index").Int()),
			},
			user: blob.Get("user").String(),
		}, nil
	default:
		return nil, &ProtocolError{Reason: "unsupported change type: " + rec.kind}
	}
}

// decodeChangeLog decodes a history response's logs array.
func decodeChangeLog(c *Client, path string, res gjson.Result) ([]Change, error) {
	logs := res.Get("logs").Array()
	changes := make([]Change, 0, len(logs))
	for _, blob := range logs {
		ch, err := decodeChange(c, path, blob)
		if err != nil {
			return nil, err
		}
		changes = append(changes, ch)
	}
	return changes, nil
}
