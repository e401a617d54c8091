// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// Interface attribute names, as used in write specs and data blobs.
const (
	attrAdminStatus = "admin_status"
	attrOperStatus  = "oper_status"
	attrAlias       = "alias"
	attrName        = "name"
	attrLongName    = "description"
	attrSpeed       = "speed"
	attrTrunk       = "trunk"
	attrVLAN        = "vlan"
	attrVoiceVLAN   = "voice_vlan"
)

// Interface is an interface object in swarm, representing one specific
// interface on a network switch.
//
// Attribute reads go through one memoized snapshot fetched lazily from the
// service. Writable attributes (admin status, alias, VLANs) do not patch
// the snapshot: setting them queues a WriteSpec on the client, flushed by
// Client.Write. Reads of writable attributes return the queued value when
// one is pending (with observation time zero), falling back to the
// snapshot otherwise.
type Interface struct {
	c  *Client
	mu sync.Mutex

	path  string
	index int

	blob    gjson.Result
	fetched bool
}

func newInterface(c *Client, path string, index int) *Interface {
	return &Interface{c: c, path: path, index: index}
}

// Path is the dot-separated path to this interface's owning switch in the
// swarm hierarchy.
func (i *Interface) Path() string {
	return i.path
}

// Index is the SNMP index of this interface.
func (i *Interface) Index() int {
	return i.index
}

// Switch is the switch this interface belongs to.
func (i *Interface) Switch() *Switch {
	return i.c.Switch(i.path)
}

// String implements fmt.Stringer.
func (i *Interface) String() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fetched {
		return "Interface(" + i.path + "/" + strconv.Itoa(i.index) + ": " +
			i.blob.Get("data.name.value").String() + ")"
	}
	return "Interface(" + i.path + "/" + strconv.Itoa(i.index) + ")"
}

func (i *Interface) urlPath() string {
	return "/interfaces/" + i.path + "/" + strconv.Itoa(i.index)
}

// fetchLocked populates the snapshot. Caller holds i.mu.
func (i *Interface) fetchLocked(ctx context.Context) error {
	if i.fetched {
		return nil
	}
	res, err := i.c.get(ctx, i.urlPath())
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return res.apiErr()
	}
	i.blob = res.JSON()
	i.fetched = true
	return nil
}

// dataProp reads one attribute's raw {value, time} object from the
// snapshot, fetching it on first use.
func (i *Interface) dataProp(ctx context.Context, name string) (gjson.Result, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.fetchLocked(ctx); err != nil {
		return gjson.Result{}, err
	}
	return i.blob.Get("data." + name), nil
}

// queueSet queues one writable-attribute mutation on the client.
func (i *Interface) queueSet(name string, value any) {
	i.c.queueWrite(WriteSpec{
		Path:      i.path,
		Attribute: name,
		Index:     i.index,
		Value:     value,
	})
}

// stringProp reads a string attribute, pending write first.
func (i *Interface) stringProp(ctx context.Context, name string) (TimedValue[string], error) {
	if v, ok := i.c.pendingValue(i.path, i.index, name); ok {
		s, _ := v.(string)
		return NewTimedValue(s, 0), nil
	}
	src, err := i.dataProp(ctx, name)
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(src, asString), nil
}

// intProp reads an integer attribute, pending write first.
func (i *Interface) intProp(ctx context.Context, name string) (TimedValue[int64], error) {
	if v, ok := i.c.pendingValue(i.path, i.index, name); ok {
		switch n := v.(type) {
		case int:
			return NewTimedValue(int64(n), 0), nil
		case int64:
			return NewTimedValue(n, 0), nil
		}
		return TimedValue[int64]{}, fmt.Errorf("swarm: pending %s value is not an integer", name)
	}
	src, err := i.dataProp(ctx, name)
	if err != nil {
		return TimedValue[int64]{}, err
	}
	return timedValue(src, asInt), nil
}

// AdminStatus is the administrative status of this interface.
func (i *Interface) AdminStatus(ctx context.Context) (TimedValue[string], error) {
	return i.stringProp(ctx, attrAdminStatus)
}

// SetAdminStatus queues a new administrative status for the next
// Client.Write.
func (i *Interface) SetAdminStatus(status string) {
	i.queueSet(attrAdminStatus, status)
}

// OperStatus is the operating status of this interface.
func (i *Interface) OperStatus(ctx context.Context) (TimedValue[string], error) {
	src, err := i.dataProp(ctx, attrOperStatus)
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(src, asString), nil
}

// Alias is the alias of this interface (user-defined name, set with
// `description` in Cisco configuration).
func (i *Interface) Alias(ctx context.Context) (TimedValue[string], error) {
	return i.stringProp(ctx, attrAlias)
}

// SetAlias queues a new alias for the next Client.Write.
func (i *Interface) SetAlias(alias string) {
	i.queueSet(attrAlias, alias)
}

// Name is the system's short name for this interface (e.g. `Gi0/1/0`).
func (i *Interface) Name(ctx context.Context) (TimedValue[string], error) {
	src, err := i.dataProp(ctx, attrName)
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(src, asString), nil
}

// LongName is the system's full name for this interface (e.g.
// `GigabitEthernet0/1/0`).
func (i *Interface) LongName(ctx context.Context) (TimedValue[string], error) {
	src, err := i.dataProp(ctx, attrLongName)
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(src, asString), nil
}

// Speed is the operating speed of this interface in bits per second.
func (i *Interface) Speed(ctx context.Context) (TimedValue[int64], error) {
	src, err := i.dataProp(ctx, attrSpeed)
	if err != nil {
		return TimedValue[int64]{}, err
	}
	return timedValue(src, asInt), nil
}

// Trunk reports whether this interface is a trunk port (carries tagged
// VLANs).
func (i *Interface) Trunk(ctx context.Context) (TimedValue[bool], error) {
	src, err := i.dataProp(ctx, attrTrunk)
	if err != nil {
		return TimedValue[bool]{}, err
	}
	return timedValue(src, asBool), nil
}

// VLAN is the access VLAN of this interface.
func (i *Interface) VLAN(ctx context.Context) (TimedValue[int64], error) {
	return i.intProp(ctx, attrVLAN)
}

// SetVLAN queues a new access VLAN for the next Client.Write.
func (i *Interface) SetVLAN(vlan int) {
	i.queueSet(attrVLAN, vlan)
}

// VoiceVLAN is the voice VLAN of this interface.
func (i *Interface) VoiceVLAN(ctx context.Context) (TimedValue[int64], error) {
	return i.intProp(ctx, attrVoiceVLAN)
}

// SetVoiceVLAN queues a new voice VLAN for the next Client.Write.
func (i *Interface) SetVoiceVLAN(vlan int) {
	i.queueSet(attrVoiceVLAN, vlan)
}

// Neighbours retrieves all neighbours visible on this interface: one
// MACNeighbour per forwarding entry, plus one CDPNeighbour per advertised
// CDP adjacency.
func (i *Interface) Neighbours(ctx context.Context) ([]Neighbour, error) {
	i.mu.Lock()
	if err := i.fetchLocked(ctx); err != nil {
		i.mu.Unlock()
		return nil, err
	}
	cdp := i.blob.Get("neighbours").Array()
	i.mu.Unlock()

	res, err := i.c.get(ctx, i.urlPath()+"/macs")
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}

	var neis []Neighbour
	for _, m := range res.JSON().Get("macs").Array() {
		neis = append(neis, &MACNeighbour{
			neighbour: neighbour{c: i.c, path: i.path, index: i.index, stamp: m.Get("time").Int()},
			mac:       m.Get("mac").String(),
		})
	}
	for _, n := range cdp {
		neis = append(neis, &CDPNeighbour{
			neighbour:  neighbour{c: i.c, path: i.path, index: i.index, stamp: n.Get("time").Int()},
			remoteName: n.Get("remote_name").String(),
			remoteIntf: n.Get("remote_intf").String(),
		})
	}
	return neis, nil
}

// History retrieves all changes that have affected this interface.
func (i *Interface) History(ctx context.Context) ([]Change, error) {
	return i.history(ctx, "")
}

// HistorySince retrieves all changes that have affected this interface
// after a particular timestamp. Filtering happens server-side.
func (i *Interface) HistorySince(ctx context.Context, since time.Time) ([]Change, error) {
	return i.history(ctx, "&since="+strconv.FormatInt(since.Unix(), 10))
}

func (i *Interface) history(ctx context.Context, extra string) ([]Change, error) {
	res, err := i.c.get(ctx, i.urlPath()+"/history?interface_only=true"+extra)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}
	return decodeChangeLog(i.c, i.path, res.JSON())
}
