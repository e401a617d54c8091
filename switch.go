// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"
)

// SwitchStatus is the reported state of a switch's poller or writer.
type SwitchStatus string

const (
	SwitchStatusOK      SwitchStatus = "ok"
	SwitchStatusError   SwitchStatus = "error"
	SwitchStatusInvalid SwitchStatus = "invalid"
)

// VLAN is a configured VLAN on a switch.
type VLAN struct {
	ID   int
	Name string
}

// Progress is a (done, total) progress pair reported by a switch's poller
// or writer.
type Progress struct {
	Done  int
	Total int
}

// Switch is a switch object in swarm, representing a network switch with
// interfaces.
//
// Configuration properties are read through a cached snapshot and mutated
// via Save. Polled telemetry (data properties) comes from a separate
// snapshot and is exposed as TimedValues. Status and progress are never
// cached: each access re-fetches the current poller state.
type Switch struct {
	c  *Client
	mu sync.Mutex

	path string

	configBlob    gjson.Result
	configFetched bool

	dataBlob    gjson.Result
	dataFetched bool

	changes Body
	isNew   bool
}

func newSwitch(c *Client, path string, isNew bool) *Switch {
	return &Switch{c: c, path: path, isNew: isNew}
}

// Path is the dot-separated path to this switch in the swarm hierarchy.
func (sw *Switch) Path() string {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.path
}

// String implements fmt.Stringer.
func (sw *Switch) String() string {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.configFetched {
		return "Switch(" + sw.path + ": " + sw.configBlob.Get("config.hostname").String() + ")"
	}
	return "Switch(" + sw.path + ")"
}

// configProp reads one configuration field, pending change first, then the
// cached config snapshot (fetched lazily from /switches/{path}).
func (sw *Switch) configProp(ctx context.Context, name string) (gjson.Result, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if pending := gjson.Get(sw.changes.Res(), name); pending.Exists() {
		return pending, nil
	}
	if sw.isNew {
		return gjson.Result{}, nil
	}
	if !sw.configFetched {
		res, err := sw.c.get(ctx, "/switches/"+sw.path)
		if err != nil {
			return gjson.Result{}, err
		}
		if res.StatusCode != http.StatusOK {
			return gjson.Result{}, res.apiErr()
		}
		sw.configBlob = res.JSON()
		sw.configFetched = true
	}
	return sw.configBlob.Get("config." + name), nil
}

// dataProp reads one polled telemetry field as its raw {value, time}
// object from the cached data snapshot (fetched lazily from
// /switches/{path}/data).
func (sw *Switch) dataProp(ctx context.Context, name string) (gjson.Result, error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.isNew {
		return gjson.Result{}, nil
	}
	if !sw.dataFetched {
		res, err := sw.c.get(ctx, "/switches/"+sw.path+"/data")
		if err != nil {
			return gjson.Result{}, err
		}
		if res.StatusCode != http.StatusOK {
			return gjson.Result{}, res.apiErr()
		}
		sw.dataBlob = res.JSON()
		sw.dataFetched = true
	}
	return sw.dataBlob.Get("data." + name), nil
}

// setConfigProp buffers one configuration change locally. The switch is
// pinned against cache eviction until the change is saved.
func (sw *Switch) setConfigProp(name string, value any) {
	sw.mu.Lock()
	sw.changes = sw.changes.Set(name, value)
	isNew := sw.isNew
	sw.mu.Unlock()

	if !isNew {
		sw.c.pinSwitch(sw)
	}
}

// DisplayName is the friendly display name for the switch.
func (sw *Switch) DisplayName(ctx context.Context) (string, error) {
	v, err := sw.configProp(ctx, "display_name")
	return v.String(), err
}

// SetDisplayName buffers a new display name; call Save to apply.
func (sw *Switch) SetDisplayName(name string) {
	sw.setConfigProp("display_name", name)
}

// Hostname is the fully-qualified domain name of the switch (e.g.
// `01-0078-114-as01.netman.uq.edu.au`).
func (sw *Switch) Hostname(ctx context.Context) (string, error) {
	v, err := sw.configProp(ctx, "hostname")
	return v.String(), err
}

// SetHostname buffers a new hostname; call Save to apply.
func (sw *Switch) SetHostname(hostname string) {
	sw.setConfigProp("hostname", hostname)
}

// ROCommunity is the read-only SNMP community (if available).
func (sw *Switch) ROCommunity(ctx context.Context) (string, error) {
	v, err := sw.configProp(ctx, "ro_community")
	return v.String(), err
}

// SetROCommunity buffers a new read-only SNMP community; call Save to
// apply.
func (sw *Switch) SetROCommunity(community string) {
	sw.setConfigProp("ro_community", community)
}

// RWCommunity is the read-write SNMP community (if available).
func (sw *Switch) RWCommunity(ctx context.Context) (string, error) {
	v, err := sw.configProp(ctx, "rw_community")
	return v.String(), err
}

// SetRWCommunity buffers a new read-write SNMP community; call Save to
// apply.
func (sw *Switch) SetRWCommunity(community string) {
	sw.setConfigProp("rw_community", community)
}

// ACL is the access control list for this switch.
func (sw *Switch) ACL(ctx context.Context) (gjson.Result, error) {
	return sw.configProp(ctx, "acl")
}

// SetACL buffers a new access control list; call Save to apply.
func (sw *Switch) SetACL(acl any) {
	sw.setConfigProp("acl", acl)
}

// Description is the SNMP system description for this switch (usually
// contains the output of `show version`).
func (sw *Switch) Description(ctx context.Context) (TimedValue[string], error) {
	v, err := sw.dataProp(ctx, "description")
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(v, asString), nil
}

// SysName is the SNMP system name for this switch (the switch's own view
// of its fully-qualified domain name or hostname).
func (sw *Switch) SysName(ctx context.Context) (TimedValue[string], error) {
	v, err := sw.dataProp(ctx, "sysname")
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(v, asString), nil
}

// STPBridgeID is the switch's STP bridge ID.
func (sw *Switch) STPBridgeID(ctx context.Context) (TimedValue[string], error) {
	v, err := sw.dataProp(ctx, "stp_bridge_id")
	if err != nil {
		return TimedValue[string]{}, err
	}
	return timedValue(v, asString), nil
}

// Uptime is the uptime of the switch in seconds.
func (sw *Switch) Uptime(ctx context.Context) (TimedValue[int64], error) {
	v, err := sw.dataProp(ctx, "uptime")
	if err != nil {
		return TimedValue[int64]{}, err
	}
	return timedValue(v, asInt), nil
}

// VLANs are the currently configured VLANs available on this switch.
func (sw *Switch) VLANs(ctx context.Context) (TimedValue[[]VLAN], error) {
	v, err := sw.dataProp(ctx, "vlans")
	if err != nil {
		return TimedValue[[]VLAN]{}, err
	}
	return timedValue(v, func(r gjson.Result) []VLAN {
		entries := r.Array()
		vlans := make([]VLAN, 0, len(entries))
		for _, e := range entries {
			vlans = append(vlans, VLAN{
				ID:   int(e.Get("id").Int()),
				Name: e.Get("name").String(),
			})
		}
		return vlans
	}), nil
}

// Status returns the current status of the switch's poller. It is never
// cached: each call re-fetches /switches/{path}/status.
func (sw *Switch) Status(ctx context.Context) (TimedValue[SwitchStatus], error) {
	st, err := sw.fetchStatus(ctx)
	if err != nil {
		return TimedValue[SwitchStatus]{}, err
	}
	return timedValue(st.Get("status"), func(r gjson.Result) SwitchStatus {
		return SwitchStatus(r.String())
	}), nil
}

// Progress returns the current progress state of the switch's poller or
// writer. Like Status, it is never cached.
func (sw *Switch) Progress(ctx context.Context) (TimedValue[Progress], error) {
	st, err := sw.fetchStatus(ctx)
	if err != nil {
		return TimedValue[Progress]{}, err
	}
	prog := st.Get("progress")
	value := Progress{
		Done:  int(prog.Get("value.done").Int()),
		Total: int(prog.Get("value.size").Int()),
	}
	return NewTimedValue(value, prog.Get("time").Int()), nil
}

func (sw *Switch) fetchStatus(ctx context.Context) (gjson.Result, error) {
	if sw.isNewSwitch() {
		return gjson.Result{}, fmt.Errorf("swarm: switch has not been created yet")
	}
	res, err := sw.c.get(ctx, "/switches/"+sw.Path()+"/status")
	if err != nil {
		return gjson.Result{}, err
	}
	if res.StatusCode != http.StatusOK {
		return gjson.Result{}, res.apiErr()
	}
	return res.JSON().Get("status"), nil
}

func (sw *Switch) isNewSwitch() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.isNew
}

// Dirty returns true if the switch has unsaved local configuration
// changes. (Data-property writes are queued on the client; see
// Client.Write.)
func (sw *Switch) Dirty() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return !sw.changes.Empty()
}

// Save writes any outstanding changes made to this switch's configuration
// properties (display name, hostname, communities, ACL).
//
// A switch created with NewSwitch must have a hostname set before the
// first Save; its hierarchy path is derived from the hostname at that
// point. To write data properties, see Write on the Client.
func (sw *Switch) Save(ctx context.Context) error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if err := sw.changes.Err(); err != nil {
		return err
	}

	path := sw.path
	if sw.isNew {
		hostname := gjson.Get(sw.changes.Res(), "hostname")
		if !hostname.Exists() {
			return fmt.Errorf("swarm: new switches require at least a hostname")
		}
		path = childPath(sw.path, pathSlug(hostname.String()))
	}

	body := sw.changes.Res()
	if body == "" {
		body = "{}"
	}

	res, err := sw.c.post(ctx, "/switches/"+path, []byte(body), "application/json")
	if err != nil {
		return err
	}

	switch res.StatusCode {
	case http.StatusCreated, http.StatusSeeOther:
		sw.configBlob = gjson.Result{}
		sw.configFetched = false
	case http.StatusOK:
		sw.configBlob = res.JSON()
		sw.configFetched = true
	default:
		return res.apiErr()
	}

	oldPath := sw.path
	if sw.isNew {
		// New switches were never pinned; oldPath is the parent's.
		oldPath = path
	}
	sw.path = path
	sw.changes = Body{}
	sw.isNew = false
	sw.c.unpinSwitch(oldPath, sw)
	return nil
}

// Delete deletes this switch.
func (sw *Switch) Delete(ctx context.Context) error {
	if sw.isNewSwitch() {
		return fmt.Errorf("swarm: cannot delete a switch that hasn't been created yet")
	}

	res, err := sw.c.del(ctx, "/switches/"+sw.Path())
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusGone && res.StatusCode != http.StatusNoContent {
		return res.apiErr()
	}
	return nil
}

// Interfaces returns all the switch's known interfaces, resolved through
// the interface identity cache.
func (sw *Switch) Interfaces(ctx context.Context) ([]*Interface, error) {
	if sw.isNewSwitch() {
		return nil, nil
	}

	res, err := sw.c.get(ctx, "/switches/"+sw.Path()+"/interfaces")
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}

	entries := res.JSON().Get("interfaces").Array()
	intfs := make([]*Interface, 0, len(entries))
	for _, e := range entries {
		intfs = append(intfs, sw.c.Interface(sw.Path(), int(e.Get("index").Int())))
	}
	return intfs, nil
}

// Interface retrieves a specific interface by its index number.
func (sw *Switch) Interface(index int) *Interface {
	return sw.c.Interface(sw.Path(), index)
}

// History retrieves all changes that have affected this switch.
func (sw *Switch) History(ctx context.Context) ([]Change, error) {
	res, err := sw.c.get(ctx, "/switches/"+sw.Path()+"/history")
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}
	return decodeChangeLog(sw.c, sw.Path(), res.JSON())
}
