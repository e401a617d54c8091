// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"net/http"
	"sort"
	"time"
)

// Neighbour represents a neighbour adjacency attached to a particular
// switch interface. The concrete types MACNeighbour and CDPNeighbour give
// identifying information about the neighbour itself.
//
// Neighbours are read-only and reconstructed fresh on every query.
type Neighbour interface {
	// Switch is the switch which detected the neighbour
	Switch() *Switch

	// Interface is the interface on the switch where the neighbour was
	// detected
	Interface() *Interface

	// Time is the time at which the neighbour was last seen
	Time() time.Time

	// RawTime is the last-seen time as seconds since the UNIX epoch
	RawTime() int64
}

// neighbour carries the fields common to every neighbour kind.
type neighbour struct {
	c     *Client
	path  string
	index int
	stamp int64
}

func (n *neighbour) Switch() *Switch {
	return n.c.Switch(n.path)
}

func (n *neighbour) Interface() *Interface {
	return n.c.Interface(n.path, n.index)
}

func (n *neighbour) Time() time.Time {
	return time.Unix(n.stamp, 0)
}

func (n *neighbour) RawTime() int64 {
	return n.stamp
}

// MACNeighbour is a neighbour adjacency produced for each MAC address which
// has a forwarding entry on the given interface.
type MACNeighbour struct {
	neighbour
	mac string
}

// MAC is the neighbour's MAC address, in colon-separated hex format.
func (n *MACNeighbour) MAC() string {
	return n.mac
}

// CDPNeighbour is a neighbour adjacency produced for each CDP neighbour
// which has been advertised on a given interface.
type CDPNeighbour struct {
	neighbour
	remoteName string
	remoteIntf string
}

// RemoteName is the CDP neighbour's advertised hostname.
func (n *CDPNeighbour) RemoteName() string {
	return n.remoteName
}

// RemoteInterface is the CDP neighbour's advertised remote interface name.
func (n *CDPNeighbour) RemoteInterface() string {
	return n.remoteIntf
}

// MACSearch performs a MAC address search across the whole swarm instance,
// returning a MACNeighbour for each forwarding entry matching the
// fragment. Results are sorted ascending by (path, index) and resolved
// through the interface identity cache.
func (c *Client) MACSearch(ctx context.Context, fragment string) ([]*MACNeighbour, error) {
	res, err := c.get(ctx, "/macs/"+fragment)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}

	intfs := res.JSON().Get("interfaces").Array()
	sort.Slice(intfs, func(a, b int) bool {
		pa, pb := intfs[a].Get("path").String(), intfs[b].Get("path").String()
		if pa != pb {
			return pa < pb
		}
		return intfs[a].Get("index").Int() < intfs[b].Get("index").Int()
	})

	neis := make([]*MACNeighbour, 0, len(intfs))
	for _, entry := range intfs {
		intf := c.Interface(entry.Get("path").String(), int(entry.Get("index").Int()))
		neis = append(neis, &MACNeighbour{
			neighbour: neighbour{
				c:     c,
				path:  intf.path,
				index: intf.index,
				stamp: entry.Get("time").Int(),
			},
			mac: entry.Get("mac").String(),
		})
	}
	return neis, nil
}
