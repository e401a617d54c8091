// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Entity is implemented by objects in the swarm hierarchy (containers and
// switches) handed out by the client.
type Entity interface {
	// Path is the dot-separated hierarchy path of the entity
	Path() string
}

// intfKey identifies an interface: its owning switch path plus the SNMP
// interface index.
type intfKey struct {
	path  string
	index int
}

// objectCaches holds the three bounded identity caches. Within capacity,
// repeated lookups by identical key return the identical proxy instance, so
// local state (cached blobs, pending changes) never diverges for one remote
// resource.
//
// Proxies carrying unsaved changes are additionally pinned in side maps and
// therefore survive LRU eviction: lookups consult the pin maps first, so a
// dirty proxy keeps its identity and its edits until saved. Clean proxies
// may be evicted and are rebuilt (empty) on the next lookup. Interfaces
// need no pinning because their mutations live in the client-wide write
// queue, not on the proxy.
type objectCaches struct {
	mu sync.Mutex

	containers *lru.Cache[string, *Container]
	switches   *lru.Cache[string, *Switch]
	interfaces *lru.Cache[intfKey, *Interface]

	pinnedContainers map[string]*Container
	pinnedSwitches   map[string]*Switch
}

func newObjectCaches(containers, switches, interfaces int) (*objectCaches, error) {
	cc, err := lru.New[string, *Container](containers)
	if err != nil {
		return nil, fmt.Errorf("swarm: container cache: %w", err)
	}
	sc, err := lru.New[string, *Switch](switches)
	if err != nil {
		return nil, fmt.Errorf("swarm: switch cache: %w", err)
	}
	ic, err := lru.New[intfKey, *Interface](interfaces)
	if err != nil {
		return nil, fmt.Errorf("swarm: interface cache: %w", err)
	}
	return &objectCaches{
		containers:       cc,
		switches:         sc,
		interfaces:       ic,
		pinnedContainers: map[string]*Container{},
		pinnedSwitches:   map[string]*Switch{},
	}, nil
}

// Container retrieves the Container instance at a given path.
//
// No network call is made; the container populates itself lazily on first
// property access.
func (c *Client) Container(path string) *Container {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()

	if ct, ok := c.caches.pinnedContainers[path]; ok {
		c.caches.containers.Add(path, ct)
		return ct
	}
	if ct, ok := c.caches.containers.Get(path); ok {
		return ct
	}
	ct := newContainer(c, path, false)
	c.caches.containers.Add(path, ct)
	return ct
}

// Switch retrieves the Switch instance at a given path.
func (c *Client) Switch(path string) *Switch {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()

	if sw, ok := c.caches.pinnedSwitches[path]; ok {
		c.caches.switches.Add(path, sw)
		return sw
	}
	if sw, ok := c.caches.switches.Get(path); ok {
		return sw
	}
	sw := newSwitch(c, path, false)
	c.caches.switches.Add(path, sw)
	return sw
}

// Interface retrieves the Interface instance at a given switch path and
// interface index number.
func (c *Client) Interface(path string, index int) *Interface {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()

	key := intfKey{path: path, index: index}
	if i, ok := c.caches.interfaces.Get(key); ok {
		return i
	}
	i := newInterface(c, path, index)
	c.caches.interfaces.Add(key, i)
	return i
}

// Root retrieves the root container.
func (c *Client) Root() *Container {
	return c.Container("")
}

// pinContainer marks a container as dirty, exempting it from eviction.
func (c *Client) pinContainer(ct *Container) {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()
	c.caches.pinnedContainers[ct.path] = ct
}

// unpinContainer releases a container back to normal eviction once clean,
// adopting its (possibly new) path into the cache.
func (c *Client) unpinContainer(oldPath string, ct *Container) {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()
	delete(c.caches.pinnedContainers, oldPath)
	c.caches.containers.Add(ct.path, ct)
}

// pinSwitch marks a switch as dirty, exempting it from eviction.
func (c *Client) pinSwitch(sw *Switch) {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()
	c.caches.pinnedSwitches[sw.path] = sw
}

// unpinSwitch releases a switch back to normal eviction once clean.
func (c *Client) unpinSwitch(oldPath string, sw *Switch) {
	c.caches.mu.Lock()
	defer c.caches.mu.Unlock()
	delete(c.caches.pinnedSwitches, oldPath)
	c.caches.switches.Add(sw.path, sw)
}
