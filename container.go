// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

package swarm

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

var slugRe = regexp.MustCompile(`[^a-z0-9-_]+`)

// pathSlug derives a URL-safe hierarchy path segment from a display name
// or hostname: the first dot-segment, lowercased, with every run of
// characters outside [a-z0-9-_] collapsed to a single hyphen.
func pathSlug(name string) string {
	seg, _, _ := strings.Cut(name, ".")
	slug := slugRe.ReplaceAllString(strings.ToLower(seg), "-")
	return strings.Trim(slug, "-")
}

// childPath appends a slug to a parent hierarchy path.
func childPath(parent, slug string) string {
	if parent == "" {
		return slug
	}
	return parent + "." + slug
}

// Container is a container object in swarm, which can contain other
// containers or switches.
//
// A container is constructed empty by the identity cache; its remote
// snapshot is fetched lazily on first property access and memoized.
// Property mutations accumulate locally until Save.
type Container struct {
	c  *Client
	mu sync.Mutex

	path    string
	blob    gjson.Result
	fetched bool
	changes Body
	isNew   bool
}

func newContainer(c *Client, path string, isNew bool) *Container {
	return &Container{c: c, path: path, isNew: isNew}
}

// Path is the dot-separated path to this container in the swarm hierarchy.
func (ct *Container) Path() string {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.path
}

// String implements fmt.Stringer.
func (ct *Container) String() string {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if ct.fetched {
		return "Container(" + ct.path + ": " + ct.blob.Get("config.display_name").String() + ")"
	}
	return "Container(" + ct.path + ")"
}

// fetchLocked populates the remote snapshot. Caller holds ct.mu.
func (ct *Container) fetchLocked(ctx context.Context) error {
	if ct.fetched {
		return nil
	}
	res, err := ct.c.get(ctx, "/containers/"+ct.path)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return res.apiErr()
	}
	ct.blob = res.JSON()
	ct.fetched = true
	return nil
}

// configProp reads one configuration field: a locally pending change wins,
// otherwise the field is read through the cached snapshot, fetching it on
// first use. Unsaved new containers have no remote snapshot to read.
func (ct *Container) configProp(ctx context.Context, name string) (gjson.Result, error) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if pending := gjson.Get(ct.changes.Res(), name); pending.Exists() {
		return pending, nil
	}
	if ct.isNew {
		return gjson.Result{}, nil
	}
	if err := ct.fetchLocked(ctx); err != nil {
		return gjson.Result{}, err
	}
	return ct.blob.Get("config." + name), nil
}

// setConfigProp buffers one configuration change locally. The container is
// pinned against cache eviction until the change is saved.
func (ct *Container) setConfigProp(name string, value any) {
	ct.mu.Lock()
	ct.changes = ct.changes.Set(name, value)
	isNew := ct.isNew
	ct.mu.Unlock()

	if !isNew {
		ct.c.pinContainer(ct)
	}
}

// DisplayName is the friendly display name for the container.
func (ct *Container) DisplayName(ctx context.Context) (string, error) {
	v, err := ct.configProp(ctx, "display_name")
	return v.String(), err
}

// SetDisplayName buffers a new display name; call Save to apply.
func (ct *Container) SetDisplayName(name string) {
	ct.setConfigProp("display_name", name)
}

// ROCommunity is the read-only SNMP community (only visible to admins).
func (ct *Container) ROCommunity(ctx context.Context) (string, error) {
	v, err := ct.configProp(ctx, "ro_community")
	return v.String(), err
}

// SetROCommunity buffers a new read-only SNMP community; call Save to
// apply.
func (ct *Container) SetROCommunity(community string) {
	ct.setConfigProp("ro_community", community)
}

// RWCommunity is the read-write SNMP community (only visible to admins).
func (ct *Container) RWCommunity(ctx context.Context) (string, error) {
	v, err := ct.configProp(ctx, "rw_community")
	return v.String(), err
}

// SetRWCommunity buffers a new read-write SNMP community; call Save to
// apply.
func (ct *Container) SetRWCommunity(community string) {
	ct.setConfigProp("rw_community", community)
}

// ACL is the access control list for this container and its children (only
// visible to admins).
func (ct *Container) ACL(ctx context.Context) (gjson.Result, error) {
	return ct.configProp(ctx, "acl")
}

// SetACL buffers a new access control list; call Save to apply.
func (ct *Container) SetACL(acl any) {
	ct.setConfigProp("acl", acl)
}

// Dirty returns true if the container has unsaved local changes.
func (ct *Container) Dirty() bool {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return !ct.changes.Empty()
}

// Save writes any outstanding changes made to this container's properties.
//
// A container created with NewChild must have a display name set before
// the first Save; its hierarchy path is derived from the display name at
// that point. On success the local snapshot and pending changes are reset
// (a 200 response's body is adopted as the fresh snapshot).
func (ct *Container) Save(ctx context.Context) error {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if err := ct.changes.Err(); err != nil {
		return err
	}

	path := ct.path
	if ct.isNew {
		name := gjson.Get(ct.changes.Res(), "display_name")
		if !name.Exists() {
			return fmt.Errorf("swarm: new containers require at least a display name")
		}
		path = childPath(ct.path, pathSlug(name.String()))
	}

	body := ct.changes.Res()
	if body == "" {
		body = "{}"
	}

	res, err := ct.c.post(ctx, "/containers/"+path, []byte(body), "application/json")
	if err != nil {
		return err
	}

	switch res.StatusCode {
	case http.StatusCreated, http.StatusSeeOther:
		ct.blob = gjson.Result{}
		ct.fetched = false
	case http.StatusOK:
		ct.blob = res.JSON()
		ct.fetched = true
	default:
		return res.apiErr()
	}

	oldPath := ct.path
	if ct.isNew {
		// New containers were never pinned; oldPath is the parent's.
		oldPath = path
	}
	ct.path = path
	ct.changes = Body{}
	ct.isNew = false
	ct.c.unpinContainer(oldPath, ct)
	return nil
}

// Children retrieves all children (containers and switches) of this
// container, resolved through the identity caches.
func (ct *Container) Children(ctx context.Context) ([]Entity, error) {
	res, err := ct.c.get(ctx, "/containers/"+ct.Path()+"/children")
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, res.apiErr()
	}

	var children []Entity
	for _, child := range res.JSON().Get("children").Array() {
		switch child.Get("type").String() {
		case "container":
			children = append(children, ct.c.Container(child.Get("path").String()))
		case "switch":
			children = append(children, ct.c.Switch(child.Get("path").String()))
		}
	}
	return children, nil
}

// NewChild creates an empty new child container of this container and
// returns it. The child must have a display name set and Save called
// before it exists in swarm.
func (ct *Container) NewChild() *Container {
	return newContainer(ct.c, ct.Path(), true)
}

// NewSwitch creates a new child switch of this container and returns it.
// The switch must have a hostname set and Save called before it exists in
// swarm.
func (ct *Container) NewSwitch() *Switch {
	return newSwitch(ct.c, ct.Path(), true)
}

// Delete deletes this container. Containers with children cannot be
// deleted.
func (ct *Container) Delete(ctx context.Context) error {
	children, err := ct.Children(ctx)
	if err != nil {
		return err
	}
	if len(children) > 0 {
		return fmt.Errorf("swarm: cannot delete a container with children")
	}

	res, err := ct.c.del(ctx, "/containers/"+ct.Path())
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusGone {
		return res.apiErr()
	}
	return nil
}
