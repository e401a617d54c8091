// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2025 Daniel Schmidt

// Package swarm provides a client for the swarm network switch management
// service. It authenticates via a signed machine-credential handshake and
// exposes the swarm object hierarchy (containers, switches, interfaces)
// backed by lazy HTTP fetches and a persistent WebSocket channel for writes
// and live statistics.
//
// # Quick Start
//
// Create a credential and a client, then walk the hierarchy:
//
//	cred, err := swarm.NewCredential("m1", key, "swarm.netman.uq.edu.au")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := swarm.NewClient(cred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	ctx := context.Background()
//	root := client.Root()
//	children, err := root.Children(ctx)
//
// # Object Identity
//
// Containers, switches and interfaces are handed out through bounded
// identity caches: two lookups with the same path (and index, for
// interfaces) return the same pointer as long as the entry has not been
// evicted. Proxies with unsaved changes are never evicted.
//
// # Writes
//
// Configuration properties on containers and switches are saved per object
// with Save. Writable interface attributes (admin status, alias, VLANs)
// instead queue into a client-wide write queue which is flushed as one
// streamed request by Write:
//
//	intf.SetVLAN(120)
//	ws, err := client.Write(ctx, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ws.Close()
//	for ws.Next() {
//	    p := ws.Progress()
//	    pct, _ := p.Percent()
//	    fmt.Printf("%d%%\n", pct)
//	}
//	if err := ws.Err(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Concurrency
//
// Plain HTTP reads may run concurrently. Streamed calls (Write, Stats) are
// serialized internally: at most one streamed request is in flight per
// client, enforced by a lock held until the stream cursor is closed.
//
// # References
//
//   - gjson: https://github.com/tidwall/gjson
//   - sjson: https://github.com/tidwall/sjson
//   - gorilla/websocket: https://github.com/gorilla/websocket
package swarm
