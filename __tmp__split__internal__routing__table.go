// SPDX-License-Identifier: AGPL-3.0-or-later
// routingcore - SOME/IP routing middleware core
// Copyright (C) 2023-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package routing implements the hub's routing table and connection
// matrix, and the minimal routing-info delta computation that drives
// ROUTING_INFO delivery to spokes (C5).
package routing

import (
	"net"
	"sync"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

type serviceVersion struct {
	Major protocol.MajorVersion
	Minor protocol.MinorVersion
}

type peerAddress struct {
	Host net.IP
	Port uint16
}

// clientRecord is the hub's bookkeeping for one registered client.
type clientRecord struct {
	missedPongs uint
	address     peerAddress
	offers      map[protocol.ServiceId]map[protocol.InstanceId]serviceVersion
	requests    map[protocol.ServiceId]map[protocol.InstanceId]serviceVersion
	known       map[protocol.ClientId]struct{} // connection_matrix row: clients this client has been told about
}

func newClientRecord() *clientRecord {
	return &clientRecord{
		offers:   make(map[protocol.ServiceId]map[protocol.InstanceId]serviceVersion),
		requests: make(map[protocol.ServiceId]map[protocol.InstanceId]serviceVersion),
		known:    make(map[protocol.ClientId]struct{}),
	}
}

// Table is the hub's routing table: per-client offer/request state, the
// connection matrix, and the watchdog miss counter. A single mutex guards
// the whole table; the hub serializes mutations under it per the fixed
// lock-acquisition order.
type Table struct {
	mu      sync.Mutex
	clients map[protocol.ClientId]*clientRecord
}

// NewTable builds an empty routing table.
func NewTable() *Table {
	return &Table{clients: make(map[protocol.ClientId]*clientRecord)}
}

// AddClient creates bookkeeping for a newly registered client.
func (t *Table) AddClient(client protocol.ClientId, host net.IP, port uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := newClientRecord()
	rec.address = peerAddress{Host: host, Port: port}
	t.clients[client] = rec
}

// RemoveClient deletes all bookkeeping for client, including its row and
// column in every other client's connection matrix. It returns the set
// of services the client had offered, so the caller can fabricate
// STOP_OFFER_SERVICE/UNAVAILABLE notifications.
func (t *Table) RemoveClient(client protocol.ClientId) []protocol.ServiceRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.clients[client]
	if !ok {
		return nil
	}
	var offered []protocol.ServiceRecord
	for svc, instances := range rec.offers {
		for inst, ver := range instances {
			offered = append(offered, protocol.ServiceRecord{Service: svc, Instance: inst, Major: ver.Major, Minor: ver.Minor})
		}
	}

	delete(t.clients, client)
	for _, other := range t.clients {
		delete(other.known, client)
	}
	return offered
}

// MissedPong increments client's missed-pong counter and returns the new
// value. It is a no-op if the client is unknown.
func (t *Table) MissedPong(client protocol.ClientId) uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.clients[client]
	if !ok {
		return 0
	}
	rec.missedPongs++
	return rec.missedPongs
}

// MissedPongCount reports client's current missed-pong counter without
// incrementing it.
func (t *Table) MissedPongCount(client protocol.ClientId) uint {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.clients[client]
	if !ok {
		return 0
	}
	return rec.missedPongs
}

// ResetMissedPongs clears client's missed-pong counter on receipt of PONG.
func (t *Table) ResetMissedPongs(client protocol.ClientId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok := t.clients[client]; ok {
		rec.missedPongs = 0
	}
}

// Exists reports whether client has an active routing table entry.
func (t *Table) Exists(client protocol.ClientId) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.clients[client]
	return ok
}

// Clients returns every currently registered client id.
func (t *Table) Clients() []protocol.ClientId {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]protocol.ClientId, 0, len(t.clients))
	for id := range t.clients {
		ids = append(ids, id)
	}
	return ids
}

// ClientSnapshot is a read-only view of one client's routing table entry,
// for the admin status surface.
type ClientSnapshot struct {
	Client      protocol.ClientId
	Host        net.IP
	Port        uint16
	MissedPongs uint
	Offers      []protocol.ServiceRecord
	Requests    []protocol.ServiceRecord
}

// Snapshot returns a copy of every client's current bookkeeping. It never
// mutates the table and is safe to call from the admin API without
// touching the hub's own lock ordering.
func (t *Table) Snapshot() []ClientSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]ClientSnapshot, 0, len(t.clients))
	for id, rec := range t.clients {
		snap := ClientSnapshot{
			Client:      id,
			Host:        rec.address.Host,
			Port:        rec.address.Port,
			MissedPongs: rec.missedPongs,
		}
		for svc, instances := range rec.offers {
			for inst, ver := range instances {
				snap.Offers = append(snap.Offers, protocol.ServiceRecord{Service: svc, Instance: inst, Major: ver.Major, Minor: ver.Minor})
			}
		}
		for svc, instances := range rec.requests {
			for inst, ver := range instances {
				snap.Requests = append(snap.Requests, protocol.ServiceRecord{Service: svc, Instance: inst, Major: ver.Major, Minor: ver.Minor})
			}
		}
		out = append(out, snap)
	}
	return out
}


