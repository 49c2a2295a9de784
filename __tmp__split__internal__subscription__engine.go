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

// Package subscription implements the eventgroup subscription engine
// (C6): accept/reject arbitration, remote subscriber counting, the
// initial-event burst, and per-subscription debounce filtering.
package subscription

import (
	"sync"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

// Key identifies one eventgroup.
type Key struct {
	Service    protocol.ServiceId
	Instance   protocol.InstanceId
	Eventgroup protocol.EventgroupId
}

// DebounceFunc reports whether next should be delivered given the last
// payload actually delivered to a subscriber. A nil filter always
// delivers.
type DebounceFunc func(last, next []byte) bool

// AcceptFunc arbitrates whether a subscription is accepted. It mirrors
// on_subscription: the hub asks the owning application before recording
// any state.
type AcceptFunc func(key Key, client protocol.ClientId, uid protocol.Uid, gid protocol.Gid) bool

// FieldSnapshot is one field's current value, used to build the initial
// burst sent to the first remote subscriber of a group.
type FieldSnapshot struct {
	Event   protocol.EventId
	Payload []byte
}

type subscriber struct {
	client        protocol.ClientId
	pendingID     protocol.PendingId
	remote        bool
	filter        DebounceFunc
	lastDelivered map[protocol.EventId][]byte
}

type group struct {
	subscribers map[protocol.ClientId]*subscriber
	remoteCount int
}

func newGroup() *group {
	return &group{subscribers: make(map[protocol.ClientId]*subscriber)}
}

// Engine owns every eventgroup's subscriber set and remote count.
type Engine struct {
	mu     sync.Mutex
	groups map[Key]*group

	onAccept AcceptFunc
}

// New builds an Engine. accept is consulted on every SUBSCRIBE before any
// state is recorded.
func New(accept AcceptFunc) *Engine {
	return &Engine{groups: make(map[Key]*group), onAccept: accept}
}

// Subscribe arbitrates and, on acceptance, records client as a subscriber
// of key. fields is the current last-payload snapshot of every field in
// the eventgroup, used to compute the initial burst for a remote
// subscriber that is the first for this group; alreadyHave lists events
// the subscriber reports already holding, which are excluded from the
// burst. It returns whether the subscription was accepted and, if so,
// the initial burst to deliver (possibly empty).
func (e *Engine) Subscribe(key Key, client protocol.ClientId, pendingID protocol.PendingId, remote bool, uid protocol.Uid, gid protocol.Gid, filter DebounceFunc, fields []FieldSnapshot, alreadyHave map[protocol.EventId]struct{}) (accepted bool, burst []FieldSnapshot) {
	if e.onAccept != nil && !e.onAccept(key, client, uid, gid) {
		return false, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.groups[key]
	if !ok {
		g = newGroup()
		e.groups[key] = g
	}

	isFirstRemote := remote && g.remoteCount == 0
	g.subscribers[client] = &subscriber{
		client:        client,
		pendingID:     pendingID,
		remote:        remote,
		filter:        filter,
		lastDelivered: make(map[protocol.EventId][]byte),
	}
	if remote {
		g.remoteCount++
	}

	if !isFirstRemote {
		return true, nil
	}
	for _, f := range fields {
		if _, skip := alreadyHave[f.Event]; skip {
			continue
		}
		burst = append(burst, f)
	}
	return true, burst
}

// Unsubscribe removes client from key. It returns the remaining remote
// subscriber count so the caller can tell the upstream app to unsubscribe
// as ROUTING_CLIENT when it reaches zero.
func (e *Engine) Unsubscribe(key Key, client protocol.ClientId) (remoteCount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[key]
	if !ok {
		return 0
	}
	sub, ok := g.subscribers[client]
	if !ok {
		return g.remoteCount
	}
	delete(g.subscribers, client)
	if sub.remote && g.remoteCount > 0 {
		g.remoteCount--
	}
	if len(g.subscribers) == 0 {
		delete(e.groups, key)
		return 0
	}
	return g.remoteCount
}

// Expire is initiated by the hub rather than the subscriber but is
// otherwise identical to Unsubscribe.
func (e *Engine) Expire(key Key, client protocol.ClientId) int {
	return e.Unsubscribe(key, client)
}

// RemoteSubscriberCount reports the current remote subscriber count for
// key. Zero is returned for an unknown group, consistent with "no
// ROUTING_CLIENT subscription exists".
func (e *Engine) RemoteSubscriberCount(key Key) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[key]
	if !ok {
		return 0
	}
	return g.remoteCount
}

// Subscribers returns every current subscriber of key.
func (e *Engine) Subscribers(key Key) []protocol.ClientId {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[key]
	if !ok {
		return nil
	}
	clients := make([]protocol.ClientId, 0, len(g.subscribers))
	for c := range g.subscribers {
		clients = append(clients, c)
	}
	return clients
}

// FilterNotification reports whether payload for event should be
// delivered to client, applying that subscriber's debounce filter and
// recording payload as the new baseline when it is.
func (e *Engine) FilterNotification(key Key, client protocol.ClientId, event protocol.EventId, payload []byte) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.groups[key]
	if !ok {
		return false
	}
	sub, ok := g.subscribers[client]
	if !ok {
		return false
	}
	last := sub.lastDelivered[event]
	if sub.filter != nil && !sub.filter(last, payload) {
		return false
	}
	sub.lastDelivered[event] = payload
	return true
}


