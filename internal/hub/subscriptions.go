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

package hub

import (
	"bytes"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/subscription"
)

// filterFromBytes turns a SUBSCRIBE request's opaque Filter bytes into a
// debounce predicate. An empty filter, or a filter whose first byte is
// zero, means deliver every notification; any other leading byte means
// deliver only on change.
func filterFromBytes(filter []byte) subscription.DebounceFunc {
	if len(filter) == 0 || filter[0] == 0 {
		return nil
	}
	return func(last, next []byte) bool {
		return !bytes.Equal(last, next)
	}
}

func (h *Hub) subKey(service protocol.ServiceId, instance protocol.InstanceId, eventgroup protocol.EventgroupId) subscription.Key {
	return subscription.Key{Service: service, Instance: instance, Eventgroup: eventgroup}
}

func (h *Hub) isRemote(client protocol.ClientId) bool {
	p, ok := h.identities.PrincipalOf(client)
	return ok && p.Host != "" && !h.cfg.Network.IsLocalRouting
}

// fieldKeysFor returns every eventgroup key registered (via REGISTER_EVENT)
// for (service, instance).
func (h *Hub) fieldKeysFor(service protocol.ServiceId, instance protocol.InstanceId) []subscription.Key {
	var keys []subscription.Key
	h.fields.Range(func(key subscription.Key, _ *xsync.Map[protocol.EventId, []byte]) bool {
		if key.Service == service && key.Instance == instance {
			keys = append(keys, key)
		}
		return true
	})
	return keys
}

func (h *Hub) fieldSnapshot(key subscription.Key) []subscription.FieldSnapshot {
	m, ok := h.fields.Load(key)
	if !ok {
		return nil
	}
	var out []subscription.FieldSnapshot
	m.Range(func(event protocol.EventId, payload []byte) bool {
		out = append(out, subscription.FieldSnapshot{Event: event, Payload: payload})
		return true
	})
	return out
}

func (h *Hub) handleSubscribe(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeSubscribe(body)
	if err != nil {
		h.logger.Warn("malformed SUBSCRIBE", "client", client, "error", err)
		return
	}
	key := h.subKey(req.Service, req.Instance, req.Eventgroup)
	uid, gid := h.principalOf(client)

	filter := filterFromBytes(req.Filter)
	accepted, burst := h.subs.Subscribe(key, client, req.PendingID, h.isRemote(client), uid, gid, filter, h.fieldSnapshot(key), nil)

	if accepted {
		h.send(client, protocol.CommandSubscribeAck, protocol.SubscribeAck{
			Service: req.Service, Instance: req.Instance, Eventgroup: req.Eventgroup,
			Subscriber: client, Event: req.Event, PendingID: req.PendingID,
		}.Encode(nil))
		for _, f := range burst {
			h.send(client, protocol.CommandNotify, protocol.SendMessage{Instance: req.Instance, Data: f.Payload}.Encode(nil))
		}
		return
	}
	h.send(client, protocol.CommandSubscribeNack, protocol.SubscribeAck{
		Service: req.Service, Instance: req.Instance, Eventgroup: req.Eventgroup,
		Subscriber: client, Event: req.Event, PendingID: req.PendingID,
	}.Encode(nil))
}

func (h *Hub) handleUnsubscribe(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUnsubscribe(body)
	if err != nil {
		h.logger.Warn("malformed UNSUBSCRIBE", "client", client, "error", err)
		return
	}
	key := h.subKey(req.Service, req.Instance, req.Eventgroup)
	if remaining := h.subs.Unsubscribe(key, client); remaining == 0 {
		h.notifyLastRemoteUnsubscribed(key)
	}
	h.send(client, protocol.CommandUnsubscribeAck, protocol.UnsubscribeAck{
		Service: req.Service, Instance: req.Instance, Eventgroup: req.Eventgroup, PendingID: req.PendingID,
	}.Encode(nil))
}

func (h *Hub) handleExpireCmd(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUnsubscribe(body)
	if err != nil {
		h.logger.Warn("malformed EXPIRE", "client", client, "error", err)
		return
	}
	key := h.subKey(req.Service, req.Instance, req.Eventgroup)
	if remaining := h.subs.Expire(key, client); remaining == 0 {
		h.notifyLastRemoteUnsubscribed(key)
	}
}

// notifyLastRemoteUnsubscribed tells key's offering application that no
// remote subscriber remains, the same UNSUBSCRIBE an application would
// see from ROUTING_CLIENT itself once the last remote routing manager
// drops off.
func (h *Hub) notifyLastRemoteUnsubscribed(key subscription.Key) {
	offerer, ok := h.table.OffererOf(key.Service, key.Instance)
	if !ok {
		return
	}
	h.send(offerer, protocol.CommandUnsubscribe, protocol.Unsubscribe{
		Service: key.Service, Instance: key.Instance, Eventgroup: key.Eventgroup,
	}.Encode(nil))
}

func (h *Hub) handleRegisterEvent(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeRegisterEvent(body)
	if err != nil {
		h.logger.Warn("malformed REGISTER_EVENT", "client", client, "error", err)
		return
	}
	for _, reg := range req.Events {
		if !reg.IsField {
			continue
		}
		for _, eg := range reg.Eventgroups {
			key := h.subKey(reg.Service, reg.Instance, eg)
			m, _ := h.fields.LoadOrCompute(key, func() *xsync.Map[protocol.EventId, []byte] {
				return xsync.NewMap[protocol.EventId, []byte]()
			})
			if _, ok := m.Load(reg.Event); !ok {
				m.Store(reg.Event, nil)
			}
		}
	}
}

// resolveRemoteOffer finds the (service, instance) a RemoteOfferId was
// derived from by checking it against every currently offered service, so
// the hub needs no stored offer-id allocation table of its own.
func (h *Hub) resolveRemoteOffer(offerID protocol.RemoteOfferId) (protocol.ServiceId, protocol.InstanceId, bool) {
	for _, entry := range h.table.Snapshot() {
		for _, rec := range entry.Offers {
			if protocol.RemoteOfferIdFor(rec.Service, rec.Instance) == offerID {
				return rec.Service, rec.Instance, true
			}
		}
	}
	return 0, 0, false
}

// handleResendProvidedEvents replays the last known payload of every field
// registered against the requested remote offer to client, matching
// vsomeip's recovery path for a subscription that outlived a transport
// hiccup.
func (h *Hub) handleResendProvidedEvents(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeResendProvidedEvents(body)
	if err != nil {
		h.logger.Warn("malformed RESEND_PROVIDED_EVENTS", "client", client, "error", err)
		return
	}
	service, instance, ok := h.resolveRemoteOffer(req.OfferID)
	if !ok {
		return
	}
	for _, key := range h.fieldKeysFor(service, instance) {
		for _, f := range h.fieldSnapshot(key) {
			if f.Payload == nil {
				continue
			}
			h.send(client, protocol.CommandNotify, protocol.SendMessage{Instance: instance, Data: f.Payload}.Encode(nil))
		}
	}
}

// handleUnregisterEvent removes an event from every eventgroup's field
// snapshot that handleRegisterEvent recorded it under; an eventgroup
// left with no remaining fields is dropped entirely.
func (h *Hub) handleUnregisterEvent(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUnregisterEvent(body)
	if err != nil {
		h.logger.Warn("malformed UNREGISTER_EVENT", "client", client, "error", err)
		return
	}
	h.fields.Range(func(key subscription.Key, fields *xsync.Map[protocol.EventId, []byte]) bool {
		if key.Service != req.Service || key.Instance != req.Instance {
			return true
		}
		fields.Delete(req.Event)
		if fields.Size() == 0 {
			h.fields.Delete(key)
		}
		return true
	})
}
