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
	"github.com/puzpuzpuz/xsync/v4"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/subscription"
)

func (h *Hub) subKey(service protocol.ServiceId, instance protocol.InstanceId, eventgroup protocol.EventgroupId) subscription.Key {
	return subscription.Key{Service: service, Instance: instance, Eventgroup: eventgroup}
}

func (h *Hub) isRemote(client protocol.ClientId) bool {
	p, ok := h.identities.PrincipalOf(client)
	return ok && p.Host != "" && !h.cfg.Network.IsLocalRouting
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

	var filter subscription.DebounceFunc
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
	h.subs.Unsubscribe(key, client)
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
	h.subs.Expire(key, client)
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

func (h *Hub) handleUnregisterEvent(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUnregisterEvent(body)
	if err != nil {
		h.logger.Warn("malformed UNREGISTER_EVENT", "client", client, "error", err)
		return
	}
	_ = req
}


