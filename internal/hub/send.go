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
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/subscription"
)

// handleSendMessage forwards SEND to every requester of the caller's
// offered service, NOTIFY to every subscriber of an eventgroup (via the
// eventgroup's registered event), and NOTIFY_ONE to a single named
// target. The protocol codec intentionally does not carry enough of the
// embedded SOME/IP message to resolve which eventgroup a NOTIFY belongs
// to, so NOTIFY is addressed to every subscriber of every eventgroup
// registered against the sending client's (service, instance) pair.
func (h *Hub) handleSendMessage(client protocol.ClientId, cmd protocol.CommandID, body []byte) {
	msg, err := protocol.DecodeSendMessage(body)
	if err != nil {
		h.logger.Warn("malformed send/notify frame", "client", client, "command", cmd, "error", err)
		return
	}

	switch cmd {
	case protocol.CommandNotifyOne:
		h.send(msg.Target, protocol.CommandNotify, msg.Encode(nil))
	case protocol.CommandNotify:
		h.fanOutNotify(client, msg)
	case protocol.CommandSend:
		h.forwardSend(client, msg)
	}
}

// forwardSend delivers a method call/response to every client that has
// requested (instance, service) for a service client currently offers at
// instance — the routing table's requester bookkeeping, not every
// registered client.
func (h *Hub) forwardSend(client protocol.ClientId, msg protocol.SendMessage) {
	for _, peer := range h.table.RequestersOf(client, msg.Instance) {
		h.send(peer, protocol.CommandSend, msg.Encode(nil))
	}
}

// fanOutNotify delivers a NOTIFY to every subscriber of every eventgroup
// registered against a service client offers at instance, applying each
// subscriber's debounce filter. Since the wire codec does not expose the
// individual event ID of an outgoing NOTIFY, the debounce baseline is
// tracked per eventgroup (under AnyEvent) rather than per event.
func (h *Hub) fanOutNotify(client protocol.ClientId, msg protocol.SendMessage) {
	for _, key := range h.eventgroupKeysFor(client, msg.Instance) {
		for _, sub := range h.subs.Subscribers(key) {
			if sub == client {
				continue
			}
			if !h.subs.FilterNotification(key, sub, protocol.AnyEvent, msg.Data) {
				continue
			}
			h.send(sub, protocol.CommandNotify, msg.Encode(nil))
		}
	}
}

// eventgroupKeysFor returns every eventgroup key registered (via
// REGISTER_EVENT) against a service client currently offers at instance.
func (h *Hub) eventgroupKeysFor(client protocol.ClientId, instance protocol.InstanceId) []subscription.Key {
	var keys []subscription.Key
	for _, svc := range h.table.OfferedServicesAt(client, instance) {
		keys = append(keys, h.fieldKeysFor(svc, instance)...)
	}
	return keys
}
