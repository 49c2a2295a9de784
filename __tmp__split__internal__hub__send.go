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

import "github.com/someip-fabric/routingcore/internal/protocol"

// handleSendMessage forwards NOTIFY_ONE to the single named target, and
// SEND and NOTIFY to every other client in the routing table. SEND is not
// restricted to requesters of the caller's service, and NOTIFY is not
// restricted to subscribers of an eventgroup.
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

// forwardSend delivers a method call/response to every client in the
// routing table other than the sender; whether a client requested the
// service is not checked.
func (h *Hub) forwardSend(client protocol.ClientId, msg protocol.SendMessage) {
	for _, peer := range h.table.Clients() {
		if peer == client {
			continue
		}
		h.send(peer, protocol.CommandSend, msg.Encode(nil))
	}
}

func (h *Hub) fanOutNotify(client protocol.ClientId, msg protocol.SendMessage) {
	for _, peer := range h.table.Clients() {
		if peer == client {
			continue
		}
		h.send(peer, protocol.CommandNotify, msg.Encode(nil))
	}
}


