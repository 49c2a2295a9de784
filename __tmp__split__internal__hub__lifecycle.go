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
	"context"

	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/registration"
	"github.com/someip-fabric/routingcore/internal/transport"
)

type assignRequest struct {
	conn       transport.ConnID
	name       string
	remoteHost string
	remotePort uint16
}

type registerRequest struct {
	conn transport.ConnID
	port uint16
}

func (h *Hub) handleAssignClient(conn transport.ConnID, body []byte, remoteHost string, remotePort uint16) {
	req, err := protocol.DecodeAssignClient(body)
	if err != nil {
		h.logger.Warn("malformed ASSIGN_CLIENT", "conn", conn, "error", err)
		return
	}
	h.events <- event{kind: "assign", conn: conn, data: assignRequest{conn: conn, name: req.Name, remoteHost: remoteHost, remotePort: remotePort}}
}

func (h *Hub) handleRegisterApplication(conn transport.ConnID, client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeRegisterApplication(body)
	if err != nil {
		h.logger.Warn("malformed REGISTER_APPLICATION", "conn", conn, "client", client, "error", err)
		return
	}
	h.events <- event{kind: "register", conn: conn, data: registerRequest{conn: conn, port: req.Port}}
	_ = client
}

func (h *Hub) handleDeregisterApplication(conn transport.ConnID, client protocol.ClientId) {
	h.events <- event{kind: "deregister", conn: conn, data: client}
}

// processEvent runs on the single registration-worker goroutine so that
// assign/register/deregister/disconnect for one client are linearized.
func (h *Hub) processEvent(ev event) {
	switch ev.kind {
	case "assign":
		h.doAssign(ev.data.(assignRequest))
	case "register":
		h.doRegister(ev.data.(registerRequest))
	case "deregister":
		h.doDeregisterConn(ev.conn)
	case "disconnect":
		h.doDisconnect(ev.conn, ev.data.(protocol.ClientId))
	case "lost":
		h.doLost(ev.data.(protocol.ClientId))
	}
}

func (h *Hub) doAssign(req assignRequest) {
	client := h.allocateClient()
	fsm := registration.New(registration.DefaultTimeouts(),
		func(from registration.State) { h.onRegistrationTimeout(client, from) },
		func() { h.onClientRegistered(client) },
	)
	if err := fsm.OnAssignClient(); err != nil {
		h.logger.Error("unexpected FSM error on fresh client", "client", client, "error", err)
		return
	}

	st := &clientState{
		fsm:   fsm,
		queue: registration.NewQueue(),
		name:  req.name,
	}
	st.debouncer = registration.NewRequestDebouncer(h.cfg.Registration.RequestDebounce, func(keys []registration.RequestKey) {
		h.flushRequests(client, keys)
	})
	h.states.Store(client, st)
	h.connToClient.Store(req.conn, client)
	h.clientToConn.Store(client, req.conn)

	ip, port := h.peerAddressOf(req.remoteHost, req.remotePort)
	h.table.AddClient(client, ip, port)
	h.identities.StoreClientToPrincipal(client, identity.Principal{Host: req.remoteHost, Port: req.remotePort})

	h.send(client, protocol.CommandAssignClientAck, protocol.AssignClientAck{Client: client}.Encode(nil))
	if err := fsm.OnAssignClientAck(); err != nil {
		h.logger.Error("unexpected FSM error acking assignment", "client", client, "error", err)
	}
}

func (h *Hub) doRegister(req registerRequest) {
	client, ok := h.connToClient.Load(req.conn)
	if !ok {
		return
	}
	st, ok := h.states.Load(client)
	if !ok {
		return
	}
	if err := st.fsm.OnRegisterApplication(); err != nil {
		h.logger.Warn("REGISTER_APPLICATION in wrong state", "client", client, "error", err)
		return
	}
	st.port = req.port

	// Self ADD_CLIENT routing-info entry drives REGISTERING -> REGISTERED.
	ip, _ := h.peerAddressOf("", req.port)
	h.sendRoutingInfo(client, protocol.RoutingInfo{Entries: []protocol.RoutingInfoEntry{{
		Type:    protocol.RoutingEntryAddClient,
		Client:  client,
		Address: ip,
		Port:    req.port,
	}}})
	if err := st.fsm.OnRoutingInfoSelfAdd(); err != nil {
		h.logger.Error("unexpected FSM error on self routing info", "client", client, "error", err)
		return
	}
	st.registered = true
	h.send(client, protocol.CommandRegisteredAck, nil)

	if h.cfg.Watchdog.Enabled && h.wd != nil {
		h.wd.PingOne(client, h.cfg.Watchdog.Timeout, func(c protocol.ClientId) { h.send(c, protocol.CommandPing, nil) })
	}
}

// onClientRegistered flushes the pending-command queue accumulated while
// the client was not yet REGISTERED.
func (h *Hub) onClientRegistered(client protocol.ClientId) {
	st, ok := h.states.Load(client)
	if !ok {
		return
	}
	for _, frame := range st.queue.Flush() {
		h.dispatchQueuedFrame(client, frame)
	}
}

func (h *Hub) dispatchQueuedFrame(client protocol.ClientId, frame []byte) {
	f, _, err := protocol.DecodeFrame(frame, h.cfg.Network.MaxMessageSizeLocal)
	if err != nil {
		h.logger.Warn("dropping malformed queued frame", "client", client, "error", err)
		return
	}
	h.dispatch(transport.ConnID(0), f.Header, f.Payload, "", 0)
}

func (h *Hub) onRegistrationTimeout(client protocol.ClientId, from registration.State) {
	h.logger.Warn("registration timed out, forcing client back to deregistered", "client", client, "from", from)
	h.teardownClient(client)
}

func (h *Hub) doDeregisterConn(conn transport.ConnID) {
	client, ok := h.connToClient.Load(conn)
	if !ok {
		return
	}
	if st, ok := h.states.Load(client); ok {
		_ = st.fsm.OnDeregister()
	}
	h.teardownClient(client)
}

func (h *Hub) doDisconnect(conn transport.ConnID, client protocol.ClientId) {
	if st, ok := h.states.Load(client); ok {
		st.fsm.OnTransportLost()
	}
	h.connToClient.Delete(conn)
	h.teardownClient(client)
}

func (h *Hub) doLost(client protocol.ClientId) {
	if st, ok := h.states.Load(client); ok {
		st.fsm.OnTransportLost()
	}
	if conn, ok := h.clientToConn.Load(client); ok {
		_ = h.server.DisconnectFrom(conn)
	}
	h.teardownClient(client)
}

// teardownClient removes every trace of client from the routing table,
// identity map and connection maps, fabricating STOP_OFFER_SERVICE
// notifications for anything it still offered.
func (h *Hub) teardownClient(client protocol.ClientId) {
	offered := h.table.RemoveClient(client)
	h.identities.Remove(client)
	h.clientToConn.Delete(client)
	h.states.Delete(client)

	for _, rec := range offered {
		h.notifyOfferWithdrawn(client, rec)
	}
	h.mirrorRoutingEvent(context.Background(), "client-removed", protocol.AssignClientAck{Client: client}.Encode(nil))
}


