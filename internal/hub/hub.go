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

// Package hub wires the routing table (C5), policy engine (C2), identity
// map (C3), subscription engine (C6), registration FSM (C7) and watchdog
// (C8) together behind a single transport.ServerEndpoint: the process
// that plays the role of routing host.
//
// Every mutation of shared state happens on the goroutine that calls
// onMessage for a given connection; Hub itself serializes
// registration-affecting events (assign, register, deregister,
// disconnect) through a single worker so that two frames for the same
// client can never race each other into inconsistent FSM/table state.
// Readers wanting the fixed lock-acquisition order: routing table, then
// identity map, then subscription engine, then policy store. No method
// in this package acquires more than one of those locks at a time by
// calling back into another package while still holding its own.
package hub

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/eventbus"
	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/policy"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/registration"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/someip-fabric/routingcore/internal/subscription"
	"github.com/someip-fabric/routingcore/internal/transport"
	"github.com/someip-fabric/routingcore/internal/watchdog"
)

// clientState is the hub-side bookkeeping for one client beyond what the
// routing table already owns.
type clientState struct {
	fsm       *registration.FSM
	queue     *registration.Queue
	debouncer *registration.RequestDebouncer
	name      string
	port      uint16
	// registered is read by queueIfPending from the transport read
	// goroutine and written by doRegister on the registration worker
	// goroutine, so it is not a plain bool.
	registered atomic.Bool
}

// event is one registration-affecting occurrence, serialized through
// Hub.regWorker so that assign/register/deregister/disconnect for a
// single client are never processed concurrently.
type event struct {
	kind string
	conn transport.ConnID
	data any
}

// Hub is the routing host: the single process every spoke connects to.
type Hub struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   transport.ServerEndpoint
	table    *routing.Table
	policies *policy.Store
	identities *identity.Map
	subs     *subscription.Engine
	wd       *watchdog.Watchdog
	bus      eventbus.Bus

	nextClient uint32

	states     *xsync.Map[protocol.ClientId, *clientState]
	connToClient *xsync.Map[transport.ConnID, protocol.ClientId]
	clientToConn *xsync.Map[protocol.ClientId, transport.ConnID]

	fields *xsync.Map[subscription.Key, *xsync.Map[protocol.EventId, []byte]]

	appConfig []protocol.ConfigEntry

	events chan event
	done   chan struct{}
}

// New builds a Hub. bus may be nil, in which case routing-info events are
// never mirrored cross-process.
func New(cfg *config.Config, logger *slog.Logger, table *routing.Table, policies *policy.Store, identities *identity.Map, subs *subscription.Engine, bus eventbus.Bus) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		cfg:          cfg,
		logger:       logger,
		table:        table,
		policies:     policies,
		identities:   identities,
		subs:         subs,
		bus:          bus,
		nextClient:   1,
		states:       xsync.NewMap[protocol.ClientId, *clientState](),
		connToClient: xsync.NewMap[transport.ConnID, protocol.ClientId](),
		clientToConn: xsync.NewMap[protocol.ClientId, transport.ConnID](),
		fields:       xsync.NewMap[subscription.Key, *xsync.Map[protocol.EventId, []byte]](),
		appConfig:    cfg.Application.Entries(),
		events:       make(chan event, 256),
		done:         make(chan struct{}),
	}
	return h
}

// Attach installs the hub's handlers on server and starts the
// registration worker and watchdog. Call before server.Start.
func (h *Hub) Attach(server transport.ServerEndpoint) error {
	h.server = server
	server.RegisterMessageHandler(h.onMessage)
	server.RegisterDisconnectHandler(h.onDisconnect)
	server.RegisterErrorHandler(func(conn transport.ConnID, err error) {
		h.logger.Warn("connection error", "conn", conn, "error", err)
	})

	wd, err := watchdog.New(h.table, h.cfg.Watchdog.Timeout, h.cfg.Watchdog.AllowedMissingPongs, h.logger, h.broadcastPing, h.onClientLost)
	if err != nil {
		return fmt.Errorf("hub: failed to build watchdog: %w", err)
	}
	h.wd = wd

	go h.regWorker()
	if h.cfg.Watchdog.Enabled {
		h.wd.Start()
	}
	return nil
}

// Stop halts the watchdog and the registration worker.
func (h *Hub) Stop() error {
	close(h.done)
	if h.wd != nil {
		if err := h.wd.Stop(); err != nil {
			return fmt.Errorf("hub: failed to stop watchdog: %w", err)
		}
	}
	return nil
}

func (h *Hub) regWorker() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.events:
			h.processEvent(ev)
		}
	}
}

func (h *Hub) allocateClient() protocol.ClientId {
	for {
		id := protocol.ClientId(h.nextClient)
		h.nextClient++
		if h.nextClient > 0xFFFE {
			h.nextClient = 1
		}
		if id == protocol.ClientUnset || id == protocol.RoutingClient {
			continue
		}
		if _, exists := h.states.Load(id); exists {
			continue
		}
		return id
	}
}

func (h *Hub) onMessage(conn transport.ConnID, payload []byte, remoteHost string, remotePort uint16) {
	header, n, err := protocol.DecodeHeader(payload)
	if err != nil {
		h.logger.Warn("dropping frame with malformed header", "conn", conn, "error", err)
		return
	}
	if h.queueIfPending(header.ClientID, header.CommandID, payload) {
		return
	}
	body := payload[n:]
	h.dispatch(conn, header, body, remoteHost, remotePort)
}

// queueIfPending buffers frame on client's pending-command queue if client
// has been assigned but has not yet completed REGISTER_APPLICATION,
// reporting whether it did. Commands that drive the assign/register/
// deregister handshake itself, and PONG (watchdog keepalive, unaffected by
// registration state), are never queued.
func (h *Hub) queueIfPending(client protocol.ClientId, cmd protocol.CommandID, frame []byte) bool {
	switch cmd {
	case protocol.CommandAssignClient, protocol.CommandRegisterApplication, protocol.CommandDeregisterApplication, protocol.CommandPong:
		return false
	}
	st, ok := h.states.Load(client)
	if !ok || st.registered.Load() {
		return false
	}
	st.queue.Enqueue(frame)
	return true
}

func (h *Hub) dispatch(conn transport.ConnID, header protocol.Header, body []byte, remoteHost string, remotePort uint16) {
	switch header.CommandID {
	case protocol.CommandAssignClient:
		h.handleAssignClient(conn, body, remoteHost, remotePort)
	case protocol.CommandRegisterApplication:
		h.handleRegisterApplication(conn, header.ClientID, body)
	case protocol.CommandDeregisterApplication:
		h.handleDeregisterApplication(conn, header.ClientID)
	case protocol.CommandPong:
		h.handlePong(header.ClientID)
	case protocol.CommandOfferService:
		h.handleOfferService(header.ClientID, body)
	case protocol.CommandStopOfferService:
		h.handleStopOfferService(header.ClientID, body)
	case protocol.CommandRequestService:
		h.handleRequestService(header.ClientID, body)
	case protocol.CommandReleaseService:
		h.handleReleaseService(header.ClientID, body)
	case protocol.CommandSubscribe:
		h.handleSubscribe(header.ClientID, body)
	case protocol.CommandUnsubscribe:
		h.handleUnsubscribe(header.ClientID, body)
	case protocol.CommandExpire:
		h.handleExpireCmd(header.ClientID, body)
	case protocol.CommandRegisterEvent:
		h.handleRegisterEvent(header.ClientID, body)
	case protocol.CommandUnregisterEvent:
		h.handleUnregisterEvent(header.ClientID, body)
	case protocol.CommandSend, protocol.CommandNotify, protocol.CommandNotifyOne:
		h.handleSendMessage(header.ClientID, header.CommandID, body)
	case protocol.CommandOfferedServicesRequest:
		h.handleOfferedServicesRequest(header.ClientID, body)
	case protocol.CommandResendProvidedEvents:
		h.handleResendProvidedEvents(header.ClientID, body)
	case protocol.CommandUpdateSecurityPolicy, protocol.CommandUpdateSecurityPolicyInt:
		h.handleUpdateSecurityPolicy(header.ClientID, body)
	case protocol.CommandRemoveSecurityPolicy:
		h.handleRemoveSecurityPolicy(header.ClientID, body)
	case protocol.CommandDistributeSecurityPolicies:
		h.handleDistributeSecurityPolicies(header.ClientID, body)
	case protocol.CommandUpdateSecurityCredentials:
		h.handleUpdateSecurityCredentials(header.ClientID, body)
	default:
		h.logger.Debug("ignoring unhandled command", "command", header.CommandID, "client", header.ClientID)
	}
}

func (h *Hub) onDisconnect(conn transport.ConnID) {
	client, ok := h.connToClient.Load(conn)
	if !ok {
		return
	}
	h.events <- event{kind: "disconnect", conn: conn, data: client}
}

func (h *Hub) send(client protocol.ClientId, cmd protocol.CommandID, payload []byte) bool {
	conn, ok := h.clientToConn.Load(client)
	if !ok {
		return false
	}
	frame, err := protocol.EncodeFrame(nil, client, cmd, payload, h.cfg.Network.MaxMessageSizeLocal)
	if err != nil {
		h.logger.Warn("dropping outbound frame exceeding max size", "client", client, "command", cmd, "error", err)
		return false
	}
	return h.server.SendTo(conn, frame)
}

func (h *Hub) sendRoutingInfo(client protocol.ClientId, ri protocol.RoutingInfo) {
	if len(ri.Entries) == 0 {
		return
	}
	h.send(client, protocol.CommandRoutingInfo, ri.Encode(nil))
}

func (h *Hub) deliverUpdates(updates routing.Updates) {
	for client, entries := range updates {
		h.sendRoutingInfo(client, protocol.RoutingInfo{Entries: entries})
	}
}

func (h *Hub) principalOf(client protocol.ClientId) (protocol.Uid, protocol.Gid) {
	p, ok := h.identities.PrincipalOf(client)
	if !ok {
		return 0, 0
	}
	return p.Uid, p.Gid
}

func (h *Hub) broadcastPing() {
	for _, client := range h.table.Clients() {
		h.send(client, protocol.CommandPing, nil)
	}
}

func (h *Hub) handlePong(client protocol.ClientId) {
	if h.wd != nil {
		h.wd.Pong(client)
	}
}

func (h *Hub) onClientLost(client protocol.ClientId) {
	h.events <- event{kind: "lost", data: client}
}

func (h *Hub) mirrorRoutingEvent(ctx context.Context, topic string, payload []byte) {
	if h.bus == nil || h.cfg.Network.IsLocalRouting {
		return
	}
	if err := h.bus.Publish(ctx, topic, payload); err != nil {
		h.logger.Warn("failed to mirror routing event", "topic", topic, "error", err)
	}
}

// peerAddressOf resolves the advertised address for a client: host parsed
// as an IP (IPv4zero when host is empty or not a valid IP) and port
// returned unchanged.
func (h *Hub) peerAddressOf(host string, port uint16) (net.IP, uint16) {
	if host == "" {
		return net.IPv4zero, port
	}
	ip := net.ParseIP(host)
	if ip == nil {
		ip = net.IPv4zero
	}
	return ip, port
}
