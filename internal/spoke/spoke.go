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

// Package spoke implements the client-side counterpart of the hub (C10):
// one application's connection to the routing host, driving the same
// registration FSM (C7) from the other side and queuing outbound commands
// until REGISTERED.
package spoke

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/registration"
	"github.com/someip-fabric/routingcore/internal/transport"
)

// ErrSuspended is returned when an outbound command is attempted while
// the spoke is suspended.
var ErrSuspended = errors.New("spoke: suspended")

// RoutingInfoHandler is invoked for every ROUTING_INFO entry delivered by
// the hub, after the spoke's own bookkeeping has processed it.
type RoutingInfoHandler func(protocol.RoutingInfoEntry)

// EventHandler is invoked for SEND/NOTIFY/NOTIFY_ONE payloads addressed to
// this application.
type EventHandler func(cmd protocol.CommandID, payload []byte)

// Spoke is one application's connection to the routing host. It owns the
// outbound transport.Client to the hub and, once assigned a ClientId, its
// own transport.Server so peers can reach it directly.
type Spoke struct {
	cfg    *config.Config
	logger *slog.Logger
	name   string

	hub   *transport.Client
	local transport.ServerEndpoint

	fsm       *registration.FSM
	queue     *registration.Queue
	debouncer *registration.RequestDebouncer

	mu         sync.Mutex
	clientID   protocol.ClientId
	localPort  uint16
	suspended  bool
	configVals map[string]string

	onRoutingInfo RoutingInfoHandler
	onEvent       EventHandler
}

// New builds a Spoke that will dial the hub at network/address as name
// when Start is called.
func New(cfg *config.Config, logger *slog.Logger, network, address, name string) *Spoke {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Spoke{
		cfg:        cfg,
		logger:     logger,
		name:       name,
		queue:      registration.NewQueue(),
		configVals: make(map[string]string),
	}
	s.debouncer = registration.NewRequestDebouncer(cfg.Registration.RequestDebounce, s.flushRequests)
	s.fsm = registration.New(registration.DefaultTimeouts(), s.onFSMTimeout, s.onRegistered)
	s.hub = transport.NewClient(network, address, cfg.Network.MaxMessageSizeLocal, logger)
	s.hub.RegisterMessageHandler(s.onMessage)
	s.hub.RegisterErrorHandler(func(err error) {
		s.logger.Warn("hub connection error", "error", err)
		s.onTransportLost()
	})
	return s
}

// OnRoutingInfo installs the callback for inbound ROUTING_INFO entries.
// Must be called before Start.
func (s *Spoke) OnRoutingInfo(fn RoutingInfoHandler) { s.onRoutingInfo = fn }

// OnEvent installs the callback for inbound SEND/NOTIFY/NOTIFY_ONE
// payloads. Must be called before Start.
func (s *Spoke) OnEvent(fn EventHandler) { s.onEvent = fn }

// Start dials the hub and sends ASSIGN_CLIENT. The registration FSM
// drives the rest of the handshake as replies arrive.
func (s *Spoke) Start() error {
	if err := s.hub.Start(); err != nil {
		return fmt.Errorf("spoke: failed to connect to hub: %w", err)
	}
	if err := s.fsm.OnAssignClient(); err != nil {
		return fmt.Errorf("spoke: unexpected FSM state at start: %w", err)
	}
	if !s.sendToHub(protocol.ClientUnset, protocol.CommandAssignClient, protocol.AssignClient{Name: s.name}.Encode(nil)) {
		return fmt.Errorf("spoke: failed to send ASSIGN_CLIENT")
	}
	return nil
}

// Stop tears down the hub connection and, if running, the local peer
// endpoint.
func (s *Spoke) Stop() error {
	s.fsm.OnTransportLost()
	if err := s.hub.Stop(); err != nil {
		return fmt.Errorf("spoke: failed to stop hub connection: %w", err)
	}
	s.mu.Lock()
	local := s.local
	s.mu.Unlock()
	if local != nil {
		if err := local.Stop(); err != nil {
			return fmt.Errorf("spoke: failed to stop local endpoint: %w", err)
		}
	}
	return nil
}

// ClientID returns the ClientId assigned by the hub, or ClientUnset
// before ASSIGN_CLIENT_ACK has been received.
func (s *Spoke) ClientID() protocol.ClientId {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

// State reports the spoke's current registration state.
func (s *Spoke) State() registration.State { return s.fsm.State() }

// LocalPort returns the port of this spoke's own local server endpoint,
// for "tcp" transport. It is 0 before registration and for "unix"
// transport, whose clients are addressed by socket path instead.
func (s *Spoke) LocalPort() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPort
}

// ConfigValue returns a key delivered by the hub's CONFIG command.
func (s *Spoke) ConfigValue(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.configVals[key]
	return v, ok
}

func (s *Spoke) sendToHub(client protocol.ClientId, cmd protocol.CommandID, payload []byte) bool {
	frame, err := protocol.EncodeFrame(nil, client, cmd, payload, s.cfg.Network.MaxMessageSizeLocal)
	if err != nil {
		s.logger.Warn("dropping outbound frame exceeding max size", "command", cmd, "error", err)
		return false
	}
	return s.hub.Send(frame)
}

// enqueueOrSend sends frame immediately once REGISTERED, otherwise queues
// it for replay when registration completes.
func (s *Spoke) enqueueOrSend(client protocol.ClientId, cmd protocol.CommandID, payload []byte) error {
	s.mu.Lock()
	suspended := s.suspended
	s.mu.Unlock()
	if suspended {
		return ErrSuspended
	}
	if s.fsm.State() != registration.StateRegistered {
		frame, err := protocol.EncodeFrame(nil, client, cmd, payload, s.cfg.Network.MaxMessageSizeLocal)
		if err != nil {
			return fmt.Errorf("spoke: failed to encode queued frame: %w", err)
		}
		s.queue.Enqueue(frame)
		return nil
	}
	if !s.sendToHub(client, cmd, payload) {
		return fmt.Errorf("spoke: failed to send command %d to hub", cmd)
	}
	return nil
}

// OfferService announces rec as locally provided.
func (s *Spoke) OfferService(rec protocol.ServiceRecord) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandOfferService, protocol.EncodeOfferService(nil, rec))
}

// StopOfferService withdraws a previously offered service.
func (s *Spoke) StopOfferService(rec protocol.ServiceRecord) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandStopOfferService, protocol.EncodeOfferService(nil, rec))
}

// RequestService registers interest in one or more services. Nearby calls
// within the configured debounce window are coalesced into a single
// REQUEST_SERVICE frame.
func (s *Spoke) RequestService(service protocol.ServiceId, instance protocol.InstanceId, major protocol.MajorVersion, minor protocol.MinorVersion) {
	s.debouncer.Add(registration.RequestKey{Service: service, Instance: instance, Major: major, Minor: minor})
}

func (s *Spoke) flushRequests(keys []registration.RequestKey) {
	records := make([]protocol.ServiceRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, protocol.ServiceRecord{Service: k.Service, Instance: k.Instance, Major: k.Major, Minor: k.Minor})
	}
	if err := s.enqueueOrSend(s.ClientID(), protocol.CommandRequestService, protocol.RequestService{Records: records}.Encode(nil)); err != nil {
		s.logger.Warn("failed to flush debounced requests", "error", err)
	}
}

// ReleaseService withdraws interest in a previously requested service.
func (s *Spoke) ReleaseService(service protocol.ServiceId, instance protocol.InstanceId) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandReleaseService, protocol.ReleaseService{Service: service, Instance: instance}.Encode(nil))
}

// Subscribe requests delivery of one eventgroup.
func (s *Spoke) Subscribe(sub protocol.Subscribe) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandSubscribe, sub.Encode(nil))
}

// Unsubscribe withdraws a previously made subscription.
func (s *Spoke) Unsubscribe(u protocol.Unsubscribe) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandUnsubscribe, u.Encode(nil))
}

// RequestOfferedServices asks the hub for the offer set matching offerType.
func (s *Spoke) RequestOfferedServices(offerType protocol.OfferedServicesRequestType) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandOfferedServicesRequest, protocol.OfferedServicesRequest{OfferType: offerType}.Encode(nil))
}

// ResendProvidedEvents asks a remote offer's host to replay its provided
// event cache, used after a subscription outlives a transport hiccup.
func (s *Spoke) ResendProvidedEvents(offerID protocol.RemoteOfferId) error {
	return s.enqueueOrSend(s.ClientID(), protocol.CommandResendProvidedEvents, protocol.ResendProvidedEvents{OfferID: offerID}.Encode(nil))
}

// Suspend stops sending and accepting new outbound commands without
// tearing down the registration, matching a SUSPEND request from the hub
// or operator tooling.
func (s *Spoke) Suspend() {
	s.mu.Lock()
	s.suspended = true
	s.mu.Unlock()
}

// Resume undoes Suspend.
func (s *Spoke) Resume() {
	s.mu.Lock()
	s.suspended = false
	s.mu.Unlock()
}

func (s *Spoke) onMessage(frame []byte) {
	header, n, err := protocol.DecodeHeader(frame)
	if err != nil {
		s.logger.Warn("dropping frame with malformed header from hub", "error", err)
		return
	}
	s.dispatch(header, frame[n:])
}

func (s *Spoke) dispatch(header protocol.Header, body []byte) {
	switch header.CommandID {
	case protocol.CommandAssignClientAck:
		s.handleAssignClientAck(body)
	case protocol.CommandRegisteredAck:
		s.logger.Debug("registered with hub", "client", s.ClientID())
	case protocol.CommandPing:
		s.sendToHub(s.ClientID(), protocol.CommandPong, nil)
	case protocol.CommandRoutingInfo:
		s.handleRoutingInfo(body)
	case protocol.CommandConfig:
		s.handleConfig(body)
	case protocol.CommandSuspend:
		s.Suspend()
	case protocol.CommandSend, protocol.CommandNotify, protocol.CommandNotifyOne:
		if s.onEvent != nil {
			s.onEvent(header.CommandID, body)
		}
	default:
		s.logger.Debug("ignoring unhandled command from hub", "command", header.CommandID)
	}
}

func (s *Spoke) handleAssignClientAck(body []byte) {
	ack, err := protocol.DecodeAssignClientAck(body)
	if err != nil {
		s.logger.Warn("malformed ASSIGN_CLIENT_ACK", "error", err)
		return
	}
	s.mu.Lock()
	s.clientID = ack.Client
	s.mu.Unlock()

	if err := s.fsm.OnAssignClientAck(); err != nil {
		s.logger.Error("unexpected FSM error on assignment ack", "error", err)
		return
	}

	// Start our own local server endpoint before completing registration
	// so peers can reach us for direct sends as soon as routing-info
	// advertises our address.
	port, err := s.startLocalEndpoint()
	if err != nil {
		s.logger.Error("failed to start local endpoint", "error", err)
		return
	}
	s.mu.Lock()
	s.localPort = port
	s.mu.Unlock()

	if err := s.fsm.OnRegisterApplication(); err != nil {
		s.logger.Error("unexpected FSM error registering application", "error", err)
		return
	}
	s.sendToHub(ack.Client, protocol.CommandRegisterApplication, protocol.RegisterApplication{Port: port}.Encode(nil))
}

func (s *Spoke) startLocalEndpoint() (uint16, error) {
	var server *transport.Server
	switch s.cfg.Network.Transport {
	case config.TransportUnix:
		path := transport.SocketPath(s.cfg.Network.BasePath, s.ClientID())
		server = transport.NewServer("unix", path, s.cfg.Network.MaxMessageSizeLocal, s.logger)
	default:
		server = transport.NewServer("tcp", net.JoinHostPort("", "0"), s.cfg.Network.MaxMessageSizeLocal, s.logger)
	}
	server.RegisterMessageHandler(s.onPeerMessage)
	server.RegisterErrorHandler(func(conn transport.ConnID, err error) {
		s.logger.Warn("local endpoint connection error", "conn", conn, "error", err)
	})
	if err := server.Start(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.local = server
	s.mu.Unlock()
	if s.cfg.Network.Transport == config.TransportUnix {
		return 0, nil
	}
	return localPort(server), nil
}

func (s *Spoke) onPeerMessage(conn transport.ConnID, frame []byte, _ string, _ uint16) {
	header, n, err := protocol.DecodeHeader(frame)
	if err != nil {
		s.logger.Warn("dropping peer frame with malformed header", "conn", conn, "error", err)
		return
	}
	if s.onEvent != nil {
		s.onEvent(header.CommandID, frame[n:])
	}
}

func (s *Spoke) handleRoutingInfo(body []byte) {
	ri, err := protocol.DecodeRoutingInfo(body)
	if err != nil {
		s.logger.Warn("malformed ROUTING_INFO", "error", err)
		return
	}
	for _, e := range ri.Entries {
		if e.Type == protocol.RoutingEntryAddClient && e.Client == s.ClientID() {
			if err := s.fsm.OnRoutingInfoSelfAdd(); err != nil && !errors.Is(err, registration.ErrInvalidTransition) {
				s.logger.Error("unexpected FSM error on self routing info", "error", err)
			}
		}
		if s.onRoutingInfo != nil {
			s.onRoutingInfo(e)
		}
	}
}

func (s *Spoke) handleConfig(body []byte) {
	cfg, err := protocol.DecodeConfig(body)
	if err != nil {
		s.logger.Warn("malformed CONFIG", "error", err)
		return
	}
	s.mu.Lock()
	for _, e := range cfg.Entries {
		s.configVals[e.Key] = e.Value
	}
	s.mu.Unlock()
}

// onRegistered flushes every command queued while not yet REGISTERED: the
// hub sends REGISTERED_ACK unilaterally once it has processed the self
// ADD_CLIENT routing-info entry, so there is nothing left for the spoke
// to acknowledge here.
func (s *Spoke) onRegistered() {
	for _, frame := range s.queue.Flush() {
		if !s.hub.Send(frame) {
			s.logger.Warn("failed to flush queued frame on registration")
		}
	}
}

func (s *Spoke) onFSMTimeout(from registration.State) {
	s.logger.Warn("registration timed out, restarting transport", "from", from)
	s.onTransportLost()
}

func (s *Spoke) onTransportLost() {
	s.fsm.OnTransportLost()
	s.mu.Lock()
	s.clientID = protocol.ClientUnset
	local := s.local
	s.local = nil
	s.mu.Unlock()
	if local != nil {
		_ = local.Stop()
	}
}

func localPort(s *transport.Server) uint16 {
	_, portStr, err := net.SplitHostPort(s.ListenAddr())
	if err != nil {
		return 0
	}
	var port uint16
	_, _ = fmt.Sscanf(portStr, "%d", &port)
	return port
}
