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

package hub_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/hub"
	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/policy"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/someip-fabric/routingcore/internal/subscription"
	"github.com/someip-fabric/routingcore/internal/transport"
)

// fakeServer is an in-process stand-in for transport.ServerEndpoint that
// records every frame sent to each connection instead of touching a
// socket.
type fakeServer struct {
	mu    sync.Mutex
	sent  map[transport.ConnID][][]byte
	onMsg transport.MessageHandler
}

func newFakeServer() *fakeServer {
	return &fakeServer{sent: make(map[transport.ConnID][][]byte)}
}

func (f *fakeServer) Start() error { return nil }
func (f *fakeServer) Stop() error  { return nil }

func (f *fakeServer) SendTo(conn transport.ConnID, payload []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent[conn] = append(f.sent[conn], payload)
	return true
}

func (f *fakeServer) DisconnectFrom(transport.ConnID) error { return nil }
func (f *fakeServer) RegisterMessageHandler(fn transport.MessageHandler) { f.onMsg = fn }
func (f *fakeServer) RegisterDisconnectHandler(transport.DisconnectHandler) {}
func (f *fakeServer) RegisterErrorHandler(transport.ErrorHandler)           {}
func (f *fakeServer) PrintStatus() string                                  { return "" }

func (f *fakeServer) framesFor(conn transport.ConnID) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent[conn]...)
}

func (f *fakeServer) deliver(conn transport.ConnID, clientID protocol.ClientId, cmd protocol.CommandID, payload []byte) {
	frame, err := protocol.EncodeFrame(nil, clientID, cmd, payload, 0)
	if err != nil {
		panic(err)
	}
	decoded, _, err := protocol.DecodeFrame(frame, 0)
	if err != nil {
		panic(err)
	}
	framed := protocol.EncodeHeader(nil, decoded.Header)
	framed = append(framed, decoded.Payload...)
	f.onMsg(conn, framed, "", 0)
}

func newTestHub(t *testing.T, configure ...func(*config.Config)) (*hub.Hub, *fakeServer, *identity.Map) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Registration.RequestDebounce = 0
	cfg.Network.MaxMessageSizeLocal = 0
	cfg.Watchdog.Enabled = false
	cfg.Watchdog.Timeout = time.Second
	cfg.Network.IsLocalRouting = true
	for _, fn := range configure {
		fn(cfg)
	}

	table := routing.NewTable()
	policies := policy.New(cfg.Security)
	identities := identity.New(nil)
	subs := subscription.New(func(subscription.Key, protocol.ClientId, protocol.Uid, protocol.Gid) bool { return true })

	h := hub.New(cfg, nil, table, policies, identities, subs, nil)
	server := newFakeServer()
	require.NoError(t, h.Attach(server))
	t.Cleanup(func() { _ = h.Stop() })
	return h, server, identities
}

func assignAndRegister(t *testing.T, server *fakeServer, conn transport.ConnID, name string) protocol.ClientId {
	t.Helper()
	server.deliver(conn, protocol.ClientUnset, protocol.CommandAssignClient, protocol.AssignClient{Name: name}.Encode(nil))
	require.Eventually(t, func() bool { return len(server.framesFor(conn)) >= 1 }, time.Second, time.Millisecond)

	ackFrames := server.framesFor(conn)
	ackFrame, _, err := protocol.DecodeFrame(ackFrames[len(ackFrames)-1], 0)
	require.NoError(t, err)
	ack, err := protocol.DecodeAssignClientAck(ackFrame.Payload)
	require.NoError(t, err)

	server.deliver(conn, ack.Client, protocol.CommandRegisterApplication, protocol.RegisterApplication{Port: 30509}.Encode(nil))
	require.Eventually(t, func() bool { return len(server.framesFor(conn)) >= 3 }, time.Second, time.Millisecond)
	return ack.Client
}

func TestAssignAndRegisterReachesRegistered(t *testing.T) {
	t.Parallel()
	_, server, _ := newTestHub(t)
	client := assignAndRegister(t, server, transport.ConnID(1), "app-a")
	require.NotEqual(t, protocol.ClientUnset, client)

	frames := server.framesFor(transport.ConnID(1))
	var sawRoutingInfo, sawRegisteredAck bool
	for _, raw := range frames {
		f, _, err := protocol.DecodeFrame(raw, 0)
		require.NoError(t, err)
		switch f.Header.CommandID {
		case protocol.CommandRoutingInfo:
			sawRoutingInfo = true
		case protocol.CommandRegisteredAck:
			sawRegisteredAck = true
		}
	}
	require.True(t, sawRoutingInfo)
	require.True(t, sawRegisteredAck)
}

func TestOfferThenRequestExchangesRoutingInfo(t *testing.T) {
	t.Parallel()
	_, server, _ := newTestHub(t)
	provider := assignAndRegister(t, server, transport.ConnID(1), "provider")
	requester := assignAndRegister(t, server, transport.ConnID(2), "requester")

	rec := protocol.ServiceRecord{Service: 0x1234, Instance: 1, Major: 1, Minor: 0}
	server.deliver(transport.ConnID(1), provider, protocol.CommandOfferService, protocol.EncodeOfferService(nil, rec))

	server.deliver(transport.ConnID(2), requester, protocol.CommandRequestService,
		protocol.RequestService{Records: []protocol.ServiceRecord{{Service: rec.Service, Instance: protocol.AnyInstance}}}.Encode(nil))

	require.Eventually(t, func() bool {
		for _, raw := range server.framesFor(transport.ConnID(2)) {
			f, _, err := protocol.DecodeFrame(raw, 0)
			require.NoError(t, err)
			if f.Header.CommandID == protocol.CommandRoutingInfo {
				ri, err := protocol.DecodeRoutingInfo(f.Payload)
				require.NoError(t, err)
				for _, e := range ri.Entries {
					if e.Type == protocol.RoutingEntryAddServiceInstance {
						return true
					}
				}
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestSubscribeAccepted(t *testing.T) {
	t.Parallel()
	_, server, _ := newTestHub(t)
	subscriber := assignAndRegister(t, server, transport.ConnID(1), "subscriber")

	server.deliver(transport.ConnID(1), subscriber, protocol.CommandSubscribe, protocol.Subscribe{
		Service: 1, Instance: 1, Eventgroup: 1, Event: protocol.AnyEvent,
	}.Encode(nil))

	require.Eventually(t, func() bool {
		for _, raw := range server.framesFor(transport.ConnID(1)) {
			f, _, err := protocol.DecodeFrame(raw, 0)
			require.NoError(t, err)
			if f.Header.CommandID == protocol.CommandSubscribeAck {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestOfferServiceBeforeRegisteredIsQueuedThenApplied(t *testing.T) {
	t.Parallel()
	_, server, _ := newTestHub(t)

	server.deliver(transport.ConnID(1), protocol.ClientUnset, protocol.CommandAssignClient, protocol.AssignClient{Name: "provider"}.Encode(nil))
	require.Eventually(t, func() bool { return len(server.framesFor(transport.ConnID(1))) >= 1 }, time.Second, time.Millisecond)
	ackFrames := server.framesFor(transport.ConnID(1))
	ackFrame, _, err := protocol.DecodeFrame(ackFrames[len(ackFrames)-1], 0)
	require.NoError(t, err)
	ack, err := protocol.DecodeAssignClientAck(ackFrame.Payload)
	require.NoError(t, err)

	rec := protocol.ServiceRecord{Service: 0x1234, Instance: 1, Major: 1, Minor: 0}
	server.deliver(transport.ConnID(1), ack.Client, protocol.CommandRegisterApplication, protocol.RegisterApplication{Port: 30509}.Encode(nil))
	server.deliver(transport.ConnID(1), ack.Client, protocol.CommandOfferService, protocol.EncodeOfferService(nil, rec))

	requester := assignAndRegister(t, server, transport.ConnID(2), "requester")
	server.deliver(transport.ConnID(2), requester, protocol.CommandRequestService,
		protocol.RequestService{Records: []protocol.ServiceRecord{{Service: rec.Service, Instance: protocol.AnyInstance}}}.Encode(nil))

	require.Eventually(t, func() bool {
		for _, raw := range server.framesFor(transport.ConnID(2)) {
			f, _, err := protocol.DecodeFrame(raw, 0)
			require.NoError(t, err)
			if f.Header.CommandID != protocol.CommandRoutingInfo {
				continue
			}
			ri, err := protocol.DecodeRoutingInfo(f.Payload)
			require.NoError(t, err)
			for _, e := range ri.Entries {
				if e.Type == protocol.RoutingEntryAddServiceInstance {
					return true
				}
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestRemoveSecurityPolicySuspendsMatchingPrincipal(t *testing.T) {
	t.Parallel()
	_, server, identities := newTestHub(t)
	client := assignAndRegister(t, server, transport.ConnID(1), "app-a")
	identities.StoreClientToPrincipal(client, identity.Principal{Uid: 1000, Gid: 1000})

	server.deliver(transport.ConnID(1), client, protocol.CommandRemoveSecurityPolicy,
		protocol.RemoveSecurityPolicy{UpdateID: 1, Uid: 1000, Gid: 1000}.Encode(nil))

	require.Eventually(t, func() bool {
		for _, raw := range server.framesFor(transport.ConnID(1)) {
			f, _, err := protocol.DecodeFrame(raw, 0)
			require.NoError(t, err)
			if f.Header.CommandID == protocol.CommandSuspend {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
}

func TestRegisterPushesApplicationConfig(t *testing.T) {
	t.Parallel()
	_, server, _ := newTestHub(t, func(c *config.Config) {
		c.Application.Config = []string{"zone=front"}
	})
	client := assignAndRegister(t, server, transport.ConnID(1), "app-a")

	var sawConfig bool
	for _, raw := range server.framesFor(transport.ConnID(1)) {
		f, _, err := protocol.DecodeFrame(raw, 0)
		require.NoError(t, err)
		if f.Header.CommandID != protocol.CommandConfig {
			continue
		}
		cfg, err := protocol.DecodeConfig(f.Payload)
		require.NoError(t, err)
		require.Len(t, cfg.Entries, 1)
		require.Equal(t, "zone", cfg.Entries[0].Key)
		require.Equal(t, "front", cfg.Entries[0].Value)
		sawConfig = true
	}
	require.True(t, sawConfig)
	require.NotEqual(t, protocol.ClientUnset, client)
}
