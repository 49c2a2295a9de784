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

package spoke_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/spoke"
	"github.com/someip-fabric/routingcore/internal/transport"
)

// fakeHub is a minimal stand-in for the hub's handshake behavior, just
// enough to drive a Spoke through DEREGISTERED -> REGISTERED over a real
// unix-domain socket.
type fakeHub struct {
	server transport.ServerEndpoint
	conn   transport.ConnID

	mu      sync.Mutex
	headers []protocol.Header
}

func newFakeHub(t *testing.T, socketPath string) *fakeHub {
	t.Helper()
	h := &fakeHub{}
	h.server = transport.NewServer("unix", socketPath, 0, nil)
	h.server.RegisterMessageHandler(h.onMessage)
	require.NoError(t, h.server.Start())
	t.Cleanup(func() { _ = h.server.Stop() })
	return h
}

func (h *fakeHub) onMessage(conn transport.ConnID, frame []byte, _ string, _ uint16) {
	header, n, err := protocol.DecodeHeader(frame)
	if err != nil {
		return
	}
	_ = frame[n:]
	h.conn = conn

	h.mu.Lock()
	h.headers = append(h.headers, header)
	h.mu.Unlock()

	switch header.CommandID {
	case protocol.CommandAssignClient:
		h.send(conn, protocol.ClientId(0x0042), protocol.CommandAssignClientAck, protocol.AssignClientAck{Client: 0x0042}.Encode(nil))
	case protocol.CommandRegisterApplication:
		ri := protocol.RoutingInfo{Entries: []protocol.RoutingInfoEntry{{
			Type:   protocol.RoutingEntryAddClient,
			Client: 0x0042,
		}}}
		h.send(conn, 0x0042, protocol.CommandRoutingInfo, ri.Encode(nil))
		h.send(conn, 0x0042, protocol.CommandRegisteredAck, nil)
	}
}

func (h *fakeHub) send(conn transport.ConnID, client protocol.ClientId, cmd protocol.CommandID, payload []byte) {
	frame, err := protocol.EncodeFrame(nil, client, cmd, payload, 0)
	if err != nil {
		panic(err)
	}
	h.server.SendTo(conn, frame)
}

func (h *fakeHub) received() []protocol.Header {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]protocol.Header(nil), h.headers...)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Network.Transport = config.TransportUnix
	cfg.Network.BasePath = t.TempDir()
	cfg.Network.MaxMessageSizeLocal = 0
	cfg.Registration.RequestDebounce = 0
	return cfg
}

func TestSpokeReachesRegistered(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "hub.sock")
	hub := newFakeHub(t, socketPath)

	cfg := testConfig(t)
	s := spoke.New(cfg, nil, "unix", socketPath, "app-a")
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool {
		return len(hub.received()) >= 2
	}, 2*time.Second, time.Millisecond)

	require.Equal(t, protocol.ClientId(0x0042), s.ClientID())
}

func TestSpokeFlushesQueuedOfferOnRegistration(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "hub.sock")
	hub := newFakeHub(t, socketPath)

	cfg := testConfig(t)
	s := spoke.New(cfg, nil, "unix", socketPath, "app-b")

	rec := protocol.ServiceRecord{Service: 0x1234, Instance: 1, Major: 1, Minor: 0}
	require.NoError(t, s.OfferService(rec))

	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	require.Eventually(t, func() bool {
		for _, header := range hub.received() {
			if header.CommandID == protocol.CommandOfferService {
				return true
			}
		}
		return false
	}, 2*time.Second, time.Millisecond)
}

func TestSpokeSuspendRejectsNewCommands(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "hub.sock")
	newFakeHub(t, socketPath)

	cfg := testConfig(t)
	s := spoke.New(cfg, nil, "unix", socketPath, "app-c")
	s.Suspend()

	rec := protocol.ServiceRecord{Service: 0x1234, Instance: 1, Major: 1, Minor: 0}
	require.ErrorIs(t, s.OfferService(rec), spoke.ErrSuspended)
}


