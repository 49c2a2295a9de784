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

package transport_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/transport"
	"github.com/stretchr/testify/require"
)

func TestUnixServerClientRoundTrip(t *testing.T) {
	t.Parallel()
	socketPath := filepath.Join(t.TempDir(), "routingcore.sock")

	server := transport.NewServer("unix", socketPath, 0, nil)
	received := make(chan []byte, 1)
	server.RegisterMessageHandler(func(_ transport.ConnID, payload []byte, _ string, _ uint16) {
		received <- payload
	})
	require.NoError(t, server.Start())
	defer server.Stop()

	client := transport.NewClient("unix", socketPath, 0, nil)
	require.NoError(t, client.Start())
	defer client.Stop()

	frame, err := protocol.EncodeFrame(nil, 0x1001, protocol.CommandPing, nil, 0)
	require.NoError(t, err)
	require.True(t, client.Send(frame))

	select {
	case framed := <-received:
		header, n, err := protocol.DecodeHeader(framed)
		require.NoError(t, err)
		require.Equal(t, protocol.ClientId(0x1001), header.ClientID)
		require.Equal(t, protocol.CommandPing, header.CommandID)
		require.Empty(t, framed[n:])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for server to receive frame")
	}
}

func TestSocketPathLayout(t *testing.T) {
	t.Parallel()
	path := transport.SocketPath("/tmp/routingcore", 0x1000)
	require.Equal(t, "/tmp/routingcore/1000", path)
}
