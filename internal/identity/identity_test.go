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

package identity_test

import (
	"testing"

	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/stretchr/testify/require"
)

func TestStoreAndLookupBothDirections(t *testing.T) {
	t.Parallel()
	m := identity.New(nil)
	p := identity.Principal{Uid: 1000, Gid: 1000, Host: "127.0.0.1", Port: 40000}
	m.StoreClientToPrincipal(0x1001, p)

	got, ok := m.PrincipalOf(0x1001)
	require.True(t, ok)
	require.Equal(t, p, got)

	clients := m.ClientsOf(p)
	require.ElementsMatch(t, []protocol.ClientId{0x1001}, clients)
}

func TestOverwriteMovesReverseBinding(t *testing.T) {
	t.Parallel()
	m := identity.New(nil)
	p1 := identity.Principal{Uid: 1000, Gid: 1000, Host: "127.0.0.1", Port: 40000}
	p2 := identity.Principal{Uid: 2000, Gid: 2000, Host: "127.0.0.1", Port: 40001}

	m.StoreClientToPrincipal(0x1001, p1)
	m.StoreClientToPrincipal(0x1001, p2)

	_, ok := m.PrincipalOf(0x1001)
	require.True(t, ok)
	require.Empty(t, m.ClientsOf(p1))
	require.ElementsMatch(t, []protocol.ClientId{0x1001}, m.ClientsOf(p2))
}

func TestRemoveIsSymmetric(t *testing.T) {
	t.Parallel()
	m := identity.New(nil)
	p := identity.Principal{Uid: 1000, Gid: 1000, Host: "127.0.0.1", Port: 40000}
	m.StoreClientToPrincipal(0x1001, p)

	m.Remove(0x1001)

	_, ok := m.PrincipalOf(0x1001)
	require.False(t, ok)
	require.Empty(t, m.ClientsOf(p))
}

func TestMultipleClientsShareReverseSet(t *testing.T) {
	t.Parallel()
	m := identity.New(nil)
	p := identity.Principal{Uid: 1000, Gid: 1000, Host: "127.0.0.1", Port: 40000}
	m.StoreClientToPrincipal(0x1001, p)
	m.StoreClientToPrincipal(0x1002, p)

	require.ElementsMatch(t, []protocol.ClientId{0x1001, 0x1002}, m.ClientsOf(p))

	m.Remove(0x1001)
	require.ElementsMatch(t, []protocol.ClientId{0x1002}, m.ClientsOf(p))
}
