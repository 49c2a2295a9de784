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

package routing_test

import (
	"testing"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/stretchr/testify/require"
)

func TestOfferThenRequestRendezvous(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	clientB := protocol.ClientId(0x1002)
	table.AddClient(clientA, nil, 0)
	table.AddClient(clientB, nil, 0)

	offerUpdates := table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))
	require.Empty(t, offerUpdates)

	requestUpdates := table.OnRequestService(clientB, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))
	require.Len(t, requestUpdates[clientB], 2)
	require.Equal(t, protocol.RoutingEntryAddClient, requestUpdates[clientB][0].Type)
	require.Equal(t, clientA, requestUpdates[clientB][0].Client)
	require.Equal(t, protocol.RoutingEntryAddServiceInstance, requestUpdates[clientB][1].Type)

	require.Len(t, requestUpdates[clientA], 1)
	require.Equal(t, protocol.RoutingEntryAddClient, requestUpdates[clientA][0].Type)
	require.Equal(t, clientB, requestUpdates[clientA][0].Client)
}

func TestOfferAfterRequestRendezvousOrdering(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	clientB := protocol.ClientId(0x1002)
	table.AddClient(clientA, nil, 0)
	table.AddClient(clientB, nil, 0)

	table.OnRequestService(clientB, 0x1234, protocol.AnyInstance, protocol.MajorVersion(1), protocol.MinorVersion(0))
	updates := table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))

	require.Len(t, updates[clientB], 2)
	require.Equal(t, protocol.RoutingEntryAddClient, updates[clientB][0].Type)
	require.Equal(t, protocol.RoutingEntryAddServiceInstance, updates[clientB][1].Type)
}

func TestRemoveClientWithoutRequestersReturnsNoUpdates(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	table.AddClient(clientA, nil, 0)
	table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))

	updates := table.RemoveClient(clientA)
	require.Empty(t, updates)
	require.False(t, table.Exists(clientA))
}

func TestRemoveClientDeliversDeleteServiceInstance(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	clientB := protocol.ClientId(0x1002)
	table.AddClient(clientA, nil, 0)
	table.AddClient(clientB, nil, 0)

	table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))
	table.OnRequestService(clientB, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))

	updates := table.RemoveClient(clientA)
	require.Len(t, updates[clientB], 1)
	require.Equal(t, protocol.RoutingEntryDeleteServiceInstance, updates[clientB][0].Type)
	require.Equal(t, clientA, updates[clientB][0].Client)
	require.False(t, table.Exists(clientA))
}

func TestSnapshotReflectsOffersAndRequests(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	table.AddClient(clientA, nil, 30509)
	table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))
	table.OnRequestService(clientA, 0x5678, protocol.AnyInstance, protocol.MajorVersion(1), protocol.MinorVersion(0))

	snapshot := table.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, clientA, snapshot[0].Client)
	require.Len(t, snapshot[0].Offers, 1)
	require.Len(t, snapshot[0].Requests, 1)
}
