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

package watchdog_test

import (
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/someip-fabric/routingcore/internal/watchdog"
	"github.com/stretchr/testify/require"
)

func TestTickIncrementsAndEvictsAfterAllowance(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	client := protocol.ClientId(0x1001)
	table.AddClient(client, nil, 0)

	lost := make(chan protocol.ClientId, 1)
	var pings int
	wd, err := watchdog.New(table, 40*time.Millisecond, 1, nil, func() { pings++ }, func(c protocol.ClientId) { lost <- c })
	require.NoError(t, err)
	wd.Start()
	defer wd.Stop()

	select {
	case c := <-lost:
		require.Equal(t, client, c)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client to be declared lost")
	}
}

func TestPongResetsMissedCounter(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	client := protocol.ClientId(0x1001)
	table.AddClient(client, nil, 0)
	table.MissedPong(client)
	table.MissedPong(client)
	require.Equal(t, uint(2), table.MissedPongCount(client))

	wd, err := watchdog.New(table, time.Hour, 5, nil, func() {}, func(protocol.ClientId) {})
	require.NoError(t, err)
	wd.Pong(client)
	require.Equal(t, uint(0), table.MissedPongCount(client))
}

func TestPingOneTimesOutWithoutPong(t *testing.T) {
	t.Parallel()
	table := routing.NewTable()
	client := protocol.ClientId(0x1001)
	table.AddClient(client, nil, 0)

	lost := make(chan protocol.ClientId, 1)
	wd, err := watchdog.New(table, time.Hour, 5, nil, func() {}, func(c protocol.ClientId) { lost <- c })
	require.NoError(t, err)

	var sent bool
	wd.PingOne(client, 20*time.Millisecond, func(protocol.ClientId) { sent = true })
	require.True(t, sent)

	select {
	case c := <-lost:
		require.Equal(t, client, c)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ping timeout")
	}
}

