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

package registration_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/registration"
	"github.com/stretchr/testify/require"
)

func TestHappyPathReachesRegistered(t *testing.T) {
	t.Parallel()
	var registered atomic.Bool
	fsm := registration.New(registration.DefaultTimeouts(), nil, func() { registered.Store(true) })

	require.NoError(t, fsm.OnAssignClient())
	require.Equal(t, registration.StateAssigning, fsm.State())

	require.NoError(t, fsm.OnAssignClientAck())
	require.Equal(t, registration.StateAssigned, fsm.State())

	require.NoError(t, fsm.OnRegisterApplication())
	require.Equal(t, registration.StateRegistering, fsm.State())

	require.NoError(t, fsm.OnRoutingInfoSelfAdd())
	require.Equal(t, registration.StateRegistered, fsm.State())
	require.True(t, registered.Load())
}

func TestInvalidTransitionRejected(t *testing.T) {
	t.Parallel()
	fsm := registration.New(registration.DefaultTimeouts(), nil, nil)
	require.ErrorIs(t, fsm.OnAssignClientAck(), registration.ErrInvalidTransition)
	require.ErrorIs(t, fsm.OnRegisterApplication(), registration.ErrInvalidTransition)
}

func TestAssigningTimeoutReturnsToDeregistered(t *testing.T) {
	t.Parallel()
	timedOut := make(chan registration.State, 1)
	fsm := registration.New(registration.Timeouts{Assigning: 20 * time.Millisecond, Registering: time.Second}, func(from registration.State) {
		timedOut <- from
	}, nil)
	require.NoError(t, fsm.OnAssignClient())

	select {
	case from := <-timedOut:
		require.Equal(t, registration.StateAssigning, from)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ASSIGNING timeout callback")
	}
	require.Equal(t, registration.StateDeregistered, fsm.State())
}

func TestTransportLostForcesDeregisteredFromAnyState(t *testing.T) {
	t.Parallel()
	fsm := registration.New(registration.DefaultTimeouts(), nil, nil)
	require.NoError(t, fsm.OnAssignClient())
	fsm.OnTransportLost()
	require.Equal(t, registration.StateDeregistered, fsm.State())
}

func TestQueueFlushesInOrder(t *testing.T) {
	t.Parallel()
	q := registration.NewQueue()
	q.Enqueue([]byte("first"))
	q.Enqueue([]byte("second"))
	require.Equal(t, 2, q.Len())

	flushed := q.Flush()
	require.Equal(t, [][]byte{[]byte("first"), []byte("second")}, flushed)
	require.Equal(t, 0, q.Len())
}

func TestRequestDebouncerCoalescesWithinWindow(t *testing.T) {
	t.Parallel()
	flushed := make(chan []registration.RequestKey, 1)
	d := registration.NewRequestDebouncer(30*time.Millisecond, func(keys []registration.RequestKey) {
		flushed <- keys
	})
	key := registration.RequestKey{Service: 0x1234, Instance: 0x0001, Major: 1, Minor: 0}
	d.Add(key)
	d.Add(key)

	select {
	case keys := <-flushed:
		require.Len(t, keys, 1)
		require.Equal(t, key, keys[0])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounce flush")
	}
}

func TestRequestDebouncerZeroWindowFlushesImmediately(t *testing.T) {
	t.Parallel()
	var calls int
	d := registration.NewRequestDebouncer(0, func(keys []registration.RequestKey) { calls++ })
	d.Add(registration.RequestKey{Service: 0x1234, Instance: 0x0001, Major: 1, Minor: 0})
	require.Equal(t, 1, calls)
}
