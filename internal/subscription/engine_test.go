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

package subscription_test

import (
	"testing"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/subscription"
	"github.com/stretchr/testify/require"
)

func key() subscription.Key {
	return subscription.Key{Service: 0x1234, Instance: 0x0001, Eventgroup: 0x0001}
}

func TestFirstRemoteSubscribeAcceptedAndCounted(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)

	accepted, burst := eng.Subscribe(key(), client, protocol.PendingId(42), true, 1000, 1000, nil, nil, nil)
	require.True(t, accepted)
	require.Empty(t, burst)
	require.Equal(t, 1, eng.RemoteSubscriberCount(key()))
}

func TestRejectedSubscriptionRecordsNoState(t *testing.T) {
	t.Parallel()
	eng := subscription.New(func(subscription.Key, protocol.ClientId, protocol.Uid, protocol.Gid) bool {
		return false
	})
	client := protocol.ClientId(0x1001)

	accepted, burst := eng.Subscribe(key(), client, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)
	require.False(t, accepted)
	require.Empty(t, burst)
	require.Equal(t, 0, eng.RemoteSubscriberCount(key()))
}

func TestFirstRemoteSubscriberGetsInitialBurstExcludingAlreadyHave(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)

	fields := []subscription.FieldSnapshot{
		{Event: 0x0001, Payload: []byte("a")},
		{Event: 0x0002, Payload: []byte("b")},
	}
	alreadyHave := map[protocol.EventId]struct{}{0x0002: {}}

	accepted, burst := eng.Subscribe(key(), client, protocol.PendingId(1), true, 1000, 1000, nil, fields, alreadyHave)
	require.True(t, accepted)
	require.Len(t, burst, 1)
	require.Equal(t, protocol.EventId(0x0001), burst[0].Event)
}

func TestSecondRemoteSubscriberGetsNoBurst(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	fields := []subscription.FieldSnapshot{{Event: 0x0001, Payload: []byte("a")}}

	_, _ = eng.Subscribe(key(), protocol.ClientId(0x1001), protocol.PendingId(1), true, 1000, 1000, nil, fields, nil)
	accepted, burst := eng.Subscribe(key(), protocol.ClientId(0x1002), protocol.PendingId(2), true, 1001, 1001, nil, fields, nil)

	require.True(t, accepted)
	require.Empty(t, burst)
	require.Equal(t, 2, eng.RemoteSubscriberCount(key()))
}

func TestUnsubscribeDropsRemoteCountToZero(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)
	_, _ = eng.Subscribe(key(), client, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)
	require.Equal(t, 1, eng.RemoteSubscriberCount(key()))

	remaining := eng.Unsubscribe(key(), client)
	require.Equal(t, 0, remaining)
	require.Equal(t, 0, eng.RemoteSubscriberCount(key()))
	require.Empty(t, eng.Subscribers(key()))
}

func TestExpireBehavesLikeUnsubscribe(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)
	_, _ = eng.Subscribe(key(), client, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)

	remaining := eng.Expire(key(), client)
	require.Equal(t, 0, remaining)
	require.Equal(t, 0, eng.RemoteSubscriberCount(key()))
}

func TestRemoveClientDropsAllSubscriptions(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)
	other := protocol.ClientId(0x1002)
	groupA := key()
	groupB := subscription.Key{Service: groupA.Service, Instance: groupA.Instance, Eventgroup: groupA.Eventgroup + 1}

	_, _ = eng.Subscribe(groupA, client, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)
	_, _ = eng.Subscribe(groupB, client, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)
	_, _ = eng.Subscribe(groupB, other, protocol.PendingId(1), true, 1000, 1000, nil, nil, nil)

	emptied := eng.RemoveClient(client)

	require.Equal(t, []subscription.Key{groupA}, emptied)
	require.Empty(t, eng.Subscribers(groupA))
	require.Equal(t, 0, eng.RemoteSubscriberCount(groupA))
	require.Equal(t, []protocol.ClientId{other}, eng.Subscribers(groupB))
	require.Equal(t, 1, eng.RemoteSubscriberCount(groupB))
}

func TestLocalSubscriptionDoesNotAffectRemoteCount(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)

	accepted, _ := eng.Subscribe(key(), client, protocol.PendingSubscriptionID, false, 1000, 1000, nil, nil, nil)
	require.True(t, accepted)
	require.Equal(t, 0, eng.RemoteSubscriberCount(key()))
	require.Len(t, eng.Subscribers(key()), 1)
}

func TestFilterNotificationSuppressesUnchangedPayload(t *testing.T) {
	t.Parallel()
	identical := func(last, next []byte) bool { return string(last) != string(next) }
	eng := subscription.New(nil)
	client := protocol.ClientId(0x1001)
	_, _ = eng.Subscribe(key(), client, protocol.PendingId(1), true, 1000, 1000, identical, nil, nil)

	require.True(t, eng.FilterNotification(key(), client, 0x0001, []byte("v1")))
	require.False(t, eng.FilterNotification(key(), client, 0x0001, []byte("v1")))
	require.True(t, eng.FilterNotification(key(), client, 0x0001, []byte("v2")))
}

func TestFilterNotificationUnknownSubscriberRejected(t *testing.T) {
	t.Parallel()
	eng := subscription.New(nil)
	require.False(t, eng.FilterNotification(key(), protocol.ClientId(0x9999), 0x0001, []byte("x")))
}
