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

package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/eventbus"
	"github.com/stretchr/testify/require"
)

func TestMemoryBusDeliversToSubscriber(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus, err := eventbus.New(ctx, &config.Config{})
	require.NoError(t, err)
	defer bus.Close()

	sub, err := bus.Subscribe(ctx, "routing-info")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, bus.Publish(ctx, "routing-info", []byte("hello")))

	select {
	case msg := <-sub.Channel():
		require.Equal(t, "hello", string(msg))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestMemoryBusPublishWithNoSubscribersIsNoop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bus, err := eventbus.New(ctx, &config.Config{})
	require.NoError(t, err)
	defer bus.Close()

	require.NoError(t, bus.Publish(ctx, "unused-topic", []byte("x")))
}


