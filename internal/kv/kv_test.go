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

package kv_test

import (
	"context"
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/kv"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVSetGetDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := kv.New(ctx, &config.Config{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "pending:1", []byte("data")))
	has, err := store.Has(ctx, "pending:1")
	require.NoError(t, err)
	require.True(t, has)

	value, err := store.Get(ctx, "pending:1")
	require.NoError(t, err)
	require.Equal(t, "data", string(value))

	require.NoError(t, store.Delete(ctx, "pending:1"))
	has, err = store.Has(ctx, "pending:1")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemoryKVExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := kv.New(ctx, &config.Config{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "pending:2", []byte("data")))
	require.NoError(t, store.Expire(ctx, "pending:2", 10*time.Millisecond))

	time.Sleep(30 * time.Millisecond)
	has, err := store.Has(ctx, "pending:2")
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemoryKVScanMatchesSubstring(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := kv.New(ctx, &config.Config{})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "pending:sec:1", []byte("a")))
	require.NoError(t, store.Set(ctx, "pending:sub:1", []byte("b")))

	keys, err := store.Scan(ctx, "sec")
	require.NoError(t, err)
	require.Equal(t, []string{"pending:sec:1"}, keys)
}
