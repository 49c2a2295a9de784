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

// Package kv provides the hub's ephemeral, TTL-bearing key-value store.
// The routing daemon opens one at startup and closes it on shutdown; no
// other component reads or writes it. Like eventbus, it is advisory:
// nothing in it is consulted to rebuild routing or policy state.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/someip-fabric/routingcore/internal/config"
)

// KV is a small TTL-aware key-value store.
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Scan(ctx context.Context, match string) ([]string, error)
	Close() error
}

// New builds a KV store: Redis-backed when cfg.Redis.Enabled, otherwise
// an in-process store.
func New(ctx context.Context, cfg *config.Config) (KV, error) {
	if cfg.Redis.Enabled {
		store, err := newRedisKV(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("kv: failed to create redis store: %w", err)
		}
		return store, nil
	}
	return newMemoryKV(), nil
}
