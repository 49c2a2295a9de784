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

package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/someip-fabric/routingcore/internal/config"
)

type redisKV struct {
	client *redis.Client
}

func newRedisKV(ctx context.Context, cfg *config.Config) (*redisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("kv: failed to connect to redis: %w", err)
	}
	return &redisKV{client: client}, nil
}

func (kv *redisKV) Has(ctx context.Context, key string) (bool, error) {
	n, err := kv.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("kv: exists %q: %w", key, err)
	}
	return n > 0, nil
}

func (kv *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := kv.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("kv: key %q not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("kv: get %q: %w", key, err)
	}
	return value, nil
}

func (kv *redisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := kv.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("kv: set %q: %w", key, err)
	}
	return nil
}

func (kv *redisKV) Delete(ctx context.Context, key string) error {
	if err := kv.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("kv: delete %q: %w", key, err)
	}
	return nil
}

func (kv *redisKV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return kv.Delete(ctx, key)
	}
	if err := kv.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("kv: expire %q: %w", key, err)
	}
	return nil
}

func (kv *redisKV) Scan(ctx context.Context, match string) ([]string, error) {
	var keys []string
	var cursor uint64
	pattern := "*" + match + "*"
	if match == "" {
		pattern = "*"
	}
	for {
		batch, next, err := kv.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return nil, fmt.Errorf("kv: scan: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (kv *redisKV) Close() error {
	if err := kv.client.Close(); err != nil {
		return fmt.Errorf("kv: failed to close redis client: %w", err)
	}
	return nil
}
