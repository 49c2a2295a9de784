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

package eventbus

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/someip-fabric/routingcore/internal/config"
)

const connsPerCPU = 10
const maxIdleTime = 10 * time.Minute

type redisBus struct {
	client *redis.Client
}

func newRedisBus(ctx context.Context, cfg *config.Config) (*redisBus, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:        cfg.Redis.Password,
		PoolFIFO:        true,
		PoolSize:        runtime.GOMAXPROCS(0) * connsPerCPU,
		MinIdleConns:    runtime.GOMAXPROCS(0),
		ConnMaxIdleTime: maxIdleTime,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("eventbus: failed to connect to redis: %w", err)
	}

	if cfg.Metrics.OTLPEndpoint != "" {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("eventbus: failed to trace redis: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("eventbus: failed to instrument redis metrics: %w", err)
		}
	}

	return &redisBus{client: client}, nil
}

func (b *redisBus) Publish(ctx context.Context, topic string, message []byte) error {
	if err := b.client.Publish(ctx, topic, message).Err(); err != nil {
		return fmt.Errorf("eventbus: failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

func (b *redisBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	sub := b.client.Subscribe(ctx, topic)
	return &redisSubscription{sub: sub, redisCh: sub.Channel()}, nil
}

func (b *redisBus) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("eventbus: failed to close redis client: %w", err)
	}
	return nil
}

type redisSubscription struct {
	sub     *redis.PubSub
	redisCh <-chan *redis.Message
	ch      chan []byte
}

func (s *redisSubscription) Channel() <-chan []byte {
	if s.ch == nil {
		s.ch = make(chan []byte, 16)
		go func() {
			for msg := range s.redisCh {
				s.ch <- []byte(msg.Payload)
			}
			close(s.ch)
		}()
	}
	return s.ch
}

func (s *redisSubscription) Close() error {
	if err := s.sub.Close(); err != nil {
		return fmt.Errorf("eventbus: failed to close redis subscription: %w", err)
	}
	return nil
}
