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

// Package eventbus provides the optional, advisory cross-process mirror
// of routing-info and security-policy events. It is never authoritative:
// a single hub process's in-memory routing.Table and policy.Store are the
// source of truth; eventbus only lets a second, cooperating hub process
// (or an observer) learn about events for display or diagnostics.
package eventbus

import (
	"context"

	"github.com/someip-fabric/routingcore/internal/config"
)

// Bus publishes and subscribes to named topics of opaque payloads.
type Bus interface {
	Publish(ctx context.Context, topic string, message []byte) error
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Close() error
}

// Subscription is a single topic subscription.
type Subscription interface {
	Channel() <-chan []byte
	Close() error
}

// New builds a Bus: Redis-backed when cfg.Redis.Enabled, otherwise an
// in-process memory bus. The in-process bus still honors IsLocalRouting
// semantics upstream — callers simply don't publish when running fully
// local.
func New(ctx context.Context, cfg *config.Config) (Bus, error) {
	if cfg.Redis.Enabled {
		return newRedisBus(ctx, cfg)
	}
	return newMemoryBus(), nil
}


