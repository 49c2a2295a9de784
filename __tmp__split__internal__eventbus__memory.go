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

	"github.com/puzpuzpuz/xsync/v4"
)

type memoryBus struct {
	topics *xsync.Map[string, *xsync.Map[*memorySubscription, struct{}]]
}

func newMemoryBus() *memoryBus {
	return &memoryBus{topics: xsync.NewMap[string, *xsync.Map[*memorySubscription, struct{}]]()}
}

func (b *memoryBus) Publish(_ context.Context, topic string, message []byte) error {
	subs, ok := b.topics.Load(topic)
	if !ok {
		return nil
	}
	subs.Range(func(sub *memorySubscription, _ struct{}) bool {
		select {
		case sub.ch <- message:
		default:
		}
		return true
	})
	return nil
}

func (b *memoryBus) Subscribe(_ context.Context, topic string) (Subscription, error) {
	subs, _ := b.topics.LoadOrCompute(topic, func() *xsync.Map[*memorySubscription, struct{}] {
		return xsync.NewMap[*memorySubscription, struct{}]()
	})
	sub := &memorySubscription{ch: make(chan []byte, 16), unsubscribe: func(s *memorySubscription) {
		subs.Delete(s)
	}}
	subs.Store(sub, struct{}{})
	return sub, nil
}

func (b *memoryBus) Close() error {
	return nil
}

type memorySubscription struct {
	ch          chan []byte
	unsubscribe func(*memorySubscription)
}

func (s *memorySubscription) Channel() <-chan []byte {
	return s.ch
}

func (s *memorySubscription) Close() error {
	s.unsubscribe(s)
	close(s.ch)
	return nil
}


