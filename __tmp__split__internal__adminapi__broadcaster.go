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

package adminapi

import "sync"

// broadcaster fans a stream of msgp-encoded envelopes out to every
// connected admin websocket. Registration is synchronized with a mutex
// rather than a goroutine-owned map, since broadcasts happen on a slow
// ticker and contention is never meaningful.
type broadcaster struct {
	mu        sync.Mutex
	listeners map[chan []byte]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{listeners: make(map[chan []byte]struct{})}
}

func (b *broadcaster) subscribe() chan []byte {
	ch := make(chan []byte, 8)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *broadcaster) unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.listeners, ch)
	b.mu.Unlock()
	close(ch)
}

// publish delivers msg to every subscriber, dropping it for any
// subscriber whose buffer is full rather than blocking the ticker.
func (b *broadcaster) publish(msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners {
		select {
		case ch <- msg:
		default:
		}
	}
}


