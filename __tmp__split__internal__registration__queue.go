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

package registration

import "sync"

// Queue buffers wire-ready frames (offers, event registrations, requests)
// accumulated while a client is not yet REGISTERED, in the order they were
// enqueued, and releases them in one batch on Flush.
type Queue struct {
	mu    sync.Mutex
	items [][]byte
}

// NewQueue builds an empty pending-command queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends a pre-encoded frame to the queue.
func (q *Queue) Enqueue(frame []byte) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, frame)
}

// Flush returns every queued frame in FIFO order and empties the queue.
func (q *Queue) Flush() [][]byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len reports how many frames are currently queued.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}


