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

import (
	"sync"
	"time"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

// RequestKey identifies one request_service call for debounce purposes.
type RequestKey struct {
	Service  protocol.ServiceId
	Instance protocol.InstanceId
	Major    protocol.MajorVersion
	Minor    protocol.MinorVersion
}

// RequestDebouncer coalesces request_service calls arriving within Window
// of the first pending call into a single flush, deduplicating identical
// requests. A zero Window flushes synchronously on every Add.
type RequestDebouncer struct {
	mu      sync.Mutex
	window  time.Duration
	pending map[RequestKey]struct{}
	timer   *time.Timer
	flush   func([]RequestKey)
}

// NewRequestDebouncer builds a debouncer that calls flush with the
// deduplicated, order-unspecified set of keys accumulated within window.
func NewRequestDebouncer(window time.Duration, flush func([]RequestKey)) *RequestDebouncer {
	return &RequestDebouncer{window: window, flush: flush, pending: make(map[RequestKey]struct{})}
}

// Add records a request_service call and, when no flush is pending, arms
// the debounce timer. Later calls join the pending flush; they do not
// extend the window.
func (d *RequestDebouncer) Add(key RequestKey) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[key] = struct{}{}

	if d.window <= 0 {
		d.fireLocked()
		return
	}
	if d.timer == nil {
		d.timer = time.AfterFunc(d.window, d.fire)
	}
}

func (d *RequestDebouncer) fire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fireLocked()
}

func (d *RequestDebouncer) fireLocked() {
	if len(d.pending) == 0 {
		d.timer = nil
		return
	}
	keys := make([]RequestKey, 0, len(d.pending))
	for k := range d.pending {
		keys = append(keys, k)
	}
	d.pending = make(map[RequestKey]struct{})
	d.timer = nil
	if d.flush != nil {
		d.flush(keys)
	}
}
