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

// Package watchdog implements the hub's PING/PONG liveness tracking (C8):
// a recurring half-interval tick that declares clients lost once their
// missed-pong count exceeds the configured allowance, plus an ad-hoc
// per-client ping timer.
package watchdog

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
)

// Watchdog drives PING broadcasts and missed-pong eviction for every
// client known to a routing.Table.
type Watchdog struct {
	scheduler      gocron.Scheduler
	job            gocron.Job
	table          *routing.Table
	allowedMissing uint
	logger         *slog.Logger

	broadcastPing func()
	onLost        func(client protocol.ClientId)

	pingedMu     sync.Mutex
	pingedTimers map[protocol.ClientId]*time.Timer
}

// New builds a Watchdog that ticks every timeout/2. broadcastPing sends a
// PING frame to every currently registered client; onLost is invoked for
// any client whose missed-pong count exceeds allowedMissing, or whose
// ad-hoc ping times out.
func New(table *routing.Table, timeout time.Duration, allowedMissing uint, logger *slog.Logger, broadcastPing func(), onLost func(client protocol.ClientId)) (*Watchdog, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("watchdog: failed to create scheduler: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watchdog{
		scheduler:      scheduler,
		table:          table,
		allowedMissing: allowedMissing,
		logger:         logger,
		broadcastPing:  broadcastPing,
		onLost:         onLost,
		pingedTimers:   make(map[protocol.ClientId]*time.Timer),
	}

	interval := timeout / 2
	if interval <= 0 {
		interval = time.Second
	}
	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(w.tick),
		gocron.WithName("watchdog-tick"),
	)
	if err != nil {
		return nil, fmt.Errorf("watchdog: failed to schedule tick: %w", err)
	}
	w.job = job
	return w, nil
}

// Start begins the recurring tick.
func (w *Watchdog) Start() {
	w.scheduler.Start()
}

// Stop halts the recurring tick and cancels every ad-hoc ping timer.
func (w *Watchdog) Stop() error {
	w.pingedMu.Lock()
	for _, timer := range w.pingedTimers {
		timer.Stop()
	}
	w.pingedTimers = make(map[protocol.ClientId]*time.Timer)
	w.pingedMu.Unlock()

	if err := w.scheduler.StopJobs(); err != nil {
		return fmt.Errorf("watchdog: failed to stop jobs: %w", err)
	}
	return w.scheduler.Shutdown()
}

// tick evicts clients already over the missed-pong allowance, then
// increments every remaining client's counter and broadcasts PING.
func (w *Watchdog) tick() {
	for _, client := range w.table.Clients() {
		if w.table.MissedPongCount(client) > w.allowedMissing {
			w.declareLost(client)
		}
	}
	for _, client := range w.table.Clients() {
		w.table.MissedPong(client)
	}
	if w.broadcastPing != nil {
		w.broadcastPing()
	}
}

func (w *Watchdog) declareLost(client protocol.ClientId) {
	w.logger.Warn("client missed too many pongs, declaring lost", "client", client)
	if w.onLost != nil {
		w.onLost(client)
	}
}

// Pong clears client's missed-pong counter and cancels any ad-hoc ping
// timer awaiting its response.
func (w *Watchdog) Pong(client protocol.ClientId) {
	w.table.ResetMissedPongs(client)
	w.pingedMu.Lock()
	if timer, ok := w.pingedTimers[client]; ok {
		timer.Stop()
		delete(w.pingedTimers, client)
	}
	w.pingedMu.Unlock()
}

// PingOne sends an on-demand PING to a single client (e.g. on first
// registration) and arms a timeout that declares it lost if no PONG
// arrives in time.
func (w *Watchdog) PingOne(client protocol.ClientId, timeout time.Duration, send func(protocol.ClientId)) {
	w.pingedMu.Lock()
	if existing, ok := w.pingedTimers[client]; ok {
		existing.Stop()
	}
	w.pingedTimers[client] = time.AfterFunc(timeout, func() {
		w.pingedMu.Lock()
		delete(w.pingedTimers, client)
		w.pingedMu.Unlock()
		w.declareLost(client)
	})
	w.pingedMu.Unlock()
	if send != nil {
		send(client)
	}
}


