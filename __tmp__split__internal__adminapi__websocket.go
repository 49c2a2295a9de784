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

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	snapshotInterval  = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsReadBufferSize,
	WriteBufferSize: wsWriteBufferSize,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// runSnapshotLoop periodically encodes the routing table and publishes it
// to every connected admin websocket, until ctx is canceled. The admin
// API is a local operator surface, not a public one, so origin checking
// is left permissive and there is no per-connection auth beyond the
// bind address.
func (a *AdminAPI) runSnapshotLoop(ctx context.Context) {
	ticker := time.NewTicker(snapshotInterval)
	defer ticker.Stop()
	var seq uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			seq++
			envelope := a.buildEnvelope(seq)
			payload, err := envelope.MarshalMsg(nil)
			if err != nil {
				a.logger.Error("failed to encode routing event envelope", "error", err)
				continue
			}
			a.broadcaster.publish(payload)
		}
	}
}

func (a *AdminAPI) buildEnvelope(seq uint64) RoutingEventEnvelope {
	snapshot := a.table.Snapshot()
	clients := make([]RoutingClientSummary, 0, len(snapshot))
	for _, entry := range snapshot {
		clients = append(clients, RoutingClientSummary{
			Client:      uint16(entry.Client),
			Port:        entry.Port,
			MissedPongs: uint32(entry.MissedPongs),
			Offers:      uint32(len(entry.Offers)),
			Requests:    uint32(len(entry.Requests)),
		})
	}
	return RoutingEventEnvelope{Sequence: seq, Clients: clients}
}

func (a *AdminAPI) serveWebsocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.Warn("admin websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			a.logger.Warn("admin websocket close failed", "error", err)
		}
	}()

	ch := a.broadcaster.subscribe()
	defer a.broadcaster.unsubscribe(ch)

	ctx := c.Request.Context()

	// Drain and discard inbound frames so a dead peer is noticed; the
	// admin stream is send-only.
	readFailed := make(chan struct{})
	go func() {
		defer close(readFailed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-readFailed:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				return
			}
		}
	}
}


