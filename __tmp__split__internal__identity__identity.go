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

// Package identity implements the bidirectional map between a ClientId
// and the (uid, gid, host, port) principal bound to it (C3).
package identity

import (
	"log/slog"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

// Principal identifies the UNIX credentials and network origin of a
// connected client.
type Principal struct {
	Uid  protocol.Uid
	Gid  protocol.Gid
	Host string
	Port uint16
}

// Map is the bidirectional ClientId<->Principal relation. The zero value
// is not usable; construct with New.
type Map struct {
	forward *xsync.Map[protocol.ClientId, Principal]
	reverse *xsync.Map[Principal, *xsync.Map[protocol.ClientId, struct{}]]
	logger  *slog.Logger
}

// New builds an empty Map.
func New(logger *slog.Logger) *Map {
	if logger == nil {
		logger = slog.Default()
	}
	return &Map{
		forward: xsync.NewMap[protocol.ClientId, Principal](),
		reverse: xsync.NewMap[Principal, *xsync.Map[protocol.ClientId, struct{}]](),
		logger:  logger,
	}
}

// StoreClientToPrincipal binds client to principal, overwriting any
// existing binding. An overwrite is logged at warn level rather than
// rejected.
func (m *Map) StoreClientToPrincipal(client protocol.ClientId, principal Principal) {
	if old, ok := m.forward.Load(client); ok && old != principal {
		m.logger.Warn("overwriting client principal binding",
			"client", client, "old_uid", old.Uid, "old_gid", old.Gid,
			"new_uid", principal.Uid, "new_gid", principal.Gid)
		m.removeFromReverse(old, client)
	}
	m.forward.Store(client, principal)

	set, _ := m.reverse.LoadOrCompute(principal, func() *xsync.Map[protocol.ClientId, struct{}] {
		return xsync.NewMap[protocol.ClientId, struct{}]()
	})
	set.Store(client, struct{}{})
}

// PrincipalOf returns the principal bound to client, if any.
func (m *Map) PrincipalOf(client protocol.ClientId) (Principal, bool) {
	return m.forward.Load(client)
}

// ClientsOf returns every client currently bound to principal.
func (m *Map) ClientsOf(principal Principal) []protocol.ClientId {
	set, ok := m.reverse.Load(principal)
	if !ok {
		return nil
	}
	clients := make([]protocol.ClientId, 0, set.Size())
	set.Range(func(c protocol.ClientId, _ struct{}) bool {
		clients = append(clients, c)
		return true
	})
	return clients
}

// Remove deletes client's binding in both directions.
func (m *Map) Remove(client protocol.ClientId) {
	principal, ok := m.forward.LoadAndDelete(client)
	if !ok {
		return
	}
	m.removeFromReverse(principal, client)
}

func (m *Map) removeFromReverse(principal Principal, client protocol.ClientId) {
	set, ok := m.reverse.Load(principal)
	if !ok {
		return
	}
	set.Delete(client)
	if set.Size() == 0 {
		m.reverse.Delete(principal)
	}
}


