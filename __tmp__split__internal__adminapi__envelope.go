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

// msgp:tuple RoutingClientSummary

// RoutingClientSummary is one client's routing table entry, as pushed to
// operators over the live websocket stream.
//
//go:generate msgp
type RoutingClientSummary struct {
	Client      uint16 `msg:"client"`
	Host        string `msg:"host"`
	Port        uint16 `msg:"port"`
	MissedPongs uint32 `msg:"missed_pongs"`
	Offers      uint32 `msg:"offers"`
	Requests    uint32 `msg:"requests"`
}

// msgp:tuple RoutingEventEnvelope

// RoutingEventEnvelope is the wire format for the admin live-routing
// stream: a sequenced snapshot of every client's bookkeeping, msgp-encoded
// for the websocket binary frame. The event bus does not carry it.
type RoutingEventEnvelope struct {
	Sequence   uint64                 `msg:"seq"`
	AtUnixNano int64                  `msg:"at"`
	Clients    []RoutingClientSummary `msg:"clients"`
}


