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

package protocol

// RoutingInfo is the payload of a ROUTING_INFO command: a back-to-back
// sequence of self-delimited entries with no leading count.
type RoutingInfo struct {
	Entries []RoutingInfoEntry
}

// Encode appends the wire form of r to buf.
func (r RoutingInfo) Encode(buf []byte) []byte {
	for _, e := range r.Entries {
		buf = e.Encode(buf)
	}
	return buf
}

// DecodeRoutingInfo parses a ROUTING_INFO payload.
func DecodeRoutingInfo(payload []byte) (RoutingInfo, error) {
	var r RoutingInfo
	for len(payload) > 0 {
		e, n, err := DecodeRoutingInfoEntry(payload)
		if err != nil {
			return RoutingInfo{}, err
		}
		r.Entries = append(r.Entries, e)
		payload = payload[n:]
	}
	return r, nil
}
