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

import "net"

// RoutingEntryType identifies the kind of a RoutingInfoEntry.
type RoutingEntryType uint8

const (
	RoutingEntryAddClient RoutingEntryType = iota + 1
	RoutingEntryDeleteClient
	RoutingEntryAddServiceInstance
	RoutingEntryDeleteServiceInstance
)

// RoutingInfoEntry is one element of a ROUTING_INFO command payload. For
// AddClient, Address/Port identify where the client can be reached, if
// known; DeleteClient carries only the client id. AddServiceInstance and
// DeleteServiceInstance carry the set of services offered or withdrawn by
// Client.
type RoutingInfoEntry struct {
	Type     RoutingEntryType
	Client   ClientId
	Address  net.IP
	Port     uint16
	Services []ServiceRecord
}

// hasAddress reports whether an entry of this type carries an address/port.
func (t RoutingEntryType) hasAddress() bool {
	return t == RoutingEntryAddClient
}

// hasServices reports whether an entry of this type carries a service set.
func (t RoutingEntryType) hasServices() bool {
	return t == RoutingEntryAddServiceInstance || t == RoutingEntryDeleteServiceInstance
}

// Encode appends the wire form of e to buf and returns the result.
// entry_type(1) · entry_size(4) · client(2) · [address(4|16) · port(2)] ·
// [ServiceRecord...]. entry_size covers everything after itself.
func (e RoutingInfoEntry) Encode(buf []byte) []byte {
	body := make([]byte, 0, 2+18+ServiceRecordSize*len(e.Services))
	var cid [2]byte
	putLE16(cid[:], uint16(e.Client))
	body = append(body, cid[:]...)

	if e.Type.hasAddress() {
		ip4 := e.Address.To4()
		if ip4 != nil {
			body = append(body, ip4...)
		} else {
			ip6 := e.Address.To16()
			if ip6 == nil {
				ip6 = make(net.IP, 16)
			}
			body = append(body, ip6...)
		}
		var port [2]byte
		putLE16(port[:], e.Port)
		body = append(body, port[:]...)
	}
	if e.Type.hasServices() {
		for _, svc := range e.Services {
			body = svc.Encode(body)
		}
	}

	var head [5]byte
	head[0] = byte(e.Type)
	putLE32(head[1:5], uint32(len(body)))
	buf = append(buf, head[:]...)
	return append(buf, body...)
}

// DecodeRoutingInfoEntry parses one RoutingInfoEntry from the front of buf
// and returns it along with the number of bytes consumed.
func DecodeRoutingInfoEntry(buf []byte) (RoutingInfoEntry, int, error) {
	if err := need(buf, 5); err != nil {
		return RoutingInfoEntry{}, 0, err
	}
	entryType := RoutingEntryType(buf[0])
	entrySize := getLE32(buf[1:5])
	if err := need(buf, 5+int(entrySize)); err != nil {
		return RoutingInfoEntry{}, 0, err
	}
	body := buf[5 : 5+int(entrySize)]

	if err := need(body, 2); err != nil {
		return RoutingInfoEntry{}, 0, err
	}
	entry := RoutingInfoEntry{
		Type:   entryType,
		Client: ClientId(getLE16(body[0:2])),
	}
	off := 2

	if entryType.hasAddress() {
		addrLen := int(entrySize) - 2 - 2
		if addrLen != 4 && addrLen != 16 {
			return RoutingInfoEntry{}, 0, ErrUnknown
		}
		if err := need(body[off:], addrLen+2); err != nil {
			return RoutingInfoEntry{}, 0, err
		}
		entry.Address = net.IP(append(net.IP(nil), body[off:off+addrLen]...))
		off += addrLen
		entry.Port = getLE16(body[off : off+2])
		off += 2
	}

	if entryType.hasServices() {
		remaining := len(body) - off
		if remaining%ServiceRecordSize != 0 {
			return RoutingInfoEntry{}, 0, ErrUnknown
		}
		records, n, err := DecodeServiceRecords(body[off:], remaining/ServiceRecordSize)
		if err != nil {
			return RoutingInfoEntry{}, 0, err
		}
		entry.Services = records
		off += n
	}

	return entry, 5 + int(entrySize), nil
}
