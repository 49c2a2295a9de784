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

import "encoding/binary"

// Command frames use little-endian on every supported platform; the
// policy section of security commands is always big-endian. These typed
// helpers replace manual memcpy-style byte-order conversion so call sites
// never mix the two orders by accident.

func putLE16(buf []byte, v uint16) { binary.LittleEndian.PutUint16(buf, v) }
func getLE16(buf []byte) uint16    { return binary.LittleEndian.Uint16(buf) }

func putLE32(buf []byte, v uint32) { binary.LittleEndian.PutUint32(buf, v) }
func getLE32(buf []byte) uint32    { return binary.LittleEndian.Uint32(buf) }

func putBE16(buf []byte, v uint16) { binary.BigEndian.PutUint16(buf, v) }
func getBE16(buf []byte) uint16    { return binary.BigEndian.Uint16(buf) }

func putBE32(buf []byte, v uint32) { binary.BigEndian.PutUint32(buf, v) }
func getBE32(buf []byte) uint32    { return binary.BigEndian.Uint32(buf) }

func need(buf []byte, n int) error {
	if len(buf) < n {
		return ErrNotEnoughBytes
	}
	return nil
}


