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

// SendMessage is the shared payload shape of SEND, NOTIFY, and NOTIFY_ONE.
// Target is meaningful only for NOTIFY_ONE, where it names the single
// recipient client; it is ClientUnset otherwise. Data is the embedded
// SOME/IP message and is never interpreted by the codec.
type SendMessage struct {
	Instance InstanceId
	Reliable bool
	Status   uint8
	Target   ClientId
	Data     []byte
}

const sendMessageFixedSize = 2 + 1 + 1 + 2

// Encode appends the wire form of m to buf.
func (m SendMessage) Encode(buf []byte) []byte {
	var tmp [sendMessageFixedSize]byte
	putLE16(tmp[0:2], uint16(m.Instance))
	if m.Reliable {
		tmp[2] = 1
	}
	tmp[3] = m.Status
	putLE16(tmp[4:6], uint16(m.Target))
	buf = append(buf, tmp[:]...)
	return append(buf, m.Data...)
}

// DecodeSendMessage parses a SEND / NOTIFY / NOTIFY_ONE payload. Data is
// not length-prefixed: it is every byte after the fixed prefix, copied
// as-is. The decoder does not compare it with the length carried in the
// embedded SOME/IP header.
func DecodeSendMessage(payload []byte) (SendMessage, error) {
	if err := need(payload, sendMessageFixedSize); err != nil {
		return SendMessage{}, err
	}
	m := SendMessage{
		Instance: InstanceId(getLE16(payload[0:2])),
		Reliable: payload[2] != 0,
		Status:   payload[3],
		Target:   ClientId(getLE16(payload[4:6])),
	}
	if len(payload) > sendMessageFixedSize {
		m.Data = append([]byte(nil), payload[sendMessageFixedSize:]...)
	}
	return m, nil
}


