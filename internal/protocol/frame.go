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

// Frame is a fully decoded command frame: its header plus the raw,
// still-undecoded payload bytes. Callers dispatch on CommandID to decode
// Payload into the concrete per-command type.
type Frame struct {
	Header  Header
	Payload []byte
}

// EncodeFrame appends the wire form of a frame carrying payload for the
// given client/command to buf, including the trailing end tag, and
// returns the result. maxSize is the configured local message size
// ceiling; a payload exceeding it is rejected before anything is written.
func EncodeFrame(buf []byte, clientID ClientId, cmd CommandID, payload []byte, maxSize uint32) ([]byte, error) {
	if maxSize != 0 && uint32(len(payload)) > maxSize {
		return nil, ErrMaxCommandSizeExceeded
	}
	buf = EncodeHeader(buf, Header{ClientID: clientID, CommandID: cmd, PayloadSize: uint32(len(payload))})
	buf = append(buf, payload...)
	var tail [4]byte
	putLE32(tail[:], EndTag)
	return append(buf, tail[:]...), nil
}

// DecodeFrame parses one complete frame, including its trailing end tag,
// from the front of buf. It returns the frame and the number of bytes
// consumed. maxSize, if nonzero, caps the accepted payload_size.
func DecodeFrame(buf []byte, maxSize uint32) (Frame, int, error) {
	h, n, err := DecodeHeader(buf)
	if err != nil {
		return Frame{}, 0, err
	}
	if maxSize != 0 && h.PayloadSize > maxSize {
		return Frame{}, 0, ErrMaxCommandSizeExceeded
	}
	total := n + int(h.PayloadSize) + 4
	if err := need(buf, total); err != nil {
		return Frame{}, 0, err
	}
	payload := buf[n : n+int(h.PayloadSize)]
	if tag := getLE32(buf[n+int(h.PayloadSize) : total]); tag != EndTag {
		return Frame{}, 0, ErrMismatch
	}
	return Frame{Header: h, Payload: payload}, total, nil
}
