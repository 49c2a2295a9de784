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

// ConfigEntry is one key/value pair of a CONFIG command, for example
// ("hostname", "vehicle-ecu-07").
type ConfigEntry struct {
	Key   string
	Value string
}

// Config is the payload of a CONFIG command: a count-prefixed list of
// length-prefixed UTF-8 key/value pairs.
type Config struct {
	Entries []ConfigEntry
}

// Encode appends the wire form of c to buf.
func (c Config) Encode(buf []byte) []byte {
	var count [2]byte
	putLE16(count[:], uint16(len(c.Entries)))
	buf = append(buf, count[:]...)
	for _, e := range c.Entries {
		buf = appendLengthPrefixedString(buf, e.Key)
		buf = appendLengthPrefixedString(buf, e.Value)
	}
	return buf
}

func appendLengthPrefixedString(buf []byte, s string) []byte {
	var length [2]byte
	putLE16(length[:], uint16(len(s)))
	buf = append(buf, length[:]...)
	return append(buf, []byte(s)...)
}

func decodeLengthPrefixedString(buf []byte) (string, int, error) {
	if err := need(buf, 2); err != nil {
		return "", 0, err
	}
	n := int(getLE16(buf[0:2]))
	if err := need(buf[2:], n); err != nil {
		return "", 0, err
	}
	return string(buf[2 : 2+n]), 2 + n, nil
}

// DecodeConfig parses a CONFIG payload.
func DecodeConfig(payload []byte) (Config, error) {
	if err := need(payload, 2); err != nil {
		return Config{}, err
	}
	count := int(getLE16(payload[0:2]))
	off := 2
	var c Config
	for i := 0; i < count; i++ {
		key, n, err := decodeLengthPrefixedString(payload[off:])
		if err != nil {
			return Config{}, err
		}
		off += n
		value, n, err := decodeLengthPrefixedString(payload[off:])
		if err != nil {
			return Config{}, err
		}
		off += n
		c.Entries = append(c.Entries, ConfigEntry{Key: key, Value: value})
	}
	return c, nil
}

// Suspend carries no payload; its presence is the signal.
type Suspend struct{}


