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

// Subscribe requests delivery of one eventgroup. Filter is optional and,
// when present, occupies the remainder of the payload.
type Subscribe struct {
	Service    ServiceId
	Instance   InstanceId
	Eventgroup EventgroupId
	Major      MajorVersion
	Event      EventId
	PendingID  PendingId
	Filter     []byte
}

// Encode appends the wire form of s to buf.
func (s Subscribe) Encode(buf []byte) []byte {
	var tmp [9]byte
	putLE16(tmp[0:2], uint16(s.Service))
	putLE16(tmp[2:4], uint16(s.Instance))
	putLE16(tmp[4:6], uint16(s.Eventgroup))
	tmp[6] = byte(s.Major)
	putLE16(tmp[7:9], uint16(s.Event))
	buf = append(buf, tmp[:]...)
	var pid [4]byte
	putLE32(pid[:], uint32(s.PendingID))
	buf = append(buf, pid[:]...)
	return append(buf, s.Filter...)
}

const subscribeFixedSize = 2 + 2 + 2 + 1 + 2 + 4

// DecodeSubscribe parses a SUBSCRIBE payload. Any bytes beyond the fixed
// prefix are the optional filter.
func DecodeSubscribe(payload []byte) (Subscribe, error) {
	if err := need(payload, subscribeFixedSize); err != nil {
		return Subscribe{}, err
	}
	s := Subscribe{
		Service:    ServiceId(getLE16(payload[0:2])),
		Instance:   InstanceId(getLE16(payload[2:4])),
		Eventgroup: EventgroupId(getLE16(payload[4:6])),
		Major:      MajorVersion(payload[6]),
		Event:      EventId(getLE16(payload[7:9])),
		PendingID:  PendingId(getLE32(payload[9:13])),
	}
	if len(payload) > subscribeFixedSize {
		s.Filter = append([]byte(nil), payload[subscribeFixedSize:]...)
	}
	return s, nil
}

// Unsubscribe and Expire share a payload shape.
type Unsubscribe struct {
	Service    ServiceId
	Instance   InstanceId
	Eventgroup EventgroupId
	Major      MajorVersion
	Event      EventId
	PendingID  PendingId
}

// Encode appends the wire form of u to buf.
func (u Unsubscribe) Encode(buf []byte) []byte {
	var tmp [9]byte
	putLE16(tmp[0:2], uint16(u.Service))
	putLE16(tmp[2:4], uint16(u.Instance))
	putLE16(tmp[4:6], uint16(u.Eventgroup))
	tmp[6] = byte(u.Major)
	putLE16(tmp[7:9], uint16(u.Event))
	buf = append(buf, tmp[:]...)
	var pid [4]byte
	putLE32(pid[:], uint32(u.PendingID))
	return append(buf, pid[:]...)
}

// DecodeUnsubscribe parses an UNSUBSCRIBE / EXPIRE payload.
func DecodeUnsubscribe(payload []byte) (Unsubscribe, error) {
	if err := need(payload, 13); err != nil {
		return Unsubscribe{}, err
	}
	return Unsubscribe{
		Service:    ServiceId(getLE16(payload[0:2])),
		Instance:   InstanceId(getLE16(payload[2:4])),
		Eventgroup: EventgroupId(getLE16(payload[4:6])),
		Major:      MajorVersion(payload[6]),
		Event:      EventId(getLE16(payload[7:9])),
		PendingID:  PendingId(getLE32(payload[9:13])),
	}, nil
}

// SubscribeAck and SubscribeNack share a payload shape.
type SubscribeAck struct {
	Service    ServiceId
	Instance   InstanceId
	Eventgroup EventgroupId
	Subscriber ClientId
	Event      EventId
	PendingID  PendingId
}

// Encode appends the wire form of a to buf.
func (a SubscribeAck) Encode(buf []byte) []byte {
	var tmp [10]byte
	putLE16(tmp[0:2], uint16(a.Service))
	putLE16(tmp[2:4], uint16(a.Instance))
	putLE16(tmp[4:6], uint16(a.Eventgroup))
	putLE16(tmp[6:8], uint16(a.Subscriber))
	putLE16(tmp[8:10], uint16(a.Event))
	buf = append(buf, tmp[:]...)
	var pid [4]byte
	putLE32(pid[:], uint32(a.PendingID))
	return append(buf, pid[:]...)
}

// DecodeSubscribeAck parses a SUBSCRIBE_ACK / SUBSCRIBE_NACK payload.
func DecodeSubscribeAck(payload []byte) (SubscribeAck, error) {
	if err := need(payload, 14); err != nil {
		return SubscribeAck{}, err
	}
	return SubscribeAck{
		Service:    ServiceId(getLE16(payload[0:2])),
		Instance:   InstanceId(getLE16(payload[2:4])),
		Eventgroup: EventgroupId(getLE16(payload[4:6])),
		Subscriber: ClientId(getLE16(payload[6:8])),
		Event:      EventId(getLE16(payload[8:10])),
		PendingID:  PendingId(getLE32(payload[10:14])),
	}, nil
}

// UnsubscribeAck carries the minimal identity needed to correlate an
// UNSUBSCRIBE with its acknowledgment.
type UnsubscribeAck struct {
	Service    ServiceId
	Instance   InstanceId
	Eventgroup EventgroupId
	PendingID  PendingId
}

// Encode appends the wire form of a to buf.
func (a UnsubscribeAck) Encode(buf []byte) []byte {
	var tmp [6]byte
	putLE16(tmp[0:2], uint16(a.Service))
	putLE16(tmp[2:4], uint16(a.Instance))
	putLE16(tmp[4:6], uint16(a.Eventgroup))
	buf = append(buf, tmp[:]...)
	var pid [4]byte
	putLE32(pid[:], uint32(a.PendingID))
	return append(buf, pid[:]...)
}

// DecodeUnsubscribeAck parses an UNSUBSCRIBE_ACK payload.
func DecodeUnsubscribeAck(payload []byte) (UnsubscribeAck, error) {
	if err := need(payload, 10); err != nil {
		return UnsubscribeAck{}, err
	}
	return UnsubscribeAck{
		Service:    ServiceId(getLE16(payload[0:2])),
		Instance:   InstanceId(getLE16(payload[2:4])),
		Eventgroup: EventgroupId(getLE16(payload[4:6])),
		PendingID:  PendingId(getLE32(payload[6:10])),
	}, nil
}
