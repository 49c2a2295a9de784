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

// EventRegistration is one element of a REGISTER_EVENT payload.
type EventRegistration struct {
	Service     ServiceId
	Instance    InstanceId
	Event       EventId
	Eventgroups []EventgroupId
	IsField     bool
	IsProvided  bool
}

const eventRegistrationFixedSize = 2 + 2 + 2 + 2 + 1

// Encode appends the wire form of e to buf: service, instance, event,
// eventgroup count, eventgroups, is_field, is_provided.
func (e EventRegistration) Encode(buf []byte) []byte {
	var head [6]byte
	putLE16(head[0:2], uint16(e.Service))
	putLE16(head[2:4], uint16(e.Instance))
	putLE16(head[4:6], uint16(e.Event))
	buf = append(buf, head[:]...)

	var count [2]byte
	putLE16(count[:], uint16(len(e.Eventgroups)))
	buf = append(buf, count[:]...)
	for _, eg := range e.Eventgroups {
		var tmp [2]byte
		putLE16(tmp[:], uint16(eg))
		buf = append(buf, tmp[:]...)
	}

	flags := byte(0)
	if e.IsField {
		flags |= 1
	}
	if e.IsProvided {
		flags |= 2
	}
	return append(buf, flags)
}

func decodeEventRegistration(buf []byte) (EventRegistration, int, error) {
	if err := need(buf, 8); err != nil {
		return EventRegistration{}, 0, err
	}
	e := EventRegistration{
		Service:  ServiceId(getLE16(buf[0:2])),
		Instance: InstanceId(getLE16(buf[2:4])),
		Event:    EventId(getLE16(buf[4:6])),
	}
	count := int(getLE16(buf[6:8]))
	off := 8
	if err := need(buf[off:], count*2+1); err != nil {
		return EventRegistration{}, 0, err
	}
	for i := 0; i < count; i++ {
		e.Eventgroups = append(e.Eventgroups, EventgroupId(getLE16(buf[off:off+2])))
		off += 2
	}
	flags := buf[off]
	off++
	e.IsField = flags&1 != 0
	e.IsProvided = flags&2 != 0
	return e, off, nil
}

// RegisterEvent is a count-prefixed list of event registrations.
type RegisterEvent struct {
	Events []EventRegistration
}

// Encode appends the wire form of r to buf: a u16 count followed by each
// registration in turn.
func (r RegisterEvent) Encode(buf []byte) []byte {
	var count [2]byte
	putLE16(count[:], uint16(len(r.Events)))
	buf = append(buf, count[:]...)
	for _, e := range r.Events {
		buf = e.Encode(buf)
	}
	return buf
}

// DecodeRegisterEvent parses a REGISTER_EVENT payload.
func DecodeRegisterEvent(payload []byte) (RegisterEvent, error) {
	if err := need(payload, 2); err != nil {
		return RegisterEvent{}, err
	}
	count := int(getLE16(payload[0:2]))
	off := 2
	r := RegisterEvent{}
	for i := 0; i < count; i++ {
		e, n, err := decodeEventRegistration(payload[off:])
		if err != nil {
			return RegisterEvent{}, err
		}
		r.Events = append(r.Events, e)
		off += n
	}
	return r, nil
}

// UnregisterEvent withdraws a previously registered event or field.
type UnregisterEvent struct {
	Service    ServiceId
	Instance   InstanceId
	Event      EventId
	IsProvided bool
}

// Encode appends the wire form of u to buf.
func (u UnregisterEvent) Encode(buf []byte) []byte {
	var tmp [6]byte
	putLE16(tmp[0:2], uint16(u.Service))
	putLE16(tmp[2:4], uint16(u.Instance))
	putLE16(tmp[4:6], uint16(u.Event))
	buf = append(buf, tmp[:]...)
	if u.IsProvided {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// DecodeUnregisterEvent parses an UNREGISTER_EVENT payload.
func DecodeUnregisterEvent(payload []byte) (UnregisterEvent, error) {
	if err := need(payload, 7); err != nil {
		return UnregisterEvent{}, err
	}
	return UnregisterEvent{
		Service:    ServiceId(getLE16(payload[0:2])),
		Instance:   InstanceId(getLE16(payload[2:4])),
		Event:      EventId(getLE16(payload[4:6])),
		IsProvided: payload[6] != 0,
	}, nil
}
