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

// AssignClient requests a ClientId for the named application. Name is
// advisory; the hub is free to assign any unused ClientId.
type AssignClient struct {
	Name string
}

// Encode appends the wire form of c to buf.
func (c AssignClient) Encode(buf []byte) []byte {
	return append(buf, []byte(c.Name)...)
}

// DecodeAssignClient parses an AssignClient payload. The entire remaining
// payload is the name; there is no length prefix.
func DecodeAssignClient(payload []byte) (AssignClient, error) {
	return AssignClient{Name: string(payload)}, nil
}

// AssignClientAck carries the ClientId assigned in response to
// AssignClient.
type AssignClientAck struct {
	Client ClientId
}

// Encode appends the wire form of a to buf.
func (a AssignClientAck) Encode(buf []byte) []byte {
	var tmp [2]byte
	putLE16(tmp[:], uint16(a.Client))
	return append(buf, tmp[:]...)
}

// DecodeAssignClientAck parses an AssignClientAck payload.
func DecodeAssignClientAck(payload []byte) (AssignClientAck, error) {
	if err := need(payload, 2); err != nil {
		return AssignClientAck{}, err
	}
	return AssignClientAck{Client: ClientId(getLE16(payload[0:2]))}, nil
}

// RegisterApplication announces a local port for an application that is
// completing registration. Port is IllegalPort when the application has
// no listening server endpoint of its own.
type RegisterApplication struct {
	Port uint16
}

// Encode appends the wire form of r to buf.
func (r RegisterApplication) Encode(buf []byte) []byte {
	var tmp [2]byte
	putLE16(tmp[:], r.Port)
	return append(buf, tmp[:]...)
}

// DecodeRegisterApplication parses a RegisterApplication payload.
func DecodeRegisterApplication(payload []byte) (RegisterApplication, error) {
	if err := need(payload, 2); err != nil {
		return RegisterApplication{}, err
	}
	return RegisterApplication{Port: getLE16(payload[0:2])}, nil
}
