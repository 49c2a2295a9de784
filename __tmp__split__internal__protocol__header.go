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

// StartTag and EndTag are the magic markers bracketing every command
// frame. A frame missing either tag at the expected offset is rejected
// with ErrMismatch rather than resynchronized.
const (
	StartTag uint32 = 0x67363534
	EndTag   uint32 = 0x37363534
)

// CommandID identifies the kind of a command frame.
type CommandID uint8

// Command catalog. Values are stable across releases; never renumber.
const (
	CommandAssignClient CommandID = iota + 1
	CommandAssignClientAck
	CommandRegisterApplication
	CommandDeregisterApplication
	CommandRegisteredAck
	CommandPing
	CommandPong
	CommandOfferService
	CommandStopOfferService
	CommandRequestService
	CommandReleaseService
	CommandSubscribe
	CommandUnsubscribe
	CommandSubscribeAck
	CommandSubscribeNack
	CommandUnsubscribeAck
	CommandExpire
	CommandRegisterEvent
	CommandUnregisterEvent
	CommandSend
	CommandNotify
	CommandNotifyOne
	CommandRoutingInfo
	CommandOfferedServicesRequest
	CommandOfferedServicesResponse
	CommandResendProvidedEvents
	CommandUpdateSecurityPolicy
	CommandUpdateSecurityPolicyInt
	CommandUpdateSecurityPolicyResponse
	CommandRemoveSecurityPolicy
	CommandRemoveSecurityPolicyResponse
	CommandDistributeSecurityPolicies
	CommandUpdateSecurityCredentials
	CommandConfig
	CommandSuspend
)

// HeaderSize is the fixed size, in bytes, of every command frame's
// leading header: start_tag(4) + client_id(2) + command_id(1) + payload_size(4).
const HeaderSize = 4 + 2 + 1 + 4

// Header is the fixed leading section of every command frame.
type Header struct {
	ClientID    ClientId
	CommandID   CommandID
	PayloadSize uint32
}

// EncodeHeader appends the wire form of h, including the leading start
// tag, to buf and returns the result.
func EncodeHeader(buf []byte, h Header) []byte {
	var tmp [HeaderSize]byte
	putLE32(tmp[0:4], StartTag)
	putLE16(tmp[4:6], uint16(h.ClientID))
	tmp[6] = byte(h.CommandID)
	putLE32(tmp[7:11], h.PayloadSize)
	return append(buf, tmp[:]...)
}

// DecodeHeader parses a Header from the front of buf. It returns the
// header and the number of bytes consumed.
func DecodeHeader(buf []byte) (Header, int, error) {
	if err := need(buf, HeaderSize); err != nil {
		return Header{}, 0, err
	}
	if tag := getLE32(buf[0:4]); tag != StartTag {
		return Header{}, 0, ErrMismatch
	}
	h := Header{
		ClientID:    ClientId(getLE16(buf[4:6])),
		CommandID:   CommandID(buf[6]),
		PayloadSize: getLE32(buf[7:11]),
	}
	return h, HeaderSize, nil
}


