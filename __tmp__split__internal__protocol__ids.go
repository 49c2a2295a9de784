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

// Package protocol implements the bit-exact command-frame and policy codec
// shared by the hub and every spoke (C1). Command frames use host byte
// order (little-endian on every supported platform); the policy payload
// embedded in security commands is always big-endian, per §4.1.
package protocol

// ServiceId identifies a SOME/IP service.
type ServiceId uint16

// InstanceId identifies a specific instance of a service.
type InstanceId uint16

// EventgroupId identifies an eventgroup within a service.
type EventgroupId uint16

// EventId identifies an event or field within a service.
type EventId uint16

// MethodId identifies a method within a service.
type MethodId uint16

// ClientId identifies a local application registered with the hub.
type ClientId uint16

// MajorVersion is the major version of a service interface.
type MajorVersion uint8

// MinorVersion is the minor version of a service interface.
type MinorVersion uint32

// Uid is a UNIX user id used for policy credential matching.
type Uid uint32

// Gid is a UNIX group id used for policy credential matching.
type Gid uint32

// PendingId correlates an asynchronous subscription accept/reject with its
// originating SUBSCRIBE frame.
type PendingId uint32

// PendingSecurityUpdateId correlates a security policy update with its
// eventual UPDATE_SECURITY_POLICY_RESPONSE / timeout.
type PendingSecurityUpdateId uint32

// RemoteOfferId identifies a remote service offer for RESEND_PROVIDED_EVENTS.
type RemoteOfferId uint32

// Sentinel values from §3 of the data model.
const (
	AnyService  ServiceId    = 0xFFFF
	AnyInstance InstanceId   = 0xFFFF
	AnyEvent    EventId      = 0xFFFF
	AnyMethod   MethodId     = 0xFFFF
	AnyMajor    MajorVersion = 0xFF

	ClientUnset   ClientId = 0x0000
	RoutingClient ClientId = 0x0000

	PendingSubscriptionID PendingId = 0xFFFFFFFF

	IllegalPort uint16 = 0xFFFF

	// DefaultMajor/DefaultMinor are wildcard version markers accepted by
	// on_stop_offer_service in addition to an exact version match.
	DefaultMajor MajorVersion = 0xFF
	DefaultMinor MinorVersion = 0xFFFFFFFF
)

// ServiceRecord identifies an offered or requested (service, instance)
// at a specific interface version. Identity is (Service, Instance); two
// records with the same identity but different versions are distinct.
type ServiceRecord struct {
	Service  ServiceId
	Instance InstanceId
	Major    MajorVersion
	Minor    MinorVersion
}

// ServiceRecordSize is the wire size of one ServiceRecord: service(2) +
// instance(2) + major(1) + minor(4).
const ServiceRecordSize = 9


