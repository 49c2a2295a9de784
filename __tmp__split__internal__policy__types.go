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

// Package policy implements the UID/GID credential and service/instance/
// method access control engine (C2): loaded policy files, dynamically
// distributed policies, and the per-principal decision cache that
// accelerates repeated checks.
package policy

import "github.com/someip-fabric/routingcore/internal/protocol"

// UidInterval is a closed, inclusive range of UIDs.
type UidInterval struct {
	Low  protocol.Uid
	High protocol.Uid
}

// Contains reports whether uid falls within the interval.
func (iv UidInterval) Contains(uid protocol.Uid) bool {
	return uid >= iv.Low && uid <= iv.High
}

// GidInterval is a closed, inclusive range of GIDs.
type GidInterval struct {
	Low  protocol.Gid
	High protocol.Gid
}

// Contains reports whether gid falls within the interval.
func (iv GidInterval) Contains(gid protocol.Gid) bool {
	return gid >= iv.Low && gid <= iv.High
}

// CredentialEntry pairs a UID range with the GID ranges accepted for it.
type CredentialEntry struct {
	Uids UidInterval
	Gids []GidInterval
}

// Matches reports whether (uid, gid) satisfies this credential entry.
func (c CredentialEntry) Matches(uid protocol.Uid, gid protocol.Gid) bool {
	if !c.Uids.Contains(uid) {
		return false
	}
	for _, g := range c.Gids {
		if g.Contains(gid) {
			return true
		}
	}
	return false
}

// Policy is one loaded or dynamically distributed access control entry.
// AllowWho governs credential matching semantics: when true, a principal
// matching Credentials is accepted; when false, a matching principal is
// rejected (a deny-list entry). AllowWhat governs request/offer matching
// the same way.
type Policy struct {
	Credentials []CredentialEntry
	AllowWho    bool

	Requests  []protocol.RequestEntry
	Offers    []protocol.OfferEntry
	AllowWhat bool
}

// MatchesCredentials reports whether (uid, gid) is accepted by p under
// AllowWho semantics.
func (p Policy) MatchesCredentials(uid protocol.Uid, gid protocol.Gid) bool {
	hit := false
	for _, c := range p.Credentials {
		if c.Matches(uid, gid) {
			hit = true
			break
		}
	}
	return hit == p.AllowWho
}

// matchesRequest reports whether (service, instance, method) is listed in
// p.Requests.
func (p Policy) matchesRequest(service protocol.ServiceId, instance protocol.InstanceId, method protocol.MethodId) bool {
	for _, r := range p.Requests {
		if r.Service != service {
			continue
		}
		if !r.Instances.Contains(uint16(instance)) {
			continue
		}
		if r.Methods.Contains(uint16(method)) {
			return true
		}
	}
	return false
}

// matchesOffer reports whether (service, instance) is listed in p.Offers.
func (p Policy) matchesOffer(service protocol.ServiceId, instance protocol.InstanceId) bool {
	for _, o := range p.Offers {
		if o.Service != service {
			continue
		}
		if o.Instances.Contains(uint16(instance)) {
			return true
		}
	}
	return false
}

// FromWire builds the Policy the engine enforces from a wire-decoded
// UPDATE_SECURITY_POLICY payload. Dynamically distributed policies always
// carry a single (uid, gid) pair and are always allow entries.
func FromWire(uid protocol.Uid, gid protocol.Gid, requests []protocol.RequestEntry, offers []protocol.OfferEntry) Policy {
	return Policy{
		Credentials: []CredentialEntry{{
			Uids: UidInterval{Low: uid, High: uid},
			Gids: []GidInterval{{Low: gid, High: gid}},
		}},
		AllowWho:  true,
		Requests:  requests,
		Offers:    offers,
		AllowWhat: true,
	}
}


