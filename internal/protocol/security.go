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

// UpdateSecurityPolicy carries a policy update. Used for both
// UPDATE_SECURITY_POLICY and UPDATE_SECURITY_POLICY_INT; the two differ
// only in which command id wraps them.
type UpdateSecurityPolicy struct {
	UpdateID PendingSecurityUpdateId
	Policy   Policy
}

// Encode appends the wire form of u to buf.
func (u UpdateSecurityPolicy) Encode(buf []byte) []byte {
	var tmp [4]byte
	putLE32(tmp[:], uint32(u.UpdateID))
	buf = append(buf, tmp[:]...)
	return EncodePolicy(buf, u.Policy)
}

// DecodeUpdateSecurityPolicy parses an UPDATE_SECURITY_POLICY(_INT) payload.
func DecodeUpdateSecurityPolicy(payload []byte) (UpdateSecurityPolicy, error) {
	if err := need(payload, 4); err != nil {
		return UpdateSecurityPolicy{}, err
	}
	updateID := PendingSecurityUpdateId(getLE32(payload[0:4]))
	policy, _, err := DecodePolicy(payload[4:])
	if err != nil {
		return UpdateSecurityPolicy{}, err
	}
	return UpdateSecurityPolicy{UpdateID: updateID, Policy: policy}, nil
}

// SecurityUpdateResponse carries the update_id of a completed policy
// update or removal. Shared by UPDATE_SECURITY_POLICY_RESPONSE and
// REMOVE_SECURITY_POLICY_RESPONSE.
type SecurityUpdateResponse struct {
	UpdateID PendingSecurityUpdateId
}

// Encode appends the wire form of r to buf.
func (r SecurityUpdateResponse) Encode(buf []byte) []byte {
	var tmp [4]byte
	putLE32(tmp[:], uint32(r.UpdateID))
	return append(buf, tmp[:]...)
}

// DecodeSecurityUpdateResponse parses a security update response payload.
func DecodeSecurityUpdateResponse(payload []byte) (SecurityUpdateResponse, error) {
	if err := need(payload, 4); err != nil {
		return SecurityUpdateResponse{}, err
	}
	return SecurityUpdateResponse{UpdateID: PendingSecurityUpdateId(getLE32(payload[0:4]))}, nil
}

// RemoveSecurityPolicy identifies a policy to withdraw by principal.
type RemoveSecurityPolicy struct {
	UpdateID PendingSecurityUpdateId
	Uid      Uid
	Gid      Gid
}

// Encode appends the wire form of r to buf.
func (r RemoveSecurityPolicy) Encode(buf []byte) []byte {
	var tmp [12]byte
	putLE32(tmp[0:4], uint32(r.UpdateID))
	putLE32(tmp[4:8], uint32(r.Uid))
	putLE32(tmp[8:12], uint32(r.Gid))
	return append(buf, tmp[:]...)
}

// DecodeRemoveSecurityPolicy parses a REMOVE_SECURITY_POLICY payload.
func DecodeRemoveSecurityPolicy(payload []byte) (RemoveSecurityPolicy, error) {
	if err := need(payload, 12); err != nil {
		return RemoveSecurityPolicy{}, err
	}
	return RemoveSecurityPolicy{
		UpdateID: PendingSecurityUpdateId(getLE32(payload[0:4])),
		Uid:      Uid(getLE32(payload[4:8])),
		Gid:      Gid(getLE32(payload[8:12])),
	}, nil
}

// DistributeSecurityPolicies carries a batch of serialized policies. The
// wire format allows a count that does not match the number of entries
// actually present; decoding canonicalizes to len(Policies) rather than
// trusting the declared count.
type DistributeSecurityPolicies struct {
	Policies []Policy
}

// Encode appends the wire form of d to buf.
func (d DistributeSecurityPolicies) Encode(buf []byte) []byte {
	var count [4]byte
	putLE32(count[:], uint32(len(d.Policies)))
	buf = append(buf, count[:]...)
	for _, p := range d.Policies {
		encoded := EncodePolicy(nil, p)
		var size [4]byte
		putLE32(size[:], uint32(len(encoded)))
		buf = append(buf, size[:]...)
		buf = append(buf, encoded...)
	}
	return buf
}

// DecodeDistributeSecurityPolicies parses a DISTRIBUTE_SECURITY_POLICIES
// payload. The leading count is read but not trusted: parsing continues
// until the payload is exhausted, and the returned Policies slice is the
// authoritative count.
func DecodeDistributeSecurityPolicies(payload []byte) (DistributeSecurityPolicies, error) {
	if err := need(payload, 4); err != nil {
		return DistributeSecurityPolicies{}, err
	}
	off := 4
	var d DistributeSecurityPolicies
	for off < len(payload) {
		if err := need(payload[off:], 4); err != nil {
			return DistributeSecurityPolicies{}, err
		}
		size := int(getLE32(payload[off : off+4]))
		off += 4
		if err := need(payload[off:], size); err != nil {
			return DistributeSecurityPolicies{}, err
		}
		p, _, err := DecodePolicy(payload[off : off+size])
		if err != nil {
			return DistributeSecurityPolicies{}, err
		}
		d.Policies = append(d.Policies, p)
		off += size
	}
	return d, nil
}

// Principal pairs a Uid and Gid for UPDATE_SECURITY_CREDENTIALS.
type Principal struct {
	Uid Uid
	Gid Gid
}

// UpdateSecurityCredentials carries a set of principals whose credentials
// are now recognized.
type UpdateSecurityCredentials struct {
	Principals []Principal
}

// Encode appends the wire form of u to buf.
func (u UpdateSecurityCredentials) Encode(buf []byte) []byte {
	for _, p := range u.Principals {
		var tmp [8]byte
		putLE32(tmp[0:4], uint32(p.Uid))
		putLE32(tmp[4:8], uint32(p.Gid))
		buf = append(buf, tmp[:]...)
	}
	return buf
}

// DecodeUpdateSecurityCredentials parses an UPDATE_SECURITY_CREDENTIALS
// payload, whose entry count is implied by len(payload) / 8.
func DecodeUpdateSecurityCredentials(payload []byte) (UpdateSecurityCredentials, error) {
	if len(payload)%8 != 0 {
		return UpdateSecurityCredentials{}, ErrNotEnoughBytes
	}
	var u UpdateSecurityCredentials
	for off := 0; off < len(payload); off += 8 {
		u.Principals = append(u.Principals, Principal{
			Uid: Uid(getLE32(payload[off : off+4])),
			Gid: Gid(getLE32(payload[off+4 : off+8])),
		})
	}
	return u, nil
}
