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

package hub

import (
	"context"

	"github.com/someip-fabric/routingcore/internal/policy"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

func (h *Hub) handleUpdateSecurityPolicy(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUpdateSecurityPolicy(body)
	if err != nil {
		h.logger.Warn("malformed UPDATE_SECURITY_POLICY", "client", client, "error", err)
		return
	}
	uid, _ := h.principalOf(client)
	p := policy.FromWire(req.Policy.Uid, req.Policy.Gid, req.Policy.Requests, req.Policy.Offers)
	if !h.policies.IsPolicyUpdateAllowed(context.Background(), uid, p) {
		h.logger.Warn("rejected security policy update from non-whitelisted sender", "client", client, "uid", uid)
		return
	}
	h.policies.UpsertPolicy(p)
	h.send(client, protocol.CommandUpdateSecurityPolicyResponse, protocol.SecurityUpdateResponse{UpdateID: req.UpdateID}.Encode(nil))
}

func (h *Hub) handleRemoveSecurityPolicy(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeRemoveSecurityPolicy(body)
	if err != nil {
		h.logger.Warn("malformed REMOVE_SECURITY_POLICY", "client", client, "error", err)
		return
	}
	h.policies.RemovePolicy(req.Uid, req.Gid)
	h.suspendPrincipal(req.Uid, req.Gid)
	h.send(client, protocol.CommandRemoveSecurityPolicyResponse, protocol.SecurityUpdateResponse{UpdateID: req.UpdateID}.Encode(nil))
}

// suspendPrincipal sends SUSPEND to every connected client matching (uid,
// gid), so a revoked policy takes effect immediately instead of waiting
// for that client's next offer or request to be rejected.
func (h *Hub) suspendPrincipal(uid protocol.Uid, gid protocol.Gid) {
	for _, client := range h.table.Clients() {
		cuid, cgid := h.principalOf(client)
		if cuid == uid && cgid == gid {
			h.send(client, protocol.CommandSuspend, nil)
		}
	}
}

func (h *Hub) handleDistributeSecurityPolicies(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeDistributeSecurityPolicies(body)
	if err != nil {
		h.logger.Warn("malformed DISTRIBUTE_SECURITY_POLICIES", "client", client, "error", err)
		return
	}
	policies := make([]policy.Policy, 0, len(req.Policies))
	for _, wire := range req.Policies {
		policies = append(policies, policy.FromWire(wire.Uid, wire.Gid, wire.Requests, wire.Offers))
	}
	h.policies.LoadPolicies(policies)
}

func (h *Hub) handleUpdateSecurityCredentials(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeUpdateSecurityCredentials(body)
	if err != nil {
		h.logger.Warn("malformed UPDATE_SECURITY_CREDENTIALS", "client", client, "error", err)
		return
	}
	// Credential recognition is folded directly into policy matching
	// (CheckCredentials consults the loaded policy set); there is no
	// separate credential table to update here beyond what UpsertPolicy
	// already maintains.
	_ = req
}
