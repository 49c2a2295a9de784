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

	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/registration"
)

func (h *Hub) handleOfferService(client protocol.ClientId, body []byte) {
	rec, err := protocol.DecodeOfferService(body)
	if err != nil {
		h.logger.Warn("malformed OFFER_SERVICE", "client", client, "error", err)
		return
	}
	uid, gid := h.principalOf(client)
	if !h.policies.IsOfferAllowed(context.Background(), uid, gid, rec.Service, rec.Instance) {
		return
	}
	updates := h.table.OnOfferService(client, rec.Service, rec.Instance, rec.Major, rec.Minor)
	h.deliverUpdates(updates)
	h.mirrorRoutingEvent(context.Background(), "service-offered", rec.Encode(nil))
}

func (h *Hub) handleStopOfferService(client protocol.ClientId, body []byte) {
	rec, err := protocol.DecodeOfferService(body)
	if err != nil {
		h.logger.Warn("malformed STOP_OFFER_SERVICE", "client", client, "error", err)
		return
	}
	updates := h.table.OnStopOfferService(client, rec.Service, rec.Instance, rec.Major, rec.Minor)
	h.deliverUpdates(updates)
}

// notifyOfferWithdrawn fabricates the DELETE_SERVICE_INSTANCE fan-out a
// clean STOP_OFFER_SERVICE would have produced, for a client that
// disappeared without announcing it first.
func (h *Hub) notifyOfferWithdrawn(client protocol.ClientId, rec protocol.ServiceRecord) {
	updates := h.table.OnStopOfferService(client, rec.Service, rec.Instance, protocol.DefaultMajor, protocol.DefaultMinor)
	h.deliverUpdates(updates)
}

func (h *Hub) handleRequestService(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeRequestService(body)
	if err != nil {
		h.logger.Warn("malformed REQUEST_SERVICE", "client", client, "error", err)
		return
	}
	st, ok := h.states.Load(client)
	if !ok {
		return
	}
	for _, rec := range req.Records {
		st.debouncer.Add(registration.RequestKey{Service: rec.Service, Instance: rec.Instance, Major: rec.Major, Minor: rec.Minor})
	}
}

func (h *Hub) flushRequests(client protocol.ClientId, keys []registration.RequestKey) {
	uid, gid := h.principalOf(client)
	for _, k := range keys {
		if !h.policies.IsClientAllowed(context.Background(), uid, gid, k.Service, k.Instance, protocol.AnyMethod, true) {
			continue
		}
		updates := h.table.OnRequestService(client, k.Service, k.Instance, k.Major, k.Minor)
		h.deliverUpdates(updates)
	}
}

func (h *Hub) handleReleaseService(client protocol.ClientId, body []byte) {
	req, err := protocol.DecodeReleaseService(body)
	if err != nil {
		h.logger.Warn("malformed RELEASE_SERVICE", "client", client, "error", err)
		return
	}
	h.table.OnReleaseService(client, req.Service, req.Instance)
}

func (h *Hub) handleOfferedServicesRequest(client protocol.ClientId, body []byte) {
	if _, err := protocol.DecodeOfferedServicesRequest(body); err != nil {
		h.logger.Warn("malformed OFFERED_SERVICES_REQUEST", "client", client, "error", err)
		return
	}
	// The response is always empty: no offers are enumerated, whatever
	// offer type was requested.
	h.send(client, protocol.CommandOfferedServicesResponse, protocol.OfferedServicesResponse{}.Encode(nil))
}


