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

package routing

import "github.com/someip-fabric/routingcore/internal/protocol"

// Updates maps each affected client to the ordered routing-info entries
// that must be delivered to it in a single ROUTING_INFO command. Entries
// within a slice are already ordered so that an ADD_CLIENT for a given
// peer precedes any ADD_SERVICE_INSTANCE naming that peer.
type Updates map[protocol.ClientId][]protocol.RoutingInfoEntry

func (u Updates) addClientEntry(target, peer protocol.ClientId, addr peerAddress) {
	u[target] = append(u[target], protocol.RoutingInfoEntry{
		Type:    protocol.RoutingEntryAddClient,
		Client:  peer,
		Address: addr.Host,
		Port:    addr.Port,
	})
}

func (u Updates) serviceEntry(target protocol.ClientId, entryType protocol.RoutingEntryType, peer protocol.ClientId, recs []protocol.ServiceRecord) {
	u[target] = append(u[target], protocol.RoutingInfoEntry{
		Type:     entryType,
		Client:   peer,
		Services: recs,
	})
}

// requestMatches reports whether a requester's stored request for service
// matches instance, honoring the AnyInstance wildcard.
func requestMatches(requested map[protocol.InstanceId]serviceVersion, instance protocol.InstanceId) bool {
	if _, ok := requested[instance]; ok {
		return true
	}
	_, ok := requested[protocol.AnyInstance]
	return ok
}

// OnOfferService records that client now offers (service, instance, ver)
// and computes the routing-info updates that must follow: every existing
// requester matching (service, instance) or (service, ANY) is told about
// client (ADD_CLIENT, once) and given ADD_SERVICE_INSTANCE; client is
// symmetrically told about each such requester.
func (t *Table) OnOfferService(client protocol.ClientId, service protocol.ServiceId, instance protocol.InstanceId, major protocol.MajorVersion, minor protocol.MinorVersion) Updates {
	ver := serviceVersion{Major: major, Minor: minor}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.clients[client]
	if !ok {
		return nil
	}
	if rec.offers[service] == nil {
		rec.offers[service] = make(map[protocol.InstanceId]serviceVersion)
	}
	rec.offers[service][instance] = ver

	updates := make(Updates)
	svcRecord := []protocol.ServiceRecord{{Service: service, Instance: instance, Major: ver.Major, Minor: ver.Minor}}

	for requesterID, requester := range t.clients {
		if requesterID == client {
			continue
		}
		requested, ok := requester.requests[service]
		if !ok || !requestMatches(requested, instance) {
			continue
		}

		if _, told := requester.known[client]; !told {
			updates.addClientEntry(requesterID, client, rec.address)
			requester.known[client] = struct{}{}
		}
		updates.serviceEntry(requesterID, protocol.RoutingEntryAddServiceInstance, client, svcRecord)

		if _, told := rec.known[requesterID]; !told {
			updates.addClientEntry(client, requesterID, requester.address)
			rec.known[requesterID] = struct{}{}
		}
	}

	return updates
}

// OnStopOfferService withdraws (service, instance) from client, matching
// either the exact version or the DefaultMajor/DefaultMinor wildcard, and
// computes the DELETE_SERVICE_INSTANCE updates for every requester.
func (t *Table) OnStopOfferService(client protocol.ClientId, service protocol.ServiceId, instance protocol.InstanceId, major protocol.MajorVersion, minor protocol.MinorVersion) Updates {
	ver := serviceVersion{Major: major, Minor: minor}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.clients[client]
	if !ok {
		return nil
	}
	instances, ok := rec.offers[service]
	if !ok {
		return nil
	}
	existing, ok := instances[instance]
	if !ok {
		return nil
	}
	if ver.Major != protocol.DefaultMajor && ver.Minor != protocol.DefaultMinor && existing != ver {
		return nil
	}
	delete(instances, instance)
	if len(instances) == 0 {
		delete(rec.offers, service)
	}

	updates := make(Updates)
	svcRecord := []protocol.ServiceRecord{{Service: service, Instance: instance, Major: existing.Major, Minor: existing.Minor}}
	for requesterID, requester := range t.clients {
		if requesterID == client {
			continue
		}
		requested, ok := requester.requests[service]
		if !ok || !requestMatches(requested, instance) {
			continue
		}
		updates.serviceEntry(requesterID, protocol.RoutingEntryDeleteServiceInstance, client, svcRecord)
	}
	return updates
}

// OnRequestService records that client requests (service, instance) and
// replays ADD_SERVICE_INSTANCE for every provider already offering a
// match, alongside the corresponding ADD_CLIENT entries.
func (t *Table) OnRequestService(client protocol.ClientId, service protocol.ServiceId, instance protocol.InstanceId, major protocol.MajorVersion, minor protocol.MinorVersion) Updates {
	ver := serviceVersion{Major: major, Minor: minor}
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.clients[client]
	if !ok {
		return nil
	}
	if rec.requests[service] == nil {
		rec.requests[service] = make(map[protocol.InstanceId]serviceVersion)
	}
	rec.requests[service][instance] = ver

	updates := make(Updates)
	for providerID, provider := range t.clients {
		if providerID == client {
			continue
		}
		for offInst, offVer := range provider.offers[service] {
			if instance != protocol.AnyInstance && offInst != instance {
				continue
			}
			if _, told := rec.known[providerID]; !told {
				updates.addClientEntry(client, providerID, provider.address)
				rec.known[providerID] = struct{}{}
			}
			updates.serviceEntry(client, protocol.RoutingEntryAddServiceInstance, providerID,
				[]protocol.ServiceRecord{{Service: service, Instance: offInst, Major: offVer.Major, Minor: offVer.Minor}})

			if _, told := provider.known[client]; !told {
				updates.addClientEntry(providerID, client, rec.address)
				provider.known[client] = struct{}{}
			}
		}
	}
	return updates
}

// OnReleaseService withdraws client's request for (service, instance).
func (t *Table) OnReleaseService(client protocol.ClientId, service protocol.ServiceId, instance protocol.InstanceId) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.clients[client]
	if !ok {
		return
	}
	if instances, ok := rec.requests[service]; ok {
		delete(instances, instance)
		if len(instances) == 0 {
			delete(rec.requests, service)
		}
	}
}


