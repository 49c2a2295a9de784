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

package policy

import (
	"context"
	"log/slog"
	"sync"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

// AuditLogger records policy decisions. In enforce mode only denials are
// interesting operationally; in audit mode every decision is recorded
// since none of them actually gate behavior.
type AuditLogger interface {
	LogDecision(ctx context.Context, d Decision)
}

// Decision is one recorded policy outcome.
type Decision struct {
	Uid     protocol.Uid
	Gid     protocol.Gid
	Action  string
	Allowed bool
	Mode    config.PolicyMode
}

// noopAuditLogger discards every decision.
type noopAuditLogger struct{}

func (noopAuditLogger) LogDecision(context.Context, Decision) {}

// Store is the runtime policy engine: loaded/distributed policies plus
// the whitelist configuration governing policy updates themselves.
type Store struct {
	mu       sync.RWMutex
	mode     config.PolicyMode
	policies []Policy

	enabled          bool
	checkCredentials bool
	checkWhitelist   bool
	updateWhitelist  map[protocol.Uid]struct{}
	serviceWhitelist map[protocol.ServiceId]struct{}

	cache  *decisionCache
	audit  AuditLogger
	logger *slog.Logger
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithAuditLogger installs a non-default AuditLogger.
func WithAuditLogger(l AuditLogger) Option {
	return func(s *Store) { s.audit = l }
}

// WithLogger installs a non-default slog.Logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New builds a Store from security configuration.
func New(cfg config.Security, opts ...Option) *Store {
	s := &Store{
		mode:             cfg.Mode,
		enabled:          cfg.Enabled,
		checkCredentials: cfg.CheckCredentials,
		checkWhitelist:   cfg.CheckWhitelist,
		updateWhitelist:  make(map[protocol.Uid]struct{}, len(cfg.UpdateWhitelistUIDs)),
		serviceWhitelist: make(map[protocol.ServiceId]struct{}, len(cfg.ServiceWhitelist)),
		cache:            newDecisionCache(),
		audit:            noopAuditLogger{},
		logger:           slog.Default(),
	}
	for _, uid := range cfg.UpdateWhitelistUIDs {
		s.updateWhitelist[protocol.Uid(uid)] = struct{}{}
	}
	for _, svc := range cfg.ServiceWhitelist {
		s.serviceWhitelist[protocol.ServiceId(svc)] = struct{}{}
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// enforced returns the final answer for computed, applying audit-mode
// fail-open semantics: every call in audit mode returns allowed, but the
// computed decision is still logged.
func (s *Store) enforced(ctx context.Context, action string, uid protocol.Uid, gid protocol.Gid, computed bool) bool {
	s.audit.LogDecision(ctx, Decision{Uid: uid, Gid: gid, Action: action, Allowed: computed, Mode: s.mode})
	if s.mode == config.PolicyModeAudit {
		return true
	}
	return computed
}

// LoadPolicies replaces the full policy set, for example from a policy
// file read at startup or a DISTRIBUTE_SECURITY_POLICIES command.
func (s *Store) LoadPolicies(policies []Policy) {
	s.mu.Lock()
	s.policies = policies
	s.mu.Unlock()
	s.cache.invalidateAll()
}

// UpsertPolicy adds or replaces the policy for the (uid, gid) carried by
// an UPDATE_SECURITY_POLICY command, invalidating any cached decisions
// for that principal.
func (s *Store) UpsertPolicy(p Policy) {
	var uid protocol.Uid
	var gid protocol.Gid
	if len(p.Credentials) > 0 {
		uid, gid = p.Credentials[0].Uids.Low, p.Credentials[0].Gids[0].Low
	}

	s.mu.Lock()
	replaced := false
	for i, existing := range s.policies {
		if len(existing.Credentials) > 0 && existing.Credentials[0].Uids.Low == uid && existing.Credentials[0].Gids[0].Low == gid {
			s.policies[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		s.policies = append(s.policies, p)
	}
	s.mu.Unlock()

	s.cache.invalidate(uid, gid)
}

// RemovePolicy withdraws the policy for (uid, gid).
func (s *Store) RemovePolicy(uid protocol.Uid, gid protocol.Gid) {
	s.mu.Lock()
	kept := s.policies[:0]
	for _, existing := range s.policies {
		if len(existing.Credentials) > 0 && existing.Credentials[0].Uids.Low == uid && existing.Credentials[0].Gids[0].Low == gid {
			continue
		}
		kept = append(kept, existing)
	}
	s.policies = kept
	s.mu.Unlock()

	s.cache.invalidate(uid, gid)
}

// ReloadWhitelist replaces the update/service whitelists, invalidating
// every cached decision since whitelist membership affects every
// principal's is_policy_update_allowed outcome.
func (s *Store) ReloadWhitelist(updateUIDs []protocol.Uid, services []protocol.ServiceId) {
	s.mu.Lock()
	s.updateWhitelist = make(map[protocol.Uid]struct{}, len(updateUIDs))
	for _, uid := range updateUIDs {
		s.updateWhitelist[uid] = struct{}{}
	}
	s.serviceWhitelist = make(map[protocol.ServiceId]struct{}, len(services))
	for _, svc := range services {
		s.serviceWhitelist[svc] = struct{}{}
	}
	s.mu.Unlock()

	s.cache.invalidateAll()
}

// CheckCredentials reports whether client is allowed to act as principal
// (uid, gid). If credential checking is disabled, every principal is
// accepted.
func (s *Store) CheckCredentials(ctx context.Context, client protocol.ClientId, uid protocol.Uid, gid protocol.Gid) bool {
	if !s.checkCredentials {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.policies {
		if p.MatchesCredentials(uid, gid) {
			return s.enforced(ctx, "check_credentials", uid, gid, true)
		}
	}
	return s.enforced(ctx, "check_credentials", uid, gid, false)
}

// IsClientAllowed reports whether (uid, gid) may request (service,
// instance, method); isRequestService only separates cache entries and
// does not change the check. The first matching
// policy wins; an allow policy matches only on positive hit, a deny
// policy matches when the tuple is not listed. If policy enforcement is
// disabled, every request is allowed.
func (s *Store) IsClientAllowed(ctx context.Context, uid protocol.Uid, gid protocol.Gid, service protocol.ServiceId, instance protocol.InstanceId, method protocol.MethodId, isRequestService bool) bool {
	if !s.enabled {
		return s.enforced(ctx, "is_client_allowed", uid, gid, true)
	}
	key := lookupKey{Uid: uid, Gid: gid, Service: service, Instance: instance, Method: method, IsRequestService: isRequestService}
	if s.cache.get(uid, gid, key) {
		return s.enforced(ctx, "is_client_allowed", uid, gid, true)
	}

	s.mu.RLock()
	allowed := false
	for _, p := range s.policies {
		if !p.MatchesCredentials(uid, gid) {
			continue
		}
		hit := p.matchesRequest(service, instance, method)
		if hit == p.AllowWhat {
			allowed = true
			break
		}
	}
	s.mu.RUnlock()

	if allowed {
		s.cache.put(uid, gid, key)
	}
	return s.enforced(ctx, "is_client_allowed", uid, gid, allowed)
}

// IsOfferAllowed reports whether (uid, gid) may offer (service, instance).
// If policy enforcement is disabled, every offer is allowed.
func (s *Store) IsOfferAllowed(ctx context.Context, uid protocol.Uid, gid protocol.Gid, service protocol.ServiceId, instance protocol.InstanceId) bool {
	if !s.enabled {
		return s.enforced(ctx, "is_offer_allowed", uid, gid, true)
	}
	key := lookupKey{Uid: uid, Gid: gid, Service: service, Instance: instance, IsOffer: true}
	if s.cache.get(uid, gid, key) {
		return s.enforced(ctx, "is_offer_allowed", uid, gid, true)
	}

	s.mu.RLock()
	allowed := false
	for _, p := range s.policies {
		if !p.MatchesCredentials(uid, gid) {
			continue
		}
		hit := p.matchesOffer(service, instance)
		if hit == p.AllowWhat {
			allowed = true
			break
		}
	}
	s.mu.RUnlock()

	if allowed {
		s.cache.put(uid, gid, key)
	}
	return s.enforced(ctx, "is_offer_allowed", uid, gid, allowed)
}

// IsPolicyUpdateAllowed reports whether uid may submit p as a dynamic
// policy update. If whitelist checking is disabled the update is always
// allowed but the decision is still logged.
func (s *Store) IsPolicyUpdateAllowed(ctx context.Context, uid protocol.Uid, p Policy) bool {
	if !s.checkWhitelist {
		return s.enforced(ctx, "is_policy_update_allowed", uid, 0, true)
	}

	s.mu.RLock()
	_, uidOK := s.updateWhitelist[uid]
	servicesOK := true
	for _, r := range p.Requests {
		if _, ok := s.serviceWhitelist[r.Service]; !ok {
			servicesOK = false
			break
		}
	}
	if servicesOK {
		for _, o := range p.Offers {
			if _, ok := s.serviceWhitelist[o.Service]; !ok {
				servicesOK = false
				break
			}
		}
	}
	s.mu.RUnlock()

	return s.enforced(ctx, "is_policy_update_allowed", uid, 0, uidOK && servicesOK)
}
