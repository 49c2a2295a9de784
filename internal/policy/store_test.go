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

package policy_test

import (
	"context"
	"testing"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/policy"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/stretchr/testify/require"
)

func allowPolicy(uid protocol.Uid, gid protocol.Gid, service protocol.ServiceId) policy.Policy {
	return policy.FromWire(uid, gid,
		[]protocol.RequestEntry{{
			Service:   service,
			Instances: protocol.IntervalSet{{Low: 1, High: 1}},
			Methods:   protocol.IntervalSet{{Low: 1, High: 0xFFFE}},
		}},
		[]protocol.OfferEntry{{
			Service:   service,
			Instances: protocol.IntervalSet{{Low: 1, High: 1}},
		}},
	)
}

func TestIsClientAllowedMatchesLoadedPolicy(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Enabled: true, Mode: config.PolicyModeEnforce, CheckCredentials: true})
	s.LoadPolicies([]policy.Policy{allowPolicy(1000, 1000, 0x1234)})

	require.True(t, s.IsClientAllowed(context.Background(), 1000, 1000, 0x1234, 1, 5, true))
	require.False(t, s.IsClientAllowed(context.Background(), 1000, 1000, 0x5678, 1, 5, true))
	require.False(t, s.IsClientAllowed(context.Background(), 2000, 2000, 0x1234, 1, 5, true))
}

func TestIsOfferAllowedMatchesLoadedPolicy(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Enabled: true, Mode: config.PolicyModeEnforce, CheckCredentials: true})
	s.LoadPolicies([]policy.Policy{allowPolicy(1000, 1000, 0x1234)})

	require.True(t, s.IsOfferAllowed(context.Background(), 1000, 1000, 0x1234, 1))
	require.False(t, s.IsOfferAllowed(context.Background(), 1000, 1000, 0x1234, 2))
}

func TestAuditModeAlwaysAllows(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Enabled: true, Mode: config.PolicyModeAudit, CheckCredentials: true})
	require.True(t, s.IsClientAllowed(context.Background(), 9999, 9999, 0x1234, 1, 5, true))
}

func TestCheckCredentialsDisabledAllowsEverything(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Mode: config.PolicyModeEnforce, CheckCredentials: false})
	require.True(t, s.CheckCredentials(context.Background(), 1, 9999, 9999))
}

func TestRemovePolicyRevokesAccess(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Enabled: true, Mode: config.PolicyModeEnforce, CheckCredentials: true})
	s.LoadPolicies([]policy.Policy{allowPolicy(1000, 1000, 0x1234)})
	require.True(t, s.IsClientAllowed(context.Background(), 1000, 1000, 0x1234, 1, 5, true))

	s.RemovePolicy(1000, 1000)
	require.False(t, s.IsClientAllowed(context.Background(), 1000, 1000, 0x1234, 1, 5, true))
}

func TestIsPolicyUpdateAllowedRequiresWhitelist(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{
		Mode:                config.PolicyModeEnforce,
		CheckWhitelist:      true,
		UpdateWhitelistUIDs: []uint32{1000},
		ServiceWhitelist:    []uint16{0x1234},
	})

	p := allowPolicy(1000, 1000, 0x1234)
	require.True(t, s.IsPolicyUpdateAllowed(context.Background(), 1000, p))
	require.False(t, s.IsPolicyUpdateAllowed(context.Background(), 2000, p))

	other := allowPolicy(1000, 1000, 0x5678)
	require.False(t, s.IsPolicyUpdateAllowed(context.Background(), 1000, other))
}

func TestIsPolicyUpdateAllowedWhitelistDisabled(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{Mode: config.PolicyModeEnforce, CheckWhitelist: false})
	require.True(t, s.IsPolicyUpdateAllowed(context.Background(), 9999, allowPolicy(9999, 9999, 0x1234)))
}

func TestDisabledStoreAllowsEverything(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{})

	require.True(t, s.IsOfferAllowed(context.Background(), 1000, 1000, 0x1234, 1))
	require.True(t, s.IsClientAllowed(context.Background(), 1000, 1000, 0x1234, 1, 5, true))
}

func TestWhitelistReloadInvalidatesCache(t *testing.T) {
	t.Parallel()
	s := policy.New(config.Security{
		Mode:                config.PolicyModeEnforce,
		CheckWhitelist:      true,
		UpdateWhitelistUIDs: nil,
		ServiceWhitelist:    []uint16{0x1234},
	})
	p := allowPolicy(1000, 1000, 0x1234)
	require.False(t, s.IsPolicyUpdateAllowed(context.Background(), 1000, p))

	s.ReloadWhitelist([]protocol.Uid{1000}, []protocol.ServiceId{0x1234})
	require.True(t, s.IsPolicyUpdateAllowed(context.Background(), 1000, p))
}
