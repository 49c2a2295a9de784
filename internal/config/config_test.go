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

package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/stretchr/testify/require"
)

func makeValidConfig() config.Config {
	return config.Config{
		LogLevel: config.LogLevelInfo,
		Network: config.Network{
			Name:                "test",
			Transport:           config.TransportUnix,
			BasePath:            "/tmp/routingcore-test",
			MaxMessageSizeLocal: 1024,
		},
		Watchdog: config.Watchdog{
			Enabled:             true,
			Timeout:             time.Second,
			AllowedMissingPongs: 2,
		},
		Security: config.Security{
			Mode: config.PolicyModeEnforce,
		},
		Database: config.Database{
			Driver:   config.DatabaseDriverSQLite,
			Database: "test.db",
		},
	}
}

func TestConfigValidateValid(t *testing.T) {
	t.Parallel()
	require.NoError(t, makeValidConfig().Validate())
}

func TestConfigValidateInvalidLogLevel(t *testing.T) {
	t.Parallel()
	c := makeValidConfig()
	c.LogLevel = "trace"
	require.True(t, errors.Is(c.Validate(), config.ErrInvalidLogLevel))
}

func TestNetworkValidateUnixRequiresBasePath(t *testing.T) {
	t.Parallel()
	n := config.Network{Transport: config.TransportUnix, MaxMessageSizeLocal: 1}
	require.True(t, errors.Is(n.Validate(), config.ErrBasePathRequired))
}

func TestNetworkValidateTCPRequiresPort(t *testing.T) {
	t.Parallel()
	n := config.Network{Transport: config.TransportTCP, MaxMessageSizeLocal: 1}
	require.True(t, errors.Is(n.Validate(), config.ErrInvalidRoutingHostPort))
}

func TestNetworkValidateInvalidTransport(t *testing.T) {
	t.Parallel()
	n := config.Network{Transport: "quic", MaxMessageSizeLocal: 1}
	require.True(t, errors.Is(n.Validate(), config.ErrInvalidTransport))
}

func TestNetworkValidateZeroMaxMessageSize(t *testing.T) {
	t.Parallel()
	n := config.Network{Transport: config.TransportUnix, BasePath: "/tmp/x"}
	require.True(t, errors.Is(n.Validate(), config.ErrInvalidMaxMessageSize))
}

func TestWatchdogValidateDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	w := config.Watchdog{Enabled: false}
	require.NoError(t, w.Validate())
}

func TestWatchdogValidateRequiresTimeout(t *testing.T) {
	t.Parallel()
	w := config.Watchdog{Enabled: true, Timeout: 0}
	require.True(t, errors.Is(w.Validate(), config.ErrInvalidWatchdogTimeout))
}

func TestSecurityValidateInvalidMode(t *testing.T) {
	t.Parallel()
	s := config.Security{Mode: "deny-all"}
	require.True(t, errors.Is(s.Validate(), config.ErrInvalidPolicyMode))
}

func TestDatabaseValidateRequiresName(t *testing.T) {
	t.Parallel()
	d := config.Database{Driver: config.DatabaseDriverSQLite}
	require.True(t, errors.Is(d.Validate(), config.ErrInvalidDatabaseName))
}

func TestRedisValidateDisabledSkipsChecks(t *testing.T) {
	t.Parallel()
	r := config.Redis{Enabled: false}
	require.NoError(t, r.Validate())
}

func TestRedisValidateRequiresHost(t *testing.T) {
	t.Parallel()
	r := config.Redis{Enabled: true, Port: 6379}
	require.True(t, errors.Is(r.Validate(), config.ErrInvalidRedisHost))
}

func TestMetricsValidateRequiresPort(t *testing.T) {
	t.Parallel()
	m := config.Metrics{Enabled: true, Bind: "[::]", Port: 0}
	require.True(t, errors.Is(m.Validate(), config.ErrInvalidMetricsPort))
}

func TestAdminValidateRequiresBind(t *testing.T) {
	t.Parallel()
	a := config.Admin{Enabled: true, Port: 8080}
	require.True(t, errors.Is(a.Validate(), config.ErrInvalidAdminBindAddress))
}

func TestApplicationValidateRejectsEntryWithoutEquals(t *testing.T) {
	t.Parallel()
	a := config.Application{Config: []string{"hostname"}}
	require.True(t, errors.Is(a.Validate(), config.ErrInvalidApplicationConfigEntry))
}

func TestApplicationValidateRejectsEmptyKey(t *testing.T) {
	t.Parallel()
	a := config.Application{Config: []string{"=vehicle-ecu-07"}}
	require.True(t, errors.Is(a.Validate(), config.ErrInvalidApplicationConfigEntry))
}

func TestApplicationEntriesParsesKeyValuePairs(t *testing.T) {
	t.Parallel()
	a := config.Application{Config: []string{"hostname=vehicle-ecu-07", "zone=front"}}
	require.NoError(t, a.Validate())
	entries := a.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, "hostname", entries[0].Key)
	require.Equal(t, "vehicle-ecu-07", entries[0].Value)
	require.Equal(t, "zone", entries[1].Key)
	require.Equal(t, "front", entries[1].Value)
}

func TestApplicationEntriesAllowsEmptyValue(t *testing.T) {
	t.Parallel()
	a := config.Application{Config: []string{"flag="}}
	entries := a.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, "flag", entries[0].Key)
	require.Equal(t, "", entries[0].Value)
}
