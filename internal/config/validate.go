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

package config

import (
	"errors"
	"strings"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

var (
	// ErrInvalidLogLevel indicates that the provided log level is not valid.
	ErrInvalidLogLevel = errors.New("invalid log level provided")
	// ErrInvalidTransport indicates that the provided transport kind is not valid.
	ErrInvalidTransport = errors.New("invalid network transport provided")
	// ErrBasePathRequired indicates that a base path is required for unix-domain transport.
	ErrBasePathRequired = errors.New("base path is required when transport is unix")
	// ErrInvalidRoutingHostPort indicates that the provided routing host port is not valid.
	ErrInvalidRoutingHostPort = errors.New("invalid routing host port provided")
	// ErrInvalidMaxMessageSize indicates that the provided max message size is not valid.
	ErrInvalidMaxMessageSize = errors.New("max message size local must be greater than zero")
	// ErrInvalidWatchdogTimeout indicates that the provided watchdog timeout is not valid.
	ErrInvalidWatchdogTimeout = errors.New("watchdog timeout must be greater than zero when enabled")
	// ErrInvalidPolicyMode indicates that the provided policy mode is not valid.
	ErrInvalidPolicyMode = errors.New("invalid security policy mode provided, must be enforce or audit")
	// ErrInvalidDatabaseDriver indicates that the provided database driver is not valid.
	ErrInvalidDatabaseDriver = errors.New("invalid database driver provided")
	// ErrInvalidDatabaseName indicates that the provided database name is not valid.
	ErrInvalidDatabaseName = errors.New("invalid database name provided")
	// ErrInvalidRedisHost indicates that the provided Redis host is not valid.
	ErrInvalidRedisHost = errors.New("invalid redis host provided")
	// ErrInvalidRedisPort indicates that the provided Redis port is not valid.
	ErrInvalidRedisPort = errors.New("invalid redis port provided")
	// ErrInvalidMetricsBindAddress indicates that the provided metrics server bind address is not valid.
	ErrInvalidMetricsBindAddress = errors.New("invalid metrics server bind address provided")
	// ErrInvalidMetricsPort indicates that the provided metrics server port is not valid.
	ErrInvalidMetricsPort = errors.New("invalid metrics server port provided")
	// ErrInvalidPProfBindAddress indicates that the provided pprof server bind address is not valid.
	ErrInvalidPProfBindAddress = errors.New("invalid pprof server bind address provided")
	// ErrInvalidPProfPort indicates that the provided pprof server port is not valid.
	ErrInvalidPProfPort = errors.New("invalid pprof server port provided")
	// ErrInvalidAdminBindAddress indicates that the provided admin server bind address is not valid.
	ErrInvalidAdminBindAddress = errors.New("invalid admin server bind address provided")
	// ErrInvalidAdminPort indicates that the provided admin server port is not valid.
	ErrInvalidAdminPort = errors.New("invalid admin server port provided")
	// ErrInvalidApplicationConfigEntry indicates that a config entry is not in key=value form.
	ErrInvalidApplicationConfigEntry = errors.New("application config entries must be in key=value form")
)

// Validate validates the Network configuration.
func (n Network) Validate() error {
	switch n.Transport {
	case TransportUnix:
		if n.BasePath == "" {
			return ErrBasePathRequired
		}
	case TransportTCP:
		if n.RoutingHostPort <= 0 || n.RoutingHostPort > 65535 {
			return ErrInvalidRoutingHostPort
		}
	default:
		return ErrInvalidTransport
	}
	if n.MaxMessageSizeLocal == 0 {
		return ErrInvalidMaxMessageSize
	}
	return nil
}

// Validate validates the Watchdog configuration.
func (w Watchdog) Validate() error {
	if !w.Enabled {
		return nil
	}
	if w.Timeout <= 0 {
		return ErrInvalidWatchdogTimeout
	}
	return nil
}

// Validate validates the Security configuration.
func (s Security) Validate() error {
	switch s.Mode {
	case PolicyModeEnforce, PolicyModeAudit:
	default:
		return ErrInvalidPolicyMode
	}
	return nil
}

// Validate validates the Database configuration.
func (d Database) Validate() error {
	if d.Driver != DatabaseDriverSQLite {
		return ErrInvalidDatabaseDriver
	}
	if d.Database == "" {
		return ErrInvalidDatabaseName
	}
	return nil
}

// Validate validates the Redis configuration.
func (r Redis) Validate() error {
	if !r.Enabled {
		return nil
	}
	if r.Host == "" {
		return ErrInvalidRedisHost
	}
	if r.Port <= 0 || r.Port > 65535 {
		return ErrInvalidRedisPort
	}
	return nil
}

// Validate validates the Metrics configuration.
func (m Metrics) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Bind == "" {
		return ErrInvalidMetricsBindAddress
	}
	if m.Port <= 0 || m.Port > 65535 {
		return ErrInvalidMetricsPort
	}
	return nil
}

// Validate validates the PProf configuration.
func (p PProf) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.Bind == "" {
		return ErrInvalidPProfBindAddress
	}
	if p.Port <= 0 || p.Port > 65535 {
		return ErrInvalidPProfPort
	}
	return nil
}

// Validate validates the Admin configuration.
func (a Admin) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.Bind == "" {
		return ErrInvalidAdminBindAddress
	}
	if a.Port <= 0 || a.Port > 65535 {
		return ErrInvalidAdminPort
	}
	return nil
}

// Validate validates the Application configuration.
func (a Application) Validate() error {
	for _, entry := range a.Config {
		key, _, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return ErrInvalidApplicationConfigEntry
		}
	}
	return nil
}

// Entries parses Config into the wire form sent with a CONFIG command.
func (a Application) Entries() []protocol.ConfigEntry {
	entries := make([]protocol.ConfigEntry, 0, len(a.Config))
	for _, raw := range a.Config {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			continue
		}
		entries = append(entries, protocol.ConfigEntry{Key: key, Value: value})
	}
	return entries
}
