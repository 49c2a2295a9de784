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

// Package config defines the routing core's configuration surface, loaded
// through configulator from environment variables and flags.
package config

import "time"

// Config stores the full application configuration. Every field is
// resolved by configulator before Load returns; nothing in this package
// reads the environment directly.
type Config struct {
	LogLevel LogLevel `name:"log-level" default:"info" usage:"log level (debug, info, warn, error)"`

	Network      Network      `name:"network"`
	Watchdog     Watchdog     `name:"watchdog"`
	Security     Security     `name:"security"`
	Registration Registration `name:"registration"`
	Database     Database     `name:"database"`
	Redis        Redis        `name:"redis"`
	Metrics      Metrics      `name:"metrics"`
	PProf        PProf        `name:"pprof"`
	Admin        Admin        `name:"admin"`
	Application  Application  `name:"application"`
}

// Network configures the local transport and remote-hub addressing.
type Network struct {
	// Name namespaces the local transport (socket path, log tags).
	Name string `name:"name" default:"routingcore" usage:"network namespace name"`
	// Transport selects unix-domain sockets or local TCP.
	Transport TransportKind `name:"transport" default:"unix" usage:"local transport kind (unix, tcp)"`
	// BasePath is the directory UNIX-domain client sockets are created under.
	BasePath string `name:"base-path" default:"/tmp/routingcore" usage:"base path for unix-domain client sockets"`
	// RoutingHostAddress/Port are used when Transport is tcp.
	RoutingHostAddress string `name:"routing-host-address" default:"127.0.0.1" usage:"hub TCP listen address"`
	RoutingHostPort    int    `name:"routing-host-port" default:"30490" usage:"hub TCP listen port"`
	// IsLocalRouting disables the cross-process advisory mirror (Redis) entirely.
	IsLocalRouting bool `name:"local-routing" default:"true" usage:"disable cross-process routing-info mirroring"`
	// MaxMessageSizeLocal is the largest payload_size accepted for local frames.
	MaxMessageSizeLocal uint32 `name:"max-message-size-local" default:"134217728" usage:"maximum accepted command payload size, in bytes"`
}

// Watchdog configures hub-side liveness checking.
type Watchdog struct {
	Enabled             bool          `name:"enabled" default:"true" usage:"enable ping/pong liveness checking"`
	Timeout             time.Duration `name:"timeout" default:"5s" usage:"full ping/pong cycle duration"`
	AllowedMissingPongs uint          `name:"allowed-missing-pongs" default:"1" usage:"missed pongs tolerated before a client is declared lost"`
}

// Security configures the policy engine (C2).
type Security struct {
	Enabled             bool       `name:"enabled" default:"false" usage:"enable UID/GID policy enforcement"`
	CheckCredentials    bool       `name:"check-credentials" default:"true" usage:"require a policy entry for every connecting principal"`
	CheckWhitelist      bool       `name:"check-whitelist" default:"true" usage:"require policy-update senders to be whitelisted"`
	AllowRemoteClients  bool       `name:"allow-remote-clients" default:"false" usage:"allow delivery of cross-host messages"`
	Mode                PolicyMode `name:"mode" default:"enforce" usage:"enforce or audit"`
	PolicyPath          string     `name:"policy-path" default:"" usage:"directory of policy definition files loaded at startup"`
	UpdateWhitelistUIDs []uint32   `name:"update-whitelist-uids" usage:"UIDs permitted to send UPDATE_SECURITY_POLICY"`
	ServiceWhitelist    []uint16   `name:"service-whitelist" usage:"services permitted in accepted policy updates"`
}

// Registration configures spoke-side FSM timing (C7/C10).
type Registration struct {
	RequestDebounce time.Duration `name:"request-debounce" default:"10ms" usage:"window for batching nearby request_service calls"`
	ShutdownTimeout time.Duration `name:"shutdown-timeout" default:"5s" usage:"grace period for in-flight work during shutdown"`
}

// Database configures the optional policy-decision audit trail.
type Database struct {
	Driver   DatabaseDriver `name:"driver" default:"sqlite" usage:"database driver"`
	Database string         `name:"database" default:"routingcore.db" usage:"database name or file path"`
}

// DatabaseDriver is the supported audit-log database backend.
type DatabaseDriver string

// DatabaseDriverSQLite is the only supported driver; audit logging is a
// single-process diagnostic feature, not a clustered store.
const DatabaseDriverSQLite DatabaseDriver = "sqlite"

// Redis configures the optional cross-process advisory mirror.
type Redis struct {
	Enabled  bool   `name:"enabled" default:"false" usage:"mirror routing-info events to redis pub/sub"`
	Host     string `name:"host" default:"localhost" usage:"redis host"`
	Port     int    `name:"port" default:"6379" usage:"redis port"`
	Password string `name:"password" default:"" usage:"redis password"`
}

// Metrics configures the Prometheus metrics server and OTel tracing.
type Metrics struct {
	Enabled      bool   `name:"enabled" default:"true" usage:"enable the prometheus metrics server"`
	Bind         string `name:"bind" default:"[::]" usage:"metrics server bind address"`
	Port         int    `name:"port" default:"9090" usage:"metrics server port"`
	OTLPEndpoint string `name:"otlp-endpoint" default:"" usage:"OTLP gRPC endpoint for trace export; disabled when empty"`
}

// PProf configures the debug pprof server.
type PProf struct {
	Enabled        bool     `name:"enabled" default:"false" usage:"enable the pprof debug server"`
	Bind           string   `name:"bind" default:"127.0.0.1" usage:"pprof server bind address"`
	Port           int      `name:"port" default:"6060" usage:"pprof server port"`
	TrustedProxies []string `name:"trusted-proxies" usage:"trusted proxy CIDRs for the pprof server"`
}

// Admin configures the read-only operator HTTP/websocket surface.
type Admin struct {
	Enabled bool   `name:"enabled" default:"true" usage:"enable the admin status API"`
	Bind    string `name:"bind" default:"127.0.0.1" usage:"admin API bind address"`
	Port    int    `name:"port" default:"8080" usage:"admin API port"`
}

// Application configures the CONFIG entries pushed to every spoke once it
// completes registration.
type Application struct {
	Config []string `name:"config" usage:"key=value pairs sent to every spoke's CONFIG command at registration"`
}

// Validate checks every sub-section of the configuration.
func (c Config) Validate() error {
	switch c.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ErrInvalidLogLevel
	}
	if err := c.Network.Validate(); err != nil {
		return err
	}
	if err := c.Watchdog.Validate(); err != nil {
		return err
	}
	if err := c.Security.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.Admin.Validate(); err != nil {
		return err
	}
	if err := c.Application.Validate(); err != nil {
		return err
	}
	return nil
}
