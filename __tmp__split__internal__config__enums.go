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

// LogLevel represents the logging level for the application.
type LogLevel string

const (
	// LogLevelDebug is the debug logging level, providing detailed information.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is the informational logging level, providing general information.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is the warning logging level, indicating potential issues.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is the error logging level, indicating serious issues.
	LogLevelError LogLevel = "error"
)

// TransportKind selects the local transport used between spokes and the hub.
type TransportKind string

const (
	// TransportUnix uses UNIX-domain sockets at {BasePath}/{client_id_hex}.
	TransportUnix TransportKind = "unix"
	// TransportTCP uses a local TCP endpoint plus per-spoke dynamic ports.
	TransportTCP TransportKind = "tcp"
)

// PolicyMode selects whether policy decisions are enforced or only logged.
type PolicyMode string

const (
	// PolicyModeEnforce makes policy decisions final.
	PolicyModeEnforce PolicyMode = "enforce"
	// PolicyModeAudit logs decisions but always allows.
	PolicyModeAudit PolicyMode = "audit"
)


