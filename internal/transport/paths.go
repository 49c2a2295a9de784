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

package transport

import (
	"fmt"
	"path/filepath"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

// SocketPath returns the UNIX-domain socket path for client under
// basePath, following the {base_path}/{client_id_hex} layout.
func SocketPath(basePath string, client protocol.ClientId) string {
	return filepath.Join(basePath, fmt.Sprintf("%04x", uint16(client)))
}
