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

package protocol

import "errors"

// Codec error categories. Any nonzero error aborts the current
// deserialization; partially parsed state must be discarded by the
// caller rather than reused.
var (
	// ErrNotEnoughBytes is returned when a frame or field is truncated.
	ErrNotEnoughBytes = errors.New("protocol: not enough bytes")
	// ErrMaxCommandSizeExceeded is returned when payload_size exceeds the
	// configured local message size ceiling.
	ErrMaxCommandSizeExceeded = errors.New("protocol: max command size exceeded")
	// ErrMismatch is returned when the start or end tag does not match
	// the expected magic value.
	ErrMismatch = errors.New("protocol: start/end tag mismatch")
	// ErrUnknown is returned when a policy payload is rejected during
	// parsing (malformed interval, non-monotone range, reserved value).
	ErrUnknown = errors.New("protocol: unknown/rejected payload")
)
