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

// Command routingd is the routing host binary: it accepts ASSIGN_CLIENT
// from spokes, arbitrates services and eventgroup subscriptions, and
// forwards routing info and events between them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/USA-RedDragon/configulator"

	"github.com/someip-fabric/routingcore/internal/cmd"
	"github.com/someip-fabric/routingcore/internal/config"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, err := configulator.NewContext[config.Config](context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := cmd.NewCommand(version, commit)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
