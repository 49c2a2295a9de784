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

// Command routingctl is a diagnostic spoke: it registers with a routing
// host under a chosen application name, optionally offers or requests a
// service, and prints routing-info and event traffic to stdout until
// interrupted.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/spoke"
)

var (
	version = "dev"
	commit  = "none"
)

var (
	network  string
	address  string
	name     string
	offer    []string
	request  []string
	instance uint16
)

func main() {
	root := &cobra.Command{
		Use:     "routingctl",
		Short:   "Connect to a routingcore hub as a diagnostic spoke",
		Version: fmt.Sprintf("%s - %s", version, commit),
		RunE:    run,
	}
	root.Flags().StringVar(&network, "network", "unix", "transport network (unix, tcp)")
	root.Flags().StringVar(&address, "address", "/tmp/routingcore/0000", "hub address (socket path or host:port)")
	root.Flags().StringVar(&name, "name", "routingctl", "application name to register as")
	root.Flags().StringSliceVar(&offer, "offer", nil, "service IDs to offer, as decimal or 0x-prefixed hex")
	root.Flags().StringSliceVar(&request, "request", nil, "service IDs to request, as decimal or 0x-prefixed hex")
	root.Flags().Uint16Var(&instance, "instance", uint16(protocol.AnyInstance), "instance ID used with --offer/--request")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseServiceID(s string) (protocol.ServiceId, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid service ID %q: %w", s, err)
	}
	return protocol.ServiceId(v), nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := &config.Config{}
	cfg.Registration.RequestDebounce = 100 * time.Millisecond

	s := spoke.New(cfg, nil, network, address, name)
	s.OnRoutingInfo(func(e protocol.RoutingInfoEntry) {
		fmt.Printf("routing-info: type=%d client=%04x\n", e.Type, e.Client)
	})
	s.OnEvent(func(c protocol.CommandID, payload []byte) {
		fmt.Printf("event: command=%d payload=%s\n", c, hex.EncodeToString(payload))
	})

	if err := s.Start(); err != nil {
		return fmt.Errorf("routingctl: failed to start: %w", err)
	}
	defer func() { _ = s.Stop() }()

	for _, svc := range offer {
		id, err := parseServiceID(svc)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		rec := protocol.ServiceRecord{Service: id, Instance: protocol.InstanceId(instance), Major: 1}
		if err := s.OfferService(rec); err != nil {
			fmt.Fprintf(os.Stderr, "failed to offer service %04x: %v\n", id, err)
		}
	}
	for _, svc := range request {
		id, err := parseServiceID(svc)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		}
		s.RequestService(id, protocol.InstanceId(instance), 1, 0)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}
