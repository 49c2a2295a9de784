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

// Package cmd wires the routing host process together: configuration,
// logging, the routing/policy/identity/subscription state, the hub
// itself, and the ambient metrics/pprof/admin servers.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/USA-RedDragon/configulator"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/someip-fabric/routingcore/internal/adminapi"
	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/db"
	"github.com/someip-fabric/routingcore/internal/eventbus"
	"github.com/someip-fabric/routingcore/internal/hub"
	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/kv"
	"github.com/someip-fabric/routingcore/internal/logging"
	"github.com/someip-fabric/routingcore/internal/metrics"
	"github.com/someip-fabric/routingcore/internal/policy"
	"github.com/someip-fabric/routingcore/internal/pprof"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/someip-fabric/routingcore/internal/subscription"
	"github.com/someip-fabric/routingcore/internal/tracing"
	"github.com/someip-fabric/routingcore/internal/transport"
)

// NewCommand builds the routingd root command.
func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "routingd",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:              runRoot,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	return cmd
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	fmt.Printf("routingcore - %s (%s)\n", cmd.Annotations["version"], cmd.Annotations["commit"])

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel)

	cleanup, err := tracing.Init(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := cleanup(ctx); err != nil {
			logger.Error("failed to shut down tracer", "error", err)
		}
	}()

	auditDB, err := db.MakeDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to open audit database: %w", err)
	}

	store, err := kv.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build key-value store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close key-value store", "error", err)
		}
	}()

	bus, err := eventbus.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build event bus: %w", err)
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logger.Error("failed to close event bus", "error", err)
		}
	}()

	policies := policy.New(cfg.Security,
		policy.WithAuditLogger(db.NewAuditLogger(auditDB, logger)),
		policy.WithLogger(logger))
	identities := identity.New(logger)
	table := routing.NewTable()
	subs := subscription.New(func(key subscription.Key, _ protocol.ClientId, uid protocol.Uid, gid protocol.Gid) bool {
		return policies.IsClientAllowed(ctx, uid, gid, key.Service, key.Instance, 0, false)
	})

	h := hub.New(cfg, logger, table, policies, identities, subs, bus)

	server, err := newRoutingServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build routing server endpoint: %w", err)
	}
	if err := h.Attach(server); err != nil {
		return fmt.Errorf("failed to attach hub to server endpoint: %w", err)
	}
	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start routing server endpoint: %w", err)
	}
	defer func() {
		if err := server.Stop(); err != nil {
			logger.Error("failed to stop routing server endpoint", "error", err)
		}
		if err := h.Stop(); err != nil {
			logger.Error("failed to stop hub", "error", err)
		}
	}()

	admin := adminapi.New(cfg, logger, table, identities, auditDB)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		metrics.CreateMetricsServer(cfg)
		return nil
	})
	g.Go(func() error {
		pprof.CreatePProfServer(cfg)
		return nil
	})
	g.Go(func() error {
		return admin.Run(gctx)
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	select {
	case sig := <-sigCh:
		logger.Warn("shutting down due to signal", "signal", sig)
	case <-gctx.Done():
		logger.Error("shutting down due to server error", "error", context.Cause(gctx))
	}

	return nil
}

// newRoutingServer builds the transport.ServerEndpoint the hub itself
// listens on. For UNIX transport the hub binds the well-known
// ROUTING_CLIENT socket path; for TCP it binds the configured routing
// host address and port, while each spoke binds its own ephemeral port
// once assigned a ClientId.
func newRoutingServer(cfg *config.Config, logger *slog.Logger) (transport.ServerEndpoint, error) {
	switch cfg.Network.Transport {
	case config.TransportUnix:
		path := transport.SocketPath(cfg.Network.BasePath, protocol.RoutingClient)
		return transport.NewServer("unix", path, cfg.Network.MaxMessageSizeLocal, logger), nil
	case config.TransportTCP:
		addr := net.JoinHostPort(cfg.Network.RoutingHostAddress, strconv.Itoa(cfg.Network.RoutingHostPort))
		return transport.NewServer("tcp", addr, cfg.Network.MaxMessageSizeLocal, logger), nil
	default:
		return nil, fmt.Errorf("cmd: unknown transport kind %q", cfg.Network.Transport)
	}
}

// loadConfig loads the configuration from the cobra command's context.
func loadConfig(ctx context.Context) (*config.Config, error) {
	c, err := configulator.FromContext[config.Config](ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get config from context: %w", err)
	}
	cfg, err := c.LoadWithoutValidation()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
