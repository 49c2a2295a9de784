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

// Package adminapi exposes a read-only HTTP and websocket surface over
// the hub's routing table, client identities, and policy audit log, for
// operators diagnosing a running hub in place of a separate inspection
// CLI. It never accepts writes: there is no route that mutates routing,
// policy, or identity state.
package adminapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/routing"
	"github.com/someip-fabric/routingcore/internal/tracing"
)

const (
	readTimeout     = 3 * time.Second
	rateLimitRate   = time.Second
	rateLimitBurst  = 20
	shutdownTimeout = 5 * time.Second
)

// AdminAPI is the read-only operator surface over one hub's state.
type AdminAPI struct {
	cfg         *config.Config
	logger      *slog.Logger
	table       *routing.Table
	identities  *identity.Map
	db          *gorm.DB
	broadcaster *broadcaster
}

// New builds an AdminAPI. It does not start listening until Run is
// called.
func New(cfg *config.Config, logger *slog.Logger, table *routing.Table, identities *identity.Map, db *gorm.DB) *AdminAPI {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminAPI{
		cfg:         cfg,
		logger:      logger,
		table:       table,
		identities:  identities,
		db:          db,
		broadcaster: newBroadcaster(),
	}
}

// Router builds the gin engine serving the admin routes: JSON status
// endpoints, the live routing websocket, and the pprof debug tree. It is
// exported directly so tests can drive it with httptest instead of a
// live listener.
func (a *AdminAPI) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if a.cfg.Metrics.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("adminapi"))
		r.Use(tracing.GinMiddleware(a.cfg))
	}

	store := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  rateLimitRate,
		Limit: rateLimitBurst,
	})
	limiter := ratelimit.RateLimiter(store, &ratelimit.Options{
		ErrorHandler: func(c *gin.Context, info ratelimit.Info) {
			c.Header("Retry-After", info.ResetTime.Format(time.RFC1123))
			c.AbortWithStatus(http.StatusTooManyRequests)
		},
		KeyFunc: func(c *gin.Context) string { return c.ClientIP() },
	})
	r.Use(limiter)

	r.GET("/healthz", a.healthz)

	v1 := r.Group("/api/v1")
	v1.GET("/clients", a.listClients)
	v1.GET("/audit", a.listAudit)
	r.GET("/ws/routing", a.serveWebsocket)

	pprof.Register(r, "debug/pprof")

	return r
}

// Run serves the admin API until ctx is canceled, then shuts the HTTP
// server down gracefully. It returns nil on a clean shutdown and an
// error if the server failed to start.
func (a *AdminAPI) Run(ctx context.Context) error {
	if !a.cfg.Admin.Enabled {
		<-ctx.Done()
		return nil
	}

	go a.runSnapshotLoop(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.Admin.Bind, a.cfg.Admin.Port),
		Handler:           a.Router(),
		ReadHeaderTimeout: readTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("admin API listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("admin API shutdown failed", "error", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("adminapi: failed to serve: %w", err)
		}
		return nil
	}
}
