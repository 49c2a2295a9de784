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

// Package pprof exposes the debug pprof endpoints behind the configured
// trusted-proxy list, for profiling the hub in place.
package pprof

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/tracing"
)

const readTimeout = 3 * time.Second

// CreatePProfServer blocks serving the pprof endpoints while
// cfg.PProf.Enabled is set. Intended to be run in its own goroutine.
func CreatePProfServer(cfg *config.Config) {
	if !cfg.PProf.Enabled {
		return
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	if cfg.Metrics.OTLPEndpoint != "" {
		r.Use(otelgin.Middleware("pprof"))
		r.Use(tracing.GinMiddleware(cfg))
	}

	if err := r.SetTrustedProxies(cfg.PProf.TrustedProxies); err != nil {
		slog.Error("pprof: failed setting trusted proxies", "error", err)
	}

	pprof.Register(r)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.PProf.Bind, cfg.PProf.Port),
		Handler:           r,
		ReadHeaderTimeout: readTimeout,
	}
	slog.Info("pprof server listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
