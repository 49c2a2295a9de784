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

// Package metrics exposes the routing core's Prometheus registry over
// HTTP.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/someip-fabric/routingcore/internal/config"
)

const readTimeout = 3 * time.Second

// CreateMetricsServer blocks serving /metrics while cfg.Metrics.Enabled is
// set. Intended to be run in its own goroutine.
func CreateMetricsServer(cfg *config.Config) {
	if !cfg.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Metrics.Bind, cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}


