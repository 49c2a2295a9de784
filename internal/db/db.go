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

// Package db wires the optional, non-authoritative policy-decision audit
// trail. It is never consulted to reconstruct routing or policy state;
// routing state lives entirely in memory (internal/routing,
// internal/policy, internal/identity) and is rebuilt from scratch on
// restart.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/gorm"

	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/db/models"
)

// MakeDB opens the audit database and migrates its schema.
func MakeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Database.Database), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("db: failed to open database: %w", err)
	}

	if cfg.Metrics.OTLPEndpoint != "" {
		if err := db.Use(otelgorm.NewPlugin()); err != nil {
			return nil, fmt.Errorf("db: failed to trace database: %w", err)
		}
	}

	if err := db.AutoMigrate(&models.PolicyAuditLog{}); err != nil {
		return nil, fmt.Errorf("db: failed to migrate policy audit log: %w", err)
	}

	return db, nil
}
