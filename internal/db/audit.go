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

package db

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/someip-fabric/routingcore/internal/db/models"
	"github.com/someip-fabric/routingcore/internal/policy"
)

// AuditLogger persists policy.Decision values to the audit database. It
// implements policy.AuditLogger.
type AuditLogger struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewAuditLogger builds an AuditLogger backed by db.
func NewAuditLogger(db *gorm.DB, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{db: db, logger: logger}
}

// LogDecision writes d to the audit log, logging (but not returning) any
// write failure: audit persistence failures must never block enforcement.
func (a *AuditLogger) LogDecision(_ context.Context, d policy.Decision) {
	entry := models.PolicyAuditLog{
		Uid:     uint32(d.Uid),
		Gid:     uint32(d.Gid),
		Action:  d.Action,
		Allowed: d.Allowed,
		Mode:    string(d.Mode),
	}
	if err := models.InsertPolicyAuditLog(a.db, &entry); err != nil {
		a.logger.Error("failed to write policy audit log entry", "error", err)
	}
}
