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

package models

import (
	"time"

	"gorm.io/gorm"
)

// PolicyAuditLog is one recorded policy-enforcement decision, kept purely
// for operator review. It is never read back to reconstruct in-memory
// policy or routing state.
type PolicyAuditLog struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	Uid       uint32
	Gid       uint32
	Action    string
	Allowed   bool
	Mode      string
}

// InsertPolicyAuditLog records one decision.
func InsertPolicyAuditLog(db *gorm.DB, entry *PolicyAuditLog) error {
	return db.Create(entry).Error
}

// RecentPolicyAuditLogs returns the most recent limit entries, newest
// first.
func RecentPolicyAuditLogs(db *gorm.DB, limit int) ([]PolicyAuditLog, error) {
	var entries []PolicyAuditLog
	if err := db.Order("created_at desc").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}


