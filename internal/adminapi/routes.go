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

package adminapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/someip-fabric/routingcore/internal/db/models"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

// clientView is the JSON shape of one routing table entry returned by
// GET /api/v1/clients.
type clientView struct {
	Client      uint16              `json:"client"`
	Host        string              `json:"host"`
	Port        uint16              `json:"port"`
	MissedPongs uint                `json:"missed_pongs"`
	Uid         *uint32             `json:"uid,omitempty"`
	Gid         *uint32             `json:"gid,omitempty"`
	Offers      []serviceRecordView `json:"offers"`
	Requests    []serviceRecordView `json:"requests"`
}

type serviceRecordView struct {
	Service  uint16 `json:"service"`
	Instance uint16 `json:"instance"`
	Major    uint8  `json:"major"`
	Minor    uint32 `json:"minor"`
}

func (a *AdminAPI) listClients(c *gin.Context) {
	snapshot := a.table.Snapshot()
	views := make([]clientView, 0, len(snapshot))
	for _, entry := range snapshot {
		view := clientView{
			Client:      uint16(entry.Client),
			Port:        entry.Port,
			MissedPongs: entry.MissedPongs,
			Offers:      toServiceRecordViews(entry.Offers),
			Requests:    toServiceRecordViews(entry.Requests),
		}
		if entry.Host != nil {
			view.Host = entry.Host.String()
		}
		if principal, ok := a.identities.PrincipalOf(entry.Client); ok {
			uid := uint32(principal.Uid)
			gid := uint32(principal.Gid)
			view.Uid = &uid
			view.Gid = &gid
		}
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"clients": views})
}

func toServiceRecordViews(records []protocol.ServiceRecord) []serviceRecordView {
	views := make([]serviceRecordView, 0, len(records))
	for _, rec := range records {
		views = append(views, serviceRecordView{
			Service:  uint16(rec.Service),
			Instance: uint16(rec.Instance),
			Major:    uint8(rec.Major),
			Minor:    uint32(rec.Minor),
		})
	}
	return views
}

const defaultAuditLimit = 100

func (a *AdminAPI) listAudit(c *gin.Context) {
	entries, err := models.RecentPolicyAuditLogs(a.db, defaultAuditLimit)
	if err != nil {
		a.logger.Error("failed to load policy audit log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit log"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (a *AdminAPI) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
