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

package adminapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/someip-fabric/routingcore/internal/adminapi"
	"github.com/someip-fabric/routingcore/internal/config"
	"github.com/someip-fabric/routingcore/internal/db/models"
	"github.com/someip-fabric/routingcore/internal/identity"
	"github.com/someip-fabric/routingcore/internal/protocol"
	"github.com/someip-fabric/routingcore/internal/routing"
)

const testTimeout = 5 * time.Second

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PolicyAuditLog{}))
	return db
}

func TestListClientsReflectsRoutingTable(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	table := routing.NewTable()
	clientA := protocol.ClientId(0x1001)
	table.AddClient(clientA, nil, 30509)
	table.OnOfferService(clientA, 0x1234, 0x0001, protocol.MajorVersion(1), protocol.MinorVersion(0))

	identities := identity.New(nil)
	identities.StoreClientToPrincipal(clientA, identity.Principal{Uid: 1000, Gid: 1000})

	cfg := &config.Config{}
	cfg.Admin.Enabled = true
	cfg.Admin.Bind = "127.0.0.1"
	cfg.Admin.Port = 0

	api := adminapi.New(cfg, nil, table, identities, newTestDB(t))
	r := api.Router()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/api/v1/clients", nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Clients []struct {
			Client uint16 `json:"client"`
			Uid    uint32 `json:"uid"`
			Offers []struct {
				Service uint16 `json:"service"`
			} `json:"offers"`
		} `json:"clients"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Clients, 1)
	require.Equal(t, uint16(0x1001), body.Clients[0].Client)
	require.Equal(t, uint32(1000), body.Clients[0].Uid)
	require.Len(t, body.Clients[0].Offers, 1)
	require.Equal(t, uint16(0x1234), body.Clients[0].Offers[0].Service)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{}
	cfg.Admin.Enabled = true
	cfg.Admin.Bind = "127.0.0.1"
	cfg.Admin.Port = 0

	api := adminapi.New(cfg, nil, routing.NewTable(), identity.New(nil), newTestDB(t))

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	done := make(chan error, 1)
	go func() { done <- api.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(testTimeout):
		t.Fatal("adminapi.Run did not return after context cancellation")
	}
}
