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

package policy

import (
	"github.com/mitchellh/hashstructure/v2"
	"github.com/puzpuzpuz/xsync/v4"
	"github.com/someip-fabric/routingcore/internal/protocol"
)

// lookupKey is hashed to a cache key. Only positive (allowed) decisions
// are cached; a cache miss always falls through to a full policy scan.
type lookupKey struct {
	Uid              protocol.Uid
	Gid              protocol.Gid
	Service          protocol.ServiceId
	Instance         protocol.InstanceId
	Method           protocol.MethodId
	IsRequestService bool
	IsOffer          bool
}

func (k lookupKey) hash() uint64 {
	h, err := hashstructure.Hash(k, hashstructure.FormatV2, nil)
	if err != nil {
		// A struct of fixed-width integers and bools never fails to hash.
		panic(err)
	}
	return h
}

// decisionCache holds positive decisions keyed by principal, invalidated
// wholesale whenever that principal's policies change.
type decisionCache struct {
	byUidGid *xsync.Map[principalKey, *xsync.Map[uint64, struct{}]]
}

type principalKey struct {
	Uid protocol.Uid
	Gid protocol.Gid
}

func newDecisionCache() *decisionCache {
	return &decisionCache{
		byUidGid: xsync.NewMap[principalKey, *xsync.Map[uint64, struct{}]](),
	}
}

func (c *decisionCache) get(uid protocol.Uid, gid protocol.Gid, k lookupKey) bool {
	m, ok := c.byUidGid.Load(principalKey{Uid: uid, Gid: gid})
	if !ok {
		return false
	}
	_, ok = m.Load(k.hash())
	return ok
}

func (c *decisionCache) put(uid protocol.Uid, gid protocol.Gid, k lookupKey) {
	m, _ := c.byUidGid.LoadOrCompute(principalKey{Uid: uid, Gid: gid}, func() *xsync.Map[uint64, struct{}] {
		return xsync.NewMap[uint64, struct{}]()
	})
	m.Store(k.hash(), struct{}{})
}

// invalidate drops every cached decision for (uid, gid).
func (c *decisionCache) invalidate(uid protocol.Uid, gid protocol.Gid) {
	c.byUidGid.Delete(principalKey{Uid: uid, Gid: gid})
}

// invalidateAll drops every cached decision. Used on whitelist reload,
// which can change the outcome for any principal.
func (c *decisionCache) invalidateAll() {
	c.byUidGid.Clear()
}
