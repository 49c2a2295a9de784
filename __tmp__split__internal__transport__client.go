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

package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

// Client is an Endpoint over a single outbound connection: a spoke's
// connection to the hub, or a direct connection to a known peer.
type Client struct {
	network string
	address string
	maxSize uint32
	logger  *slog.Logger

	mu   sync.Mutex
	conn net.Conn

	onMessage func(payload []byte)
	onError   func(err error)

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewClient builds a Client that will dial network/address on Start.
func NewClient(network, address string, maxSize uint32, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{network: network, address: address, maxSize: maxSize, logger: logger}
}

// RegisterMessageHandler installs the callback invoked for every inbound
// frame (header followed by payload, end tag stripped). Must be called
// before Start.
func (c *Client) RegisterMessageHandler(fn func(frame []byte)) { c.onMessage = fn }

// RegisterErrorHandler installs the callback invoked on an unrecoverable
// I/O error.
func (c *Client) RegisterErrorHandler(fn func(err error)) { c.onError = fn }

// Start dials the configured address and begins reading frames in the
// background.
func (c *Client) Start() error {
	conn, err := net.Dial(c.network, c.address)
	if err != nil {
		return fmt.Errorf("transport: dial %s %s: %w", c.network, c.address, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.readLoop(conn)
	return nil
}

func (c *Client) readLoop(conn net.Conn) {
	defer c.wg.Done()
	buf := make([]byte, 0, 4096)
	scratch := make([]byte, 4096)
	for {
		n, err := conn.Read(scratch)
		if n > 0 {
			buf = append(buf, scratch[:n]...)
		}
		if err != nil {
			if !c.stopped.Load() && !errors.Is(err, net.ErrClosed) {
				if c.onError != nil {
					c.onError(err)
				}
			}
			return
		}
		for {
			frame, consumed, ferr := protocol.DecodeFrame(buf, c.maxSize)
			if ferr == protocol.ErrNotEnoughBytes {
				break
			}
			if ferr != nil {
				if c.onError != nil {
					c.onError(ferr)
				}
				return
			}
			if c.onMessage != nil {
				framed := protocol.EncodeHeader(nil, frame.Header)
				framed = append(framed, frame.Payload...)
				c.onMessage(framed)
			}
			buf = buf[consumed:]
		}
	}
}

// Send writes a pre-framed wire payload (as produced by
// protocol.EncodeFrame) to the connection. It returns false on any write
// failure rather than modifying core state.
func (c *Client) Send(frame []byte) bool {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return false
	}
	_, err := conn.Write(frame)
	return err == nil
}

// Stop closes the connection.
func (c *Client) Stop() error {
	c.stopped.Store(true)
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	return nil
}


