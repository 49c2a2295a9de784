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
	"os"
	"sync"
	"sync/atomic"

	"github.com/someip-fabric/routingcore/internal/protocol"
)

// Server is a ServerEndpoint over UNIX-domain sockets or local TCP,
// chosen by network ("unix" or "tcp"). For "unix", address is a socket
// path and is unlinked on Stop.
type Server struct {
	network     string
	address     string
	maxSize     uint32
	logger      *slog.Logger

	listener net.Listener
	nextID   atomic.Uint64

	mu    sync.RWMutex
	conns map[ConnID]net.Conn

	onMessage    MessageHandler
	onDisconnect DisconnectHandler
	onError      ErrorHandler

	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewServer builds a Server bound to network/address. maxSize, if
// nonzero, caps the accepted frame payload size.
func NewServer(network, address string, maxSize uint32, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		network: network,
		address: address,
		maxSize: maxSize,
		logger:  logger,
		conns:   make(map[ConnID]net.Conn),
	}
}

// RegisterMessageHandler installs the callback invoked for every inbound
// frame. Must be called before Start.
func (s *Server) RegisterMessageHandler(fn MessageHandler) { s.onMessage = fn }

// RegisterDisconnectHandler installs the callback invoked when a
// connection closes. Must be called before Start.
func (s *Server) RegisterDisconnectHandler(fn DisconnectHandler) { s.onDisconnect = fn }

// RegisterErrorHandler installs the callback invoked on a connection I/O
// error. Must be called before Start.
func (s *Server) RegisterErrorHandler(fn ErrorHandler) { s.onError = fn }

// Start binds the listening socket and begins accepting connections in
// the background.
func (s *Server) Start() error {
	if s.network == "unix" {
		_ = os.Remove(s.address)
	}
	l, err := net.Listen(s.network, s.address)
	if err != nil {
		return fmt.Errorf("transport: listen %s %s: %w", s.network, s.address, err)
	}
	s.listener = l

	s.wg.Add(1)
	go s.acceptLoop()
	return nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.stopped.Load() {
				return
			}
			s.logger.Error("server endpoint accept failed", "network", s.network, "error", err)
			return
		}
		id := ConnID(s.nextID.Add(1))
		s.mu.Lock()
		s.conns[id] = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.readLoop(id, conn)
	}
}

func (s *Server) readLoop(id ConnID, conn net.Conn) {
	defer s.wg.Done()
	defer s.closeConn(id, conn)

	host, port := peerAddr(conn)
	buf := make([]byte, 0, 4096)
	scratch := make([]byte, 4096)
	for {
		n, err := conn.Read(scratch)
		if n > 0 {
			buf = append(buf, scratch[:n]...)
		}
		if err != nil {
			if !s.stopped.Load() && !errors.Is(err, net.ErrClosed) {
				s.notifyError(id, err)
			}
			return
		}
		for {
			frame, consumed, ferr := protocol.DecodeFrame(buf, s.maxSize)
			if ferr == protocol.ErrNotEnoughBytes {
				break
			}
			if ferr != nil {
				s.notifyError(id, ferr)
				return
			}
			if s.onMessage != nil {
				framed := protocol.EncodeHeader(nil, frame.Header)
				framed = append(framed, frame.Payload...)
				s.onMessage(id, framed, host, port)
			}
			buf = buf[consumed:]
		}
	}
}

func (s *Server) notifyError(id ConnID, err error) {
	if s.onError != nil {
		s.onError(id, err)
	}
}

func (s *Server) closeConn(id ConnID, conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	_ = conn.Close()
	if s.onDisconnect != nil {
		s.onDisconnect(id)
	}
}

// SendTo writes a pre-framed wire payload (as produced by
// protocol.EncodeFrame) to conn. It returns false on any write failure
// rather than modifying core state.
func (s *Server) SendTo(conn ConnID, frame []byte) bool {
	s.mu.RLock()
	c, ok := s.conns[conn]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := c.Write(frame)
	return err == nil
}

// DisconnectFrom forcibly closes conn.
func (s *Server) DisconnectFrom(conn ConnID) error {
	s.mu.RLock()
	c, ok := s.conns[conn]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return c.Close()
}

// PrintStatus returns a short human-readable connection count summary.
func (s *Server) PrintStatus() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fmt.Sprintf("transport server %s %s: %d connections", s.network, s.address, len(s.conns))
}

// ListenAddr returns the address the listener is bound to, as reported
// by the kernel. Useful for "tcp" servers bound to an ephemeral port
// (address ":0") that need to advertise the port they actually got.
// Returns the empty string if called before Start.
func (s *Server) ListenAddr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener and every open connection, then unlinks the
// UNIX-domain socket node if applicable.
func (s *Server) Stop() error {
	s.stopped.Store(true)
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.mu.Lock()
	for id, c := range s.conns {
		_ = c.Close()
		delete(s.conns, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
	if s.network == "unix" {
		_ = os.Remove(s.address)
	}
	return nil
}

func peerAddr(conn net.Conn) (string, uint16) {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return "", 0
	}
	return addr.IP.String(), uint16(addr.Port)
}


