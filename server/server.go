/*
Copyright (C) 2026  Carl-Philip Hänsch

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package server is the RESP connection-runtime (§C10): accept loop,
// per-connection state machine over resp.Reader/resp.Writer, and the
// out-of-band push path (Conn.Notify) pub/sub and keyspace notifications
// ride on. Grounded on memcp's scm/mysql.go NewSession/SessionClosed
// lifecycle and scm/network.go's per-request recover() idiom, adapted from
// a MySQL-wire/HTTP listener to a raw RESP one, since this store speaks
// RESP rather than either of those.
package server

import (
	"fmt"
	"net"
	"sync"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
)

// Server accepts RESP connections against one Engine.
type Server struct {
	Engine *dispatch.Engine
	Log    *logx.Logger

	// Repl is consulted for PSYNC; nil means this instance does not offer
	// the replication transport (REPLICAOF as a follower still works
	// without it — that path is driven by ReplicaSyncer instead).
	Repl MasterSide

	mu        sync.Mutex
	listeners []net.Listener
	conns     map[net.Conn]struct{}
	closing   bool
}

// MasterSide is the narrow surface server needs from repl.Hub to answer a
// replica's PSYNC — kept as an interface here (rather than importing
// *repl.Hub directly) so tests can fake it without constructing a real
// backlog.
type MasterSide interface {
	Attach(id string, offset int64, notify func([]byte)) (backfill []byte, masterOffset int64, ok bool)
	Detach(id string)
	Offset() int64
}

func New(e *dispatch.Engine, log *logx.Logger) *Server {
	return &Server{Engine: e, Log: log, conns: make(map[net.Conn]struct{})}
}

// ListenAndServe opens addr and serves connections until Close is called.
func (s *Server) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		ln.Close()
		return fmt.Errorf("server: already closing")
	}
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()

	s.Log.Info("listening", "addr", addr)
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			return err
		}
		s.track(conn)
		go s.serve(conn)
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Close stops accepting new connections and closes every tracked one, the
// same "stop listening, then hang up on everyone" shutdown memcp's HTTP
// server leaves to net/http.Server.Close; this module has no standard
// library server to delegate to since it isn't HTTP, so it tracks sockets
// itself.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closing = true
	lns := s.listeners
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, ln := range lns {
		ln.Close()
	}
	for _, c := range conns {
		c.Close()
	}
	return nil
}

// serve runs one connection's whole lifetime: parse a command, dispatch it,
// write the reply, repeat. A panic from deep inside a handler is caught and
// logged rather than crashing the process, the same per-connection recover()
// memcp installs around every websocket/HTTP request.
func (s *Server) serve(netConn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			s.Log.Error("panic in connection handler", "err", fmt.Sprint(r), "addr", netConn.RemoteAddr().String())
		}
		s.untrack(netConn)
		netConn.Close()
	}()

	r := resp.NewReader(netConn)
	w := resp.NewWriter(netConn)
	var writeMu sync.Mutex

	c := dispatch.NewConn(s.Engine, netConn.RemoteAddr().String())

	q := newOutboundQueue(func(f resp.Frame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := w.WriteFrame(f); err != nil {
			return err
		}
		return w.Flush()
	}, func() {
		writeMu.Lock()
		_ = w.WriteFrame(resp.Error("ERR reply buffer overflow"))
		_ = w.Flush()
		writeMu.Unlock()
		netConn.Close()
	})
	defer q.Close()
	c.Notify = q.Notify

	for {
		args, err := r.ReadCommand()
		if err != nil {
			if _, ok := err.(*resp.ProtocolError); ok {
				writeMu.Lock()
				_ = w.WriteFrame(resp.Error("ERR Protocol error"))
				_ = w.Flush()
				writeMu.Unlock()
			}
			return
		}
		if len(args) == 0 {
			continue
		}

		if isPSync(args) && s.Repl != nil {
			s.handlePSync(netConn, r, w, &writeMu, c, args)
			return
		}

		w.SetRESP3(c.RESP3)
		reply := s.Engine.Dispatch(c, args)

		writeMu.Lock()
		werr := w.WriteFrame(reply)
		if werr == nil {
			werr = w.Flush()
		}
		writeMu.Unlock()
		if werr != nil {
			return
		}
	}
}

func isPSync(args [][]byte) bool {
	return len(args) > 0 && equalFoldASCII(args[0], "PSYNC")
}

func equalFoldASCII(b []byte, want string) bool {
	if len(b) != len(want) {
		return false
	}
	for i := range b {
		c := b[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != want[i] {
			return false
		}
	}
	return true
}
