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

// Package dispatch implements the command dispatcher (C5), the transaction
// manager (C6), and the per-family command handlers the spec's command
// surface table lists. It is grounded on memcp's storage/transaction.go
// (TxContext / overlay-and-commit shape) and scm/scheduler.go (the blocking
// wait-queue idiom, here delegated to store.Database.BPop).
package dispatch

import (
	"sync"

	"github.com/google/uuid"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

// Conn is one client's protocol-agnostic session state: which database is
// selected, whether it's inside MULTI, what it has WATCHed, and identity
// fields CLIENT LIST/KILL need. The transport (server package) owns the
// socket and RESP codec; everything command-semantics-relevant lives here
// so it can be unit tested without a socket.
type Conn struct {
	mu sync.Mutex

	ID       string
	Name     string
	Addr     string
	DBIndex  int
	DB       *store.Database
	RESP3    bool
	Authenticated bool

	InMulti      bool
	MultiAborted bool
	Queue        []queuedCommand

	watches map[watchKey]uint64 // (db,key) -> version observed at WATCH time

	SubChannels  map[string]bool
	SubPatterns  map[string]bool

	// ReplicationLink marks a Conn the server package uses only to replay
	// bytes streamed from a master, so Dispatch's READONLY gate — which
	// exists to stop an ordinary client from writing to a replica — must
	// not apply to it.
	ReplicationLink bool

	// Notify delivers an out-of-band push frame (pub/sub message, keyspace
	// notification) to this connection's socket. The server package sets
	// this when it accepts the connection; dispatch never touches the
	// socket directly. Nil until a transport is attached, e.g. in tests.
	Notify func(resp.Frame)
}

type watchKey struct {
	db  int
	key string
}

type queuedCommand struct {
	name string
	args [][]byte
}

// NewConn creates a session bound to database 0 of e.
func NewConn(e *Engine, addr string) *Conn {
	return &Conn{
		ID:      uuid.NewString(),
		Addr:    addr,
		DBIndex: 0,
		DB:      e.Store.DB(0),
		watches: make(map[watchKey]uint64),
	}
}

func (c *Conn) selectDB(e *Engine, index int) bool {
	db := e.Store.DB(index)
	if db == nil {
		return false
	}
	c.DBIndex = index
	c.DB = db
	return true
}
