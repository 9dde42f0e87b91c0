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
package repl

import (
	"bytes"
	"strconv"
	"sync"

	"github.com/launix-de/memkv/resp"
)

// replica is one attached follower: a connection-owned callback the server
// package installed when it completed the PSYNC handshake, fed every byte
// appended to the backlog from then on.
type replica struct {
	notify func([]byte)
}

// Hub is the master-side half of replication: it owns the backlog and the
// set of currently attached replicas, and implements dispatch.ReplicationSink
// so every write command Engine executes gets appended and fanned out.
type Hub struct {
	backlog *Backlog

	mu       sync.Mutex
	replicas map[string]*replica
	lastDB   int
}

func New(liveSize, coldMax int) *Hub {
	return &Hub{backlog: NewBacklog(liveSize, coldMax), replicas: make(map[string]*replica), lastDB: -1}
}

// Propagate encodes args as a RESP command, prefixing a SELECT when db
// differs from the last propagated command's db (same economy real Redis
// uses: one SELECT per db switch, not one per command).
func (h *Hub) Propagate(db int, args [][]byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var buf bytes.Buffer
	w := resp.NewWriter(&buf)
	if db != h.lastDB {
		_ = w.WriteFrame(resp.Array(resp.BulkString([]byte("SELECT")), resp.BulkString([]byte(strconv.Itoa(db)))))
		h.lastDB = db
	}
	elems := make([]resp.Frame, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	_ = w.WriteFrame(resp.Array(elems...))
	_ = w.Flush()

	data := buf.Bytes()
	h.backlog.Append(data)
	for _, r := range h.replicas {
		r.notify(data)
	}
}

// Offset reports the current master replication offset (REPLCONF ACK /
// INFO replication's master_repl_offset field).
func (h *Hub) Offset() int64 { return h.backlog.Offset() }

// Attach registers a replica and decides FULLRESYNC vs CONTINUE. offset<0
// requests an unconditional FULLRESYNC (PSYNC ? -1, i.e. a first-time
// replica with no prior state). When the backlog can serve offset, backfill
// holds every byte the replica missed since it disconnected and ok is true;
// the server package streams backfill to the replica before handing notify
// live writes. When ok is false the replica is registered all the same;
// the caller sends a full resync of the current dataset, and notify then
// delivers every write propagated after masterOffset.
func (h *Hub) Attach(id string, offset int64, notify func([]byte)) (backfill []byte, masterOffset int64, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	masterOffset = h.backlog.Offset()
	if offset >= 0 {
		if data, found := h.backlog.Since(offset); found {
			h.replicas[id] = &replica{notify: notify}
			return data, masterOffset, true
		}
	}
	h.replicas[id] = &replica{notify: notify}
	return nil, masterOffset, false
}

func (h *Hub) Detach(id string) {
	h.mu.Lock()
	delete(h.replicas, id)
	h.mu.Unlock()
}

func (h *Hub) ReplicaCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.replicas)
}
