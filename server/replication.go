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
package server

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

// handlePSync answers a replica's PSYNC the way dispatch.cmdPSync explicitly
// punts: it needs the raw socket, which only the transport layer has.
// "PSYNC ? -1" (or an offset the backlog can no longer serve) gets a
// FULLRESYNC followed by every current key re-expressed as write commands;
// an offset repl.Hub.Attach can still serve gets CONTINUE plus just the
// missed bytes. Either way the connection then blocks forwarding live writes
// until the replica disconnects.
func (s *Server) handlePSync(netConn net.Conn, r *resp.Reader, w *resp.Writer, writeMu *sync.Mutex, c *dispatch.Conn, args [][]byte) {
	offset := int64(-1)
	if len(args) >= 3 {
		if n, err := strconv.ParseInt(string(args[2]), 10, 64); err == nil {
			offset = n
		}
	}

	var pending [][]byte
	var pendingMu sync.Mutex
	notify := func(data []byte) {
		pendingMu.Lock()
		pending = append(pending, data)
		pendingMu.Unlock()
	}

	backfill, masterOffset, ok := s.Repl.Attach(c.ID, offset, notify)
	defer s.Repl.Detach(c.ID)

	bw := bufio.NewWriter(netConn)
	writeMu.Lock()
	if ok {
		fmt.Fprintf(bw, "+CONTINUE\r\n")
		bw.Write(backfill)
	} else {
		fmt.Fprintf(bw, "+FULLRESYNC %s %d\r\n", replicationID, masterOffset)
		streamFullResync(bw, s.Engine.Store)
	}
	bw.Flush()
	writeMu.Unlock()

	s.Log.Info("replica attached", "addr", netConn.RemoteAddr().String(), "offset", offset, "continue", ok)

	// drain any backlog bytes queued while we were writing the resync body
	for {
		pendingMu.Lock()
		if len(pending) == 0 {
			pendingMu.Unlock()
			break
		}
		batch := pending
		pending = nil
		pendingMu.Unlock()

		writeMu.Lock()
		for _, data := range batch {
			bw.Write(data)
		}
		bw.Flush()
		writeMu.Unlock()
	}

	// from here on this goroutine just keeps the socket open and forwards
	// whatever notify appends; REPLCONF ACK replies from the replica are
	// read and discarded since this store does not track per-replica offsets.
	// closed fires the moment that read fails, which is also the first sign
	// the replica hung up — nothing else on this connection would notice,
	// since the forwarding loop below only reads from pending, never netConn.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		discard := make([]byte, 4096)
		for {
			if _, err := netConn.Read(discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case <-time.After(20 * time.Millisecond):
		}
		pendingMu.Lock()
		batch := pending
		pending = nil
		pendingMu.Unlock()
		if len(batch) == 0 {
			continue
		}
		writeMu.Lock()
		for _, data := range batch {
			bw.Write(data)
		}
		err := bw.Flush()
		writeMu.Unlock()
		if err != nil {
			return
		}
	}
}

// replicationID is a fixed run ID; this store does not persist one across
// restarts the way Redis does (REPLID would need its own durable slot), so
// every process boot looks like a fresh master to an attaching replica.
const replicationID = "0000000000000000000000000000000000000000"

// streamFullResync writes one command per key currently in st, the same
// full-keyspace walk persist.dumpStore does for snapshot.json, but encoded
// as RESP write commands instead of JSON records so a PSYNC replica can
// replay them exactly like any other propagated write.
func streamFullResync(bw *bufio.Writer, st *store.Store) {
	rw := resp.NewWriter(bw)
	lastDB := -1
	emit := func(db int, elems ...resp.Frame) {
		if db != lastDB {
			_ = rw.WriteFrame(resp.Array(resp.BulkString([]byte("SELECT")), resp.BulkString([]byte(strconv.Itoa(db)))))
			lastDB = db
		}
		_ = rw.WriteFrame(resp.Array(elems...))
	}
	bs := func(s string) resp.Frame { return resp.BulkString([]byte(s)) }

	for dbIdx := 0; dbIdx < st.NumDatabases(); dbIdx++ {
		db := st.DB(dbIdx)
		for _, key := range db.Keys("*") {
			entry, ok := db.GetEntry(key)
			if !ok {
				continue
			}
			k := string(key)
			switch v := entry.Value.(type) {
			case store.StringVal:
				emit(dbIdx, bs("SET"), bs(k), bs(string(v)))
			case *store.ListVal:
				elems := []resp.Frame{bs("RPUSH"), bs(k)}
				for _, item := range v.Range(0, -1) {
					elems = append(elems, bs(string(item)))
				}
				if len(elems) > 2 {
					emit(dbIdx, elems...)
				}
			case store.SetVal:
				elems := []resp.Frame{bs("SADD"), bs(k)}
				for _, m := range v.Members() {
					elems = append(elems, bs(string(m)))
				}
				if len(elems) > 2 {
					emit(dbIdx, elems...)
				}
			case store.HashVal:
				elems := []resp.Frame{bs("HSET"), bs(k)}
				for f, val := range v {
					elems = append(elems, bs(f), bs(string(val)))
				}
				if len(elems) > 2 {
					emit(dbIdx, elems...)
				}
			case *store.ZSetVal:
				elems := []resp.Frame{bs("ZADD"), bs(k)}
				for _, it := range v.RangeByRank(0, -1, false) {
					elems = append(elems, bs(strconv.FormatFloat(it.Score, 'g', -1, 64)), bs(it.Member))
				}
				if len(elems) > 2 {
					emit(dbIdx, elems...)
				}
			case *store.StreamVal:
				last := store.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}
				for _, se := range v.Range(store.StreamID{}, last, 0) {
					elems := []resp.Frame{bs("XADD"), bs(k), bs(se.ID.String())}
					for _, fv := range se.Fields {
						elems = append(elems, bs(string(fv[0])), bs(string(fv[1])))
					}
					emit(dbIdx, elems...)
				}
			}
			if entry.HasTTL() {
				emit(dbIdx, bs("PEXPIREAT"), bs(k), bs(strconv.FormatInt(entry.ExpireAt.UnixMilli(), 10)))
			}
		}
	}
	_ = rw.Flush()
}
