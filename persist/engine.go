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
package persist

import (
	"bytes"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
	"github.com/ulikunitz/xz"
)

const (
	snapshotObject = "snapshot.json"
	aofObject      = "appendonly.aof"
)

// Engine implements dispatch.PersistenceSink against a Backend: SAVE writes
// a full snapshot, write commands accumulate in the append log between
// snapshots, and BGREWRITEAOF clears the log once a fresh snapshot makes it
// redundant — the same schema.json-plus-shard-log split memcp persists,
// just with one snapshot object per Store instead of one per shard.
type Engine struct {
	store   *store.Store
	backend Backend

	mu       sync.Mutex
	lastDB   int
	lastSave time.Time

	// apply replays one logged write command against db during Load. It is
	// a plain closure rather than an interface on *dispatch.Engine so this
	// package never has to import dispatch (dispatch declares the
	// PersistenceSink interface this Engine satisfies); main.go wires it to
	// Engine.Dispatch through a loader-only Conn before calling Load, then
	// installs this Engine as the PersistenceSink afterward.
	apply func(db int, args [][]byte)
}

func New(st *store.Store, backend Backend) *Engine {
	return &Engine{store: st, backend: backend, lastDB: -1}
}

// SetApplier installs the callback Load uses to replay each AOF command.
func (e *Engine) SetApplier(fn func(db int, args [][]byte)) { e.apply = fn }

// Load restores the most recent snapshot, then replays the append log
// recorded since — mirroring memcp's ReplayLog-after-ReadSchema startup
// sequence.
func (e *Engine) Load() error {
	compressed, err := e.backend.ReadObject(snapshotObject)
	if err != nil {
		return err
	}
	snap, err := decompressSnapshot(compressed)
	if err != nil {
		return err
	}
	entries, err := unmarshalSnapshot(snap)
	if err != nil {
		return err
	}
	if err := loadStore(e.store, entries); err != nil {
		return err
	}

	aof, err := e.backend.ReadObject(aofObject)
	if err != nil {
		return err
	}
	return e.replayAOF(aof)
}

func (e *Engine) replayAOF(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	r := resp.NewReader(bytes.NewReader(data))
	db := 0
	for {
		args, err := r.ReadCommand()
		if err != nil {
			return nil // truncated tail entry: stop, same as a short AOF line upstream discards
		}
		if len(args) == 0 {
			continue
		}
		if eqFold(string(args[0]), "SELECT") && len(args) == 2 {
			if n, convErr := strconv.Atoi(string(args[1])); convErr == nil {
				db = n
			}
			continue
		}
		if db < 0 || db >= e.store.NumDatabases() || e.apply == nil {
			continue
		}
		e.apply(db, args)
	}
}

func eqFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if ca >= 'a' && ca <= 'z' {
			ca -= 'a' - 'A'
		}
		if cb >= 'a' && cb <= 'z' {
			cb -= 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// AppendCommand implements dispatch.PersistenceSink: encode args as a RESP
// command (prefixed with SELECT when db changed) and append it to the log.
func (e *Engine) AppendCommand(db int, args [][]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var buf bytes.Buffer
	w := resp.NewWriter(&buf)
	if db != e.lastDB {
		if err := w.WriteFrame(resp.Array(resp.BulkString([]byte("SELECT")), resp.BulkString([]byte(strconv.Itoa(db))))); err != nil {
			return err
		}
		e.lastDB = db
	}
	elems := make([]resp.Frame, len(args))
	for i, a := range args {
		elems[i] = resp.BulkString(a)
	}
	if err := w.WriteFrame(resp.Array(elems...)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return e.backend.AppendObject(aofObject, buf.Bytes())
}

func (e *Engine) Save() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saveLocked()
}

func (e *Engine) saveLocked() error {
	data, err := marshalSnapshot(dumpStore(e.store))
	if err != nil {
		return err
	}
	compressed, err := compressSnapshot(data)
	if err != nil {
		return err
	}
	if err := e.backend.WriteObject(snapshotObject, compressed); err != nil {
		return err
	}
	e.lastSave = time.Now()
	return nil
}

// compressSnapshot/decompressSnapshot keep the snapshot object itself small;
// the append log is left uncompressed since it needs to support true append
// (xz streams cannot be concatenated and replayed piecemeal the way RESP
// commands can).
func compressSnapshot(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompressSnapshot(compressed []byte) ([]byte, error) {
	if len(compressed) == 0 {
		return nil, nil
	}
	r, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// BGSave runs the save asynchronously on its own goroutine,
// the way memcp fires off its background compaction; dispatch only needs
// the call to return immediately with "Background saving started".
func (e *Engine) BGSave() error {
	go func() {
		e.mu.Lock()
		_ = e.saveLocked()
		e.mu.Unlock()
	}()
	return nil
}

// BGRewriteAOF snapshots the current state and truncates the log, since a
// fresh snapshot already captures everything the log would have replayed.
func (e *Engine) BGRewriteAOF() error {
	go func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		if err := e.saveLocked(); err != nil {
			return
		}
		e.lastDB = -1
		_ = e.backend.TruncateObject(aofObject)
	}()
	return nil
}

func (e *Engine) LastSave() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSave
}
