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

// Package persist implements the snapshot and append-log storage backends
// (§C11). It satisfies dispatch.PersistenceSink so Engine can SAVE/BGSAVE/
// log writes without importing this package back.
package persist

import (
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// Backend is the object-storage abstraction every concrete backend
// (file system, S3, Ceph/RADOS) implements, mirroring memcp's
// storage.PersistenceEngine split between a durable blob ("schema.json")
// and an append-only one ("<shard>.log"): two objects for the whole store
// (snapshot.json and appendonly.aof) are enough for a KV store, where memcp needed one pair per shard per table.
type Backend interface {
	// ReadObject returns (nil, nil) when name does not exist yet.
	ReadObject(name string) ([]byte, error)
	// WriteObject replaces name's contents wholesale (used for snapshots).
	WriteObject(name string, data []byte) error
	// AppendObject grows name's contents by data (used for the AOF log).
	// Backends that cannot truly append (object stores) read-modify-write.
	AppendObject(name string, data []byte) error
	// TruncateObject empties name's contents (BGREWRITEAOF after a fresh
	// snapshot makes the prior log redundant).
	TruncateObject(name string) error
}

// FileBackend stores objects as files under a directory, rescuing the
// previous snapshot to a ".old" sibling before replacing it the way
// memcp's FileStorage.WriteSchema rescues schema.json before overwriting.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) *FileBackend {
	_ = os.MkdirAll(dir, 0750)
	return &FileBackend{dir: dir}
}

func (b *FileBackend) path(name string) string { return b.dir + "/" + name }

func (b *FileBackend) ReadObject(name string) ([]byte, error) {
	data, err := os.ReadFile(b.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (b *FileBackend) WriteObject(name string, data []byte) error {
	target := b.path(name)
	if stat, err := os.Stat(target); err == nil && stat.Size() > 0 {
		_ = os.Rename(target, target+".old")
	}
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0640); err != nil {
		return fmt.Errorf("persist: write %s: %w", name, err)
	}
	return os.Rename(tmp, target)
}

func (b *FileBackend) AppendObject(name string, data []byte) error {
	f, err := os.OpenFile(b.path(name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("persist: append %s: %w", name, err)
	}
	defer f.Close()
	_, err = f.Write(data)
	return err
}

func (b *FileBackend) TruncateObject(name string) error {
	return os.WriteFile(b.path(name), []byte{}, 0640)
}

// WatchExternalSnapshot calls onChange whenever something other than this
// process replaces snapshot.json in the backend directory — e.g. an
// operator restoring a backup while the server is running. The returned
// *fsnotify.Watcher must be closed by the caller on shutdown.
func (b *FileBackend) WatchExternalSnapshot(onChange func()) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(b.dir); err != nil {
		w.Close()
		return nil, err
	}
	target := b.path(snapshotObject)
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Name == target && (ev.Op&(fsnotify.Write|fsnotify.Create) != 0) {
					onChange()
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return w, nil
}

// memBuffer is a tiny helper shared by the object-store backends, which
// cannot append in place and must buffer-then-replace (same tradeoff
// memcp's S3Storage/CephStorage document for their log segments).
func memBuffer(existing, add []byte) []byte {
	buf := make([]byte, 0, len(existing)+len(add))
	buf = append(buf, existing...)
	buf = append(buf, add...)
	return buf
}
