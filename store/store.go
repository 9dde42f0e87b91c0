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
package store

import (
	"sync"
	"sync/atomic"
)

// WriteHook is notified after every committed write, keyed by database
// index and raw key. The dispatch package registers one implementation that
// forwards each write as a keyspace notification; WATCH does not use this
// hook. store never imports dispatch directly, only this narrow
// interface, which keeps the dependency pointing one way (§5, §6).
type WriteHook interface {
	OnWrite(db int, key string)
}

// Store is the whole server's keyspace: a fixed set of numbered Databases
// plus the one hook every mutating method calls after committing.
type Store struct {
	databases  []*Database
	hook       atomic.Pointer[WriteHook]
	lastAccess sync.Map // dbKey -> time.Time, read/written by eviction.go
}

// New builds a Store with the given number of databases, each split into
// shardCount (rounded up to a power of two) independently-locked shards.
func New(databases, shardCount int) *Store {
	if databases < 1 {
		databases = 1
	}
	s := &Store{databases: make([]*Database, databases)}
	for i := range s.databases {
		s.databases[i] = newDatabase(s, i, shardCount)
	}
	return s
}

func (s *Store) DB(index int) *Database {
	if index < 0 || index >= len(s.databases) {
		return nil
	}
	return s.databases[index]
}

func (s *Store) NumDatabases() int { return len(s.databases) }

// SetWriteHook installs (or clears, with nil) the dispatch layer's hook.
func (s *Store) SetWriteHook(h WriteHook) {
	if h == nil {
		s.hook.Store(nil)
		return
	}
	s.hook.Store(&h)
}

// notifyWrite is the one call every mutating Database method makes after
// committing. It stays a single atomic load plus a nil check when no hook
// is installed (unit tests of this package alone never pay more than that);
// WATCH correctness does not depend on this hook firing at all — EXEC
// re-reads each watched key's version directly, so a write that happens
// before any hook is installed is still caught.
func (s *Store) notifyWrite(db int, key string) {
	if p := s.hook.Load(); p != nil && *p != nil {
		(*p).OnWrite(db, key)
	}
}
