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
	"time"
)

// shard owns a disjoint slice of one database's keyspace, protected by one
// rwlock shared by the keyspace map, the TTL index and the list wait-queues
// (§4.3, §4.7, §5 "shared-resource policy"). Grounded on memcp's
// storage/shard.go, which similarly gives one storageShard one mutex
// guarding its delta map and lets index/TTL bookkeeping ride along with it.
type shard struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	ttl      *ttlIndex
	waiters  map[string][]*waiter // list key -> FIFO blocked BLPOP/BRPOP waiters
}

func newShard() *shard {
	return &shard{
		entries: make(map[string]*Entry),
		ttl:     newTTLIndex(),
		waiters: make(map[string][]*waiter),
	}
}

// lookupLocked returns the entry for key if present and not expired. The
// caller must hold at least a read lock. Lazy deletion (§4.4) of an expired
// key requires escalating to the write lock, so expired entries are
// reported absent here and left in the map; no read path calls
// expireIfNeeded, and the entry is removed by RunActiveExpiration's sweep
// or replaced by a later write to the key.
func (s *shard) lookupLocked(key string, now time.Time) (*Entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if e.ExpiredAt(now) {
		return nil, false
	}
	return e, true
}

// expireIfNeeded performs the lazy deletion described in §4.4: called with
// the write lock held, it removes key if its expiration has passed and
// reports whether it did.
func (s *shard) expireIfNeeded(key string, now time.Time) bool {
	e, ok := s.entries[key]
	if !ok || !e.ExpiredAt(now) {
		return false
	}
	delete(s.entries, key)
	return true
}

func (s *shard) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
