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
	"errors"
	"sort"
	"time"

	"github.com/launix-de/memkv/globutil"
)

// ErrNoSuchKey is returned by operations that require an existing key.
var ErrNoSuchKey = errors.New("ERR no such key")

// Database is one numbered keyspace (§2 "SELECT n"), split into a fixed
// number of shards the way memcp's storage.table splits a table into
// storageShards — here sized by key hash rather than by primary key range,
// since a KV store has no natural range to split on.
type Database struct {
	shards []*shard
	owner  *Store
	index  int
}

func newDatabase(owner *Store, index, shardCount int) *Database {
	if shardCount < 1 {
		shardCount = 1
	}
	// round up to a power of two so shard selection is a mask, not a modulo
	n := 1
	for n < shardCount {
		n <<= 1
	}
	d := &Database{owner: owner, index: index, shards: make([]*shard, n)}
	for i := range d.shards {
		d.shards[i] = newShard()
	}
	return d
}

func (d *Database) shardFor(key []byte) *shard {
	return d.shards[keyHash(key)&uint64(len(d.shards)-1)]
}

func (d *Database) shardIndexFor(key []byte) int {
	return int(keyHash(key) & uint64(len(d.shards)-1))
}

// DBSize reports the number of live keys, lazily skipping expired ones
// rather than eagerly sweeping (§4.4 wants lazy expiration on the read path).
func (d *Database) DBSize() int {
	now := time.Now()
	total := 0
	for _, sh := range d.shards {
		sh.mu.RLock()
		for _, e := range sh.entries {
			if !e.ExpiredAt(now) {
				total++
			}
		}
		sh.mu.RUnlock()
	}
	return total
}

// Get returns key's value if present and unexpired.
func (d *Database) Get(key []byte) (Value, bool) {
	sh := d.shardFor(key)
	now := time.Now()
	sh.mu.RLock()
	e, ok := sh.lookupLocked(string(key), now)
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	d.owner.touch(d.index, string(key))
	return e.Value, true
}

// GetEntry returns the full entry (needed by TTL/OBJECT commands).
func (d *Database) GetEntry(key []byte) (Entry, bool) {
	sh := d.shardFor(key)
	now := time.Now()
	sh.mu.RLock()
	e, ok := sh.lookupLocked(string(key), now)
	sh.mu.RUnlock()
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

func (d *Database) Exists(keys [][]byte) int {
	now := time.Now()
	n := 0
	for _, key := range keys {
		sh := d.shardFor(key)
		sh.mu.RLock()
		_, ok := sh.lookupLocked(string(key), now)
		sh.mu.RUnlock()
		if ok {
			n++
		}
	}
	return n
}

// Keys returns all live keys matching pattern (§4.1 KEYS); like upstream
// this is an O(n) full scan and is meant for debugging, not hot paths.
func (d *Database) Keys(pattern string) [][]byte {
	now := time.Now()
	var out [][]byte
	for _, sh := range d.shards {
		sh.mu.RLock()
		for k, e := range sh.entries {
			if e.ExpiredAt(now) {
				continue
			}
			if pattern == "*" || globutil.Match(pattern, k) {
				out = append(out, []byte(k))
			}
		}
		sh.mu.RUnlock()
	}
	return out
}

// Scan implements the SCAN cursor contract (§4.1): the cursor encodes a
// shard index and an in-shard position is not preserved across calls
// (matching real Redis's guarantee: complete-pass safety, not a stable
// per-key position), so a full shard worth of keys is emitted per step.
func (d *Database) Scan(cursor uint64, pattern string, count int, typeFilter Kind, hasTypeFilter bool) (uint64, [][]byte) {
	now := time.Now()
	if count <= 0 {
		count = 10
	}
	var out [][]byte
	shardIdx := int(cursor)
	for shardIdx < len(d.shards) {
		sh := d.shards[shardIdx]
		sh.mu.RLock()
		for k, e := range sh.entries {
			if e.ExpiredAt(now) {
				continue
			}
			if hasTypeFilter && e.Value.Kind() != typeFilter {
				continue
			}
			if pattern == "" || pattern == "*" || globutil.Match(pattern, k) {
				out = append(out, []byte(k))
			}
		}
		sh.mu.RUnlock()
		shardIdx++
		if len(out) >= count {
			break
		}
	}
	if shardIdx >= len(d.shards) {
		return 0, out
	}
	return uint64(shardIdx), out
}

func (d *Database) FlushDB() {
	for _, sh := range d.shards {
		sh.mu.Lock()
		sh.entries = make(map[string]*Entry)
		sh.ttl = newTTLIndex()
		sh.mu.Unlock()
	}
}

// Del removes keys, returning the number actually removed.
func (d *Database) Del(keys [][]byte) int {
	shards, unlock := d.lockMany(keys)
	defer unlock()
	now := time.Now()
	n := 0
	for _, key := range keys {
		sh := shards[d.shardIndexFor(key)]
		k := string(key)
		if e, ok := sh.lookupLocked(k, now); ok {
			_ = e
			delete(sh.entries, k)
			d.owner.notifyWrite(d.index, k)
			n++
		}
	}
	return n
}

// Rename moves src's entry to dst (overwriting dst), preserving its TTL.
func (d *Database) Rename(src, dst []byte) error {
	shards, unlock := d.lockMany([][]byte{src, dst})
	defer unlock()
	now := time.Now()
	srcSh := shards[d.shardIndexFor(src)]
	dstSh := shards[d.shardIndexFor(dst)]
	e, ok := srcSh.lookupLocked(string(src), now)
	if !ok {
		return ErrNoSuchKey
	}
	delete(srcSh.entries, string(src))
	moved := &Entry{Value: e.Value, ExpireAt: e.ExpireAt, Version: e.Version + 1}
	dstSh.entries[string(dst)] = moved
	if moved.HasTTL() {
		dstSh.ttl.Schedule(string(dst), moved.ExpireAt)
	}
	d.owner.notifyWrite(d.index, string(src))
	d.owner.notifyWrite(d.index, string(dst))
	return nil
}

// Expire sets key's absolute expiration; a zero time clears it (PERSIST).
func (d *Database) Expire(key []byte, at time.Time) bool {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	e, ok := sh.lookupLocked(string(key), time.Now())
	if !ok {
		return false
	}
	e.ExpireAt = at
	e.Version++
	if !at.IsZero() {
		sh.ttl.Schedule(string(key), at)
	}
	d.owner.notifyWrite(d.index, string(key))
	return true
}

func (d *Database) TTL(key []byte) (time.Duration, bool, bool) {
	e, ok := d.GetEntry(key)
	if !ok {
		return 0, false, false
	}
	if !e.HasTTL() {
		return 0, false, true
	}
	return time.Until(e.ExpireAt), true, true
}

// lockMany acquires write locks for every distinct shard touched by keys, in
// ascending shard-index order, to prevent the lock-order deadlock a naive
// per-key acquisition could cause under concurrent multi-key commands (§5).
func (d *Database) lockMany(keys [][]byte) (map[int]*shard, func()) {
	idxSet := make(map[int]bool, len(keys))
	for _, k := range keys {
		idxSet[d.shardIndexFor(k)] = true
	}
	idxs := make([]int, 0, len(idxSet))
	for i := range idxSet {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make(map[int]*shard, len(idxs))
	for _, i := range idxs {
		d.shards[i].mu.Lock()
		out[i] = d.shards[i]
	}
	return out, func() {
		for i := len(idxs) - 1; i >= 0; i-- {
			d.shards[idxs[i]].mu.Unlock()
		}
	}
}

// lockManyRead is lockMany's read-lock counterpart, used by multi-key reads
// like MGET that still benefit from a consistent ascending lock order.
func (d *Database) lockManyRead(keys [][]byte) (map[int]*shard, func()) {
	idxSet := make(map[int]bool, len(keys))
	for _, k := range keys {
		idxSet[d.shardIndexFor(k)] = true
	}
	idxs := make([]int, 0, len(idxSet))
	for i := range idxSet {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	out := make(map[int]*shard, len(idxs))
	for _, i := range idxs {
		d.shards[i].mu.RLock()
		out[i] = d.shards[i]
	}
	return out, func() {
		for i := len(idxs) - 1; i >= 0; i-- {
			d.shards[idxs[i]].mu.RUnlock()
		}
	}
}

// MGet reads many keys under one ascending-order lock acquisition.
func (d *Database) MGet(keys [][]byte) []Value {
	shards, unlock := d.lockManyRead(keys)
	defer unlock()
	now := time.Now()
	out := make([]Value, len(keys))
	for i, key := range keys {
		sh := shards[d.shardIndexFor(key)]
		if e, ok := sh.lookupLocked(string(key), now); ok {
			out[i] = e.Value
		}
	}
	return out
}
