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
	"container/heap"
	"time"
)

// ttlEntry is one scheduled expiration. Entries become stale when a key is
// deleted, its TTL changed, or PERSISTed; rather than thread an index back
// into the heap for O(log n) removal, a stale entry is recognized lazily
// when popped (its expireAt no longer matches the keyspace's current
// metadata) and silently dropped — the same trick memcp's scheduler.go uses
// for cancelled tasks (a "cancel" set checked at pop time) adapted to a
// heap keyed purely by deadline.
type ttlEntry struct {
	key      string
	expireAt time.Time
}

type ttlHeap []ttlEntry

func (h ttlHeap) Len() int            { return len(h) }
func (h ttlHeap) Less(i, j int) bool  { return h[i].expireAt.Before(h[j].expireAt) }
func (h ttlHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *ttlHeap) Push(x any)         { *h = append(*h, x.(ttlEntry)) }
func (h *ttlHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// ttlIndex is the per-shard min-ordered TTL index (§4.3); callers must hold
// the owning shard's write lock.
type ttlIndex struct {
	h ttlHeap
}

func newTTLIndex() *ttlIndex { return &ttlIndex{} }

func (t *ttlIndex) Schedule(key string, expireAt time.Time) {
	heap.Push(&t.h, ttlEntry{key: key, expireAt: expireAt})
}

// PopExpired removes and returns up to limit keys whose deadline is <= now,
// re-validating each against validate (the shard's current keyspace map)
// before returning it, discarding stale heap entries along the way.
func (t *ttlIndex) PopExpired(now time.Time, limit int, validate func(key string, expireAt time.Time) bool) []string {
	var out []string
	for len(t.h) > 0 && (limit <= 0 || len(out) < limit) {
		top := t.h[0]
		if top.expireAt.After(now) {
			break
		}
		heap.Pop(&t.h)
		if validate(top.key, top.expireAt) {
			out = append(out, top.key)
		}
	}
	return out
}

func (t *ttlIndex) Len() int { return len(t.h) }
