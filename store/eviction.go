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
	"math/rand"
	"time"
)

// EvictionPolicy mirrors the maxmemory-policy CONFIG values (A5).
type EvictionPolicy string

const (
	EvictionNone           EvictionPolicy = "noeviction"
	EvictionAllKeysLRU     EvictionPolicy = "allkeys-lru"
	EvictionVolatileLRU    EvictionPolicy = "volatile-lru"
	EvictionAllKeysRandom  EvictionPolicy = "allkeys-random"
	EvictionVolatileRandom EvictionPolicy = "volatile-random"
	EvictionVolatileTTL    EvictionPolicy = "volatile-ttl"
)

// evictSampleSize and evictMaxRounds match the values SPEC_FULL.md's resolved
// Open Question settled on: five candidate keys per round, at most sixteen
// rounds, the same approximated-LRU sampling shape upstream uses instead of
// a true LRU list.
const (
	evictSampleSize = 5
	evictMaxRounds  = 16
)

// touch records approximate last-access time for LRU-ish policies; real
// Redis keeps this inline in the object header, but a side table is
// simpler here and only ever read during eviction, never on the hot path.
func (s *Store) touch(dbIdx int, key string) {
	s.lastAccess.Store(dbKey{dbIdx, key}, time.Now())
}

type dbKey struct {
	db  int
	key string
}

// EvictUntilUnderBudget runs up to evictMaxRounds sampling rounds, each
// picking evictSampleSize random candidate keys from the configured pool
// (all keys, or only keys with a TTL) and evicting the best candidate per
// the policy, until usedBytes() reports the store back under limit or
// eviction data runs out. It returns the number of keys evicted.
func (s *Store) EvictUntilUnderBudget(policy EvictionPolicy, limit int64, usedBytes func() int64) int {
	if policy == EvictionNone || limit <= 0 {
		return 0
	}
	evicted := 0
	for round := 0; round < evictMaxRounds; round++ {
		if usedBytes() <= limit {
			break
		}
		dbIdx, key, ok := s.sampleCandidate(policy)
		if !ok {
			break
		}
		if s.databases[dbIdx].Del([][]byte{[]byte(key)}) > 0 {
			evicted++
		}
	}
	return evicted
}

// sampleCandidate draws evictSampleSize random keys from each database,
// skips draws not eligible under policy, and returns the one the policy would evict first (oldest access time for
// *-lru, soonest expiry for volatile-ttl, or simply the last one drawn for
// the *-random policies).
func (s *Store) sampleCandidate(policy EvictionPolicy) (int, string, bool) {
	volatileOnly := policy == EvictionVolatileLRU || policy == EvictionVolatileRandom || policy == EvictionVolatileTTL
	var bestDB int
	var bestKey string
	var bestScore time.Time
	found := false

	for dbIdx, db := range s.databases {
		for attempt := 0; attempt < evictSampleSize; attempt++ {
			sh := db.shards[rand.Intn(len(db.shards))]
			sh.mu.RLock()
			key, e, ok := randomEntry(sh)
			sh.mu.RUnlock()
			if !ok {
				continue
			}
			if volatileOnly && !e.HasTTL() {
				continue
			}
			var score time.Time
			switch policy {
			case EvictionVolatileTTL:
				score = e.ExpireAt
			case EvictionAllKeysRandom, EvictionVolatileRandom:
				bestDB, bestKey, found = dbIdx, key, true
				continue
			default:
				if v, ok := s.lastAccess.Load(dbKey{dbIdx, key}); ok {
					score = v.(time.Time)
				}
			}
			if !found || score.Before(bestScore) {
				bestDB, bestKey, bestScore, found = dbIdx, key, score, true
			}
		}
	}
	return bestDB, bestKey, found
}

// randomEntry returns one arbitrary (key, entry) pair from a shard's
// keyspace map, relying on Go's randomized map iteration order rather than
// maintaining a separate index — adequate for a sampling-based eviction
// policy, which only ever needs "a" random key, not a uniformly fair one.
func randomEntry(sh *shard) (string, *Entry, bool) {
	for k, e := range sh.entries {
		return k, e, true
	}
	return "", nil, false
}
