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
	"context"
	"time"
)

// activeExpireBudget bounds how many keys one shard's sweep inspects per
// tick, so a database with millions of expiring keys never turns the
// background cycle into a stop-the-world pause (§4.4 "active expiration
// must not monopolize a shard").
const activeExpireBudget = 20

// RunActiveExpiration sweeps every shard of every database round-robin
// (§4.4), popping and validating entries from each shard's ttlIndex under
// its own write lock, until ctx is cancelled. Grounded on memcp's
// scheduler.go background-goroutine-per-tick idiom, adapted here to walk
// shards instead of queued tasks.
func (s *Store) RunActiveExpiration(ctx context.Context, period time.Duration) {
	if period <= 0 {
		period = 100 * time.Millisecond
	}
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.expireTick()
		}
	}
}

func (s *Store) expireTick() {
	now := time.Now()
	for dbIdx, db := range s.databases {
		for _, sh := range db.shards {
			sh.mu.Lock()
			expired := sh.ttl.PopExpired(now, activeExpireBudget, func(key string, scheduledAt time.Time) bool {
				e, ok := sh.entries[key]
				return ok && e.HasTTL() && e.ExpireAt.Equal(scheduledAt)
			})
			for _, key := range expired {
				delete(sh.entries, key)
			}
			sh.mu.Unlock()
			for _, key := range expired {
				s.notifyWrite(dbIdx, key)
			}
		}
	}
}
