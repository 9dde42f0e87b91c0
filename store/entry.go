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

import "time"

// Entry is one keyspace slot: a Value plus the metadata §3 requires —
// an optional absolute expiration instant, a monotonically increasing
// modification version (used by WATCH); the encoding hint is not stored
// here but reported by Value.Encoding(). Entries are only ever mutated
// while their owning shard's write lock is held.
type Entry struct {
	Value    Value
	ExpireAt time.Time // zero value means "no expiration"
	Version  uint64
}

func (e *Entry) HasTTL() bool { return !e.ExpireAt.IsZero() }

func (e *Entry) ExpiredAt(now time.Time) bool {
	return e.HasTTL() && !e.ExpireAt.After(now)
}
