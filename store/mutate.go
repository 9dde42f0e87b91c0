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

// MutateFunc reads the current value at a key (nil, existed=false if
// absent) and returns the value to store plus a dispatcher-defined result
// count (members added, fields changed, whatever the calling command
// reports). Returning a nil Value deletes the key.
type MutateFunc func(v Value, existed bool) (Value, int, error)

// SetMutate is the generic single-key read-modify-write used by the Set,
// Hash and SortedSet command families (§4.3): one shard lock acquisition,
// lazy-expiry-aware lookup, caller-supplied mutation, then a version bump
// and empty-collection cleanup so SADD/SREM/HSET/ZADD/... never leave a
// zero-length collection lingering in the keyspace (§3).
func (d *Database) SetMutate(key []byte, fn MutateFunc) (int, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, existed := sh.lookupLocked(k, time.Now())
	var cur Value
	if existed {
		cur = e.Value
	}
	next, n, err := fn(cur, existed)
	if err != nil {
		return 0, err
	}
	if next == nil || collectionEmpty(next) {
		if existed {
			delete(sh.entries, k)
			d.owner.notifyWrite(d.index, k)
		}
		return n, nil
	}
	if existed {
		e.Value = next
		e.Version++
	} else {
		sh.entries[k] = &Entry{Value: next}
	}
	d.owner.notifyWrite(d.index, k)
	return n, nil
}

// collectionEmpty reports whether a collection Value has zero members,
// so SetMutate can apply the "empty collection does not persist" rule
// uniformly across Set, Hash and SortedSet.
func collectionEmpty(v Value) bool {
	switch t := v.(type) {
	case SetVal:
		return len(t) == 0
	case HashVal:
		return len(t) == 0
	case *ZSetVal:
		return t.Len() == 0
	case *ListVal:
		return t.Len() == 0
	}
	return false
}
