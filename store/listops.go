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

// Push appends values to key's list (creating it if absent), then hands
// off to any BLPOP/BRPOP waiters parked on this key before releasing the
// shard lock — the same critical section, so a waiting client is always
// served before a concurrent non-blocking LPOP/RPOP can steal the element
// it was promised (§4.7).
func (d *Database) Push(key []byte, left bool, values [][]byte) (int, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	var lv *ListVal
	if ok {
		var isList bool
		lv, isList = e.Value.(*ListVal)
		if !isList {
			return 0, &WrongTypeError{Want: KindList, Got: e.Value.Kind()}
		}
	} else {
		lv = NewListVal()
		e = &Entry{Value: lv}
		sh.entries[k] = e
	}
	for _, v := range values {
		if left {
			lv.PushLeft(v)
		} else {
			lv.PushRight(v)
		}
	}
	e.Version++

	for sh.wakeWaiter(k, lv) {
	}
	if lv.Len() == 0 {
		delete(sh.entries, k)
	}
	n := lv.Len()
	d.owner.notifyWrite(d.index, k)
	return n, nil
}

// Pop removes up to count elements from the left or right of key's list
// (LPOP/RPOP, with their optional count argument), deleting the key once
// it's empty (§4 "empty collections do not linger").
func (d *Database) Pop(key []byte, left bool, count int) ([][]byte, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	if !ok {
		return nil, nil
	}
	lv, isList := e.Value.(*ListVal)
	if !isList {
		return nil, &WrongTypeError{Want: KindList, Got: e.Value.Kind()}
	}
	if count <= 0 {
		count = 1
	}
	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		var v []byte
		var popped bool
		if left {
			v, popped = lv.PopLeft()
		} else {
			v, popped = lv.PopRight()
		}
		if !popped {
			break
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, nil
	}
	e.Version++
	if lv.Len() == 0 {
		delete(sh.entries, k)
	}
	d.owner.notifyWrite(d.index, k)
	return out, nil
}
