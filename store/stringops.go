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

// SetString stores val under key as a StringVal, replacing whatever was
// there regardless of its previous Kind (SET always overwrites, §4.2). A
// zero expireAt means no TTL.
func (d *Database) SetString(key, val []byte, expireAt time.Time) error {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	cp := append([]byte(nil), val...)
	e, ok := sh.entries[k]
	if !ok {
		e = &Entry{}
		sh.entries[k] = e
	}
	e.Value = StringVal(cp)
	e.ExpireAt = expireAt
	e.Version++
	if !expireAt.IsZero() {
		sh.ttl.Schedule(k, expireAt)
	}
	d.owner.notifyWrite(d.index, k)
	return nil
}

// Append implements APPEND: creates key as an empty string if absent, then
// appends suffix, preserving any existing TTL.
func (d *Database) Append(key, suffix []byte) (int, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	if !ok {
		cp := append([]byte(nil), suffix...)
		sh.entries[k] = &Entry{Value: StringVal(cp)}
		d.owner.notifyWrite(d.index, k)
		return len(cp), nil
	}
	sv, isStr := e.Value.(StringVal)
	if !isStr {
		return 0, &WrongTypeError{Want: KindString, Got: e.Value.Kind()}
	}
	merged := append(append([]byte(nil), sv...), suffix...)
	e.Value = StringVal(merged)
	e.Version++
	d.owner.notifyWrite(d.index, k)
	return len(merged), nil
}

// SetRange implements SETRANGE: overwrites bytes starting at offset,
// zero-padding if the string needs to grow to reach offset.
func (d *Database) SetRange(key []byte, offset int, val []byte) (int, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	var cur []byte
	if ok {
		sv, isStr := e.Value.(StringVal)
		if !isStr {
			return 0, &WrongTypeError{Want: KindString, Got: e.Value.Kind()}
		}
		cur = []byte(sv)
	}
	needed := offset + len(val)
	if needed > len(cur) {
		grown := make([]byte, needed)
		copy(grown, cur)
		cur = grown
	}
	copy(cur[offset:], val)
	if !ok {
		e = &Entry{}
		sh.entries[k] = e
	}
	e.Value = StringVal(cur)
	e.Version++
	d.owner.notifyWrite(d.index, k)
	return len(cur), nil
}

// IncrBy implements INCR/DECR/INCRBY/DECRBY.
func (d *Database) IncrBy(key []byte, delta int64) (int64, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	var cur []byte
	if ok {
		sv, isStr := e.Value.(StringVal)
		if !isStr {
			return 0, &WrongTypeError{Want: KindString, Got: e.Value.Kind()}
		}
		cur = []byte(sv)
	}
	next, err := IncrBy(cur, delta)
	if err != nil {
		return 0, err
	}
	if !ok {
		e = &Entry{}
		sh.entries[k] = e
	}
	e.Value = StringVal(next)
	e.Version++
	d.owner.notifyWrite(d.index, k)
	n, _ := ParseStrictInt64(next)
	return n, nil
}

// IncrByFloat implements INCRBYFLOAT.
func (d *Database) IncrByFloat(key []byte, delta string) ([]byte, error) {
	sh := d.shardFor(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	k := string(key)
	e, ok := sh.lookupLocked(k, time.Now())
	var cur []byte
	if ok {
		sv, isStr := e.Value.(StringVal)
		if !isStr {
			return nil, &WrongTypeError{Want: KindString, Got: e.Value.Kind()}
		}
		cur = []byte(sv)
	}
	next, err := IncrByFloat(cur, delta)
	if err != nil {
		return nil, err
	}
	if !ok {
		e = &Entry{}
		sh.entries[k] = e
	}
	e.Value = StringVal(next)
	e.Version++
	d.owner.notifyWrite(d.index, k)
	return next, nil
}
