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

import "container/list"

// ListVal is an ordered sequence of byte strings with O(1) push/pop at
// both ends (container/list is a doubly linked list, which gives exactly
// that) and acceptable O(n) indexed access (§3).
type ListVal struct {
	l *list.List
}

func NewListVal() *ListVal { return &ListVal{l: list.New()} }

func (*ListVal) Kind() Kind { return KindList }

func (v *ListVal) Encoding() string {
	if v.l.Len() <= 128 {
		return "listpack"
	}
	return "quicklist"
}

func (v *ListVal) Len() int { return v.l.Len() }

func (v *ListVal) PushLeft(values ...[]byte) {
	for _, val := range values {
		v.l.PushFront(val)
	}
}

func (v *ListVal) PushRight(values ...[]byte) {
	for _, val := range values {
		v.l.PushBack(val)
	}
}

func (v *ListVal) PopLeft() ([]byte, bool) {
	e := v.l.Front()
	if e == nil {
		return nil, false
	}
	v.l.Remove(e)
	return e.Value.([]byte), true
}

func (v *ListVal) PopRight() ([]byte, bool) {
	e := v.l.Back()
	if e == nil {
		return nil, false
	}
	v.l.Remove(e)
	return e.Value.([]byte), true
}

// element returns the list.Element at logical index idx (0-based, negative
// counts from the end), or nil if out of range.
func (v *ListVal) element(idx int) *list.Element {
	n := v.l.Len()
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil
	}
	if idx <= n/2 {
		e := v.l.Front()
		for i := 0; i < idx; i++ {
			e = e.Next()
		}
		return e
	}
	e := v.l.Back()
	for i := n - 1; i > idx; i-- {
		e = e.Prev()
	}
	return e
}

func (v *ListVal) Index(idx int) ([]byte, bool) {
	e := v.element(idx)
	if e == nil {
		return nil, false
	}
	return e.Value.([]byte), true
}

func (v *ListVal) Set(idx int, val []byte) bool {
	e := v.element(idx)
	if e == nil {
		return false
	}
	e.Value = val
	return true
}

// Range returns a copy of the slice between start and stop inclusive,
// clamped the way LRANGE clamps out-of-range indices.
func (v *ListVal) Range(start, stop int) [][]byte {
	n := v.l.Len()
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return nil
	}
	out := make([][]byte, 0, stop-start+1)
	e := v.element(start)
	for i := start; i <= stop && e != nil; i++ {
		out = append(out, e.Value.([]byte))
		e = e.Next()
	}
	return out
}

func clampRange(start, stop, n int) (int, int) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	return start, stop
}

// Trim keeps only [start, stop] (LTRIM semantics).
func (v *ListVal) Trim(start, stop int) {
	n := v.l.Len()
	start, stop = clampRange(start, stop, n)
	if start > stop {
		v.l.Init()
		return
	}
	// drop from the front
	for i := 0; i < start; i++ {
		v.l.Remove(v.l.Front())
	}
	// recompute remaining length, drop from the back
	keep := stop - start + 1
	for v.l.Len() > keep {
		v.l.Remove(v.l.Back())
	}
}

// RemoveValue removes up to count occurrences of val. count > 0 scans head
// to tail, count < 0 scans tail to head, count == 0 removes every match
// (LREM semantics).
func (v *ListVal) RemoveValue(count int, val []byte) int {
	removed := 0
	match := func(e *list.Element) bool { return string(e.Value.([]byte)) == string(val) }
	if count >= 0 {
		limit := count
		e := v.l.Front()
		for e != nil && (limit == 0 || removed < limit) {
			next := e.Next()
			if match(e) {
				v.l.Remove(e)
				removed++
			}
			e = next
		}
	} else {
		limit := -count
		e := v.l.Back()
		for e != nil && removed < limit {
			prev := e.Prev()
			if match(e) {
				v.l.Remove(e)
				removed++
			}
			e = prev
		}
	}
	return removed
}
