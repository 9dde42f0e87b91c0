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

// HashVal maps field to value, both byte strings, with field uniqueness (§3).
type HashVal map[string][]byte

func NewHashVal() HashVal { return make(HashVal) }

func (HashVal) Kind() Kind { return KindHash }

func (h HashVal) Encoding() string {
	if len(h) <= 128 {
		return "listpack"
	}
	return "hashtable"
}

// Set stores value under field, reporting whether field was newly created.
func (h HashVal) Set(field string, value []byte) bool {
	_, existed := h[field]
	h[field] = value
	return !existed
}

func (h HashVal) Get(field string) ([]byte, bool) {
	v, ok := h[field]
	return v, ok
}

func (h HashVal) Delete(field string) bool {
	if _, ok := h[field]; !ok {
		return false
	}
	delete(h, field)
	return true
}
