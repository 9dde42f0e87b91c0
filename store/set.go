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

import "math/rand"

// SetVal is an unordered set of unique byte strings; iteration order is
// unspecified (§3), which a Go map already gives us for free.
type SetVal map[string]struct{}

func NewSetVal() SetVal { return make(SetVal) }

func (SetVal) Kind() Kind { return KindSet }

func (s SetVal) Encoding() string {
	for k := range s {
		if _, ok := ParseStrictInt64([]byte(k)); !ok {
			return "hashtable"
		}
	}
	return "intset"
}

func (s SetVal) Add(member []byte) bool {
	k := string(member)
	if _, ok := s[k]; ok {
		return false
	}
	s[k] = struct{}{}
	return true
}

func (s SetVal) Remove(member []byte) bool {
	k := string(member)
	if _, ok := s[k]; !ok {
		return false
	}
	delete(s, k)
	return true
}

func (s SetVal) Has(member []byte) bool {
	_, ok := s[string(member)]
	return ok
}

func (s SetVal) Members() [][]byte {
	out := make([][]byte, 0, len(s))
	for k := range s {
		out = append(out, []byte(k))
	}
	return out
}

// RandomMembers returns up to count distinct random members (count >= 0) or,
// for count < 0, -count samples drawn with replacement (SRANDMEMBER's two
// modes).
func (s SetVal) RandomMembers(count int) [][]byte {
	all := s.Members()
	if len(all) == 0 {
		return nil
	}
	if count < 0 {
		n := -count
		out := make([][]byte, n)
		for i := 0; i < n; i++ {
			out[i] = all[rand.Intn(len(all))]
		}
		return out
	}
	if count >= len(all) {
		return all
	}
	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:count]
}

func Union(sets ...SetVal) SetVal {
	out := NewSetVal()
	for _, s := range sets {
		for k := range s {
			out[k] = struct{}{}
		}
	}
	return out
}

func Inter(sets ...SetVal) SetVal {
	out := NewSetVal()
	if len(sets) == 0 {
		return out
	}
	smallest := sets[0]
	for _, s := range sets[1:] {
		if len(s) < len(smallest) {
			smallest = s
		}
	}
	for k := range smallest {
		inAll := true
		for _, s := range sets {
			if _, ok := s[k]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out[k] = struct{}{}
		}
	}
	return out
}

func Diff(sets ...SetVal) SetVal {
	out := NewSetVal()
	if len(sets) == 0 {
		return out
	}
	for k := range sets[0] {
		out[k] = struct{}{}
	}
	for _, s := range sets[1:] {
		for k := range s {
			delete(out, k)
		}
	}
	return out
}
