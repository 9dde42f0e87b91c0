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

import "hash/fnv"

// keyHash is the "stable non-cryptographic hash over raw bytes" §3 asks
// for, used only to pick a shard — never the cluster keyslot algorithm
// (CRC16/{tag}), which stays explicitly out of scope (§9). FNV-1a from the
// standard library is all this needs: no pack dependency does better for a
// single 64-bit scatter hash (see DESIGN.md).
func keyHash(key []byte) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64()
}
