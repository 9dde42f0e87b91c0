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

// Package store implements the concurrent, sharded multi-database object
// store: the value model (C2), the shard keyspace with its TTL index (C3),
// the expiration engine (C4), and — because the spec ties their locking
// together so tightly — the blocking wait-queue handoff (C7). It is
// grounded on memcp's storage package: storage/shard.go's per-shard mutex
// and generation-rebuild, storage/database.go's database container, and
// storage/transaction.go's modification-version bookkeeping.
package store

import "fmt"

// Kind tags which variant a Value holds, mirroring OBJECT ENCODING's notion
// of "type" (as opposed to "encoding", which is an opaque hint string).
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindSet
	KindHash
	KindZSet
	KindStream
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindHash:
		return "hash"
	case KindZSet:
		return "zset"
	case KindStream:
		return "stream"
	default:
		return "none"
	}
}

// Value is implemented by every typed value variant (§3). Handlers type-
// assert to the concrete variant after checking Kind(); a mismatch is a
// WRONGTYPE error.
type Value interface {
	Kind() Kind
	// Encoding reports the OBJECT ENCODING hint for the value's current
	// internal representation; it never affects command semantics.
	Encoding() string
}

// WrongTypeError is returned whenever a command's key holds a Value of a
// different Kind than the command expects (spec §7, "-WRONGTYPE").
type WrongTypeError struct {
	Want, Got Kind
}

func (e *WrongTypeError) Error() string {
	return fmt.Sprintf("WRONGTYPE Operation against a key holding the wrong kind of value (want %s, got %s)", e.Want, e.Got)
}

// WrongTypeMsg is the sentinel text returned to clients; dispatch maps it to
// the bare "-WRONGTYPE ..." reply without the Go error-wrapping noise.
const WrongTypeMsg = "WRONGTYPE Operation against a key holding the wrong kind of value"
