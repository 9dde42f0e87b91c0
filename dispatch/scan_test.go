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
package dispatch

import (
	"io"
	"testing"

	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func newTestEngine() (*Engine, *Conn) {
	st := store.New(1, 1)
	e := New(st, config.Default(), logx.New(io.Discard, logx.LevelError, "test"))
	return e, NewConn(e, "test")
}

func bulkStrings(f resp.Frame) []string {
	out := make([]string, len(f.Elems))
	for i, e := range f.Elems {
		out[i] = string(e.Str)
	}
	return out
}

func TestSScanReturnsAllMembersInOnePass(t *testing.T) {
	e, c := newTestEngine()
	e.Dispatch(c, [][]byte{[]byte("SADD"), []byte("s"), []byte("a"), []byte("b"), []byte("c")})

	reply := e.Dispatch(c, [][]byte{[]byte("SSCAN"), []byte("s"), []byte("0")})
	if reply.Type != resp.TypeArray || len(reply.Elems) != 2 {
		t.Fatalf("unexpected SSCAN reply shape: %+v", reply)
	}
	if string(reply.Elems[0].Str) != "0" {
		t.Fatalf("expected cursor 0 to signal a complete pass, got %q", reply.Elems[0].Str)
	}
	got := bulkStrings(reply.Elems[1])
	if len(got) != 3 {
		t.Fatalf("expected 3 members, got %v", got)
	}
}

func TestSScanMatchFilters(t *testing.T) {
	e, c := newTestEngine()
	e.Dispatch(c, [][]byte{[]byte("SADD"), []byte("s"), []byte("foo"), []byte("bar")})

	reply := e.Dispatch(c, [][]byte{[]byte("SSCAN"), []byte("s"), []byte("0"), []byte("MATCH"), []byte("f*")})
	got := bulkStrings(reply.Elems[1])
	if len(got) != 1 || got[0] != "foo" {
		t.Fatalf("expected only foo to match, got %v", got)
	}
}

func TestHScanReturnsFieldValuePairs(t *testing.T) {
	e, c := newTestEngine()
	e.Dispatch(c, [][]byte{[]byte("HSET"), []byte("h"), []byte("f1"), []byte("v1"), []byte("f2"), []byte("v2")})

	reply := e.Dispatch(c, [][]byte{[]byte("HSCAN"), []byte("h"), []byte("0")})
	pairs := bulkStrings(reply.Elems[1])
	if len(pairs) != 4 {
		t.Fatalf("expected 2 field/value pairs (4 elements), got %v", pairs)
	}
}

func TestHScanMissingKeyReturnsEmpty(t *testing.T) {
	e, c := newTestEngine()
	reply := e.Dispatch(c, [][]byte{[]byte("HSCAN"), []byte("nope"), []byte("0")})
	if string(reply.Elems[0].Str) != "0" || len(reply.Elems[1].Elems) != 0 {
		t.Fatalf("expected empty cursor-0 reply for missing key, got %+v", reply)
	}
}

func TestZScanReturnsMemberScorePairs(t *testing.T) {
	e, c := newTestEngine()
	e.Dispatch(c, [][]byte{[]byte("ZADD"), []byte("z"), []byte("1"), []byte("one"), []byte("2"), []byte("two")})

	reply := e.Dispatch(c, [][]byte{[]byte("ZSCAN"), []byte("z"), []byte("0")})
	pairs := bulkStrings(reply.Elems[1])
	if len(pairs) != 4 {
		t.Fatalf("expected 2 member/score pairs (4 elements), got %v", pairs)
	}
}

func TestSScanWrongTypeErrors(t *testing.T) {
	e, c := newTestEngine()
	e.Dispatch(c, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	reply := e.Dispatch(c, [][]byte{[]byte("SSCAN"), []byte("k"), []byte("0")})
	if reply.Type != resp.TypeError {
		t.Fatalf("expected WRONGTYPE error, got %+v", reply)
	}
}
