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
package script

import (
	"io"
	"testing"

	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func newTestEngine(t *testing.T) (*dispatch.Engine, *dispatch.Conn) {
	t.Helper()
	st := store.New(4, 4)
	e := dispatch.New(st, config.Default(), logx.New(io.Discard, logx.LevelError, "test"))
	c := dispatch.NewConn(e, "test")
	return e, c
}

func TestEvalCallsBackIntoDispatch(t *testing.T) {
	e, c := newTestEngine(t)
	eng := New()

	reply := eng.Eval(e, c, `(call "SET" "k" "v")`, nil, nil)
	if reply.Type == resp.TypeError {
		t.Fatalf("unexpected error: %s", reply.Str)
	}

	reply = eng.Eval(e, c, `(call "GET" "k")`, nil, nil)
	if string(reply.Str) != "v" {
		t.Fatalf("expected v, got %q", reply.Str)
	}
}

func TestEvalKeysAndArgv(t *testing.T) {
	e, c := newTestEngine(t)
	eng := New()

	reply := eng.Eval(e, c, `(call "SET" (nth KEYS 0) (nth ARGV 0))`,
		[][]byte{[]byte("mykey")}, [][]byte{[]byte("myval")})
	if reply.Type == resp.TypeError {
		t.Fatalf("unexpected error: %s", reply.Str)
	}

	reply = eng.Eval(e, c, `(call "GET" "mykey")`, nil, nil)
	if string(reply.Str) != "myval" {
		t.Fatalf("expected myval, got %q", reply.Str)
	}
}

func TestEvalPropagatesCommandError(t *testing.T) {
	e, c := newTestEngine(t)
	eng := New()

	reply := eng.Eval(e, c, `(call "NOSUCHCOMMAND")`, nil, nil)
	if reply.Type != resp.TypeError {
		t.Fatalf("expected error reply, got %v", reply)
	}
}

func TestLoadAndEvalSHA(t *testing.T) {
	eng := New()
	e, c := newTestEngine(t)

	sha := eng.Load(`(call "SET" "a" "1")`)
	if !eng.Exists(sha) {
		t.Fatal("expected script to be cached after Load")
	}

	reply := eng.EvalSHA(e, c, sha, nil, nil)
	if reply.Type == resp.TypeError {
		t.Fatalf("unexpected error: %s", reply.Str)
	}

	reply = eng.EvalSHA(e, c, "deadbeef", nil, nil)
	if reply.Type != resp.TypeError {
		t.Fatal("expected NOSCRIPT error for unknown digest")
	}
}

func TestFlushClearsCache(t *testing.T) {
	eng := New()
	sha := eng.Load(`(+ 1 1)`)
	eng.Flush()
	if eng.Exists(sha) {
		t.Fatal("expected cache to be empty after Flush")
	}
}
