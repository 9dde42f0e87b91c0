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
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
)

// Engine caches script bodies by SHA1 digest and evaluates them against a
// dispatch.Engine, implementing dispatch.ScriptRunner. Unlike pubsub/repl/
// persist, this package imports dispatch directly: EVAL's whole point is
// calling back into arbitrary commands, and dispatch.ScriptRunner's own
// signature already hands Eval/EvalSHA the *dispatch.Engine and *dispatch.Conn
// to call through — no closure indirection is needed to avoid a cycle.
type Engine struct {
	mu     sync.Mutex
	bodies map[string]string // sha1 hex -> source
}

func New() *Engine {
	return &Engine{bodies: make(map[string]string)}
}

// Load registers source under its SHA1 digest (SCRIPT LOAD) and returns the
// digest as lowercase hex, matching Redis's EVALSHA contract.
func (eng *Engine) Load(source string) string {
	sum := sha1.Sum([]byte(source))
	sha := hex.EncodeToString(sum[:])
	eng.mu.Lock()
	eng.bodies[sha] = source
	eng.mu.Unlock()
	return sha
}

func (eng *Engine) Exists(sha string) bool {
	eng.mu.Lock()
	_, ok := eng.bodies[sha]
	eng.mu.Unlock()
	return ok
}

func (eng *Engine) Flush() {
	eng.mu.Lock()
	eng.bodies = make(map[string]string)
	eng.mu.Unlock()
}

// Eval implements dispatch.ScriptRunner: parse source, bind KEYS/ARGV and a
// "call" native that replays into e.Dispatch(c, ...), run it, and convert
// the result back into a RESP frame. A script that panics (parse error,
// unbound symbol, wrong type) is reported as a RESP error the same way
// memcp's request handlers recover() a scheme panic into a 500 response.
func (eng *Engine) Eval(e *dispatch.Engine, c *dispatch.Conn, source string, keys, argv [][]byte) (reply resp.Frame) {
	eng.Load(source) // SCRIPT EXISTS/EVALSHA can find scripts run via plain EVAL too

	defer func() {
		if r := recover(); r != nil {
			reply = resp.Error(fmt.Sprintf("ERR Error running script: %v", r))
		}
	}()

	env := NewEnv(globalEnv())
	env.Define("KEYS", bytesToScmerList(keys))
	env.Define("ARGV", bytesToScmerList(argv))
	env.Define("call", NativeFunc(func(a []Scmer) Scmer {
		reply := e.Dispatch(c, scmerListToBytes(a))
		if reply.Type == resp.TypeError {
			panic(string(reply.Str))
		}
		return frameToScmer(reply)
	}))
	env.Define("pcall", env.Get("call"))

	forms := ReadAll(source)
	var value Scmer
	for _, form := range forms {
		value = Eval(form, env)
	}
	return scmerToFrame(value)
}

// EvalSHA implements dispatch.ScriptRunner by looking the digest up in the
// cache populated by Load/Eval, the same SCRIPT LOAD-then-EVALSHA flow
// redis-cli expects.
func (eng *Engine) EvalSHA(e *dispatch.Engine, c *dispatch.Conn, sha string, keys, argv [][]byte) resp.Frame {
	eng.mu.Lock()
	source, ok := eng.bodies[sha]
	eng.mu.Unlock()
	if !ok {
		return resp.Error("NOSCRIPT No matching script. Please use EVAL.")
	}
	return eng.Eval(e, c, source, keys, argv)
}

func bytesToScmerList(items [][]byte) []Scmer {
	out := make([]Scmer, len(items))
	for i, b := range items {
		out[i] = string(b)
	}
	return out
}

func scmerListToBytes(items []Scmer) [][]byte {
	out := make([][]byte, len(items))
	for i, v := range items {
		out[i] = []byte(toScmerString(v))
	}
	return out
}

// frameToScmer converts a RESP reply from "call" into a plain scripting
// value so a script can inspect it with car/cdr/len like any other list or
// string, rather than having to know about resp.Frame internals.
func frameToScmer(f resp.Frame) Scmer {
	switch f.Type {
	case resp.TypeSimpleString, resp.TypeBulkString, resp.TypeVerbatim, resp.TypeBigNumber:
		if f.Null {
			return nil
		}
		return string(f.Str)
	case resp.TypeInteger:
		return float64(f.Int)
	case resp.TypeDouble:
		return f.Double
	case resp.TypeBoolean:
		return f.Bool
	case resp.TypeArray, resp.TypeSet, resp.TypePush, resp.TypeMap:
		if f.Null {
			return nil
		}
		out := make([]Scmer, len(f.Elems))
		for i, e := range f.Elems {
			out[i] = frameToScmer(e)
		}
		return out
	default:
		return nil
	}
}

// scmerToFrame converts the scripting layer's own tagged-union value into a
// wire frame, the inverse of frameToScmer, so the final result of a script
// (or a value it built out of a "call" reply) can be sent back on the wire.
func scmerToFrame(v Scmer) resp.Frame {
	switch vv := v.(type) {
	case nil:
		return resp.Null()
	case bool:
		if vv {
			return resp.Integer(1)
		}
		return resp.Integer(0)
	case float64:
		return resp.Integer(int64(vv))
	case string:
		return resp.BulkString([]byte(vv))
	case Symbol:
		return resp.BulkString([]byte(vv))
	case []Scmer:
		elems := make([]resp.Frame, len(vv))
		for i, e := range vv {
			elems[i] = scmerToFrame(e)
		}
		return resp.Array(elems...)
	default:
		return resp.BulkString([]byte(fmt.Sprint(vv)))
	}
}
