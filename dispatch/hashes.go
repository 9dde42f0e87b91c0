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
	"github.com/launix-de/memkv/globutil"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asHash(v store.Value) (store.HashVal, bool) {
	hv, ok := v.(store.HashVal)
	return hv, ok
}

func cmdHSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if (len(args)-2)%2 != 0 || len(args) < 4 {
		return resp.Error("ERR wrong number of arguments for 'hset' command")
	}
	n, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		h, ok := v.(store.HashVal)
		if !existed {
			h = store.NewHashVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindHash, Got: v.Kind()}
		}
		created := 0
		for i := 2; i < len(args); i += 2 {
			if h.Set(string(args[i]), args[i+1]) {
				created++
			}
		}
		return h, created, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdHMSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if reply := cmdHSet(e, c, args); reply.Type == resp.TypeError {
		return reply
	}
	return okReply()
}

func cmdHGet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.NullBulk()
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	b, ok := h.Get(string(args[2]))
	return bulkOrNil(b, ok)
}

func cmdHDel(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		h, ok := v.(store.HashVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindHash, Got: v.Kind()}
		}
		removed := 0
		for _, f := range args[2:] {
			if h.Delete(string(f)) {
				removed++
			}
		}
		return h, removed, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdHExists(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	if _, ok := h.Get(string(args[2])); ok {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdHLen(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(int64(len(h)))
}

func cmdHKeys(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	elems := make([]resp.Frame, 0, len(h))
	for f := range h {
		elems = append(elems, resp.BulkString([]byte(f)))
	}
	return resp.Array(elems...)
}

func cmdHVals(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	elems := make([]resp.Frame, 0, len(h))
	for _, val := range h {
		elems = append(elems, resp.BulkString(val))
	}
	return resp.Array(elems...)
}

func cmdHGetAll(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	elems := make([]resp.Frame, 0, len(h)*2)
	for f, val := range h {
		elems = append(elems, resp.BulkString([]byte(f)), resp.BulkString(val))
	}
	return resp.Array(elems...)
}

func cmdHMGet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	elems := make([]resp.Frame, len(args)-2)
	if !ok {
		for i := range elems {
			elems[i] = resp.NullBulk()
		}
		return resp.Array(elems...)
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	for i, f := range args[2:] {
		if b, ok := h.Get(string(f)); ok {
			elems[i] = resp.BulkString(b)
		} else {
			elems[i] = resp.NullBulk()
		}
	}
	return resp.Array(elems...)
}

func cmdHIncrBy(e *Engine, c *Conn, args [][]byte) resp.Frame {
	delta, ok := parseInt64(args[3])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	var result int64
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		h, ok := v.(store.HashVal)
		if !existed {
			h = store.NewHashVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindHash, Got: v.Kind()}
		}
		field := string(args[2])
		cur, _ := h.Get(field)
		next, err := store.IncrBy(cur, delta)
		if err != nil {
			return nil, 0, err
		}
		h.Set(field, next)
		result, _ = store.ParseStrictInt64(next)
		return h, 1, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(result)
}

func cmdHIncrByFloat(e *Engine, c *Conn, args [][]byte) resp.Frame {
	var result []byte
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		h, ok := v.(store.HashVal)
		if !existed {
			h = store.NewHashVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindHash, Got: v.Kind()}
		}
		field := string(args[2])
		cur, _ := h.Get(field)
		next, err := store.IncrByFloat(cur, string(args[3]))
		if err != nil {
			return nil, 0, err
		}
		h.Set(field, next)
		result = next
		return h, 1, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.BulkString(result)
}

// cmdHScan implements HSCAN. A hash lives as a single in-memory map, so
// there is nothing to page through across calls: every matching field
// present when the scan runs is returned in one step and the cursor always
// completes at 0.
func cmdHScan(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if _, ok := parseUint(args[2]); !ok {
		return resp.Error("ERR invalid cursor")
	}
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array(resp.BulkString([]byte("0")), resp.Array())
	}
	h, isHash := asHash(v)
	if !isHash {
		return resp.Error(store.WrongTypeMsg)
	}
	pattern, _ := parseMatchCount(args, 3)
	elems := make([]resp.Frame, 0, len(h)*2)
	for f, val := range h {
		if pattern == "*" || globutil.Match(pattern, f) {
			elems = append(elems, resp.BulkString([]byte(f)), resp.BulkString(val))
		}
	}
	return resp.Array(resp.BulkString([]byte("0")), resp.Array(elems...))
}
