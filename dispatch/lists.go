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
	"context"
	"time"

	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asList(v store.Value) (*store.ListVal, bool) {
	lv, ok := v.(*store.ListVal)
	return lv, ok
}

func cmdLPush(e *Engine, c *Conn, args [][]byte) resp.Frame { return pushReply(c, args, true) }
func cmdRPush(e *Engine, c *Conn, args [][]byte) resp.Frame { return pushReply(c, args, false) }

func pushReply(c *Conn, args [][]byte, left bool) resp.Frame {
	n, err := c.DB.Push(args[1], left, args[2:])
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdLPushX(e *Engine, c *Conn, args [][]byte) resp.Frame { return pushXReply(c, args, true) }
func cmdRPushX(e *Engine, c *Conn, args [][]byte) resp.Frame { return pushXReply(c, args, false) }

func pushXReply(c *Conn, args [][]byte, left bool) resp.Frame {
	if _, ok := c.DB.Get(args[1]); !ok {
		return resp.Integer(0)
	}
	return pushReply(c, args, left)
}

func cmdLPop(e *Engine, c *Conn, args [][]byte) resp.Frame { return popReply(c, args, true) }
func cmdRPop(e *Engine, c *Conn, args [][]byte) resp.Frame { return popReply(c, args, false) }

func popReply(c *Conn, args [][]byte, left bool) resp.Frame {
	count := 1
	hasCount := false
	if len(args) >= 3 {
		n, ok := parseInt(args[2])
		if !ok || n < 0 {
			return resp.Error("ERR value is out of range, must be positive")
		}
		count, hasCount = n, true
	}
	vs, err := c.DB.Pop(args[1], left, count)
	if err != nil {
		return errReply(err)
	}
	if len(vs) == 0 {
		if hasCount {
			return resp.NullArray()
		}
		return resp.NullBulk()
	}
	if hasCount {
		return bulkArrayFromBytes(vs)
	}
	return resp.BulkString(vs[0])
}

func cmdLLen(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(int64(lv.Len()))
}

func cmdLRange(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	start, _ := parseInt(args[2])
	stop, _ := parseInt(args[3])
	return bulkArrayFromBytes(lv.Range(start, stop))
}

func cmdLIndex(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.NullBulk()
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	idx, _ := parseInt(args[2])
	b, ok := lv.Index(idx)
	return bulkOrNil(b, ok)
}

func cmdLSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Error("ERR no such key")
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	idx, _ := parseInt(args[2])
	if !lv.Set(idx, args[3]) {
		return resp.Error("ERR index out of range")
	}
	return okReply()
}

func cmdLTrim(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return okReply()
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	start, _ := parseInt(args[2])
	stop, _ := parseInt(args[3])
	lv.Trim(start, stop)
	if lv.Len() == 0 {
		c.DB.Del([][]byte{args[1]})
	}
	return okReply()
}

func cmdLRem(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	lv, isList := asList(v)
	if !isList {
		return resp.Error(store.WrongTypeMsg)
	}
	count, _ := parseInt(args[2])
	n := lv.RemoveValue(count, args[3])
	if lv.Len() == 0 {
		c.DB.Del([][]byte{args[1]})
	}
	return resp.Integer(int64(n))
}

func cmdRPopLPush(e *Engine, c *Conn, args [][]byte) resp.Frame {
	vs, err := c.DB.Pop(args[1], false, 1)
	if err != nil {
		return errReply(err)
	}
	if len(vs) == 0 {
		return resp.NullBulk()
	}
	if _, err := c.DB.Push(args[2], true, vs); err != nil {
		return errReply(err)
	}
	return resp.BulkString(vs[0])
}

func cmdBLPop(e *Engine, c *Conn, args [][]byte) resp.Frame { return blockingPopReply(c, args, true) }
func cmdBRPop(e *Engine, c *Conn, args [][]byte) resp.Frame { return blockingPopReply(c, args, false) }

func blockingPopReply(c *Conn, args [][]byte, left bool) resp.Frame {
	timeoutSecs, ok := parseFloat(args[len(args)-1])
	if !ok || timeoutSecs < 0 {
		return resp.Error("ERR timeout is not a float or out of range")
	}
	keys := args[1 : len(args)-1]
	var timeout time.Duration
	if timeoutSecs > 0 {
		timeout = time.Duration(timeoutSecs * float64(time.Second))
	}
	ctx := context.Background()
	key, val, ok := c.DB.BPop(ctx, keys, timeout, left)
	if !ok {
		return resp.NullArray()
	}
	return resp.Array(resp.BulkString([]byte(key)), resp.BulkString(val))
}
