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
	"time"

	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asString(v store.Value) ([]byte, bool) {
	sv, ok := v.(store.StringVal)
	if !ok {
		return nil, false
	}
	return []byte(sv), true
}

func cmdGet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.NullBulk()
	}
	b, ok := asString(v)
	if !ok {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.BulkString(b)
}

// setOptions holds the parsed EX/PX/EXAT/PXAT/NX/XX/KEEPTTL/GET flags of
// SET (§6 strings family); SETNX, SETEX, PSETEX and GETSET do not use it.
type setOptions struct {
	expireAt time.Time
	keepTTL  bool
	nx, xx   bool
	get      bool
}

func parseSetOptions(args [][]byte) (setOptions, error) {
	var o setOptions
	for i := 0; i < len(args); i++ {
		switch upperBytes(args[i]) {
		case "EX":
			i++
			n, ok := parseInt64(args[i])
			if !ok {
				return o, errBadArg
			}
			o.expireAt = time.Now().Add(time.Duration(n) * time.Second)
		case "PX":
			i++
			n, ok := parseInt64(args[i])
			if !ok {
				return o, errBadArg
			}
			o.expireAt = time.Now().Add(time.Duration(n) * time.Millisecond)
		case "EXAT":
			i++
			n, ok := parseInt64(args[i])
			if !ok {
				return o, errBadArg
			}
			o.expireAt = time.Unix(n, 0)
		case "PXAT":
			i++
			n, ok := parseInt64(args[i])
			if !ok {
				return o, errBadArg
			}
			o.expireAt = time.UnixMilli(n)
		case "KEEPTTL":
			o.keepTTL = true
		case "NX":
			o.nx = true
		case "XX":
			o.xx = true
		case "GET":
			o.get = true
		default:
			return o, errBadArg
		}
	}
	return o, nil
}

var errBadArg = argError{msg: "syntax error"}

type argError struct{ msg string }

func (e argError) Error() string { return e.msg }

func cmdSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	key, val := args[1], args[2]
	opts, err := parseSetOptions(args[3:])
	if err != nil {
		return resp.Error("ERR " + err.Error())
	}

	existing, existed := c.DB.Get(key)
	if opts.nx && existed {
		return setReply(opts, existing, false)
	}
	if opts.xx && !existed {
		return setReply(opts, existing, false)
	}

	entry, _ := c.DB.GetEntry(key)
	expireAt := opts.expireAt
	if opts.keepTTL && existed {
		expireAt = entry.ExpireAt
	}
	if err := c.DB.SetString(key, val, expireAt); err != nil {
		return errReply(err)
	}
	return setReply(opts, existing, true)
}

func setReply(opts setOptions, previous store.Value, applied bool) resp.Frame {
	if opts.get {
		b, ok := asString(previous)
		if !ok {
			return resp.NullBulk()
		}
		return resp.BulkString(b)
	}
	if !applied {
		return resp.NullBulk()
	}
	return okReply()
}

func cmdSetNX(e *Engine, c *Conn, args [][]byte) resp.Frame {
	_, existed := c.DB.Get(args[1])
	if existed {
		return resp.Integer(0)
	}
	if err := c.DB.SetString(args[1], args[2], time.Time{}); err != nil {
		return errReply(err)
	}
	return resp.Integer(1)
}

func cmdSetEX(e *Engine, c *Conn, args [][]byte) resp.Frame {
	secs, ok := parseInt64(args[2])
	if !ok || secs <= 0 {
		return resp.Error("ERR invalid expire time in 'setex' command")
	}
	if err := c.DB.SetString(args[1], args[3], time.Now().Add(time.Duration(secs)*time.Second)); err != nil {
		return errReply(err)
	}
	return okReply()
}

func cmdPSetEX(e *Engine, c *Conn, args [][]byte) resp.Frame {
	ms, ok := parseInt64(args[2])
	if !ok || ms <= 0 {
		return resp.Error("ERR invalid expire time in 'psetex' command")
	}
	if err := c.DB.SetString(args[1], args[3], time.Now().Add(time.Duration(ms)*time.Millisecond)); err != nil {
		return errReply(err)
	}
	return okReply()
}

func cmdGetSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	prev, _ := c.DB.Get(args[1])
	if err := c.DB.SetString(args[1], args[2], time.Time{}); err != nil {
		return errReply(err)
	}
	b, ok := asString(prev)
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(b)
}

func cmdMGet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	vs := c.DB.MGet(args[1:])
	return valuesArray(vs, asString)
}

func cmdMSet(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if (len(args)-1)%2 != 0 {
		return resp.Error("ERR wrong number of arguments for 'mset' command")
	}
	for i := 1; i < len(args); i += 2 {
		if err := c.DB.SetString(args[i], args[i+1], time.Time{}); err != nil {
			return errReply(err)
		}
	}
	return okReply()
}

func cmdAppend(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, err := c.DB.Append(args[1], args[2])
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdStrlen(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	b, ok := asString(v)
	if !ok {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(int64(len(b)))
}

func cmdGetRange(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.BulkString(nil)
	}
	b, ok := asString(v)
	if !ok {
		return resp.Error(store.WrongTypeMsg)
	}
	start, _ := parseInt(args[2])
	stop, _ := parseInt(args[3])
	n := len(b)
	start, stop = clampStrRange(start, stop, n)
	if start > stop || n == 0 {
		return resp.BulkString(nil)
	}
	return resp.BulkString(b[start : stop+1])
}

func clampStrRange(start, stop, n int) (int, int) {
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

func cmdSetRange(e *Engine, c *Conn, args [][]byte) resp.Frame {
	offset, ok := parseInt(args[2])
	if !ok || offset < 0 {
		return resp.Error("ERR offset is out of range")
	}
	n, err := c.DB.SetRange(args[1], offset, args[3])
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdIncr(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return incrByReply(e, c, args[1], 1)
}

func cmdDecr(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return incrByReply(e, c, args[1], -1)
}

func cmdIncrBy(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return incrByReply(e, c, args[1], n)
}

func cmdDecrBy(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return incrByReply(e, c, args[1], -n)
}

func incrByReply(e *Engine, c *Conn, key []byte, delta int64) resp.Frame {
	n, err := c.DB.IncrBy(key, delta)
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(n)
}

func cmdIncrByFloat(e *Engine, c *Conn, args [][]byte) resp.Frame {
	result, err := c.DB.IncrByFloat(args[1], string(args[2]))
	if err != nil {
		return errReply(err)
	}
	return resp.BulkString(result)
}
