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

func cmdDel(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.Integer(int64(c.DB.Del(args[1:])))
}

func cmdExists(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.Integer(int64(c.DB.Exists(args[1:])))
}

func cmdType(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.SimpleString("none")
	}
	return resp.SimpleString(v.Kind().String())
}

func cmdKeys(e *Engine, c *Conn, args [][]byte) resp.Frame {
	keys := c.DB.Keys(string(args[1]))
	return bulkArrayFromBytes(keys)
}

func cmdScan(e *Engine, c *Conn, args [][]byte) resp.Frame {
	cursor, ok := parseUint(args[1])
	if !ok {
		return resp.Error("ERR invalid cursor")
	}
	pattern := "*"
	count := 10
	var typeFilter store.Kind
	hasType := false
	for i := 2; i < len(args); i++ {
		switch upperBytes(args[i]) {
		case "MATCH":
			i++
			pattern = string(args[i])
		case "COUNT":
			i++
			n, ok := parseInt(args[i])
			if ok {
				count = n
			}
		case "TYPE":
			i++
			typeFilter, hasType = kindFromName(string(args[i]))
		}
	}
	next, keys := c.DB.Scan(cursor, pattern, count, typeFilter, hasType)
	return resp.Array(resp.BulkString([]byte(formatUint(next))), bulkArrayFromBytes(keys))
}

func kindFromName(name string) (store.Kind, bool) {
	switch name {
	case "string":
		return store.KindString, true
	case "list":
		return store.KindList, true
	case "set":
		return store.KindSet, true
	case "hash":
		return store.KindHash, true
	case "zset":
		return store.KindZSet, true
	case "stream":
		return store.KindStream, true
	}
	return 0, false
}

func cmdExpire(e *Engine, c *Conn, args [][]byte) resp.Frame {
	secs, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return expireReply(c, args[1], time.Now().Add(time.Duration(secs)*time.Second))
}

func cmdPExpire(e *Engine, c *Conn, args [][]byte) resp.Frame {
	ms, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return expireReply(c, args[1], time.Now().Add(time.Duration(ms)*time.Millisecond))
}

func cmdExpireAt(e *Engine, c *Conn, args [][]byte) resp.Frame {
	secs, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return expireReply(c, args[1], time.Unix(secs, 0))
}

func cmdPExpireAt(e *Engine, c *Conn, args [][]byte) resp.Frame {
	ms, ok := parseInt64(args[2])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	return expireReply(c, args[1], time.UnixMilli(ms))
}

func expireReply(c *Conn, key []byte, at time.Time) resp.Frame {
	if c.DB.Expire(key, at) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdTTL(e *Engine, c *Conn, args [][]byte) resp.Frame {
	d, hasTTL, exists := c.DB.TTL(args[1])
	if !exists {
		return resp.Integer(-2)
	}
	if !hasTTL {
		return resp.Integer(-1)
	}
	secs := int64(d.Round(time.Second) / time.Second)
	return resp.Integer(secs)
}

func cmdPTTL(e *Engine, c *Conn, args [][]byte) resp.Frame {
	d, hasTTL, exists := c.DB.TTL(args[1])
	if !exists {
		return resp.Integer(-2)
	}
	if !hasTTL {
		return resp.Integer(-1)
	}
	return resp.Integer(int64(d / time.Millisecond))
}

func cmdPersist(e *Engine, c *Conn, args [][]byte) resp.Frame {
	_, hasTTL, exists := c.DB.TTL(args[1])
	if !exists || !hasTTL {
		return resp.Integer(0)
	}
	c.DB.Expire(args[1], time.Time{})
	return resp.Integer(1)
}

func cmdRename(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if err := c.DB.Rename(args[1], args[2]); err != nil {
		return errReply(err)
	}
	return okReply()
}

func cmdRenameNX(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if _, ok := c.DB.Get(args[2]); ok {
		return resp.Integer(0)
	}
	if err := c.DB.Rename(args[1], args[2]); err != nil {
		return errReply(err)
	}
	return resp.Integer(1)
}

func cmdObject(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return resp.Error("ERR wrong number of arguments for 'object' command")
	}
	v, ok := c.DB.Get(args[2])
	switch upperBytes(args[1]) {
	case "ENCODING":
		if !ok {
			return resp.NullBulk()
		}
		return resp.BulkString([]byte(v.Encoding()))
	case "REFCOUNT":
		if !ok {
			return resp.NullBulk()
		}
		return resp.Integer(1)
	case "IDLETIME":
		if !ok {
			return resp.NullBulk()
		}
		return resp.Integer(0)
	case "FREQ":
		if !ok {
			return resp.NullBulk()
		}
		return resp.Integer(0)
	}
	return resp.Error("ERR unknown OBJECT subcommand")
}

func cmdDBSize(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.Integer(int64(c.DB.DBSize()))
}

func cmdFlushDB(e *Engine, c *Conn, args [][]byte) resp.Frame {
	c.DB.FlushDB()
	return okReply()
}

func cmdFlushAll(e *Engine, c *Conn, args [][]byte) resp.Frame {
	for i := 0; i < e.Store.NumDatabases(); i++ {
		e.Store.DB(i).FlushDB()
	}
	return okReply()
}
