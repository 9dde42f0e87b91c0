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

import "github.com/launix-de/memkv/resp"

func cmdMulti(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if c.InMulti {
		return resp.Error("ERR MULTI calls can not be nested")
	}
	c.InMulti = true
	c.MultiAborted = false
	c.Queue = c.Queue[:0]
	return okReply()
}

func cmdDiscard(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if !c.InMulti {
		return resp.Error("ERR DISCARD without MULTI")
	}
	c.InMulti = false
	c.MultiAborted = false
	c.Queue = nil
	clearWatches(e, c)
	return okReply()
}

// cmdWatch records the version each watched key currently holds so EXEC can
// detect a write landed on any of them in between (§C6).
func cmdWatch(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if c.InMulti {
		return resp.Error("ERR WATCH inside MULTI is not allowed")
	}
	for _, k := range args[1:] {
		wk := watchKey{db: c.DBIndex, key: string(k)}
		entry, ok := c.DB.GetEntry(k)
		if ok {
			c.watches[wk] = entry.Version
		} else {
			c.watches[wk] = 0
		}
	}
	return okReply()
}

func cmdUnwatch(e *Engine, c *Conn, args [][]byte) resp.Frame {
	clearWatches(e, c)
	return okReply()
}

func clearWatches(e *Engine, c *Conn) {
	c.watches = make(map[watchKey]uint64)
}

// cmdExec replays the queued commands only if every watched key's version
// still matches what WATCH observed (§C6); otherwise it aborts with a null
// array, matching upstream's "the transaction did not happen" contract.
func cmdExec(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if !c.InMulti {
		return resp.Error("ERR EXEC without MULTI")
	}
	aborted := c.MultiAborted
	queue := c.Queue
	c.InMulti = false
	c.MultiAborted = false
	c.Queue = nil

	if aborted {
		clearWatches(e, c)
		return resp.Error("EXECABORT Transaction discarded because of previous errors.")
	}

	for wk, version := range c.watches {
		db := e.Store.DB(wk.db)
		entry, ok := db.GetEntry([]byte(wk.key))
		cur := uint64(0)
		if ok {
			cur = entry.Version
		}
		if cur != version {
			clearWatches(e, c)
			return resp.NullArray()
		}
	}
	clearWatches(e, c)

	replies := make([]resp.Frame, len(queue))
	for i, q := range queue {
		full := append([][]byte{[]byte(q.name)}, q.args[1:]...)
		replies[i] = e.Dispatch(c, full)
	}
	return resp.Array(replies...)
}
