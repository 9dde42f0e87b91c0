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
	"fmt"
	"strings"
	"time"

	"github.com/launix-de/memkv/resp"
)

// cmdInfo renders the subset of sections clients actually parse (server,
// clients, replication, keyspace, stats); real deployments add more, but this is
// every field this module's own commands populate.
func cmdInfo(e *Engine, c *Conn, args [][]byte) resp.Frame {
	var b strings.Builder
	fmt.Fprintf(&b, "# Server\r\nredis_version:7.4.0\r\nrun_id:%s\r\nuptime_in_seconds:%d\r\n\r\n",
		c.ID, int64(e.Uptime().Seconds()))
	fmt.Fprintf(&b, "# Clients\r\nconnected_clients:1\r\n\r\n")
	role := "master"
	if e.replicaOf.Load() != nil {
		role = "slave"
	}
	fmt.Fprintf(&b, "# Replication\r\nrole:%s\r\n\r\n", role)
	b.WriteString("# Keyspace\r\n")
	for i := 0; i < e.Store.NumDatabases(); i++ {
		n := e.Store.DB(i).DBSize()
		if n > 0 {
			fmt.Fprintf(&b, "db%d:keys=%d,expires=0,avg_ttl=0\r\n", i, n)
		}
	}
	fmt.Fprintf(&b, "\r\n# Stats\r\ntotal_commands_processed:%d\r\ntotal_connections_received:%d\r\nexpired_keys:%d\r\n",
		e.commandsProcessed.Load(), e.connectionsTotal.Load(), e.expiredKeysTotal.Load())
	return resp.BulkString([]byte(b.String()))
}

// cmdConfig implements GET (glob pattern over every known setting) and SET.
func cmdConfig(e *Engine, c *Conn, args [][]byte) resp.Frame {
	switch upperBytes(args[1]) {
	case "GET":
		if len(args) < 3 {
			return resp.Error("ERR wrong number of arguments for 'config|get' command")
		}
		pairs := e.Config.GetGlob(string(args[2]))
		elems := make([]resp.Frame, 0, len(pairs)*2)
		for _, kv := range pairs {
			elems = append(elems, resp.BulkString([]byte(kv[0])), resp.BulkString([]byte(kv[1])))
		}
		return resp.Array(elems...)
	case "SET":
		if len(args) < 4 || len(args)%2 != 0 {
			return resp.Error("ERR wrong number of arguments for 'config|set' command")
		}
		for i := 2; i < len(args); i += 2 {
			if err := e.Config.Set(string(args[i]), string(args[i+1])); err != nil {
				return resp.Error("ERR " + err.Error())
			}
		}
		return okReply()
	case "REWRITE":
		return okReply()
	case "RESETSTAT":
		e.commandsProcessed.Store(0)
		return okReply()
	}
	return resp.Error("ERR unknown CONFIG subcommand")
}

func cmdCommand(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) >= 2 && upperBytes(args[1]) == "COUNT" {
		return resp.Integer(int64(len(e.table)))
	}
	elems := make([]resp.Frame, 0, len(e.table))
	for name, cmd := range e.table {
		arity := int64(cmd.arity.Min)
		if !cmd.arity.Exact {
			arity = -arity
		}
		elems = append(elems, resp.Array(
			resp.BulkString([]byte(strings.ToLower(name))),
			resp.Integer(arity),
		))
	}
	return resp.Array(elems...)
}

func cmdDebug(e *Engine, c *Conn, args [][]byte) resp.Frame {
	switch upperBytes(args[1]) {
	case "SLEEP":
		if len(args) >= 3 {
			if secs, ok := parseFloat(args[2]); ok {
				time.Sleep(time.Duration(secs * float64(time.Second)))
			}
		}
		return okReply()
	case "JMAP", "SET-ACTIVE-EXPIRE", "QUICKLIST-PACKED-THRESHOLD":
		return okReply()
	case "OBJECT":
		if len(args) < 3 {
			return resp.Error("ERR wrong number of arguments")
		}
		entry, ok := c.DB.GetEntry(args[2])
		if !ok {
			return resp.Error("ERR no such key")
		}
		return resp.SimpleString(fmt.Sprintf("Value at:0x0 refcount:1 encoding:%s serializedlength:0 ql_nodes:1", entry.Value.Encoding()))
	}
	return okReply()
}

func cmdMemory(e *Engine, c *Conn, args [][]byte) resp.Frame {
	switch upperBytes(args[1]) {
	case "USAGE":
		if len(args) < 3 {
			return resp.Error("ERR wrong number of arguments")
		}
		if _, ok := c.DB.Get(args[2]); !ok {
			return resp.NullBulk()
		}
		return resp.Integer(64)
	case "DOCTOR":
		return resp.BulkString([]byte("Sam, I detected a few issues in this Redis instance memory implants:\n\n * none\n"))
	}
	return resp.Error("ERR unknown MEMORY subcommand")
}

func cmdLastSave(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.persist == nil {
		return resp.Integer(0)
	}
	return resp.Integer(e.persist.LastSave().Unix())
}

func cmdSave(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.persist == nil {
		return resp.Error("ERR no persistence backend configured")
	}
	if err := e.persist.Save(); err != nil {
		return resp.Error("ERR " + err.Error())
	}
	return okReply()
}

func cmdBGSave(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.persist == nil {
		return resp.Error("ERR no persistence backend configured")
	}
	if err := e.persist.BGSave(); err != nil {
		return resp.Error("ERR " + err.Error())
	}
	return resp.SimpleString("Background saving started")
}

func cmdBGRewriteAOF(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.persist == nil {
		return resp.Error("ERR no persistence backend configured")
	}
	if err := e.persist.BGRewriteAOF(); err != nil {
		return resp.Error("ERR " + err.Error())
	}
	return resp.SimpleString("Background append only file rewriting started")
}
