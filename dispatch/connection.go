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
	"github.com/launix-de/memkv/resp"
)

func cmdPing(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) >= 2 {
		return resp.BulkString(args[1])
	}
	return resp.SimpleString("PONG")
}

func cmdEcho(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.BulkString(args[1])
}

func cmdAuth(e *Engine, c *Conn, args [][]byte) resp.Frame {
	pass, _ := e.Config.Get("requirepass")
	if pass == "" {
		return resp.Error("ERR Client sent AUTH, but no password is set. Did you mean AUTH <username> <password>?")
	}
	given := args[len(args)-1]
	if string(given) != pass {
		return resp.Error("WRONGPASS invalid username-password pair or user is disabled.")
	}
	c.Authenticated = true
	return okReply()
}

func cmdHello(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) >= 2 {
		if v, ok := parseInt(args[1]); ok {
			switch v {
			case 2:
				c.RESP3 = false
			case 3:
				c.RESP3 = true
			default:
				return resp.Error("NOPROTO unsupported protocol version")
			}
		}
	}
	return resp.Map(
		resp.BulkString([]byte("server")), resp.BulkString([]byte("memkv")),
		resp.BulkString([]byte("version")), resp.BulkString([]byte("7.4.0")),
		resp.BulkString([]byte("proto")), resp.Integer(protoVersion(c)),
		resp.BulkString([]byte("mode")), resp.BulkString([]byte("standalone")),
		resp.BulkString([]byte("role")), resp.BulkString([]byte(roleString(e))),
	)
}

func protoVersion(c *Conn) int64 {
	if c.RESP3 {
		return 3
	}
	return 2
}

func roleString(e *Engine) string {
	if p := e.replicaOf.Load(); p != nil && *p != "" {
		return "slave"
	}
	return "master"
}

func cmdSelect(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, ok := parseInt(args[1])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	if !c.selectDB(e, n) {
		return resp.Error("ERR DB index is out of range")
	}
	return okReply()
}

func cmdQuit(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return okReply()
}

func cmdClient(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) < 2 {
		return resp.Error("ERR wrong number of arguments for 'client' command")
	}
	switch sub := upperBytes(args[1]); sub {
	case "GETNAME":
		return resp.BulkString([]byte(c.Name))
	case "SETNAME":
		if len(args) != 3 {
			return resp.Error("ERR wrong number of arguments")
		}
		c.Name = string(args[2])
		return okReply()
	case "ID":
		return resp.BulkString([]byte(c.ID))
	case "LIST":
		return resp.BulkString([]byte("id=" + c.ID + " addr=" + c.Addr + " name=" + c.Name + "\n"))
	case "PAUSE":
		return okReply()
	case "KILL":
		return resp.Integer(0)
	default:
		return resp.Error("ERR unknown CLIENT subcommand")
	}
}

func upperBytes(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
