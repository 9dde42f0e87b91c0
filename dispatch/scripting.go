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

func cmdEval(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.scripts == nil {
		return resp.Error("ERR scripting is not enabled")
	}
	numKeys, ok := parseInt(args[2])
	if !ok || numKeys < 0 || len(args) < 3+numKeys {
		return resp.Error("ERR value is not an integer or out of range")
	}
	keys := args[3 : 3+numKeys]
	argv := args[3+numKeys:]
	return e.scripts.Eval(e, c, string(args[1]), keys, argv)
}

func cmdEvalSHA(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.scripts == nil {
		return resp.Error("ERR scripting is not enabled")
	}
	numKeys, ok := parseInt(args[2])
	if !ok || numKeys < 0 || len(args) < 3+numKeys {
		return resp.Error("ERR value is not an integer or out of range")
	}
	keys := args[3 : 3+numKeys]
	argv := args[3+numKeys:]
	if !e.scripts.Exists(string(args[1])) {
		return resp.Error("NOSCRIPT No matching script. Please use EVAL.")
	}
	return e.scripts.EvalSHA(e, c, string(args[1]), keys, argv)
}

func cmdScript(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.scripts == nil {
		return resp.Error("ERR scripting is not enabled")
	}
	switch upperBytes(args[1]) {
	case "LOAD":
		if len(args) < 3 {
			return resp.Error("ERR wrong number of arguments")
		}
		return resp.BulkString([]byte(e.scripts.Load(string(args[2]))))
	case "EXISTS":
		elems := make([]resp.Frame, len(args)-2)
		for i, sha := range args[2:] {
			if e.scripts.Exists(string(sha)) {
				elems[i] = resp.Integer(1)
			} else {
				elems[i] = resp.Integer(0)
			}
		}
		return resp.Array(elems...)
	case "FLUSH":
		e.scripts.Flush()
		return okReply()
	}
	return resp.Error("ERR unknown SCRIPT subcommand")
}
