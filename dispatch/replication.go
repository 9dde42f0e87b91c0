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

// cmdReplicaOf flips this engine's role. "NO ONE" promotes back to master;
// any other host/port pair marks it a replica and rejects direct writes
// until REPLICAOF NO ONE. Opening the sync connection and applying the
// master's stream is the server package's ReplicaSyncer's job, not this
// handler's.
func cmdReplicaOf(e *Engine, c *Conn, args [][]byte) resp.Frame {
	host, port := string(args[1]), string(args[2])
	if host == "NO" && port == "ONE" {
		e.replicaOf.Store(nil)
		e.readOnly.Store(false)
		return okReply()
	}
	addr := host + ":" + port
	e.replicaOf.Store(&addr)
	e.readOnly.Store(true)
	return okReply()
}

// cmdReplConf is answered generically; actual listening-port/capa bookkeeping
// is the repl package's concern once attached.
func cmdReplConf(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return okReply()
}

// cmdPSync is a placeholder acknowledgment; the real FULLRESYNC/backlog
// handshake is implemented by the server package against the raw connection,
// which this narrow command-table handler does not have access to.
func cmdPSync(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.Error("ERR PSYNC must be handled by the replication transport")
}

func cmdWait(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return resp.Integer(0)
}
