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
	"strings"
	"sync/atomic"
	"time"

	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

// Arity describes a command's accepted argument count, mirroring what
// COMMAND reports upstream (§4.5): Min is the minimum total arg count
// including the command name; Exact, when true, forbids anything above Min.
type Arity struct {
	Min   int
	Exact bool
}

type flag uint8

const (
	flagWrite flag = 1 << iota
	flagAdmin
	flagPubSub
	flagBlocking
	flagScript
	flagNoScript // tags commands unsuited to EVAL (SUBSCRIBE, BLPOP, WATCH, EVAL, ...); Dispatch does not check it, so a script's call still runs them
)

// HandlerFunc executes one command against e on behalf of c. args[0] is the
// command name as received (handlers that need case-folding do it
// themselves for subcommands, e.g. CONFIG GET).
type HandlerFunc func(e *Engine, c *Conn, args [][]byte) resp.Frame

type command struct {
	name    string
	arity   Arity
	flags   flag
	fn      HandlerFunc
}

func (cmd *command) isWrite() bool   { return cmd.flags&flagWrite != 0 }
func (cmd *command) queueable() bool { return true }

// Engine owns the shared, connection-independent server state: the keyspace
// (store.Store), configuration, logging, and the command table. One Engine
// is shared by every connection; per-connection mutable state lives in Conn.
type Engine struct {
	Store  *store.Store
	Config *config.Store
	Log    *logx.Logger

	table map[string]*command

	startTime  time.Time
	replicaOf  atomic.Pointer[string]
	readOnly   atomic.Bool

	hub      PubSubHub
	replicas ReplicationSink
	persist  PersistenceSink
	scripts  ScriptRunner

	commandsProcessed atomic.Int64
	connectionsTotal  atomic.Int64
	expiredKeysTotal  atomic.Int64
}

// PubSubHub is the narrow surface dispatch needs from the pubsub package.
type PubSubHub interface {
	Publish(channel string, payload []byte) int
	Subscribe(c *Conn, channel string)
	Unsubscribe(c *Conn, channel string)
	PSubscribe(c *Conn, pattern string)
	PUnsubscribe(c *Conn, pattern string)
	NotifyKeyspaceEvent(db int, event, key string)
}

// ReplicationSink is the narrow surface dispatch needs from the repl package.
type ReplicationSink interface {
	Propagate(db int, args [][]byte)
}

// PersistenceSink is the narrow surface dispatch needs from the persist package.
type PersistenceSink interface {
	AppendCommand(db int, args [][]byte) error
	Save() error
	BGSave() error
	BGRewriteAOF() error
	LastSave() time.Time
}

// ScriptRunner is the narrow surface dispatch needs from the script package.
type ScriptRunner interface {
	Eval(e *Engine, c *Conn, source string, keys, argv [][]byte) resp.Frame
	EvalSHA(e *Engine, c *Conn, sha string, keys, argv [][]byte) resp.Frame
	Load(source string) string
	Exists(sha string) bool
	Flush()
}

// New builds an Engine bound to st and cfg. Hooks (pub/sub, replication,
// persistence, scripting) are wired in afterward with the setters below,
// since each of those packages in turn needs a *Engine to call back into
// (e.g. a script's execute() routes back through Dispatch).
func New(st *store.Store, cfg *config.Store, log *logx.Logger) *Engine {
	e := &Engine{Store: st, Config: cfg, Log: log, startTime: time.Now()}
	e.table = buildTable()
	st.SetWriteHook(writeHook{e})
	return e
}

func (e *Engine) SetPubSubHub(h PubSubHub)           { e.hub = h }
func (e *Engine) SetReplicationSink(r ReplicationSink) { e.replicas = r }
func (e *Engine) SetPersistenceSink(p PersistenceSink) { e.persist = p }
func (e *Engine) SetScriptRunner(sr ScriptRunner)      { e.scripts = sr }

// ReplicaOf reports the master address REPLICAOF last set, and whether this
// engine currently has one at all — the server package polls this to know
// when to open (or tear down) its outbound sync connection.
func (e *Engine) ReplicaOf() (addr string, ok bool) {
	p := e.replicaOf.Load()
	if p == nil {
		return "", false
	}
	return *p, true
}

// SetReadOnly flips the write-rejection flag cmdReplicaOf also manages; the
// server package's replica sync loop sets it once the master has answered
// PSYNC, so ordinary clients' writes stay rejected while the replica link
// applies the master's stream.
func (e *Engine) SetReadOnly(ro bool) { e.readOnly.Store(ro) }

// writeHook adapts Engine to store.WriteHook: every committed write is
// forwarded here as a keyspace-notification event. It has nothing to do
// with WATCH — EXEC re-reads each watched key's version directly, so WATCH
// correctness never depends on this hook running.
type writeHook struct{ e *Engine }

func (w writeHook) OnWrite(db int, key string) {
	if w.e.hub != nil {
		w.e.hub.NotifyKeyspaceEvent(db, "set", key)
	}
}

// Dispatch resolves and executes one command (§4.5 dispatch steps).
func (e *Engine) Dispatch(c *Conn, args [][]byte) resp.Frame {
	if len(args) == 0 {
		return resp.Error("ERR empty command")
	}
	name := strings.ToUpper(string(args[0]))
	cmd, ok := e.table[name]
	if !ok {
		if c.InMulti {
			c.MultiAborted = true
		}
		return resp.Error("ERR unknown command '" + string(args[0]) + "'")
	}
	if (cmd.arity.Exact && len(args) != cmd.arity.Min) || len(args) < cmd.arity.Min {
		if c.InMulti {
			c.MultiAborted = true
		}
		return resp.Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
	}

	if c.InMulti && cmd.queueable() && name != "MULTI" && name != "EXEC" && name != "DISCARD" && name != "WATCH" {
		c.Queue = append(c.Queue, queuedCommand{name: name, args: args})
		return resp.SimpleString("QUEUED")
	}

	if cmd.isWrite() && e.readOnly.Load() && !c.ReplicationLink {
		return resp.Error("READONLY You can't write against a read only replica.")
	}

	e.commandsProcessed.Add(1)
	reply := cmd.fn(e, c, args)

	if cmd.isWrite() {
		if e.persist != nil {
			_ = e.persist.AppendCommand(c.DBIndex, args)
		}
		if e.replicas != nil {
			e.replicas.Propagate(c.DBIndex, args)
		}
	}
	return reply
}

func (e *Engine) Uptime() time.Duration { return time.Since(e.startTime) }
