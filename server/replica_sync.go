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
package server

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
)

// replicaLogger is the narrow slice of *logx.Logger this file calls, kept
// as an interface so it does not need to import logx just for a field type.
type replicaLogger interface {
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// ReplicaSyncer is the follower half of replication: it polls Engine for a
// REPLICAOF target, opens one connection per master, and replays whatever
// the master streams until REPLICAOF NO ONE (or a different master) takes
// over. It runs as its own goroutine started by main.go — the FULLRESYNC/
// CONTINUE protocol itself lives in handlePSync's counterpart below.
type ReplicaSyncer struct {
	Engine   *dispatch.Engine
	log      replicaLogger
	MyPort   int
	stopping chan struct{}
}

func NewReplicaSyncer(e *dispatch.Engine, log replicaLogger, myPort int) *ReplicaSyncer {
	return &ReplicaSyncer{Engine: e, log: log, MyPort: myPort, stopping: make(chan struct{})}
}

func (rs *ReplicaSyncer) Stop() { close(rs.stopping) }

// Run polls Engine.ReplicaOf every second and keeps a sync connection open
// to whatever it names, reconnecting with a short backoff on any error —
// the same "just keep retrying" resilience memcp's scheduler.runTask gives
// background tasks via its own recover()-and-log wrapper.
func (rs *ReplicaSyncer) Run() {
	var lastAddr string
	var stop chan struct{}
	for {
		select {
		case <-rs.stopping:
			return
		default:
		}
		addr, ok := rs.Engine.ReplicaOf()
		if !ok {
			if stop != nil {
				close(stop)
				stop = nil
			}
			lastAddr = ""
			time.Sleep(200 * time.Millisecond)
			continue
		}
		if addr != lastAddr {
			if stop != nil {
				close(stop)
			}
			stop = make(chan struct{})
			lastAddr = addr
			go rs.syncLoop(addr, stop)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func (rs *ReplicaSyncer) syncLoop(addr string, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-rs.stopping:
			return
		default:
		}
		if err := rs.syncOnce(addr, stop); err != nil {
			rs.log.Warn("replica sync error, retrying", "master", addr, "err", err.Error())
		}
		select {
		case <-stop:
			return
		case <-rs.stopping:
			return
		case <-time.After(time.Second):
		}
	}
}

func (rs *ReplicaSyncer) syncOnce(addr string, stop chan struct{}) error {
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	br := bufio.NewReader(conn)
	w := resp.NewWriter(conn)

	if err := sendInlineCommand(w, br, "PING"); err != nil {
		return err
	}
	if err := sendInlineCommand(w, br, "REPLCONF", "listening-port", strconv.Itoa(rs.MyPort)); err != nil {
		return err
	}
	if err := w.WriteFrame(resp.Array(resp.BulkString([]byte("PSYNC")), resp.BulkString([]byte("?")), resp.BulkString([]byte("-1")))); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	header, err := br.ReadString('\n')
	if err != nil {
		return err
	}
	header = strings.TrimRight(header, "\r\n")
	rs.log.Info("replica sync established", "master", addr, "reply", header)

	loader := dispatch.NewConn(rs.Engine, "replica-link:"+addr)
	loader.ReplicationLink = true
	rs.Engine.SetReadOnly(true) // ordinary clients stay rejected; ReplicationLink lets this conn write anyway

	r := resp.NewReader(br)
	for {
		select {
		case <-stop:
			return nil
		case <-rs.stopping:
			return nil
		default:
		}
		args, err := r.ReadCommand()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			continue
		}
		rs.Engine.Dispatch(loader, args)
	}
}

func sendInlineCommand(w *resp.Writer, br *bufio.Reader, parts ...string) error {
	elems := make([]resp.Frame, len(parts))
	for i, p := range parts {
		elems[i] = resp.BulkString([]byte(p))
	}
	if err := w.WriteFrame(resp.Array(elems...)); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := br.ReadString('\n')
	return err
}
