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

import "github.com/launix-de/memkv/resp"

// outboundQueueCap bounds a subscriber's undelivered push-frame backlog:
// PUBLISH must never block on a slow subscriber's socket, so a connection
// that falls this far behind is dropped instead of growing the backlog
// without limit.
const outboundQueueCap = 1024

// outboundQueue decouples dispatch.Conn.Notify from the socket it eventually
// writes to: a dedicated goroutine drains frames one at a time through send,
// and Notify itself only ever enqueues, non-blocking. Installed as
// Conn.Notify by both the RESP connection loop and the admin tail websocket,
// so neither has to hand-roll the overflow-drop path twice.
type outboundQueue struct {
	frames   chan resp.Frame
	stop     chan struct{}
	send     func(resp.Frame) error
	overflow func()
}

func newOutboundQueue(send func(resp.Frame) error, overflow func()) *outboundQueue {
	q := &outboundQueue{
		frames:   make(chan resp.Frame, outboundQueueCap),
		stop:     make(chan struct{}),
		send:     send,
		overflow: overflow,
	}
	go q.run()
	return q
}

func (q *outboundQueue) run() {
	for {
		select {
		case f := <-q.frames:
			if err := q.send(f); err != nil {
				return
			}
		case <-q.stop:
			return
		}
	}
}

// Notify enqueues f without blocking; a full backlog calls overflow instead
// of waiting for room, since waiting is exactly the stall PUBLISH must avoid.
func (q *outboundQueue) Notify(f resp.Frame) {
	select {
	case q.frames <- f:
	default:
		q.overflow()
	}
}

// Close stops the drain goroutine. It does not close q.frames: a publisher
// racing this call may still be inside Notify's select, and sending on a
// closed channel panics, so the channel is simply left for the garbage
// collector once both sides are done with it.
func (q *outboundQueue) Close() { close(q.stop) }
