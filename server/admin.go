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
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
)

// AdminPubSub is the narrow surface the live-tail websocket needs from
// pubsub.Hub, kept as an interface the same way MasterSide keeps server
// from importing the repl package's concrete type.
type AdminPubSub interface {
	PSubscribe(c *dispatch.Conn, pattern string)
	PUnsubscribe(c *dispatch.Conn, pattern string)
}

// AdminServer exposes a tiny HTTP surface for operators: a plaintext INFO
// render and a websocket that live-tails keyspace notifications, grounded
// on memcp's scm/network.go HTTPServe/websocket-upgrade pattern (adapted
// from a user-scriptable callback to two fixed routes this store needs).
type AdminServer struct {
	Engine  *dispatch.Engine
	PubSub  AdminPubSub
	httpSrv *http.Server
}

func NewAdminServer(e *dispatch.Engine, pubsub AdminPubSub) *AdminServer {
	return &AdminServer{Engine: e, PubSub: pubsub}
}

func (a *AdminServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/info", a.handleInfo)
	mux.HandleFunc("/tail", a.handleTail)
	a.httpSrv = &http.Server{
		Addr:           addr,
		Handler:        mux,
		ReadTimeout:    300 * time.Second,
		WriteTimeout:   300 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return a.httpSrv.ListenAndServe()
}

func (a *AdminServer) Close() error {
	if a.httpSrv == nil {
		return nil
	}
	return a.httpSrv.Close()
}

// handleInfo replays the same INFO text a RESP client gets, through a
// throwaway loader Conn, so the admin surface never duplicates cmdInfo's
// rendering logic.
func (a *AdminServer) handleInfo(w http.ResponseWriter, req *http.Request) {
	defer func() {
		if r := recover(); r != nil {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "500 Internal Server Error: %v", r)
		}
	}()
	loader := dispatch.NewConn(a.Engine, req.RemoteAddr)
	reply := a.Engine.Dispatch(loader, [][]byte{[]byte("INFO")})
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(reply.Str)
}

var adminUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleTail upgrades to a websocket and PSUBSCRIBEs "*", forwarding every
// keyspace-notification push frame as a text message until the client
// disconnects — an admin live-tail with no RESP client needed, the same
// role the teacher's websocket bridge plays for its query dashboard.
func (a *AdminServer) handleTail(w http.ResponseWriter, req *http.Request) {
	if a.PubSub == nil {
		http.Error(w, "pubsub not configured", http.StatusServiceUnavailable)
		return
	}
	ws, err := adminUpgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}
	defer ws.Close()

	var sendMu sendMutex
	c := dispatch.NewConn(a.Engine, req.RemoteAddr)

	q := newOutboundQueue(func(f resp.Frame) error {
		sendMu.Lock()
		defer sendMu.Unlock()
		return ws.WriteMessage(websocket.TextMessage, renderPush(f))
	}, func() {
		sendMu.Lock()
		_ = ws.WriteMessage(websocket.TextMessage, []byte("ERR reply buffer overflow"))
		sendMu.Unlock()
		ws.Close()
	})
	defer q.Close()
	c.Notify = q.Notify

	a.PubSub.PSubscribe(c, "*")
	defer a.PubSub.PUnsubscribe(c, "*")

	defer func() {
		if r := recover(); r != nil {
			a.Engine.Log.Error("panic in admin tail handler", "err", fmt.Sprint(r))
		}
	}()
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func renderPush(f resp.Frame) []byte {
	var b []byte
	for i, e := range f.Elems {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, e.Str...)
	}
	return b
}

type sendMutex struct{ ch chan struct{} }

func (m *sendMutex) Lock() {
	if m.ch == nil {
		m.ch = make(chan struct{}, 1)
	}
	m.ch <- struct{}{}
}

func (m *sendMutex) Unlock() { <-m.ch }
