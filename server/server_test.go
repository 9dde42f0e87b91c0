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
	"io"
	"net"
	"testing"
	"time"

	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()
	st := store.New(4, 4)
	e := dispatch.New(st, config.Default(), logx.New(io.Discard, logx.LevelError, "test"))
	s := New(e, logx.New(io.Discard, logx.LevelError, "test"))
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go s.serveListener(ln)
	t.Cleanup(func() { s.Close() })
	return s, ln
}

// serveListener runs the same accept loop ListenAndServe does but against an
// already-open listener, so tests can bind 127.0.0.1:0 and learn the port
// before traffic starts.
func (s *Server) serveListener(ln net.Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, ln)
	s.mu.Unlock()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		s.track(conn)
		go s.serve(conn)
	}
}

func sendCommand(t *testing.T, w *resp.Writer, parts ...string) {
	t.Helper()
	elems := make([]resp.Frame, len(parts))
	for i, p := range parts {
		elems[i] = resp.BulkString([]byte(p))
	}
	if err := w.WriteFrame(resp.Array(elems...)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

// readReplyLine reads one RESP reply by hand: a byte-typed line followed, for
// bulk strings, by its payload line. This mirrors the manual line reading
// replica_sync.go already does for PSYNC's handshake replies, since the resp
// package exposes no public reply-reader (only ReadCommand, which parses
// commands, not arbitrary replies).
func readReplyLine(t *testing.T, br *bufio.Reader) string {
	t.Helper()
	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	switch line[0] {
	case '+', '-', ':':
		return line[1 : len(line)-2]
	case '$':
		if line[1] == '-' {
			return ""
		}
		body, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read bulk body: %v", err)
		}
		return body[:len(body)-2]
	default:
		t.Fatalf("unexpected reply line %q", line)
		return ""
	}
}

func TestServeRoundTripSetGet(t *testing.T) {
	_, ln := newTestServer(t)
	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := resp.NewWriter(conn)
	br := bufio.NewReader(conn)

	sendCommand(t, w, "PING")
	if got := readReplyLine(t, br); got != "PONG" {
		t.Fatalf("PING reply = %q, want PONG", got)
	}

	sendCommand(t, w, "SET", "foo", "bar")
	if got := readReplyLine(t, br); got != "OK" {
		t.Fatalf("SET reply = %q, want OK", got)
	}

	sendCommand(t, w, "GET", "foo")
	if got := readReplyLine(t, br); got != "bar" {
		t.Fatalf("GET reply = %q, want bar", got)
	}
}

func TestServeProtocolErrorClosesConnection(t *testing.T) {
	_, ln := newTestServer(t)
	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	w := resp.NewWriter(conn)
	br := bufio.NewReader(conn)

	// the inline-command exemption only covers the very first command on a
	// connection (resp.Reader.allowInline), so a real RESP array has to come
	// first before a malformed line can actually trigger a ProtocolError.
	sendCommand(t, w, "PING")
	if got := readReplyLine(t, br); got != "PONG" {
		t.Fatalf("PING reply = %q, want PONG", got)
	}

	if _, err := conn.Write([]byte("not-a-resp-frame-at-all\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	line, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if line[0] != '-' {
		t.Fatalf("reply = %q, want an error line", line)
	}

	buf := make([]byte, 1)
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := conn.Read(buf); err != io.EOF {
		t.Fatalf("expected connection to close after protocol error, got err=%v", err)
	}
}
