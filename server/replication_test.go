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
	"strings"
	"testing"
	"time"

	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

// fakeMasterSide is a minimal MasterSide that always answers with a
// FULLRESYNC, so the test can check streamFullResync's output without
// standing up a real repl.Hub/Backlog.
type fakeMasterSide struct{}

func (fakeMasterSide) Attach(id string, offset int64, notify func([]byte)) ([]byte, int64, bool) {
	return nil, 42, false
}
func (fakeMasterSide) Detach(id string) {}
func (fakeMasterSide) Offset() int64    { return 42 }

func TestServePSyncFullResync(t *testing.T) {
	st := store.New(4, 4)
	e := dispatch.New(st, config.Default(), logx.New(io.Discard, logx.LevelError, "test"))
	loader := dispatch.NewConn(e, "setup")
	e.Dispatch(loader, [][]byte{[]byte("SET"), []byte("greeting"), []byte("hello")})

	s := New(e, logx.New(io.Discard, logx.LevelError, "test"))
	s.Repl = fakeMasterSide{}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go s.serveListener(ln)
	t.Cleanup(func() { s.Close() })

	conn, err := net.DialTimeout("tcp", ln.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	w := resp.NewWriter(conn)
	sendCommand(t, w, "PSYNC", "?", "-1")

	br := bufio.NewReader(conn)
	header, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if !strings.HasPrefix(header, "+FULLRESYNC ") {
		t.Fatalf("header = %q, want +FULLRESYNC prefix", header)
	}

	r := resp.NewReader(br)
	args, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("read resync command: %v", err)
	}
	found := false
	for {
		if len(args) >= 3 && strings.EqualFold(string(args[0]), "SET") && string(args[1]) == "greeting" {
			found = true
			break
		}
		args, err = r.ReadCommand()
		if err != nil {
			break
		}
	}
	if !found {
		t.Fatalf("expected a SET greeting ... command in the full resync stream")
	}
}
