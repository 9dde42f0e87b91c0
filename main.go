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
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/dc0d/onexit"

	"github.com/launix-de/memkv/cli"
	"github.com/launix-de/memkv/config"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/logx"
	"github.com/launix-de/memkv/persist"
	"github.com/launix-de/memkv/pubsub"
	"github.com/launix-de/memkv/repl"
	"github.com/launix-de/memkv/script"
	"github.com/launix-de/memkv/server"
	"github.com/launix-de/memkv/store"
)

func main() {
	fmt.Print(`memkv Copyright (C) 2026   Carl-Philip Hänsch
    This program comes with ABSOLUTELY NO WARRANTY;
    This is free software, and you are welcome to redistribute it
    under certain conditions;
`)

	bind := flag.String("bind", "", "address to listen on (overrides CONFIG bind)")
	port := flag.Int("port", 0, "port to listen on (overrides CONFIG port)")
	adminAddr := flag.String("admin", "", "admin HTTP/websocket listen address, e.g. 127.0.0.1:6381 (disabled if empty)")
	dataDir := flag.String("dir", "", "data directory (overrides CONFIG dir)")
	replicaOf := flag.String("replicaof", "", "\"host port\" of a master to replicate from")
	repl_ := flag.Bool("repl", false, "start an interactive admin REPL on stdin/stdout instead of blocking")
	flag.Parse()

	cfg := config.Default()
	if *bind != "" {
		cfg.Bind = *bind
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *replicaOf != "" {
		cfg.ReplicaOf = *replicaOf
	}

	log := logx.New(os.Stderr, logx.ParseLevel(cfg.LogLevel), "memkv")

	st := store.New(cfg.Databases, 16)
	go st.RunActiveExpiration(context.Background(), 0)
	e := dispatch.New(st, cfg, log.With("dispatch"))

	hub := pubsub.New()
	e.SetPubSubHub(hub)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Error("could not create data directory", "dir", cfg.DataDir, "err", err.Error())
		os.Exit(1)
	}
	backend := persist.NewFileBackend(cfg.DataDir)
	persistEngine := persist.New(st, backend)

	// Neither PersistenceSink nor ReplicationSink is wired onto e yet, so
	// replaying the append log here just restores state without re-appending
	// every command to itself or fanning it out to replicas that have not
	// attached yet.
	loader := dispatch.NewConn(e, "startup-loader")
	loader.ReplicationLink = true
	persistEngine.SetApplier(func(db int, args [][]byte) {
		loader.DB = st.DB(db)
		loader.DBIndex = db
		dispatchReplayed(e, loader, args)
	})
	if err := persistEngine.Load(); err != nil {
		log.Warn("no prior snapshot/append log loaded", "dir", cfg.DataDir, "err", err.Error())
	}
	e.SetPersistenceSink(persistEngine)

	replHub := repl.New(1<<20, 4<<20)
	e.SetReplicationSink(replHub)

	if watcher, err := backend.WatchExternalSnapshot(func() {
		log.Info("external snapshot change detected; restart to load it")
	}); err == nil {
		onexit.Register(func() { watcher.Close() })
	}

	scriptEngine := script.New()
	e.SetScriptRunner(scriptEngine)

	if cfg.ReplicaOf != "" {
		host, port, ok := splitHostPort(cfg.ReplicaOf)
		if ok {
			dispatchReplayed(e, dispatch.NewConn(e, "startup"), [][]byte{
				[]byte("REPLICAOF"), []byte(host), []byte(port),
			})
		}
	}

	srv := server.New(e, log.With("server"))
	srv.Repl = replHub
	onexit.Register(func() { srv.Close() })

	replicaSyncer := server.NewReplicaSyncer(e, log.With("replica"), cfg.Port)
	go replicaSyncer.Run()
	onexit.Register(func() { replicaSyncer.Stop() })

	addr := cfg.Bind + ":" + strconv.Itoa(cfg.Port)
	go func() {
		log.Info("accepting RESP connections", "addr", addr)
		if err := srv.ListenAndServe(addr); err != nil {
			log.Error("server stopped", "err", err.Error())
		}
	}()

	if *adminAddr != "" {
		admin := server.NewAdminServer(e, hub)
		onexit.Register(func() { admin.Close() })
		go func() {
			log.Info("serving admin HTTP", "addr", *adminAddr)
			if err := admin.ListenAndServe(*adminAddr); err != nil {
				log.Warn("admin HTTP stopped", "err", err.Error())
			}
		}()
	}

	if *repl_ {
		cli.Run(e)
		return
	}
	select {}
}

// dispatchReplayed pushes args straight through Dispatch, bypassing nothing
// except the caller's own expectations about reply values — startup replay
// and REPLICAOF bootstrapping both only care about side effects.
func dispatchReplayed(e *dispatch.Engine, c *dispatch.Conn, args [][]byte) {
	e.Dispatch(c, args)
}

func splitHostPort(s string) (host, port string, ok bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ' ' || s[i] == ':' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}
