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

// Package config holds the server's named, mutable configuration surface
// (CONFIG GET/SET). The get-all / get-one / set-one-by-name shape mirrors
// storage/settings.go's ChangeSettings from the memcp engine, generalized
// from scm values to plain Go strings so the RESP dispatcher can marshal
// replies directly.
package config

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	units "github.com/docker/go-units"

	"github.com/launix-de/memkv/globutil"
)

type AppendFsync string

const (
	FsyncAlways   AppendFsync = "always"
	FsyncEverySec AppendFsync = "everysec"
	FsyncNo       AppendFsync = "no"
)

type EvictionPolicy string

const (
	EvictionNone           EvictionPolicy = "noeviction"
	EvictionAllKeysLRU     EvictionPolicy = "allkeys-lru"
	EvictionVolatileLRU    EvictionPolicy = "volatile-lru"
	EvictionAllKeysRandom  EvictionPolicy = "allkeys-random"
	EvictionVolatileRandom EvictionPolicy = "volatile-random"
	EvictionVolatileTTL    EvictionPolicy = "volatile-ttl"
)

// Store is the live, mutable configuration. All fields are accessed only
// through Get/Set so that CONFIG GET/SET and internal callers agree on the
// canonical string representation of every value.
type Store struct {
	mu sync.RWMutex

	Bind                       string
	Port                       int
	MaxClients                 int
	MaxMemoryBytes             int64
	MaxMemoryPolicy            EvictionPolicy
	TCPKeepAlive               int
	Timeout                    int
	Databases                  int
	AppendOnly                 bool
	AppendFsync                AppendFsync
	Save                       string
	RequirePass                string
	ReplicaOf                  string
	SlowlogLogSlowerThanMicros int
	SlowlogMaxLen              int
	SlowlogEnabled             bool
	MonitorEnabled             bool
	StatsEnabled               bool

	HashMaxListpackEntries int
	SetMaxIntsetEntries    int
	ListMaxListpackSize    int
	ZsetMaxListpackEntries int
	NotifyKeyspaceEvents   string

	LogLevel string
	DataDir  string
}

func Default() *Store {
	return &Store{
		Bind:                       "0.0.0.0",
		Port:                       6380,
		MaxClients:                 10000,
		MaxMemoryBytes:             0,
		MaxMemoryPolicy:            EvictionNone,
		TCPKeepAlive:               300,
		Timeout:                    0,
		Databases:                  16,
		AppendOnly:                 false,
		AppendFsync:                FsyncEverySec,
		Save:                       "3600 1 300 100 60 10000",
		RequirePass:                "",
		ReplicaOf:                  "",
		SlowlogLogSlowerThanMicros: 10000,
		SlowlogMaxLen:              128,
		SlowlogEnabled:             true,
		MonitorEnabled:             true,
		StatsEnabled:               true,
		HashMaxListpackEntries:     128,
		SetMaxIntsetEntries:        512,
		ListMaxListpackSize:        128,
		ZsetMaxListpackEntries:     128,
		NotifyKeyspaceEvents:       "",
		LogLevel:                   "info",
		DataDir:                    "data",
	}
}

// names lists every CONFIG-visible key in a stable order, for CONFIG GET *.
func (s *Store) names() []string {
	return []string{
		"bind", "port", "maxclients", "maxmemory", "maxmemory-policy",
		"tcp-keepalive", "timeout", "databases", "appendonly", "appendfsync",
		"save", "requirepass", "replicaof", "slowlog-log-slower-than",
		"slowlog-max-len", "slowlog-enabled", "monitor-enabled", "stats-enabled",
		"hash-max-listpack-entries", "set-max-intset-entries",
		"list-max-listpack-size", "zset-max-listpack-entries",
		"notify-keyspace-events", "loglevel", "dir",
	}
}

// Get returns the canonical string value of a named option, matching
// upstream CONFIG GET's reply shape (empty string + ok=false for unknown).
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch strings.ToLower(name) {
	case "bind":
		return s.Bind, true
	case "port":
		return strconv.Itoa(s.Port), true
	case "maxclients":
		return strconv.Itoa(s.MaxClients), true
	case "maxmemory":
		return strconv.FormatInt(s.MaxMemoryBytes, 10), true
	case "maxmemory-policy":
		return string(s.MaxMemoryPolicy), true
	case "tcp-keepalive":
		return strconv.Itoa(s.TCPKeepAlive), true
	case "timeout":
		return strconv.Itoa(s.Timeout), true
	case "databases":
		return strconv.Itoa(s.Databases), true
	case "appendonly":
		return boolStr(s.AppendOnly), true
	case "appendfsync":
		return string(s.AppendFsync), true
	case "save":
		return s.Save, true
	case "requirepass":
		return s.RequirePass, true
	case "replicaof":
		return s.ReplicaOf, true
	case "slowlog-log-slower-than":
		return strconv.Itoa(s.SlowlogLogSlowerThanMicros), true
	case "slowlog-max-len":
		return strconv.Itoa(s.SlowlogMaxLen), true
	case "slowlog-enabled":
		return boolStr(s.SlowlogEnabled), true
	case "monitor-enabled":
		return boolStr(s.MonitorEnabled), true
	case "stats-enabled":
		return boolStr(s.StatsEnabled), true
	case "hash-max-listpack-entries":
		return strconv.Itoa(s.HashMaxListpackEntries), true
	case "set-max-intset-entries":
		return strconv.Itoa(s.SetMaxIntsetEntries), true
	case "list-max-listpack-size":
		return strconv.Itoa(s.ListMaxListpackSize), true
	case "zset-max-listpack-entries":
		return strconv.Itoa(s.ZsetMaxListpackEntries), true
	case "notify-keyspace-events":
		return s.NotifyKeyspaceEvents, true
	case "loglevel":
		return s.LogLevel, true
	case "dir":
		return s.DataDir, true
	default:
		return "", false
	}
}

// GetGlob returns every (name, value) pair whose name matches a glob-style
// pattern (CONFIG GET accepts globs, same as KEYS).
func (s *Store) GetGlob(pattern string) [][2]string {
	var out [][2]string
	for _, n := range s.names() {
		if globutil.Match(pattern, n) {
			v, _ := s.Get(n)
			out = append(out, [2]string{n, v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// Set assigns a named option from its wire string representation.
func (s *Store) Set(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch strings.ToLower(name) {
	case "bind":
		s.Bind = value
	case "port":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid port: %w", err)
		}
		s.Port = n
	case "maxclients":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid maxclients: %w", err)
		}
		s.MaxClients = n
	case "maxmemory":
		n, err := units.RAMInBytes(value)
		if err != nil {
			return fmt.Errorf("invalid maxmemory: %w", err)
		}
		s.MaxMemoryBytes = n
	case "maxmemory-policy":
		s.MaxMemoryPolicy = EvictionPolicy(value)
	case "tcp-keepalive":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.TCPKeepAlive = n
	case "timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.Timeout = n
	case "databases":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.Databases = n
	case "appendonly":
		s.AppendOnly = strings.EqualFold(value, "yes") || value == "1" || strings.EqualFold(value, "true")
	case "appendfsync":
		s.AppendFsync = AppendFsync(value)
	case "save":
		s.Save = value
	case "requirepass":
		s.RequirePass = value
	case "replicaof":
		s.ReplicaOf = value
	case "slowlog-log-slower-than":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.SlowlogLogSlowerThanMicros = n
	case "slowlog-max-len":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.SlowlogMaxLen = n
	case "slowlog-enabled":
		s.SlowlogEnabled = parseBool(value)
	case "monitor-enabled":
		s.MonitorEnabled = parseBool(value)
	case "stats-enabled":
		s.StatsEnabled = parseBool(value)
	case "hash-max-listpack-entries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.HashMaxListpackEntries = n
	case "set-max-intset-entries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.SetMaxIntsetEntries = n
	case "list-max-listpack-size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.ListMaxListpackSize = n
	case "zset-max-listpack-entries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.ZsetMaxListpackEntries = n
	case "notify-keyspace-events":
		s.NotifyKeyspaceEvents = value
	case "loglevel":
		s.LogLevel = value
	case "dir":
		s.DataDir = value
	default:
		return fmt.Errorf("unknown config parameter: %s", name)
	}
	return nil
}

func boolStr(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func parseBool(v string) bool {
	return strings.EqualFold(v, "yes") || v == "1" || strings.EqualFold(v, "true")
}

// LoadFile reads a memkv.conf-style line-oriented "key value..." config
// file, matching upstream Redis' own config-file grammar closely enough for
// the options this store exposes. Blank lines and '#' comments are skipped.
func (s *Store) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		if err := s.Set(fields[0], strings.Trim(fields[1], "\"")); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return sc.Err()
}
