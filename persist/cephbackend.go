//go:build ceph

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

// Ceph/RADOS needs cgo and librados, so this backend is gated behind the
// "ceph" build tag, same as memcp's persistence-ceph.go.
package persist

import (
	"fmt"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

// CephConfig names a RADOS pool to store objects in directly (no S3
// gateway), for deployments that already run a Ceph cluster.
type CephConfig struct {
	UserName    string
	ClusterName string
	ConfFile    string
	Pool        string
	Prefix      string
}

type CephBackend struct {
	cfg CephConfig

	mu    sync.Mutex
	conn  *rados.Conn
	ioctx *rados.IOContext
	open  bool
}

func NewCephBackend(cfg CephConfig) *CephBackend {
	return &CephBackend{cfg: cfg}
}

func (b *CephBackend) ensureOpen() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open {
		return nil
	}
	conn, err := rados.NewConnWithClusterAndUser(b.cfg.ClusterName, b.cfg.UserName)
	if err != nil {
		return fmt.Errorf("persist: rados conn: %w", err)
	}
	if b.cfg.ConfFile != "" {
		if err := conn.ReadConfigFile(b.cfg.ConfFile); err != nil {
			return fmt.Errorf("persist: rados config: %w", err)
		}
	}
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("persist: rados connect: %w", err)
	}
	ioctx, err := conn.OpenIOContext(b.cfg.Pool)
	if err != nil {
		return fmt.Errorf("persist: rados open pool %s: %w", b.cfg.Pool, err)
	}
	b.conn, b.ioctx, b.open = conn, ioctx, true
	return nil
}

func (b *CephBackend) oid(name string) string { return b.cfg.Prefix + "/" + name }

func (b *CephBackend) ReadObject(name string) ([]byte, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, err
	}
	stat, err := b.ioctx.Stat(b.oid(name))
	if err != nil {
		return nil, nil
	}
	buf := make([]byte, stat.Size)
	n, err := b.ioctx.Read(b.oid(name), buf, 0)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

func (b *CephBackend) WriteObject(name string, data []byte) error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	return b.ioctx.WriteFull(b.oid(name), data)
}

func (b *CephBackend) AppendObject(name string, data []byte) error {
	existing, err := b.ReadObject(name)
	if err != nil {
		return err
	}
	return b.WriteObject(name, memBuffer(existing, data))
}

func (b *CephBackend) TruncateObject(name string) error {
	return b.WriteObject(name, nil)
}
