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

// Package repl implements the replication backlog and PSYNC handshake
// bookkeeping (§C9). It satisfies dispatch.ReplicationSink so Engine can
// propagate writes without importing this package back.
package repl

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// coldSegment is a run of backlog bytes that aged out of the live window.
// It is kept lz4-compressed so a replica that reconnects after a short
// network blip can still CONTINUE instead of paying for a FULLRESYNC,
// the same "append log never truly forgets recent history" contract
// memcp's storage.PersistenceLogfile gives a shard's own log.
type coldSegment struct {
	start, end int64
	data       []byte // lz4 block of the original [start,end) bytes
}

// Backlog is a byte-offset append log of the RESP-encoded write stream: the
// live tail up to liveSize bytes, plus older bytes retained compressed up to
// coldMax bytes before being dropped for good (at which point a reconnecting
// replica too far behind must FULLRESYNC).
type Backlog struct {
	mu sync.Mutex

	live      []byte
	liveStart int64
	liveSize  int

	cold    []coldSegment
	coldLen int64
	coldMax int64
}

func NewBacklog(liveSize, coldMax int) *Backlog {
	if liveSize <= 0 {
		liveSize = 1 << 20
	}
	return &Backlog{liveSize: liveSize, coldMax: int64(coldMax)}
}

// Append adds p to the tail of the log and returns the new master offset.
func (b *Backlog) Append(p []byte) int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live = append(b.live, p...)
	if over := len(b.live) - b.liveSize; over > 0 {
		evicted := append([]byte(nil), b.live[:over]...)
		b.archive(evicted)
		b.live = b.live[over:]
		b.liveStart += int64(over)
	}
	return b.liveStart + int64(len(b.live))
}

func (b *Backlog) archive(evicted []byte) {
	seg := coldSegment{start: b.liveStart, end: b.liveStart + int64(len(evicted)), data: compressChunk(evicted)}
	b.cold = append(b.cold, seg)
	b.coldLen += int64(len(seg.data))
	for b.coldLen > b.coldMax && len(b.cold) > 0 {
		dropped := b.cold[0]
		b.cold = b.cold[1:]
		b.coldLen -= int64(len(dropped.data))
	}
}

// Offset reports the current master replication offset.
func (b *Backlog) Offset() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liveStart + int64(len(b.live))
}

// Since returns every byte appended at or after offset. ok is false when
// offset predates what the backlog still holds (compressed or not) and the
// caller must fall back to FULLRESYNC.
func (b *Backlog) Since(offset int64) (data []byte, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.liveStart + int64(len(b.live))
	if offset > cur {
		return nil, false
	}
	if offset >= b.liveStart {
		return append([]byte(nil), b.live[offset-b.liveStart:]...), true
	}
	if len(b.cold) == 0 || offset < b.cold[0].start {
		return nil, false
	}
	var out []byte
	for _, seg := range b.cold {
		if seg.end <= offset {
			continue
		}
		chunk := decompressChunk(seg.data)
		from := int64(0)
		if offset > seg.start {
			from = offset - seg.start
		}
		out = append(out, chunk[from:]...)
	}
	out = append(out, b.live...)
	return out, true
}

func compressChunk(data []byte) []byte {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return buf.Bytes()
}

func decompressChunk(compressed []byte) []byte {
	zr := lz4.NewReader(bytes.NewReader(compressed))
	data, _ := io.ReadAll(zr)
	return data
}
