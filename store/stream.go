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
package store

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// StreamID is the (ms, seq) identifier (§3); IDs are strictly increasing.
type StreamID struct {
	Ms  uint64
	Seq uint64
}

func (id StreamID) String() string { return fmt.Sprintf("%d-%d", id.Ms, id.Seq) }

func (id StreamID) Less(other StreamID) bool {
	if id.Ms != other.Ms {
		return id.Ms < other.Ms
	}
	return id.Seq < other.Seq
}

func (id StreamID) Equal(other StreamID) bool { return id.Ms == other.Ms && id.Seq == other.Seq }

// StreamEntry is one appended record: an id plus ordered field/value pairs.
type StreamEntry struct {
	ID     StreamID
	Fields [][2][]byte // ordered (field, value) pairs
}

// PendingEntry is one consumer-group PEL record.
type PendingEntry struct {
	Consumer      string
	DeliveryTime  time.Time
	DeliveryCount int64
}

// ConsumerGroup tracks one XGROUP's delivery cursor and pending-entries list.
type ConsumerGroup struct {
	LastDelivered StreamID
	Pending       map[StreamID]*PendingEntry
	Consumers     map[string]time.Time // consumer -> last seen
}

// StreamVal is the append-only stream value (§3/§4.2). All mutable state
// (entries, last_id, groups) lives behind one mutex so append + metadata
// update is one critical section, as the spec requires; length is kept in
// an atomic outside that lock so XLEN never contends with writers.
type StreamVal struct {
	mu      sync.Mutex
	entries []StreamEntry
	lastID  StreamID
	groups  map[string]*ConsumerGroup
	length  atomic.Int64
}

func NewStreamVal() *StreamVal {
	return &StreamVal{groups: make(map[string]*ConsumerGroup)}
}

func (*StreamVal) Kind() Kind     { return KindStream }
func (*StreamVal) Encoding() string { return "stream" }

// Len is the atomic, lock-free counterpart to XLEN (§4.2).
func (s *StreamVal) Len() int64 { return s.length.Load() }

// nextID derives a new strictly-monotone id; ms==0 takes wall-clock millis.
// Without an explicit seq it bumps the sequence when ms equals lastID.Ms,
// starts at seq 0 when ms is larger, and returns an error when ms is smaller.
func (s *StreamVal) nextID(ms uint64, seq int64, explicitSeq bool) (StreamID, error) {
	if ms == 0 {
		ms = uint64(time.Now().UnixMilli())
	}
	var id StreamID
	if explicitSeq {
		id = StreamID{Ms: ms, Seq: uint64(seq)}
	} else if ms == s.lastID.Ms {
		id = StreamID{Ms: ms, Seq: s.lastID.Seq + 1}
	} else if ms > s.lastID.Ms {
		id = StreamID{Ms: ms, Seq: 0}
	} else {
		return StreamID{}, fmt.Errorf("ERR The ID specified in XADD is equal or smaller than the target stream top item")
	}
	if len(s.entries) > 0 && !s.lastID.Less(id) {
		return StreamID{}, fmt.Errorf("ERR The ID specified in XADD is equal or smaller than the target stream top item")
	}
	return id, nil
}

// Append adds one entry. ms==0,seq==-1 means "*" (auto-generate both);
// explicitSeq distinguishes "<ms>-*" (auto seq) from "<ms>-<seq>" (explicit).
func (s *StreamVal) Append(ms uint64, seq int64, explicitSeq bool, fields [][2][]byte) (StreamID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.nextID(ms, seq, explicitSeq)
	if err != nil {
		return StreamID{}, err
	}
	s.entries = append(s.entries, StreamEntry{ID: id, Fields: fields})
	s.lastID = id
	s.length.Add(1)
	return id, nil
}

func (s *StreamVal) LastID() StreamID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastID
}

// Range returns entries with start <= id <= end, ascending order.
func (s *StreamVal) Range(start, end StreamID, count int) []StreamEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo := sort.Search(len(s.entries), func(i int) bool { return !s.entries[i].ID.Less(start) })
	var out []StreamEntry
	for i := lo; i < len(s.entries); i++ {
		if end.Less(s.entries[i].ID) {
			break
		}
		out = append(out, s.entries[i])
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out
}

// RevRange returns entries with start <= id <= end, descending order
// (XREVRANGE's start/end are given high-to-low, matching upstream).
func (s *StreamVal) RevRange(end, start StreamID, count int) []StreamEntry {
	fwd := s.Range(start, end, 0)
	out := make([]StreamEntry, len(fwd))
	for i, e := range fwd {
		out[len(fwd)-1-i] = e
	}
	if count > 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

// Trim keeps only the newest maxLen entries (approximate trimming strategies
// like "~" are accepted at the dispatch layer and treated exactly here).
func (s *StreamVal) Trim(maxLen int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) <= maxLen {
		return 0
	}
	removed := len(s.entries) - maxLen
	s.entries = append([]StreamEntry(nil), s.entries[removed:]...)
	s.length.Add(-int64(removed))
	return removed
}

// Delete removes entries with the given ids (XDEL); absent ids are no-ops.
func (s *StreamVal) Delete(ids []StreamID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[StreamID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	deleted := 0
	kept := s.entries[:0:0]
	for _, e := range s.entries {
		if want[e.ID] {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	s.length.Add(-int64(deleted))
	return deleted
}

func (s *StreamVal) Group(name string) (*ConsumerGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	return g, ok
}

// CreateGroup registers a new consumer group starting at `after` (exclusive)
// or at the current last id for "$".
func (s *StreamVal) CreateGroup(name string, after StreamID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; ok {
		return false
	}
	s.groups[name] = &ConsumerGroup{
		LastDelivered: after,
		Pending:       make(map[StreamID]*PendingEntry),
		Consumers:     make(map[string]time.Time),
	}
	return true
}

func (s *StreamVal) DestroyGroup(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; !ok {
		return false
	}
	delete(s.groups, name)
	return true
}

// ReadGroup delivers up to count new entries (id > group.LastDelivered) to
// consumer, recording each in the group's PEL.
func (s *StreamVal) ReadGroup(group, consumer string, count int) ([]StreamEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		return nil, fmt.Errorf("NOGROUP No such consumer group '%s'", group)
	}
	g.Consumers[consumer] = time.Now()
	lo := sort.Search(len(s.entries), func(i int) bool { return g.LastDelivered.Less(s.entries[i].ID) })
	var out []StreamEntry
	for i := lo; i < len(s.entries); i++ {
		out = append(out, s.entries[i])
		g.Pending[s.entries[i].ID] = &PendingEntry{Consumer: consumer, DeliveryTime: time.Now(), DeliveryCount: 1}
		g.LastDelivered = s.entries[i].ID
		if count > 0 && len(out) >= count {
			break
		}
	}
	return out, nil
}

// Ack removes ids from the group's PEL (XACK).
func (s *StreamVal) Ack(group string, ids []StreamID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		return 0
	}
	n := 0
	for _, id := range ids {
		if _, ok := g.Pending[id]; ok {
			delete(g.Pending, id)
			n++
		}
	}
	return n
}

// Pending summarizes a group's PEL for XPENDING's no-args form: count,
// lowest id, highest id, and per-consumer totals.
func (s *StreamVal) Pending(group string) (count int, min, max StreamID, byConsumer map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		return 0, StreamID{}, StreamID{}, nil
	}
	byConsumer = make(map[string]int)
	first := true
	for id, p := range g.Pending {
		if first || id.Less(min) {
			min = id
		}
		if first || max.Less(id) {
			max = id
		}
		first = false
		byConsumer[p.Consumer]++
		count++
	}
	return
}

// Claim reassigns pending entries idle longer than minIdle to a new
// consumer (XCLAIM), returning the claimed entries.
func (s *StreamVal) Claim(group, consumer string, ids []StreamID, minIdle time.Duration) []StreamEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		return nil
	}
	byID := make(map[StreamID]StreamEntry, len(s.entries))
	for _, e := range s.entries {
		byID[e.ID] = e
	}
	var claimed []StreamEntry
	now := time.Now()
	for _, id := range ids {
		p, ok := g.Pending[id]
		if !ok || now.Sub(p.DeliveryTime) < minIdle {
			continue
		}
		p.Consumer = consumer
		p.DeliveryTime = now
		p.DeliveryCount++
		if e, ok := byID[id]; ok {
			claimed = append(claimed, e)
		}
	}
	return claimed
}

// DeleteConsumer removes a consumer, handing its pending entries back to
// the group with no owning consumer — the floor behavior the spec's open
// question leaves to the implementer (§9).
func (s *StreamVal) DeleteConsumer(group, consumer string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[group]
	if !ok {
		return 0
	}
	n := 0
	for _, p := range g.Pending {
		if p.Consumer == consumer {
			p.Consumer = ""
			n++
		}
	}
	delete(g.Consumers, consumer)
	return n
}
