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

// Package pubsub implements the channel/pattern fan-out hub (§C8): it
// satisfies dispatch.PubSubHub so Engine can route PUBLISH/SUBSCRIBE without
// importing this package back. The channel directory is read far more often
// (every PUBLISH) than it is written (SUBSCRIBE to a brand new channel), so
// it is kept in a NonLockingReadMap the way memcp keeps its hot read paths
// off a mutex; each channel's own subscriber set, which does churn under
// normal SUBSCRIBE/UNSUBSCRIBE traffic, is a plain mutex-guarded map.
package pubsub

import (
	"sync"

	nlrm "github.com/launix-de/NonLockingReadMap"
	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/globutil"
	"github.com/launix-de/memkv/resp"
)

type channel struct {
	name string
	subs *subscriberSet
}

func (c channel) GetKey() string    { return c.name }
func (c channel) ComputeSize() uint { return 16 + c.subs.computeSize() }

type subscriberSet struct {
	mu   sync.RWMutex
	byID map[string]*dispatch.Conn
}

func newSubscriberSet() *subscriberSet {
	return &subscriberSet{byID: make(map[string]*dispatch.Conn)}
}

func (s *subscriberSet) add(c *dispatch.Conn)      { s.mu.Lock(); s.byID[c.ID] = c; s.mu.Unlock() }
func (s *subscriberSet) remove(id string)          { s.mu.Lock(); delete(s.byID, id); s.mu.Unlock() }
func (s *subscriberSet) empty() bool               { s.mu.RLock(); n := len(s.byID); s.mu.RUnlock(); return n == 0 }
func (s *subscriberSet) computeSize() uint         { s.mu.RLock(); n := uint(len(s.byID)); s.mu.RUnlock(); return 32 + 16*n }

func (s *subscriberSet) deliver(frame resp.Frame) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.byID {
		if c.Notify == nil {
			continue
		}
		c.Notify(frame)
		n++
	}
	return n
}

// Hub is a standalone pub/sub fan-out server, independent of the keyspace.
type Hub struct {
	channels nlrm.NonLockingReadMap[channel, string]
	patterns nlrm.NonLockingReadMap[channel, string]

	mu sync.Mutex // serializes the rare "create a brand new channel/pattern" path
}

func New() *Hub {
	return &Hub{
		channels: nlrm.New[channel, string](),
		patterns: nlrm.New[channel, string](),
	}
}

func (h *Hub) channelFor(name string) *channel {
	if ch := h.channels.Get(name); ch != nil {
		return ch
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch := h.channels.Get(name); ch != nil {
		return ch
	}
	ch := &channel{name: name, subs: newSubscriberSet()}
	h.channels.Set(ch)
	return ch
}

func (h *Hub) patternFor(pattern string) *channel {
	if ch := h.patterns.Get(pattern); ch != nil {
		return ch
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch := h.patterns.Get(pattern); ch != nil {
		return ch
	}
	ch := &channel{name: pattern, subs: newSubscriberSet()}
	h.patterns.Set(ch)
	return ch
}

func (h *Hub) Subscribe(c *dispatch.Conn, name string)   { h.channelFor(name).subs.add(c) }
func (h *Hub) Unsubscribe(c *dispatch.Conn, name string) { h.prune(&h.channels, name, c.ID) }
func (h *Hub) PSubscribe(c *dispatch.Conn, pattern string)   { h.patternFor(pattern).subs.add(c) }
func (h *Hub) PUnsubscribe(c *dispatch.Conn, pattern string) { h.prune(&h.patterns, pattern, c.ID) }

// prune removes id from the (channel|pattern) named key, and drops the whole
// directory entry once its subscriber set empties out so Publish stops
// paying for a dead channel.
func (h *Hub) prune(dir *nlrm.NonLockingReadMap[channel, string], name, id string) {
	ch := dir.Get(name)
	if ch == nil {
		return
	}
	ch.subs.remove(id)
	if ch.subs.empty() {
		h.mu.Lock()
		if cur := dir.Get(name); cur != nil && cur.subs.empty() {
			dir.Remove(name)
		}
		h.mu.Unlock()
	}
}

// Publish fans payload out to every direct subscriber of channel plus every
// pattern subscriber whose glob matches it, and returns the total receiver
// count (§4.5's PUBLISH reply).
func (h *Hub) Publish(channelName string, payload []byte) int {
	total := 0
	if ch := h.channels.Get(channelName); ch != nil {
		frame := resp.Push(resp.BulkString([]byte("message")), resp.BulkString([]byte(channelName)), resp.BulkString(payload))
		total += ch.subs.deliver(frame)
	}
	for _, ch := range h.patterns.GetAll() {
		if !globutil.Match(ch.name, channelName) {
			continue
		}
		frame := resp.Push(
			resp.BulkString([]byte("pmessage")),
			resp.BulkString([]byte(ch.name)),
			resp.BulkString([]byte(channelName)),
			resp.BulkString(payload),
		)
		total += ch.subs.deliver(frame)
	}
	return total
}

// NotifyKeyspaceEvent publishes to the two conventional channel names
// (§C8's keyspace-notification bridge) on every call; the
// notify-keyspace-events setting is not consulted. dispatch's write hook
// calls this for every write and leaves the "is anyone listening" cost to the two
// nlrm.Get lookups below, which are the whole point of a read-mostly map.
func (h *Hub) NotifyKeyspaceEvent(db int, event, key string) {
	h.Publish(keyspaceChannel(db, key), []byte(event))
	h.Publish(keyeventChannel(db, event), []byte(key))
}

func keyspaceChannel(db int, key string) string {
	return "__keyspace@" + itoa(db) + "__:" + key
}

func keyeventChannel(db int, event string) string {
	return "__keyevent@" + itoa(db) + "__:" + event
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
