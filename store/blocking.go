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
	"context"
	"sync"
	"time"
)

// waiter is one client parked on BLPOP/BRPOP (§4.7). It lives in every one of
// its requested keys' shard waiters queues for as long as the client is
// blocked, and is handed a value directly by whichever goroutine performs the
// matching push — the same shared-resource handoff memcp's
// shared_resource.go uses to wake a blocked reader without it ever
// re-acquiring the lock to look again.
//
// A multi-key BLPOP registers the same waiter under several shards, each
// guarded by its own lock, so two pushes on two different keys can race to
// claim it. mu/delivered make that claim atomic across shards: whichever
// push locks mu first and finds delivered still false is the one allowed to
// pop from its list and send on ch.
type waiter struct {
	mu        sync.Mutex
	delivered bool
	ch        chan poppedValue
	left      bool // true requests LPOP-side delivery, false RPOP-side
}

type poppedValue struct {
	key   string
	value []byte
}

// BPop blocks the calling goroutine until one of keys has an element to pop
// (trying them in order, as BLPOP/BRPOP do) or timeout elapses (zero means
// block forever, bounded only by ctx). left selects LPOP vs RPOP semantics.
func (d *Database) BPop(ctx context.Context, keys [][]byte, timeout time.Duration, left bool) (string, []byte, bool) {
	if key, val, ok := d.tryPopAny(keys, left); ok {
		return key, val, true
	}

	ch := make(chan poppedValue, 1)
	w := &waiter{ch: ch, left: left}
	d.registerWaiter(keys, w)
	defer d.unregisterWaiter(keys, w)

	var deadline <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}

	select {
	case pv := <-ch:
		return pv.key, pv.value, true
	case <-deadline:
		return "", nil, false
	case <-ctx.Done():
		return "", nil, false
	}
}

func (d *Database) tryPopAny(keys [][]byte, left bool) (string, []byte, bool) {
	for _, key := range keys {
		sh := d.shardFor(key)
		sh.mu.Lock()
		k := string(key)
		e, ok := sh.lookupLocked(k, time.Now())
		if ok {
			if lv, isList := e.Value.(*ListVal); isList && lv.Len() > 0 {
				var val []byte
				if left {
					val, _ = lv.PopLeft()
				} else {
					val, _ = lv.PopRight()
				}
				e.Version++
				if lv.Len() == 0 {
					delete(sh.entries, k)
				}
				sh.mu.Unlock()
				d.owner.notifyWrite(d.index, k)
				return k, val, true
			}
		}
		sh.mu.Unlock()
	}
	return "", nil, false
}

func (d *Database) registerWaiter(keys [][]byte, w *waiter) {
	for _, key := range keys {
		sh := d.shardFor(key)
		k := string(key)
		sh.mu.Lock()
		sh.waiters[k] = append(sh.waiters[k], w)
		sh.mu.Unlock()
	}
}

func (d *Database) unregisterWaiter(keys [][]byte, w *waiter) {
	for _, key := range keys {
		sh := d.shardFor(key)
		k := string(key)
		sh.mu.Lock()
		q := sh.waiters[k]
		for i, cand := range q {
			if cand == w {
				sh.waiters[k] = append(q[:i], q[i+1:]...)
				break
			}
		}
		if len(sh.waiters[k]) == 0 {
			delete(sh.waiters, k)
		}
		sh.mu.Unlock()
	}
}

// wakeWaiter is called by PushLeft/PushRight-issuing commands (under the
// shard's write lock, before it is released) to hand the just-pushed value
// straight to the oldest waiting client instead of leaving it in the list
// for the waiter to rediscover later. It reports whether a waiter took the
// value, so the caller knows whether to leave it in the list.
//
// A waiter already claimed through a different one of its keys is skipped:
// it is still dequeued here (its entry in this shard is stale either way),
// but lv is left untouched and the next waiter in line is tried instead.
func (sh *shard) wakeWaiter(key string, lv *ListVal) bool {
	for {
		q := sh.waiters[key]
		if len(q) == 0 || lv.Len() == 0 {
			return false
		}
		w := q[0]
		sh.waiters[key] = q[1:]
		if len(sh.waiters[key]) == 0 {
			delete(sh.waiters, key)
		}

		w.mu.Lock()
		if w.delivered {
			w.mu.Unlock()
			continue
		}
		var val []byte
		var ok bool
		if w.left {
			val, ok = lv.PopLeft()
		} else {
			val, ok = lv.PopRight()
		}
		if !ok {
			w.mu.Unlock()
			return false
		}
		w.delivered = true
		w.mu.Unlock()
		// w.ch is buffered(1) and written at most once, so this never blocks
		// even if the waiter has since given up on timeout or ctx cancellation.
		w.ch <- poppedValue{key: key, value: val}
		return true
	}
}
