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
	"testing"
	"time"
)

// TestBPopMultiKeyDeliversExactlyOnce guards against a waiter registered on
// two keys being claimed twice: two concurrent pushes race to wake the same
// blocked client, and only one may deliver. The loser's value must stay in
// its list rather than vanish into an unread channel.
func TestBPopMultiKeyDeliversExactlyOnce(t *testing.T) {
	st := New(1, 1)
	d := st.DB(0)

	done := make(chan struct{})
	var gotKey string
	go func() {
		k, _, ok := d.BPop(context.Background(), [][]byte{[]byte("a"), []byte("b")}, time.Second, true)
		if ok {
			gotKey = k
		}
		close(done)
	}()

	// give BPop a chance to register the waiter on both shards before the
	// pushes race it.
	time.Sleep(50 * time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); d.Push([]byte("a"), true, [][]byte{[]byte("va")}) }()
	go func() { defer wg.Done(); d.Push([]byte("b"), true, [][]byte{[]byte("vb")}) }()
	wg.Wait()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("BPop did not return after both pushes completed")
	}

	if gotKey != "a" && gotKey != "b" {
		t.Fatalf("expected delivery from either a or b, got %q", gotKey)
	}

	other, otherVal := "b", "vb"
	if gotKey == "b" {
		other, otherVal = "a", "va"
	}

	v, ok := d.Get([]byte(other))
	if !ok {
		t.Fatalf("losing push's value should remain in %q, key is gone", other)
	}
	lv, isList := v.(*ListVal)
	if !isList || lv.Len() != 1 {
		t.Fatalf("expected exactly one element left in %q", other)
	}
	left, _ := lv.PopLeft()
	if string(left) != otherVal {
		t.Fatalf("got %q want %q", left, otherVal)
	}
}
