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
package pubsub

import (
	"testing"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
)

func newTestConn(id string) (*dispatch.Conn, *[]resp.Frame) {
	received := &[]resp.Frame{}
	c := &dispatch.Conn{ID: id}
	c.Notify = func(f resp.Frame) { *received = append(*received, f) }
	return c, received
}

func TestPublishNoSubscribers(t *testing.T) {
	h := New()
	if n := h.Publish("news", []byte("hi")); n != 0 {
		t.Fatalf("expected 0 receivers, got %d", n)
	}
}

func TestSubscribeReceivesMessage(t *testing.T) {
	h := New()
	c, received := newTestConn("c1")
	h.Subscribe(c, "news")

	if n := h.Publish("news", []byte("hello")); n != 1 {
		t.Fatalf("expected 1 receiver, got %d", n)
	}
	if len(*received) != 1 {
		t.Fatalf("expected 1 delivered frame, got %d", len(*received))
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := New()
	c, received := newTestConn("c1")
	h.Subscribe(c, "news")
	h.Unsubscribe(c, "news")

	h.Publish("news", []byte("hello"))
	if len(*received) != 0 {
		t.Fatalf("expected no delivery after unsubscribe, got %d frames", len(*received))
	}
}

func TestPatternSubscribeMatches(t *testing.T) {
	h := New()
	c, received := newTestConn("c1")
	h.PSubscribe(c, "news.*")

	h.Publish("news.sport", []byte("goal"))
	if len(*received) != 1 {
		t.Fatalf("expected 1 pattern delivery, got %d", len(*received))
	}

	h.Publish("weather.rain", []byte("drip"))
	if len(*received) != 1 {
		t.Fatalf("pattern should not match unrelated channel, got %d frames", len(*received))
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	h := New()
	c1, r1 := newTestConn("c1")
	c2, r2 := newTestConn("c2")
	h.Subscribe(c1, "news")
	h.Subscribe(c2, "news")

	if n := h.Publish("news", []byte("hi")); n != 2 {
		t.Fatalf("expected 2 receivers, got %d", n)
	}
	if len(*r1) != 1 || len(*r2) != 1 {
		t.Fatalf("expected both subscribers to receive exactly once")
	}
}

func TestNotifyKeyspaceEvent(t *testing.T) {
	h := New()
	c, received := newTestConn("c1")
	h.Subscribe(c, "__keyevent@0__:set")

	h.NotifyKeyspaceEvent(0, "set", "mykey")
	if len(*received) != 1 {
		t.Fatalf("expected keyevent delivery, got %d frames", len(*received))
	}
}
