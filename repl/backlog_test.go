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
package repl

import (
	"bytes"
	"testing"
)

func TestBacklogAppendAndSince(t *testing.T) {
	b := NewBacklog(1024, 4096)
	off0 := b.Offset()
	b.Append([]byte("hello"))
	b.Append([]byte("world"))

	data, ok := b.Since(off0)
	if !ok {
		t.Fatalf("expected Since to find offset 0")
	}
	if string(data) != "helloworld" {
		t.Fatalf("unexpected backlog contents: %q", data)
	}
}

func TestBacklogEvictsToCold(t *testing.T) {
	b := NewBacklog(8, 1024)
	start := b.Offset()
	chunk := bytes.Repeat([]byte("a"), 20)
	b.Append(chunk)

	data, ok := b.Since(start)
	if !ok {
		t.Fatalf("expected reconstructable history from cold segments")
	}
	if string(data) != string(chunk) {
		t.Fatalf("cold-segment reconstruction mismatch: got %d bytes, want %d", len(data), len(chunk))
	}
}

func TestBacklogTooOldRequiresFullResync(t *testing.T) {
	b := NewBacklog(8, 8)
	b.Append(bytes.Repeat([]byte("b"), 100))
	if _, ok := b.Since(0); ok {
		t.Fatalf("expected offset 0 to have aged out past coldMax")
	}
}

func TestBacklogOffsetAdvancesMonotonically(t *testing.T) {
	b := NewBacklog(1024, 1024)
	o1 := b.Append([]byte("abc"))
	o2 := b.Append([]byte("de"))
	if o2 != o1+2 {
		t.Fatalf("offset should advance by appended length: o1=%d o2=%d", o1, o2)
	}
}
