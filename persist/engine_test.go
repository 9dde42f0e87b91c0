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
package persist

import (
	"testing"
	"time"

	"github.com/launix-de/memkv/store"
)

func TestFileBackendRoundTrip(t *testing.T) {
	b := NewFileBackend(t.TempDir())
	if data, err := b.ReadObject("missing"); err != nil || data != nil {
		t.Fatalf("expected (nil,nil) for missing object, got (%v,%v)", data, err)
	}
	if err := b.WriteObject("x", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteObject("x", []byte("two")); err != nil {
		t.Fatal(err)
	}
	data, err := b.ReadObject("x")
	if err != nil || string(data) != "two" {
		t.Fatalf("expected overwrite to replace contents, got %q err=%v", data, err)
	}
	if err := b.AppendObject("log", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := b.AppendObject("log", []byte("b")); err != nil {
		t.Fatal(err)
	}
	data, _ = b.ReadObject("log")
	if string(data) != "ab" {
		t.Fatalf("expected appended contents \"ab\", got %q", data)
	}
}

func TestSnapshotSaveAndLoad(t *testing.T) {
	st := store.New(4, 4)
	if err := st.DB(0).SetString([]byte("greeting"), []byte("hello"), time.Time{}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.DB(0).Push([]byte("mylist"), false, [][]byte{[]byte("a"), []byte("b")}); err != nil {
		t.Fatal(err)
	}

	backend := NewFileBackend(t.TempDir())
	eng := New(st, backend)
	if err := eng.Save(); err != nil {
		t.Fatal(err)
	}

	st2 := store.New(4, 4)
	eng2 := New(st2, backend)
	if err := eng2.Load(); err != nil {
		t.Fatal(err)
	}

	v, ok := st2.DB(0).Get([]byte("greeting"))
	if !ok || string(v.(store.StringVal)) != "hello" {
		t.Fatalf("expected restored string value, got %v ok=%v", v, ok)
	}
	lv, ok := st2.DB(0).Get([]byte("mylist"))
	if !ok {
		t.Fatalf("expected restored list key")
	}
	list, ok := lv.(*store.ListVal)
	if !ok || list.Len() != 2 {
		t.Fatalf("expected restored 2-element list, got %v", lv)
	}
}

func TestAppendCommandReplay(t *testing.T) {
	st := store.New(1, 4)
	backend := NewFileBackend(t.TempDir())
	eng := New(st, backend)

	applyCount := 0
	eng.SetApplier(func(db int, args [][]byte) {
		applyCount++
		if string(args[0]) == "SET" {
			_ = st.DB(db).SetString(args[1], args[2], time.Time{})
		}
	})

	if err := eng.AppendCommand(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")}); err != nil {
		t.Fatal(err)
	}

	st2 := store.New(1, 4)
	eng2 := New(st2, backend)
	eng2.SetApplier(func(db int, args [][]byte) {
		if string(args[0]) == "SET" {
			_ = st2.DB(db).SetString(args[1], args[2], time.Time{})
		}
	})
	if err := eng2.Load(); err != nil {
		t.Fatal(err)
	}
	v, ok := st2.DB(0).Get([]byte("k"))
	if !ok || string(v.(store.StringVal)) != "v" {
		t.Fatalf("expected replayed SET to restore key, got %v ok=%v", v, ok)
	}
}
