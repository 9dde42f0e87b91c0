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
package script

import (
	"reflect"
	"testing"
)

func TestReadSimpleList(t *testing.T) {
	got := Read("(+ 1 2)")
	want := []Scmer{Symbol("+"), 1.0, 2.0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestReadString(t *testing.T) {
	got := Read(`(concat "a\nb")`)
	want := []Scmer{Symbol("concat"), "a\nb"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestReadNested(t *testing.T) {
	got := Read("(if (> 1 2) (list 1) (list 2 3))")
	want := []Scmer{
		Symbol("if"),
		[]Scmer{Symbol(">"), 1.0, 2.0},
		[]Scmer{Symbol("list"), 1.0},
		[]Scmer{Symbol("list"), 2.0, 3.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestReadQuote(t *testing.T) {
	got := Read("'(1 2)")
	want := []Scmer{Symbol("quote"), []Scmer{1.0, 2.0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestReadAllMultipleForms(t *testing.T) {
	forms := ReadAll("(define x 1) (define y 2) (+ x y)")
	if len(forms) != 3 {
		t.Fatalf("expected 3 forms, got %d", len(forms))
	}
}

func TestReadUnbalancedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unbalanced parens")
		}
	}()
	Read("(+ 1 2")
}
