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

import "testing"

func evalString(t *testing.T, src string) Scmer {
	t.Helper()
	en := NewEnv(globalEnv())
	var value Scmer
	for _, form := range ReadAll(src) {
		value = Eval(form, en)
	}
	return value
}

func TestEvalArithmetic(t *testing.T) {
	if v := evalString(t, "(+ 1 2 3)"); v != 6.0 {
		t.Fatalf("expected 6, got %v", v)
	}
	if v := evalString(t, "(* (- 10 4) 2)"); v != 12.0 {
		t.Fatalf("expected 12, got %v", v)
	}
}

func TestEvalIf(t *testing.T) {
	if v := evalString(t, `(if (> 3 2) "yes" "no")`); v != "yes" {
		t.Fatalf("expected yes, got %v", v)
	}
}

func TestEvalDefineAndLambda(t *testing.T) {
	src := `(define square (lambda (x) (* x x))) (square 5)`
	if v := evalString(t, src); v != 25.0 {
		t.Fatalf("expected 25, got %v", v)
	}
}

func TestEvalBeginTailCall(t *testing.T) {
	src := `(begin (define a 1) (define b 2) (+ a b))`
	if v := evalString(t, src); v != 3.0 {
		t.Fatalf("expected 3, got %v", v)
	}
}

func TestEvalListOps(t *testing.T) {
	src := `(car (cdr (list 1 2 3)))`
	if v := evalString(t, src); v != 2.0 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestEvalUnboundSymbolPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unbound symbol")
		}
	}()
	evalString(t, "(+ undefined-thing 1)")
}
