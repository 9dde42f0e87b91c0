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

import "fmt"

// Eval mirrors memcp's scm.Eval: a trampoline over a type switch, with
// "if" and "begin" overwriting expression/en and looping instead of
// recursing so a tail call does not grow the Go stack.
func Eval(expression Scmer, en *Env) Scmer {
restart:
	switch e := expression.(type) {
	case nil, float64, string, bool:
		return e
	case Symbol:
		return en.Get(e)
	case []Scmer:
		if len(e) == 0 {
			return nil
		}
		if sym, ok := e[0].(Symbol); ok {
			switch sym {
			case "quote":
				return e[1]
			case "if":
				if toBool(Eval(e[1], en)) {
					expression = e[2]
				} else if len(e) > 3 {
					expression = e[3]
				} else {
					return nil
				}
				goto restart
			case "define", "set", "def":
				value := Eval(e[2], en)
				en.Define(e[1].(Symbol), value)
				return value
			case "lambda":
				return Proc{Params: e[1], Body: e[2], Env: en}
			case "begin":
				if len(e) == 1 {
					return nil
				}
				en2 := NewEnv(en)
				for _, part := range e[1 : len(e)-1] {
					Eval(part, en2)
				}
				expression = e[len(e)-1]
				en = en2
				goto restart
			case "and":
				var v Scmer = true
				for _, part := range e[1:] {
					v = Eval(part, en)
					if !toBool(v) {
						return v
					}
				}
				return v
			case "or":
				for _, part := range e[1:] {
					v := Eval(part, en)
					if toBool(v) {
						return v
					}
				}
				return false
			}
		}
		// ordinary application: evaluate operator then every operand
		fn := Eval(e[0], en)
		args := make([]Scmer, len(e)-1)
		for i, a := range e[1:] {
			args[i] = Eval(a, en)
		}
		return Apply(fn, args)
	default:
		panic(fmt.Sprintf("cannot evaluate %T", expression))
	}
}

// Apply calls proc (native or user lambda) with args, the same dual-case
// dispatch memcp's scm.Apply does for NativeFunc vs. Proc.
func Apply(proc Scmer, args []Scmer) Scmer {
	switch p := proc.(type) {
	case NativeFunc:
		return p(args)
	case Proc:
		callEnv := NewEnv(p.Env)
		bindParams(p.Params, args, callEnv)
		return Eval(p.Body, callEnv)
	default:
		panic(fmt.Sprintf("not callable: %v", proc))
	}
}

func bindParams(params Scmer, args []Scmer, en *Env) {
	switch p := params.(type) {
	case Symbol:
		en.Define(p, args) // variadic lambda: single symbol binds the whole arg list
	case []Scmer:
		for i, name := range p {
			sym := name.(Symbol)
			if i < len(args) {
				en.Define(sym, args[i])
			} else {
				en.Define(sym, nil)
			}
		}
	}
}
