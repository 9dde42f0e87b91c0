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

import "strings"

// globalEnv holds the builtins shared by every EVAL call: arithmetic,
// comparisons and list/string primitives, the same minimal core memcp's
// scm ships before any table- or network-specific natives are layered on.
func globalEnv() *Env {
	en := NewEnv(nil)

	en.Define("+", NativeFunc(func(a []Scmer) Scmer {
		sum := 0.0
		for _, v := range a {
			sum += toFloat(v)
		}
		return sum
	}))
	en.Define("-", NativeFunc(func(a []Scmer) Scmer {
		if len(a) == 0 {
			return 0.0
		}
		if len(a) == 1 {
			return -toFloat(a[0])
		}
		v := toFloat(a[0])
		for _, x := range a[1:] {
			v -= toFloat(x)
		}
		return v
	}))
	en.Define("*", NativeFunc(func(a []Scmer) Scmer {
		v := 1.0
		for _, x := range a {
			v *= toFloat(x)
		}
		return v
	}))
	en.Define("/", NativeFunc(func(a []Scmer) Scmer {
		if len(a) == 0 {
			return 0.0
		}
		v := toFloat(a[0])
		for _, x := range a[1:] {
			d := toFloat(x)
			if d == 0 {
				panic("division by zero")
			}
			v /= d
		}
		return v
	}))

	cmp := func(ok func(a, b float64) bool) NativeFunc {
		return func(a []Scmer) Scmer {
			for i := 1; i < len(a); i++ {
				if !ok(toFloat(a[i-1]), toFloat(a[i])) {
					return false
				}
			}
			return true
		}
	}
	en.Define("=", cmp(func(a, b float64) bool { return a == b }))
	en.Define("<", cmp(func(a, b float64) bool { return a < b }))
	en.Define(">", cmp(func(a, b float64) bool { return a > b }))
	en.Define("<=", cmp(func(a, b float64) bool { return a <= b }))
	en.Define(">=", cmp(func(a, b float64) bool { return a >= b }))
	en.Define("not", NativeFunc(func(a []Scmer) Scmer { return !toBool(a[0]) }))

	en.Define("concat", NativeFunc(func(a []Scmer) Scmer {
		var b strings.Builder
		for _, v := range a {
			b.WriteString(toScmerString(v))
		}
		return b.String()
	}))
	en.Define("str", en.Get("concat"))
	en.Define("len", NativeFunc(func(a []Scmer) Scmer {
		switch v := a[0].(type) {
		case string:
			return float64(len(v))
		case []Scmer:
			return float64(len(v))
		default:
			return 0.0
		}
	}))

	en.Define("list", NativeFunc(func(a []Scmer) Scmer { return append([]Scmer{}, a...) }))
	en.Define("car", NativeFunc(func(a []Scmer) Scmer {
		l := a[0].([]Scmer)
		if len(l) == 0 {
			return nil
		}
		return l[0]
	}))
	en.Define("cdr", NativeFunc(func(a []Scmer) Scmer {
		l := a[0].([]Scmer)
		if len(l) <= 1 {
			return []Scmer{}
		}
		return append([]Scmer{}, l[1:]...)
	}))
	en.Define("cons", NativeFunc(func(a []Scmer) Scmer {
		rest, _ := a[1].([]Scmer)
		return append([]Scmer{a[0]}, rest...)
	}))
	en.Define("nth", NativeFunc(func(a []Scmer) Scmer {
		l := a[0].([]Scmer)
		i := int(toFloat(a[1]))
		if i < 0 || i >= len(l) {
			return nil
		}
		return l[i]
	}))
	en.Define("null?", NativeFunc(func(a []Scmer) Scmer {
		if a[0] == nil {
			return true
		}
		l, ok := a[0].([]Scmer)
		return ok && len(l) == 0
	}))

	return en
}
