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
package dispatch

import (
	"strconv"

	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func errReply(err error) resp.Frame {
	if _, ok := err.(*store.WrongTypeError); ok {
		return resp.Error(err.Error())
	}
	return resp.Error("ERR " + err.Error())
}

func okReply() resp.Frame { return resp.SimpleString("OK") }

func intReply(n int) resp.Frame { return resp.Integer(int64(n)) }

func bulkOrNil(v []byte, ok bool) resp.Frame {
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString(v)
}

func bulkArrayFromBytes(vs [][]byte) resp.Frame {
	elems := make([]resp.Frame, len(vs))
	for i, v := range vs {
		elems[i] = resp.BulkString(v)
	}
	return resp.Array(elems...)
}

func valuesArray(vs []store.Value, present func(store.Value) ([]byte, bool)) resp.Frame {
	elems := make([]resp.Frame, len(vs))
	for i, v := range vs {
		if v == nil {
			elems[i] = resp.NullBulk()
			continue
		}
		b, ok := present(v)
		if !ok {
			elems[i] = resp.NullBulk()
			continue
		}
		elems[i] = resp.BulkString(b)
	}
	return resp.Array(elems...)
}

func parseInt(b []byte) (int, bool) {
	n, err := strconv.Atoi(string(b))
	return n, err == nil
}

func parseInt64(b []byte) (int64, bool) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	return n, err == nil
}

func parseUint(b []byte) (uint64, bool) {
	n, err := strconv.ParseUint(string(b), 10, 64)
	return n, err == nil
}

func formatUint(n uint64) string {
	return strconv.FormatUint(n, 10)
}

func parseFloat(b []byte) (float64, bool) {
	f, err := strconv.ParseFloat(string(b), 64)
	return f, err == nil
}

// parseMatchCount reads the optional MATCH/COUNT options shared by SCAN and
// its per-collection siblings (SSCAN/HSCAN/ZSCAN), starting at args[from].
func parseMatchCount(args [][]byte, from int) (pattern string, count int) {
	pattern, count = "*", 10
	for i := from; i < len(args); i++ {
		switch upperBytes(args[i]) {
		case "MATCH":
			i++
			if i < len(args) {
				pattern = string(args[i])
			}
		case "COUNT":
			i++
			if i < len(args) {
				if n, ok := parseInt(args[i]); ok {
					count = n
				}
			}
		}
	}
	return pattern, count
}

func upperEq(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c != s[i] {
			return false
		}
	}
	return true
}
