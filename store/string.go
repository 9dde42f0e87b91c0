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
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StringVal is a binary-safe byte string (§3). The integer fast path for
// the INCR family is not a separate representation — it is detected on
// demand by ParseStrictInt64 — matching upstream's behavior where SET k v
// followed by APPEND still allows INCR as long as the bytes happen to look
// like an integer.
type StringVal []byte

func (StringVal) Kind() Kind { return KindString }

func (s StringVal) Encoding() string {
	if _, ok := ParseStrictInt64(s); ok {
		return "int"
	}
	if len(s) <= 44 {
		return "embstr"
	}
	return "raw"
}

var ErrNotAnInteger = errors.New("value is not an integer or out of range")
var ErrOverflow = errors.New("increment or decrement would overflow")
var ErrNotAFloat = errors.New("value is not a valid float")

// ParseStrictInt64 parses b the way INCR/DECR require: a signed base-10
// integer with no surrounding whitespace, no leading '+', and no leading
// zeros other than "0" itself — stricter than strconv.ParseInt alone.
func ParseStrictInt64(b []byte) (int64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	s := string(b)
	i := 0
	if s[0] == '-' {
		i = 1
	}
	if i >= len(s) {
		return 0, false
	}
	if s[i] == '0' && i != len(s)-1 {
		return 0, false // leading zero, e.g. "012" or "-012"
	}
	for j := i; j < len(s); j++ {
		if s[j] < '0' || s[j] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// IncrBy adds delta to the integer encoded by cur, returning the new
// canonical string form. cur == nil is treated as 0 (key absent).
func IncrBy(cur []byte, delta int64) ([]byte, error) {
	var n int64
	if cur != nil {
		v, ok := ParseStrictInt64(cur)
		if !ok {
			return nil, ErrNotAnInteger
		}
		n = v
	}
	sum := n + delta
	// overflow check: signs of n and delta agree but sum's sign differs.
	if (delta > 0 && sum < n) || (delta < 0 && sum > n) {
		return nil, ErrOverflow
	}
	return []byte(strconv.FormatInt(sum, 10)), nil
}

// IncrByFloat parses cur and delta as exact decimals via shopspring/decimal
// (so repeated INCRBYFLOAT calls don't accumulate binary-float drift), and
// renders the canonical textual form: no trailing zeros, no scientific
// notation, matching spec §4.2.
func IncrByFloat(cur []byte, delta string) ([]byte, error) {
	var base decimal.Decimal
	if cur != nil {
		d, err := decimal.NewFromString(strings.TrimSpace(string(cur)))
		if err != nil {
			return nil, ErrNotAFloat
		}
		base = d
	}
	d, err := decimal.NewFromString(strings.TrimSpace(delta))
	if err != nil {
		return nil, ErrNotAFloat
	}
	sum := base.Add(d)
	return []byte(sum.String()), nil
}
