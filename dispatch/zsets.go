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
	"math"
	"strconv"
	"strings"

	"github.com/launix-de/memkv/globutil"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asZSet(v store.Value) (*store.ZSetVal, bool) {
	zv, ok := v.(*store.ZSetVal)
	return zv, ok
}

func cmdZAdd(e *Engine, c *Conn, args [][]byte) resp.Frame {
	i := 2
	var nx, xx, gt, lt, ch, incr bool
	for i < len(args) {
		switch upperBytes(args[i]) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GT":
			gt = true
		case "LT":
			lt = true
		case "CH":
			ch = true
		case "INCR":
			incr = true
		default:
			goto pairs
		}
		i++
	}
pairs:
	pairs := args[i:]
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return resp.Error("ERR syntax error")
	}
	added, changed := 0, 0
	var incrResult float64
	var incrOK = true
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		z, ok := v.(*store.ZSetVal)
		if !existed {
			z = store.NewZSetVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindZSet, Got: v.Kind()}
		}
		for p := 0; p < len(pairs); p += 2 {
			score, ok := parseFloat(pairs[p])
			if !ok {
				return nil, 0, errBadFloat
			}
			member := string(pairs[p+1])
			oldScore, had := z.Score(member)
			if nx && had {
				if incr {
					incrOK = false
				}
				continue
			}
			if xx && !had {
				if incr {
					incrOK = false
				}
				continue
			}
			newScore := score
			if incr {
				newScore = oldScore + score
			}
			if had && gt && newScore <= oldScore {
				continue
			}
			if had && lt && newScore >= oldScore {
				continue
			}
			z.Add(member, newScore)
			if !had {
				added++
			} else if oldScore != newScore {
				changed++
			}
			incrResult = newScore
		}
		return z, added, nil
	})
	if err != nil {
		return errReply(err)
	}
	if incr {
		if !incrOK {
			return resp.NullBulk()
		}
		return resp.BulkString([]byte(strconv.FormatFloat(incrResult, 'g', -1, 64)))
	}
	if ch {
		return resp.Integer(int64(added + changed))
	}
	return resp.Integer(int64(added))
}

var errBadFloat = argError{msg: "value is not a valid float"}

func cmdZRem(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		z, ok := v.(*store.ZSetVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindZSet, Got: v.Kind()}
		}
		removed := 0
		for _, m := range args[2:] {
			if z.Remove(string(m)) {
				removed++
			}
		}
		return z, removed, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdZScore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.NullBulk()
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	score, ok := z.Score(string(args[2]))
	if !ok {
		return resp.NullBulk()
	}
	return resp.BulkString([]byte(strconv.FormatFloat(score, 'g', -1, 64)))
}

func cmdZIncrBy(e *Engine, c *Conn, args [][]byte) resp.Frame {
	delta, ok := parseFloat(args[2])
	if !ok {
		return resp.Error("ERR value is not a valid float")
	}
	var result float64
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		z, ok := v.(*store.ZSetVal)
		if !existed {
			z = store.NewZSetVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindZSet, Got: v.Kind()}
		}
		member := string(args[3])
		old, _ := z.Score(member)
		result = old + delta
		z.Add(member, result)
		return z, 1, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.BulkString([]byte(strconv.FormatFloat(result, 'g', -1, 64)))
}

func zMembersReply(items []store.ZItem, withScores bool) resp.Frame {
	if !withScores {
		elems := make([]resp.Frame, len(items))
		for i, it := range items {
			elems[i] = resp.BulkString([]byte(it.Member))
		}
		return resp.Array(elems...)
	}
	elems := make([]resp.Frame, 0, len(items)*2)
	for _, it := range items {
		elems = append(elems, resp.BulkString([]byte(it.Member)), resp.BulkString([]byte(strconv.FormatFloat(it.Score, 'g', -1, 64))))
	}
	return resp.Array(elems...)
}

func cmdZRange(e *Engine, c *Conn, args [][]byte) resp.Frame { return zRangeReply(c, args, false) }
func cmdZRevRange(e *Engine, c *Conn, args [][]byte) resp.Frame { return zRangeReply(c, args, true) }

func zRangeReply(c *Conn, args [][]byte, rev bool) resp.Frame {
	v, ok := c.DB.Get(args[1])
	withScores := len(args) >= 5 && upperBytes(args[4]) == "WITHSCORES"
	if !ok {
		return resp.Array()
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	start, _ := parseInt(args[2])
	stop, _ := parseInt(args[3])
	items := z.RangeByRank(start, stop, rev)
	return zMembersReply(items, withScores)
}

func cmdZRangeByScore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	rng, err := parseScoreRange(args[2], args[3])
	if err != nil {
		return resp.Error("ERR min or max is not a float")
	}
	withScores := false
	for _, a := range args[4:] {
		if upperBytes(a) == "WITHSCORES" {
			withScores = true
		}
	}
	items := z.RangeByScore(rng)
	return zMembersReply(items, withScores)
}

func parseScoreRange(minB, maxB []byte) (store.ScoreRange, error) {
	var r store.ScoreRange
	minS, maxS := string(minB), string(maxB)
	if strings.HasPrefix(minS, "(") {
		r.MinExcl = true
		minS = minS[1:]
	}
	if strings.HasPrefix(maxS, "(") {
		r.MaxExcl = true
		maxS = maxS[1:]
	}
	if minS == "-inf" {
		r.Min = negInf
	} else if minS == "+inf" || minS == "inf" {
		r.Min = posInf
	} else {
		f, err := strconv.ParseFloat(minS, 64)
		if err != nil {
			return r, err
		}
		r.Min = f
	}
	if maxS == "-inf" {
		r.Max = negInf
	} else if maxS == "+inf" || maxS == "inf" {
		r.Max = posInf
	} else {
		f, err := strconv.ParseFloat(maxS, 64)
		if err != nil {
			return r, err
		}
		r.Max = f
	}
	return r, nil
}

var (
	posInf = math.Inf(1)
	negInf = math.Inf(-1)
)

func cmdZRangeByLex(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	rng, err := parseLexRange(args[2], args[3])
	if err != nil {
		return resp.Error("ERR min or max not valid string range item")
	}
	items := z.RangeByLex(rng)
	return zMembersReply(items, false)
}

func parseLexRange(minB, maxB []byte) (store.LexRange, error) {
	var r store.LexRange
	minS, maxS := string(minB), string(maxB)
	switch {
	case minS == "-":
		r.MinUnbounded = true
	case strings.HasPrefix(minS, "["):
		r.Min = minS[1:]
	case strings.HasPrefix(minS, "("):
		r.Min = minS[1:]
		r.MinExcl = true
	default:
		return r, errBadArg
	}
	switch {
	case maxS == "+":
		r.MaxUnbounded = true
	case strings.HasPrefix(maxS, "["):
		r.Max = maxS[1:]
	case strings.HasPrefix(maxS, "("):
		r.Max = maxS[1:]
		r.MaxExcl = true
	default:
		return r, errBadArg
	}
	return r, nil
}

func cmdZRank(e *Engine, c *Conn, args [][]byte) resp.Frame { return zRankReply(c, args, false) }
func cmdZRevRank(e *Engine, c *Conn, args [][]byte) resp.Frame { return zRankReply(c, args, true) }

func zRankReply(c *Conn, args [][]byte, rev bool) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.NullBulk()
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	rank, ok := z.Rank(string(args[2]), rev)
	if !ok {
		return resp.NullBulk()
	}
	return resp.Integer(int64(rank))
}

func cmdZCard(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(int64(z.Len()))
}

func cmdZCount(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	rng, err := parseScoreRange(args[2], args[3])
	if err != nil {
		return resp.Error("ERR min or max is not a float")
	}
	return resp.Integer(int64(z.CountByScore(rng)))
}

func zStoreFamily(e *Engine, c *Conn, args [][]byte, combine func(zs []*store.ZSetVal, weights []float64, agg store.Aggregate) *store.ZSetVal) resp.Frame {
	dest := args[1]
	numKeys, ok := parseInt(args[2])
	if !ok || numKeys <= 0 || len(args) < 3+numKeys {
		return resp.Error("ERR syntax error")
	}
	keys := args[3 : 3+numKeys]
	rest := args[3+numKeys:]
	weights := make([]float64, numKeys)
	for i := range weights {
		weights[i] = 1
	}
	agg := store.SumAggregate
	for i := 0; i < len(rest); i++ {
		switch upperBytes(rest[i]) {
		case "WEIGHTS":
			for j := 0; j < numKeys; j++ {
				i++
				f, ok := parseFloat(rest[i])
				if !ok {
					return resp.Error("ERR weight value is not a float")
				}
				weights[j] = f
			}
		case "AGGREGATE":
			i++
			switch upperBytes(rest[i]) {
			case "SUM":
				agg = store.SumAggregate
			case "MIN":
				agg = store.MinAggregate
			case "MAX":
				agg = store.MaxAggregate
			}
		}
	}
	zs := make([]*store.ZSetVal, len(keys))
	for i, k := range keys {
		v, ok := c.DB.Get(k)
		if !ok {
			zs[i] = store.NewZSetVal()
			continue
		}
		z, isZ := asZSet(v)
		if !isZ {
			return resp.Error(store.WrongTypeMsg)
		}
		zs[i] = z
	}
	result := combine(zs, weights, agg)
	if result.Len() == 0 {
		c.DB.Del([][]byte{dest})
		return resp.Integer(0)
	}
	_, err := c.DB.SetMutate(dest, func(store.Value, bool) (store.Value, int, error) {
		return result, result.Len(), nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(result.Len()))
}

func cmdZUnionStore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return zStoreFamily(e, c, args, store.ZUnionStore)
}

func cmdZInterStore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return zStoreFamily(e, c, args, store.ZInterStore)
}

// cmdZScan implements ZSCAN. A sorted set lives as a single btree plus score
// map rather than db.go's per-shard split, so there is nothing to page
// through: every matching member is returned with its score in one step and
// the cursor always completes at 0.
func cmdZScan(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if _, ok := parseUint(args[2]); !ok {
		return resp.Error("ERR invalid cursor")
	}
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array(resp.BulkString([]byte("0")), resp.Array())
	}
	z, isZ := asZSet(v)
	if !isZ {
		return resp.Error(store.WrongTypeMsg)
	}
	pattern, _ := parseMatchCount(args, 3)
	var items []store.ZItem
	if z.Len() > 0 {
		items = z.RangeByRank(0, -1, false)
	}
	elems := make([]resp.Frame, 0, len(items)*2)
	for _, it := range items {
		if pattern == "*" || globutil.Match(pattern, it.Member) {
			elems = append(elems, resp.BulkString([]byte(it.Member)), resp.BulkString([]byte(strconv.FormatFloat(it.Score, 'g', -1, 64))))
		}
	}
	return resp.Array(resp.BulkString([]byte("0")), resp.Array(elems...))
}
