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
	"github.com/launix-de/memkv/globutil"
	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asSet(v store.Value) (store.SetVal, bool) {
	sv, ok := v.(store.SetVal)
	return sv, ok
}

// cmdSAdd adds members through SetMutate under the owning shard's write
// lock, creating the set when absent; SetMutate deletes a key its callback
// empties — mirroring §3's "empty collections do not
// linger" lifecycle rule shared by every collection type.
func cmdSAdd(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		s, ok := v.(store.SetVal)
		if !existed {
			s = store.NewSetVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindSet, Got: v.Kind()}
		}
		added := 0
		for _, m := range args[2:] {
			if s.Add(m) {
				added++
			}
		}
		return s, added, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdSRem(e *Engine, c *Conn, args [][]byte) resp.Frame {
	n, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		s, ok := v.(store.SetVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindSet, Got: v.Kind()}
		}
		removed := 0
		for _, m := range args[2:] {
			if s.Remove(m) {
				removed++
			}
		}
		return s, removed, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(n))
}

func cmdSMembers(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	s, isSet := asSet(v)
	if !isSet {
		return resp.Error(store.WrongTypeMsg)
	}
	return bulkArrayFromBytes(s.Members())
}

func cmdSIsMember(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	s, isSet := asSet(v)
	if !isSet {
		return resp.Error(store.WrongTypeMsg)
	}
	if s.Has(args[2]) {
		return resp.Integer(1)
	}
	return resp.Integer(0)
}

func cmdSCard(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	s, isSet := asSet(v)
	if !isSet {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(int64(len(s)))
}

func cmdSPop(e *Engine, c *Conn, args [][]byte) resp.Frame {
	count := 1
	hasCount := len(args) >= 3
	if hasCount {
		n, ok := parseInt(args[2])
		if !ok || n < 0 {
			return resp.Error("ERR value is out of range, must be positive")
		}
		count = n
	}
	var popped [][]byte
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		s, ok := v.(store.SetVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindSet, Got: v.Kind()}
		}
		popped = s.RandomMembers(count)
		for _, m := range popped {
			s.Remove(m)
		}
		return s, len(popped), nil
	})
	if err != nil {
		return errReply(err)
	}
	if !hasCount {
		if len(popped) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(popped[0])
	}
	return bulkArrayFromBytes(popped)
}

func cmdSRandMember(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		if len(args) >= 3 {
			return resp.Array()
		}
		return resp.NullBulk()
	}
	s, isSet := asSet(v)
	if !isSet {
		return resp.Error(store.WrongTypeMsg)
	}
	if len(args) < 3 {
		members := s.RandomMembers(1)
		if len(members) == 0 {
			return resp.NullBulk()
		}
		return resp.BulkString(members[0])
	}
	count, _ := parseInt(args[2])
	return bulkArrayFromBytes(s.RandomMembers(count))
}

func setFamilyOp(e *Engine, c *Conn, keys [][]byte, op func(sets []store.SetVal) store.SetVal) resp.Frame {
	sets := make([]store.SetVal, 0, len(keys))
	for _, k := range keys {
		v, ok := c.DB.Get(k)
		if !ok {
			sets = append(sets, store.NewSetVal())
			continue
		}
		s, isSet := asSet(v)
		if !isSet {
			return resp.Error(store.WrongTypeMsg)
		}
		sets = append(sets, s)
	}
	return bulkArrayFromBytes(op(sets).Members())
}

func setUnion(sets []store.SetVal) store.SetVal { return store.Union(sets...) }
func setInter(sets []store.SetVal) store.SetVal { return store.Inter(sets...) }
func setDiff(sets []store.SetVal) store.SetVal  { return store.Diff(sets...) }

func cmdSUnion(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return setFamilyOp(e, c, args[1:], setUnion)
}

func cmdSInter(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return setFamilyOp(e, c, args[1:], setInter)
}

func cmdSDiff(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return setFamilyOp(e, c, args[1:], setDiff)
}

func storeSetResult(c *Conn, dest []byte, result store.SetVal) resp.Frame {
	if len(result) == 0 {
		c.DB.Del([][]byte{dest})
		return resp.Integer(0)
	}
	_, err := c.DB.SetMutate(dest, func(store.Value, bool) (store.Value, int, error) {
		return result, len(result), nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(len(result)))
}

func cmdSUnionStore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return storeSetFamily(e, c, args, setUnion)
}

func cmdSInterStore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return storeSetFamily(e, c, args, setInter)
}

func cmdSDiffStore(e *Engine, c *Conn, args [][]byte) resp.Frame {
	return storeSetFamily(e, c, args, setDiff)
}

func storeSetFamily(e *Engine, c *Conn, args [][]byte, op func(sets []store.SetVal) store.SetVal) resp.Frame {
	dest := args[1]
	sets := make([]store.SetVal, 0, len(args)-2)
	for _, k := range args[2:] {
		v, ok := c.DB.Get(k)
		if !ok {
			sets = append(sets, store.NewSetVal())
			continue
		}
		s, isSet := asSet(v)
		if !isSet {
			return resp.Error(store.WrongTypeMsg)
		}
		sets = append(sets, s)
	}
	return storeSetResult(c, dest, op(sets))
}

// cmdSScan implements SSCAN. A set lives as a single in-memory map rather
// than db.go's per-shard split, so there is nothing to page through: every
// matching member is returned in one step and the cursor always completes
// at 0, the same guarantee SCAN gives across a full pass.
func cmdSScan(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if _, ok := parseUint(args[2]); !ok {
		return resp.Error("ERR invalid cursor")
	}
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array(resp.BulkString([]byte("0")), resp.Array())
	}
	s, isSet := asSet(v)
	if !isSet {
		return resp.Error(store.WrongTypeMsg)
	}
	pattern, _ := parseMatchCount(args, 3)
	var out [][]byte
	for _, m := range s.Members() {
		if pattern == "*" || globutil.Match(pattern, string(m)) {
			out = append(out, m)
		}
	}
	return resp.Array(resp.BulkString([]byte("0")), bulkArrayFromBytes(out))
}
