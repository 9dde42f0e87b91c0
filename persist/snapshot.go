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
	"encoding/json"
	"math"
	"time"

	"github.com/launix-de/memkv/store"
)

// snapshotEntry is the JSON wire form of one keyspace slot. Only the fields
// relevant to the entry's Kind are populated, same sparse-record idiom
// memcp's schema.json uses per column definition.
type snapshotEntry struct {
	DB       int                 `json:"db"`
	Key      string              `json:"key"`
	Kind     string              `json:"kind"`
	ExpireAt int64               `json:"expireAt,omitempty"` // unix millis, 0 = none
	String   []byte              `json:"string,omitempty"`
	List     [][]byte            `json:"list,omitempty"`
	Set      [][]byte            `json:"set,omitempty"`
	Hash     map[string][]byte   `json:"hash,omitempty"`
	ZSet     []snapshotZItem     `json:"zset,omitempty"`
	Stream   []snapshotStreamEnt `json:"stream,omitempty"`
}

type snapshotZItem struct {
	Member string  `json:"m"`
	Score  float64 `json:"s"`
}

type snapshotStreamEnt struct {
	Ms     uint64        `json:"ms"`
	Seq    uint64        `json:"seq"`
	Fields [][2][]byte   `json:"fields"`
}

// dumpStore walks every database's keys into a flat snapshot record list.
// Consumer-group state (XGROUP/PEL) is intentionally not part of the
// snapshot: it is rebuildable session state, not data, the same way memcp's
// schema.json never tries to capture a running query's cursor.
func dumpStore(st *store.Store) []snapshotEntry {
	var out []snapshotEntry
	for dbIdx := 0; dbIdx < st.NumDatabases(); dbIdx++ {
		db := st.DB(dbIdx)
		for _, key := range db.Keys("*") {
			entry, ok := db.GetEntry(key)
			if !ok {
				continue
			}
			rec := snapshotEntry{DB: dbIdx, Key: string(key), Kind: entry.Value.Kind().String()}
			if entry.HasTTL() {
				rec.ExpireAt = entry.ExpireAt.UnixMilli()
			}
			switch v := entry.Value.(type) {
			case store.StringVal:
				rec.String = []byte(v)
			case *store.ListVal:
				rec.List = v.Range(0, -1)
			case store.SetVal:
				rec.Set = v.Members()
			case store.HashVal:
				rec.Hash = map[string][]byte(v)
			case *store.ZSetVal:
				items := v.RangeByRank(0, -1, false)
				rec.ZSet = make([]snapshotZItem, len(items))
				for i, it := range items {
					rec.ZSet[i] = snapshotZItem{Member: it.Member, Score: it.Score}
				}
			case *store.StreamVal:
				entries := v.Range(store.StreamID{}, store.StreamID{Ms: math.MaxUint64, Seq: math.MaxUint64}, 0)
				rec.Stream = make([]snapshotStreamEnt, len(entries))
				for i, e := range entries {
					rec.Stream[i] = snapshotStreamEnt{Ms: e.ID.Ms, Seq: e.ID.Seq, Fields: e.Fields}
				}
			}
			out = append(out, rec)
		}
	}
	return out
}

// loadStore restores every snapshot record into st, overwriting whatever is
// already there.
func loadStore(st *store.Store, entries []snapshotEntry) error {
	for _, rec := range entries {
		if rec.DB < 0 || rec.DB >= st.NumDatabases() {
			continue
		}
		db := st.DB(rec.DB)
		key := []byte(rec.Key)
		switch rec.Kind {
		case "string":
			if err := db.SetString(key, rec.String, expireTime(rec.ExpireAt)); err != nil {
				return err
			}
			continue
		case "list":
			l := store.NewListVal()
			l.PushRight(rec.List...)
			if _, err := db.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return l, l.Len(), nil }); err != nil {
				return err
			}
		case "set":
			s := store.NewSetVal()
			for _, m := range rec.Set {
				s.Add(m)
			}
			if _, err := db.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return s, len(s), nil }); err != nil {
				return err
			}
		case "hash":
			h := store.NewHashVal()
			for f, v := range rec.Hash {
				h.Set(f, v)
			}
			if _, err := db.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return h, len(h), nil }); err != nil {
				return err
			}
		case "zset":
			z := store.NewZSetVal()
			for _, it := range rec.ZSet {
				z.Add(it.Member, it.Score)
			}
			if _, err := db.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return z, z.Len(), nil }); err != nil {
				return err
			}
		case "stream":
			strm := store.NewStreamVal()
			for _, e := range rec.Stream {
				if _, err := strm.Append(e.Ms, int64(e.Seq), true, e.Fields); err != nil {
					return err
				}
			}
			if _, err := db.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return strm, int(strm.Len()), nil }); err != nil {
				return err
			}
		default:
			continue
		}
		if rec.ExpireAt != 0 {
			db.Expire(key, expireTime(rec.ExpireAt))
		}
	}
	return nil
}

func expireTime(unixMilli int64) time.Time {
	if unixMilli == 0 {
		return time.Time{}
	}
	return time.UnixMilli(unixMilli)
}

func marshalSnapshot(entries []snapshotEntry) ([]byte, error) {
	return json.Marshal(entries)
}

func unmarshalSnapshot(data []byte) ([]snapshotEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []snapshotEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
