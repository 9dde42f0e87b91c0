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

import "github.com/google/btree"

// ZItem is one (member, score) pair, ordered first by score, then by member
// as a byte-wise (Go strings already compare byte-wise) lexicographic
// tiebreak, matching §3's "lexicographic tiebreak on equal score". Exported
// because ZRANGE-family handlers in the dispatch package need both fields.
type ZItem struct {
	Member string
	Score  float64
}

func zless(a, b ZItem) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Member < b.Member
}

// ZSetVal realizes "a score-ordered index plus a hash map from member to
// score" (§4.2) with github.com/google/btree for the ordered index — the
// dependency's new home, replacing the teacher's hand-rolled table indices
// (storage/index.go) with a library already in the pack — and a plain map
// for O(1) point lookup.
type ZSetVal struct {
	tree   *btree.BTreeG[ZItem]
	scores map[string]float64
}

func NewZSetVal() *ZSetVal {
	return &ZSetVal{tree: btree.NewG(32, zless), scores: make(map[string]float64)}
}

func (*ZSetVal) Kind() Kind { return KindZSet }

func (z *ZSetVal) Encoding() string {
	if z.tree.Len() <= 128 {
		return "listpack"
	}
	return "skiplist"
}

func (z *ZSetVal) Len() int { return z.tree.Len() }

// Add sets member's score, returning whether the member is new.
func (z *ZSetVal) Add(member string, score float64) bool {
	if old, ok := z.scores[member]; ok {
		if old == score {
			return false
		}
		z.tree.Delete(ZItem{Member: member, Score: old})
		z.tree.ReplaceOrInsert(ZItem{Member: member, Score: score})
		z.scores[member] = score
		return false
	}
	z.tree.ReplaceOrInsert(ZItem{Member: member, Score: score})
	z.scores[member] = score
	return true
}

func (z *ZSetVal) Score(member string) (float64, bool) {
	s, ok := z.scores[member]
	return s, ok
}

func (z *ZSetVal) Remove(member string) bool {
	score, ok := z.scores[member]
	if !ok {
		return false
	}
	delete(z.scores, member)
	z.tree.Delete(ZItem{Member: member, Score: score})
	return true
}

// Rank returns member's 0-based rank in ascending (or, if rev, descending)
// score order. google/btree has no order-statistics support, so this walks
// from the lowest score up to member — O(rank) rather than the spec's
// aspirational O(log n); ranked lookups on very large sorted sets are not
// this store's hot path.
func (z *ZSetVal) Rank(member string, rev bool) (int, bool) {
	score, ok := z.scores[member]
	if !ok {
		return -1, false
	}
	rank := -1
	i := 0
	z.tree.Ascend(func(it ZItem) bool {
		if it.Member == member && it.Score == score {
			rank = i
			return false
		}
		i++
		return true
	})
	if rank < 0 {
		return -1, false
	}
	if rev {
		rank = z.tree.Len() - 1 - rank
	}
	return rank, true
}

// RangeByRank returns members (ascending order if !rev) with start/stop
// indices clamped and resolved like LRANGE.
func (z *ZSetVal) RangeByRank(start, stop int, rev bool) []ZItem {
	n := z.tree.Len()
	start, stop = clampRange(start, stop, n)
	if start > stop {
		return nil
	}
	all := make([]ZItem, 0, n)
	z.tree.Ascend(func(it ZItem) bool {
		all = append(all, it)
		return true
	})
	if rev {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}
	return all[start : stop+1]
}

// ScoreRange bounds a ZRANGEBYSCORE/ZCOUNT query.
type ScoreRange struct {
	Min, Max         float64
	MinExcl, MaxExcl bool
}

func (z *ZSetVal) RangeByScore(r ScoreRange) []ZItem {
	var out []ZItem
	z.tree.AscendGreaterOrEqual(ZItem{Score: r.Min, Member: ""}, func(it ZItem) bool {
		if it.Score > r.Max || (it.Score == r.Max && r.MaxExcl) {
			return false
		}
		if it.Score == r.Min && r.MinExcl {
			return true
		}
		out = append(out, it)
		return true
	})
	return out
}

func (z *ZSetVal) CountByScore(r ScoreRange) int {
	return len(z.RangeByScore(r))
}

// LexRange bounds a ZRANGEBYLEX query; Min/Max of "-"/"+" mean unbounded,
// matching upstream's sentinel syntax (handled by the caller before this).
type LexRange struct {
	Min, Max                   string
	MinUnbounded, MaxUnbounded bool
	MinExcl, MaxExcl           bool
}

// RangeByLex assumes all members share one score (the documented precondition
// for ZRANGEBYLEX on upstream Redis) and orders purely by member bytes.
func (z *ZSetVal) RangeByLex(r LexRange) []ZItem {
	var out []ZItem
	z.tree.Ascend(func(it ZItem) bool {
		if !r.MinUnbounded {
			if it.Member < r.Min || (it.Member == r.Min && r.MinExcl) {
				return true
			}
		}
		if !r.MaxUnbounded {
			if it.Member > r.Max || (it.Member == r.Max && r.MaxExcl) {
				return false
			}
		}
		out = append(out, it)
		return true
	})
	return out
}

// Aggregate combines two scores for the same member across ZUNIONSTORE /
// ZINTERSTORE inputs (SUM/MIN/MAX).
type Aggregate func(a, b float64) float64

func zsetUnionOrInter(keep func(count int) bool, aggregate Aggregate, sets []*ZSetVal, weights []float64) *ZSetVal {
	counts := make(map[string]int)
	sums := make(map[string]float64)
	for i, s := range sets {
		w := 1.0
		if i < len(weights) {
			w = weights[i]
		}
		s.tree.Ascend(func(it ZItem) bool {
			counts[it.Member]++
			if cur, ok := sums[it.Member]; ok {
				sums[it.Member] = aggregate(cur, it.Score*w)
			} else {
				sums[it.Member] = it.Score * w
			}
			return true
		})
	}
	out := NewZSetVal()
	for member, n := range counts {
		if keep(n) {
			out.Add(member, sums[member])
		}
	}
	return out
}

// ZUnionStore combines sets additively by default; weights may be nil for
// an implicit weight of 1 per input set.
func ZUnionStore(sets []*ZSetVal, weights []float64, aggregate Aggregate) *ZSetVal {
	return zsetUnionOrInter(func(int) bool { return true }, aggregate, sets, weights)
}

// ZInterStore keeps only members present in every input set.
func ZInterStore(sets []*ZSetVal, weights []float64, aggregate Aggregate) *ZSetVal {
	n := len(sets)
	return zsetUnionOrInter(func(count int) bool { return count == n }, aggregate, sets, weights)
}

func SumAggregate(a, b float64) float64 { return a + b }
func MinAggregate(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
func MaxAggregate(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
