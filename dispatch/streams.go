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
	"strings"
	"time"

	"github.com/launix-de/memkv/resp"
	"github.com/launix-de/memkv/store"
)

func asStream(v store.Value) (*store.StreamVal, bool) {
	sv, ok := v.(*store.StreamVal)
	return sv, ok
}

// parseStreamID parses a "<ms>-<seq>" or bare "<ms>" id. "*" and "<ms>-*"
// are handled by the caller (XADD), since only XADD auto-generates.
func parseStreamID(b []byte, seqIfMissing uint64) (store.StreamID, error) {
	s := string(b)
	if s == "-" {
		return store.StreamID{Ms: 0, Seq: 0}, nil
	}
	if s == "+" {
		return store.StreamID{Ms: ^uint64(0), Seq: ^uint64(0)}, nil
	}
	parts := strings.SplitN(s, "-", 2)
	ms, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil {
		return store.StreamID{}, err
	}
	seq := seqIfMissing
	if len(parts) == 2 {
		seq, err = strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			return store.StreamID{}, err
		}
	}
	return store.StreamID{Ms: ms, Seq: seq}, nil
}

func streamEntryFrame(e store.StreamEntry) resp.Frame {
	fields := make([]resp.Frame, 0, len(e.Fields)*2)
	for _, fv := range e.Fields {
		fields = append(fields, resp.BulkString(fv[0]), resp.BulkString(fv[1]))
	}
	return resp.Array(resp.BulkString([]byte(e.ID.String())), resp.Array(fields...))
}

func streamEntriesFrame(entries []store.StreamEntry) resp.Frame {
	elems := make([]resp.Frame, len(entries))
	for i, e := range entries {
		elems[i] = streamEntryFrame(e)
	}
	return resp.Array(elems...)
}

// cmdXAdd appends one entry. Supports "*" (full auto id), "<ms>-*" (auto
// seq) and "<ms>-<seq>" (explicit), plus an optional leading MAXLEN [~] n
// trim clause, matching upstream's XADD syntax.
func cmdXAdd(e *Engine, c *Conn, args [][]byte) resp.Frame {
	i := 2
	maxLen := -1
	if upperBytes(args[i]) == "MAXLEN" {
		i++
		if i < len(args) && (string(args[i]) == "~" || string(args[i]) == "=") {
			i++
		}
		n, ok := parseInt(args[i])
		if !ok {
			return resp.Error("ERR value is not an integer or out of range")
		}
		maxLen = n
		i++
	}
	idArg := args[i]
	i++
	if (len(args)-i)%2 != 0 || len(args) == i {
		return resp.Error("ERR wrong number of arguments for 'xadd' command")
	}
	fields := make([][2][]byte, 0, (len(args)-i)/2)
	for ; i < len(args); i += 2 {
		fields = append(fields, [2][]byte{args[i], args[i+1]})
	}

	var id store.StreamID
	var xaddErr error
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		s, ok := v.(*store.StreamVal)
		if !existed {
			s = store.NewStreamVal()
		} else if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindStream, Got: v.Kind()}
		}
		ms, seq, explicit := parseXAddID(idArg)
		id, xaddErr = s.Append(ms, seq, explicit, fields)
		if xaddErr != nil {
			return nil, 0, xaddErr
		}
		if maxLen >= 0 {
			s.Trim(maxLen)
		}
		return s, 1, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.BulkString([]byte(id.String()))
}

// parseXAddID decodes XAdd's id argument into the (ms, seq, explicitSeq)
// triple store.StreamVal.Append expects: "*" means auto-everything,
// "<ms>-*" means auto sequence only, "<ms>-<seq>" is fully explicit.
func parseXAddID(b []byte) (ms uint64, seq int64, explicitSeq bool) {
	s := string(b)
	if s == "*" {
		return 0, -1, false
	}
	parts := strings.SplitN(s, "-", 2)
	ms, _ = strconv.ParseUint(parts[0], 10, 64)
	if len(parts) == 2 && parts[1] != "*" {
		sq, _ := strconv.ParseUint(parts[1], 10, 64)
		return ms, int64(sq), true
	}
	return ms, -1, false
}

func cmdXLen(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	s, isStream := asStream(v)
	if !isStream {
		return resp.Error(store.WrongTypeMsg)
	}
	return resp.Integer(s.Len())
}

func cmdXRange(e *Engine, c *Conn, args [][]byte) resp.Frame { return xRangeReply(c, args, false) }
func cmdXRevRange(e *Engine, c *Conn, args [][]byte) resp.Frame { return xRangeReply(c, args, true) }

func xRangeReply(c *Conn, args [][]byte, rev bool) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	s, isStream := asStream(v)
	if !isStream {
		return resp.Error(store.WrongTypeMsg)
	}
	startArg, endArg := args[2], args[3]
	if rev {
		startArg, endArg = args[3], args[2]
	}
	start, err := parseStreamID(startArg, 0)
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	end, err := parseStreamID(endArg, ^uint64(0))
	if err != nil {
		return resp.Error("ERR Invalid stream ID specified as stream command argument")
	}
	count := 0
	if len(args) >= 6 && upperBytes(args[4]) == "COUNT" {
		count, _ = parseInt(args[5])
	}
	if rev {
		return streamEntriesFrame(s.RevRange(end, start, count))
	}
	return streamEntriesFrame(s.Range(start, end, count))
}

func cmdXTrim(e *Engine, c *Conn, args [][]byte) resp.Frame {
	i := 2
	if upperBytes(args[i]) != "MAXLEN" {
		return resp.Error("ERR syntax error")
	}
	i++
	if i < len(args) && (string(args[i]) == "~" || string(args[i]) == "=") {
		i++
	}
	n, ok := parseInt(args[i])
	if !ok {
		return resp.Error("ERR value is not an integer or out of range")
	}
	var removed int
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		s, ok := v.(*store.StreamVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindStream, Got: v.Kind()}
		}
		removed = s.Trim(n)
		return s, removed, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(removed))
}

func cmdXDel(e *Engine, c *Conn, args [][]byte) resp.Frame {
	ids := make([]store.StreamID, 0, len(args)-2)
	for _, a := range args[2:] {
		id, err := parseStreamID(a, 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		ids = append(ids, id)
	}
	var deleted int
	_, err := c.DB.SetMutate(args[1], func(v store.Value, existed bool) (store.Value, int, error) {
		if !existed {
			return nil, 0, nil
		}
		s, ok := v.(*store.StreamVal)
		if !ok {
			return nil, 0, &store.WrongTypeError{Want: store.KindStream, Got: v.Kind()}
		}
		deleted = s.Delete(ids)
		return s, deleted, nil
	})
	if err != nil {
		return errReply(err)
	}
	return resp.Integer(int64(deleted))
}

// cmdXGroup handles XGROUP CREATE/DESTROY/CREATECONSUMER/DELCONSUMER.
func cmdXGroup(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if len(args) < 3 {
		return resp.Error("ERR wrong number of arguments for 'xgroup' command")
	}
	sub := upperBytes(args[1])
	key := args[2]
	switch sub {
	case "CREATE":
		if len(args) < 5 {
			return resp.Error("ERR wrong number of arguments for 'xgroup' command")
		}
		group := string(args[3])
		v, ok := c.DB.Get(key)
		var s *store.StreamVal
		if !ok {
			mkstream := len(args) >= 6 && upperBytes(args[5]) == "MKSTREAM"
			if !mkstream {
				return resp.Error("ERR The XGROUP subcommand requires the key to exist. Note that for CREATE you may want to use the MKSTREAM option to create an empty stream automatically.")
			}
			s = store.NewStreamVal()
			if _, err := c.DB.SetMutate(key, func(store.Value, bool) (store.Value, int, error) { return s, 1, nil }); err != nil {
				return errReply(err)
			}
		} else {
			var isStream bool
			s, isStream = asStream(v)
			if !isStream {
				return resp.Error(store.WrongTypeMsg)
			}
		}
		var after store.StreamID
		if string(args[4]) == "$" {
			after = s.LastID()
		} else {
			id, err := parseStreamID(args[4], 0)
			if err != nil {
				return resp.Error("ERR Invalid stream ID specified as stream command argument")
			}
			after = id
		}
		if !s.CreateGroup(group, after) {
			return resp.Error("BUSYGROUP Consumer Group name already exists")
		}
		return okReply()
	case "DESTROY":
		v, ok := c.DB.Get(key)
		if !ok {
			return resp.Integer(0)
		}
		s, isStream := asStream(v)
		if !isStream {
			return resp.Error(store.WrongTypeMsg)
		}
		if s.DestroyGroup(string(args[3])) {
			return resp.Integer(1)
		}
		return resp.Integer(0)
	case "CREATECONSUMER", "DELCONSUMER":
		v, ok := c.DB.Get(key)
		if !ok {
			return resp.Integer(0)
		}
		s, isStream := asStream(v)
		if !isStream {
			return resp.Error(store.WrongTypeMsg)
		}
		if sub == "DELCONSUMER" {
			return resp.Integer(int64(s.DeleteConsumer(string(args[3]), string(args[4]))))
		}
		if g, ok := s.Group(string(args[3])); ok {
			g.Consumers[string(args[4])] = time.Now()
		}
		return resp.Integer(1)
	}
	return resp.Error("ERR unknown XGROUP subcommand")
}

// cmdXReadGroup implements the common "XREADGROUP GROUP g c [COUNT n] STREAMS key id" form.
func cmdXReadGroup(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if upperBytes(args[1]) != "GROUP" {
		return resp.Error("ERR syntax error")
	}
	group, consumer := string(args[2]), string(args[3])
	i := 4
	count := 0
	if i < len(args) && upperBytes(args[i]) == "COUNT" {
		count, _ = parseInt(args[i+1])
		i += 2
	}
	if i >= len(args) || upperBytes(args[i]) != "STREAMS" {
		return resp.Error("ERR syntax error")
	}
	i++
	rest := args[i:]
	n := len(rest) / 2
	keys, ids := rest[:n], rest[n:]

	results := make([]resp.Frame, 0, n)
	for k := 0; k < n; k++ {
		v, ok := c.DB.Get(keys[k])
		if !ok {
			continue
		}
		s, isStream := asStream(v)
		if !isStream {
			return resp.Error(store.WrongTypeMsg)
		}
		_ = ids[k] // upstream allows ">" (new) or a specific id for re-delivery; only ">" is supported here
		entries, err := s.ReadGroup(group, consumer, count)
		if err != nil {
			return resp.Error(err.Error())
		}
		if len(entries) == 0 {
			continue
		}
		results = append(results, resp.Array(resp.BulkString(keys[k]), streamEntriesFrame(entries)))
	}
	if len(results) == 0 {
		return resp.NullArray()
	}
	return resp.Array(results...)
}

func cmdXAck(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Integer(0)
	}
	s, isStream := asStream(v)
	if !isStream {
		return resp.Error(store.WrongTypeMsg)
	}
	ids := make([]store.StreamID, 0, len(args)-3)
	for _, a := range args[3:] {
		id, err := parseStreamID(a, 0)
		if err != nil {
			return resp.Error("ERR Invalid stream ID specified as stream command argument")
		}
		ids = append(ids, id)
	}
	return resp.Integer(int64(s.Ack(string(args[2]), ids)))
}

func cmdXPending(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array(resp.Integer(0), resp.NullBulk(), resp.NullBulk(), resp.NullArray())
	}
	s, isStream := asStream(v)
	if !isStream {
		return resp.Error(store.WrongTypeMsg)
	}
	count, min, max, byConsumer := s.Pending(string(args[2]))
	if count == 0 {
		return resp.Array(resp.Integer(0), resp.NullBulk(), resp.NullBulk(), resp.NullArray())
	}
	consumers := make([]resp.Frame, 0, len(byConsumer))
	for name, n := range byConsumer {
		consumers = append(consumers, resp.Array(resp.BulkString([]byte(name)), resp.BulkString([]byte(strconv.Itoa(n)))))
	}
	return resp.Array(
		resp.Integer(int64(count)),
		resp.BulkString([]byte(min.String())),
		resp.BulkString([]byte(max.String())),
		resp.Array(consumers...),
	)
}

func cmdXClaim(e *Engine, c *Conn, args [][]byte) resp.Frame {
	v, ok := c.DB.Get(args[1])
	if !ok {
		return resp.Array()
	}
	s, isStream := asStream(v)
	if !isStream {
		return resp.Error(store.WrongTypeMsg)
	}
	group, consumer := string(args[2]), string(args[3])
	minIdleMs, _ := parseInt64(args[4])
	ids := make([]store.StreamID, 0, len(args)-5)
	for _, a := range args[5:] {
		id, err := parseStreamID(a, 0)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	claimed := s.Claim(group, consumer, ids, time.Duration(minIdleMs)*time.Millisecond)
	return streamEntriesFrame(claimed)
}
