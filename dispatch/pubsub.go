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

import "github.com/launix-de/memkv/resp"

func cmdPublish(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if e.hub == nil {
		return resp.Integer(0)
	}
	return resp.Integer(int64(e.hub.Publish(string(args[1]), args[2])))
}

func cmdSubscribe(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if c.SubChannels == nil {
		c.SubChannels = make(map[string]bool)
	}
	for _, ch := range args[1:] {
		c.SubChannels[string(ch)] = true
		if e.hub != nil {
			e.hub.Subscribe(c, string(ch))
		}
	}
	return subAckReply("subscribe", string(args[len(args)-1]), subCount(c))
}

func cmdUnsubscribe(e *Engine, c *Conn, args [][]byte) resp.Frame {
	channels := args[1:]
	if len(channels) == 0 {
		for ch := range c.SubChannels {
			channels = append(channels, []byte(ch))
		}
	}
	for _, ch := range channels {
		delete(c.SubChannels, string(ch))
		if e.hub != nil {
			e.hub.Unsubscribe(c, string(ch))
		}
	}
	name := ""
	if len(channels) > 0 {
		name = string(channels[len(channels)-1])
	}
	return subAckReply("unsubscribe", name, subCount(c))
}

func cmdPSubscribe(e *Engine, c *Conn, args [][]byte) resp.Frame {
	if c.SubPatterns == nil {
		c.SubPatterns = make(map[string]bool)
	}
	for _, p := range args[1:] {
		c.SubPatterns[string(p)] = true
		if e.hub != nil {
			e.hub.PSubscribe(c, string(p))
		}
	}
	return subAckReply("psubscribe", string(args[len(args)-1]), subCount(c))
}

func cmdPUnsubscribe(e *Engine, c *Conn, args [][]byte) resp.Frame {
	patterns := args[1:]
	if len(patterns) == 0 {
		for p := range c.SubPatterns {
			patterns = append(patterns, []byte(p))
		}
	}
	for _, p := range patterns {
		delete(c.SubPatterns, string(p))
		if e.hub != nil {
			e.hub.PUnsubscribe(c, string(p))
		}
	}
	name := ""
	if len(patterns) > 0 {
		name = string(patterns[len(patterns)-1])
	}
	return subAckReply("punsubscribe", name, subCount(c))
}

func subCount(c *Conn) int { return len(c.SubChannels) + len(c.SubPatterns) }

func subAckReply(kind, name string, count int) resp.Frame {
	return resp.Push(resp.BulkString([]byte(kind)), resp.BulkString([]byte(name)), resp.Integer(int64(count)))
}

// cmdPubSub implements the introspection subcommands (CHANNELS/NUMSUB/NUMPAT).
func cmdPubSub(e *Engine, c *Conn, args [][]byte) resp.Frame {
	switch upperBytes(args[1]) {
	case "CHANNELS":
		return resp.Array()
	case "NUMSUB":
		elems := make([]resp.Frame, 0, len(args[2:])*2)
		for _, ch := range args[2:] {
			elems = append(elems, resp.BulkString(ch), resp.Integer(0))
		}
		return resp.Array(elems...)
	case "NUMPAT":
		return resp.Integer(0)
	}
	return resp.Error("ERR unknown PUBSUB subcommand")
}
