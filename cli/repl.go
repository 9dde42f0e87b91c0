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

// Package cli is the in-process admin REPL (a local redis-cli, not a
// network client): it reads lines, splits them into command words, and
// dispatches them straight against a live *dispatch.Engine. Grounded on
// memcp's scm/prompt.go Repl — same readline config and anti-panic wrapper
// around each line, adapted from evaluating s-expressions to dispatching
// RESP command words.
package cli

import (
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/memkv/dispatch"
	"github.com/launix-de/memkv/resp"
)

const (
	newprompt    = "\033[32mmemkv>\033[0m "
	resultprompt = "\033[31m=\033[0m "
)

// Run starts the REPL on the controlling terminal, dispatching every line
// against e until EOF or Ctrl-D. It blocks until the session ends.
func Run(e *dispatch.Engine) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            newprompt,
		HistoryFile:       ".memkv-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		panic(err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	c := dispatch.NewConn(e, "cli")

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			panic(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					fmt.Println("panic:", r, string(debug.Stack()))
				}
			}()
			args := splitWords(line)
			if len(args) == 0 {
				return
			}
			reply := e.Dispatch(c, toByteArgs(args))
			fmt.Print(resultprompt)
			fmt.Println(renderFrame(reply))
		}()
	}
}

// splitWords tokenizes a line the way redis-cli's own line editor does:
// whitespace-separated words, with single or double quotes grouping a word
// that contains spaces.
func splitWords(line string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			} else {
				cur.WriteByte(ch)
			}
		case ch == '\'' || ch == '"':
			quote = ch
		case ch == ' ' || ch == '\t':
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func toByteArgs(words []string) [][]byte {
	out := make([][]byte, len(words))
	for i, w := range words {
		out[i] = []byte(w)
	}
	return out
}

// renderFrame prints a reply the way redis-cli does: strings and numbers
// unadorned, arrays as numbered lines, errors prefixed with "(error)".
func renderFrame(f resp.Frame) string {
	var b strings.Builder
	writeFrame(&b, f, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeFrame(b *strings.Builder, f resp.Frame, indent int) {
	pad := strings.Repeat("  ", indent)
	switch f.Type {
	case resp.TypeError:
		fmt.Fprintf(b, "%s(error) %s\n", pad, string(f.Str))
	case resp.TypeSimpleString:
		fmt.Fprintf(b, "%s%s\n", pad, string(f.Str))
	case resp.TypeBulkString, resp.TypeVerbatim, resp.TypeBigNumber:
		if f.Null {
			fmt.Fprintf(b, "%s(nil)\n", pad)
		} else {
			fmt.Fprintf(b, "%s%q\n", pad, string(f.Str))
		}
	case resp.TypeInteger:
		fmt.Fprintf(b, "%s(integer) %d\n", pad, f.Int)
	case resp.TypeDouble:
		fmt.Fprintf(b, "%s(double) %s\n", pad, strconv.FormatFloat(f.Double, 'g', -1, 64))
	case resp.TypeBoolean:
		fmt.Fprintf(b, "%s(boolean) %t\n", pad, f.Bool)
	case resp.TypeNull:
		fmt.Fprintf(b, "%s(nil)\n", pad)
	case resp.TypeArray, resp.TypeSet, resp.TypePush, resp.TypeMap:
		if f.Null {
			fmt.Fprintf(b, "%s(nil)\n", pad)
			return
		}
		if len(f.Elems) == 0 {
			fmt.Fprintf(b, "%s(empty array)\n", pad)
			return
		}
		for i, e := range f.Elems {
			fmt.Fprintf(b, "%s%d) ", pad, i+1)
			var inner strings.Builder
			writeFrame(&inner, e, 0)
			b.WriteString(strings.TrimLeft(inner.String(), " "))
		}
	default:
		fmt.Fprintf(b, "%s%v\n", pad, f)
	}
}
