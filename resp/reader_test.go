package resp

import (
	"bytes"
	"testing"
)

func mustCommand(t *testing.T, raw string) [][]byte {
	t.Helper()
	r := NewReader(bytes.NewBufferString(raw))
	cmd, err := r.ReadCommand()
	if err != nil {
		t.Fatalf("ReadCommand(%q): %v", raw, err)
	}
	return cmd
}

func TestReadCommandArray(t *testing.T) {
	cmd := mustCommand(t, "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")
	if len(cmd) != 2 || string(cmd[0]) != "GET" || string(cmd[1]) != "k" {
		t.Fatalf("unexpected command: %q", cmd)
	}
}

func TestReadCommandPipeline(t *testing.T) {
	r := NewReader(bytes.NewBufferString("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPING\r\n"))
	for i := 0; i < 2; i++ {
		cmd, err := r.ReadCommand()
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
		if len(cmd) != 1 || string(cmd[0]) != "PING" {
			t.Fatalf("iteration %d: unexpected %q", i, cmd)
		}
	}
}

func TestReadCommandInline(t *testing.T) {
	cmd := mustCommand(t, "PING hello\r\n")
	if len(cmd) != 2 || string(cmd[0]) != "PING" || string(cmd[1]) != "hello" {
		t.Fatalf("unexpected inline command: %q", cmd)
	}
}

func TestReadCommandInlineOnlyFirst(t *testing.T) {
	r := NewReader(bytes.NewBufferString("PING\r\nPING\r\n"))
	if _, err := r.ReadCommand(); err != nil {
		t.Fatalf("first inline command: %v", err)
	}
	if _, err := r.ReadCommand(); err == nil {
		t.Fatalf("expected protocol error for second non-RESP command")
	}
}

func TestReadCommandBadBulkLength(t *testing.T) {
	// first command (PING) is well-formed; second declares length 2 but only
	// "k" (1 byte) precedes the terminator.
	r := NewReader(bytes.NewBufferString("*1\r\n$4\r\nPING\r\n*1\r\n$2\r\nk\r\n"))
	if _, err := r.ReadCommand(); err != nil {
		t.Fatalf("first frame (PING) should parse: %v", err)
	}
	_, err := r.ReadCommand()
	if err == nil {
		t.Fatalf("expected protocol error for malformed bulk length")
	}
	if _, ok := err.(*ProtocolError); !ok {
		t.Fatalf("expected *ProtocolError, got %T: %v", err, err)
	}
}

func TestWriteFrameRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteFrame(SimpleString("OK")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(BulkString([]byte("v"))); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(NullBulk()); err != nil {
		t.Fatal(err)
	}
	w.Flush()
	want := "+OK\r\n$1\r\nv\r\n$-1\r\n"
	if buf.String() != want {
		t.Fatalf("got %q want %q", buf.String(), want)
	}
}

func TestWriteFrameRESP3Null(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	w.SetRESP3(true)
	w.WriteFrame(Null())
	w.Flush()
	if buf.String() != "_\r\n" {
		t.Fatalf("got %q", buf.String())
	}
}
