package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSinkPersistsPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")

	fs, err := NewFileSink(path)
	if err != nil {
		t.Fatal(err)
	}
	fs.Emit("\x1b[1mstyled\x1b[0m", "plain one")
	fs.Emit("ignored", "plain two")
	if err := fs.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "plain one\nplain two\n" {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestConsoleSinkEchoesStyled(t *testing.T) {
	var buf bytes.Buffer
	cs := NewConsoleSink(&buf)

	cs.Emit("styled", "plain")

	if buf.String() != "styled\n" {
		t.Errorf("expected styled rendering, got %q", buf.String())
	}
}

func TestMultiFansOut(t *testing.T) {
	var a, b bytes.Buffer
	m := Multi{NewConsoleSink(&a), NewConsoleSink(&b)}

	m.Emit("line", "line")

	if a.String() != "line\n" || b.String() != "line\n" {
		t.Errorf("expected both sinks written, got %q and %q", a.String(), b.String())
	}
}
