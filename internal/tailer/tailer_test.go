package tailer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer lets the test read while the tailer goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFindLatestLogByModTime(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "zzz.log")
	newer := filepath.Join(dir, "aaa.log")
	writeFile(t, older, "old\n")
	writeFile(t, newer, "new\n")

	// Lexically "zzz" sorts last; mtime must decide instead.
	base := time.Now()
	if err := os.Chtimes(older, base.Add(-time.Hour), base.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, base, base); err != nil {
		t.Fatal(err)
	}

	got, ok := FindLatestLog(dir, DefaultPattern)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != newer {
		t.Errorf("expected %s, got %s", newer, got)
	}
}

func TestFindLatestLogNoMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), "x\n")

	if _, ok := FindLatestLog(dir, DefaultPattern); ok {
		t.Error("expected no match for non-.log files")
	}
	if _, ok := FindLatestLog(filepath.Join(dir, "missing"), DefaultPattern); ok {
		t.Error("expected no match for a missing directory")
	}
}

func TestEmitChunkPartialCarry(t *testing.T) {
	out := &syncBuffer{}
	tl := New(Options{Out: out})

	tl.emitChunk([]byte("one\ntw"))
	if got := out.String(); got != "one\n" {
		t.Errorf("expected only the complete line, got %q", got)
	}
	if tl.partial != "tw" {
		t.Errorf("expected carried fragment \"tw\", got %q", tl.partial)
	}

	tl.emitChunk([]byte("o\nthree\n"))
	if got := out.String(); got != "one\ntwo\nthree\n" {
		t.Errorf("fragment not rejoined: %q", got)
	}
	if tl.partial != "" {
		t.Errorf("expected empty carry, got %q", tl.partial)
	}
}

func TestRunStreamsAppendedLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	writeFile(t, path, "existing\n")

	out := &syncBuffer{}
	tl := New(Options{
		Path:         path,
		Out:          out,
		PollInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tl.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("appended\n")
	f.Close()

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), "appended") {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for appended line, output: %q", out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}

	if !strings.Contains(out.String(), "existing") {
		t.Errorf("existing content should be emitted first, got %q", out.String())
	}

	cancel()
	<-done
}

func TestRunAutoSwitchesToNewerFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.log")
	writeFile(t, first, "alpha\n")

	base := time.Now()
	if err := os.Chtimes(first, base.Add(-time.Minute), base.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	out := &syncBuffer{}
	tl := New(Options{
		Dir:            dir,
		Out:            out,
		PollInterval:   20 * time.Millisecond,
		SwitchInterval: 40 * time.Millisecond,
		WaitInterval:   20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tl.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	second := filepath.Join(dir, "second.log")
	writeFile(t, second, "beta\n")
	if err := os.Chtimes(second, base, base); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), "beta") {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for switch, output: %q", out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}

	output := out.String()
	if !strings.Contains(output, "alpha") {
		t.Errorf("first file's content missing: %q", output)
	}
	if !strings.Contains(output, "switching to "+second) {
		t.Errorf("expected a switch announcement, got %q", output)
	}

	cancel()
	<-done
}

func TestRunDetectsReplacedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.log")
	writeFile(t, path, "old\n")

	out := &syncBuffer{}
	tl := New(Options{
		Path:         path,
		Out:          out,
		PollInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tl.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// Atomic replace: stat keeps succeeding, but the open handle now
	// points at an orphaned inode.
	replacement := filepath.Join(dir, "replacement.tmp")
	writeFile(t, replacement, "fresh content\n")
	if err := os.Rename(replacement, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), "fresh content") {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for replaced file, output: %q", out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}
	if !strings.Contains(out.String(), "old") {
		t.Errorf("original content should be emitted first, got %q", out.String())
	}

	cancel()
	<-done
}

func TestRunWaitsForFirstFile(t *testing.T) {
	dir := t.TempDir()

	out := &syncBuffer{}
	tl := New(Options{
		Dir:          dir,
		Out:          out,
		PollInterval: 20 * time.Millisecond,
		WaitInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = tl.Run(ctx)
	}()

	time.Sleep(80 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "late.log"), "finally\n")

	deadline := time.After(3 * time.Second)
	for !strings.Contains(out.String(), "finally") {
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for late file, output: %q", out.String())
		case <-time.After(20 * time.Millisecond):
		}
	}
	if !strings.Contains(out.String(), "waiting for a log file") {
		t.Errorf("expected a wait announcement, got %q", out.String())
	}

	cancel()
	<-done
}
