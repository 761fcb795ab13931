package sink

import (
	"fmt"
	"io"
	"os"
)

// Sink accepts one formatted record per call: a styled rendering for
// interactive display and a plain rendering for persistence and fan-out.
type Sink interface {
	Emit(styled, plain string)
}

// ---------------------------------------------------------------------------
// File sink (persistence)
// ---------------------------------------------------------------------------

// FileSink appends plain lines to a log file, one record per line.
type FileSink struct {
	f *os.File
}

// NewFileSink opens (or creates) the log file at path for appending.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return &FileSink{f: f}, nil
}

func (s *FileSink) Emit(_, plain string) {
	fmt.Fprintln(s.f, plain)
}

// Close releases the underlying file.
func (s *FileSink) Close() error {
	return s.f.Close()
}

// ---------------------------------------------------------------------------
// Console sink (interactive echo)
// ---------------------------------------------------------------------------

// ConsoleSink echoes styled lines to a display writer. The proxy points it
// at stderr so the protocol stream on stdout stays untouched.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink returns a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

func (s *ConsoleSink) Emit(styled, _ string) {
	fmt.Fprintln(s.w, styled)
}

// ---------------------------------------------------------------------------
// Composition
// ---------------------------------------------------------------------------

// Multi fans every record out to each member sink in order.
type Multi []Sink

func (m Multi) Emit(styled, plain string) {
	for _, s := range m {
		s.Emit(styled, plain)
	}
}
