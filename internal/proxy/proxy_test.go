package proxy

import (
	"bytes"
	"strings"
	"testing"
)

func TestPumpLinesForwardsBytesUnmodified(t *testing.T) {
	input := "{\"id\":1}\r\n{\"id\":2}\n"
	var dst bytes.Buffer
	var seen []string

	err := pumpLines(strings.NewReader(input), &dst, func(line string) {
		seen = append(seen, line)
	})
	if err != nil {
		t.Fatal(err)
	}

	if dst.String() != input {
		t.Errorf("forwarded bytes differ from input: %q", dst.String())
	}
	if len(seen) != 2 || seen[0] != `{"id":1}` || seen[1] != `{"id":2}` {
		t.Errorf("unexpected observed lines: %v", seen)
	}
}

func TestPumpLinesTrailingFragment(t *testing.T) {
	input := "complete\nfragment-without-newline"
	var dst bytes.Buffer
	var seen []string

	err := pumpLines(strings.NewReader(input), &dst, func(line string) {
		seen = append(seen, line)
	})
	if err != nil {
		t.Fatal(err)
	}

	if dst.String() != input {
		t.Errorf("trailing fragment must still be forwarded: %q", dst.String())
	}
	if len(seen) != 2 || seen[1] != "fragment-without-newline" {
		t.Errorf("unexpected observed lines: %v", seen)
	}
}

func TestPumpLinesSkipsBlankLines(t *testing.T) {
	input := "\n  \n{\"ok\":true}\n"
	var dst bytes.Buffer
	var seen []string

	if err := pumpLines(strings.NewReader(input), &dst, func(line string) {
		seen = append(seen, line)
	}); err != nil {
		t.Fatal(err)
	}

	if dst.String() != input {
		t.Errorf("blank lines must still be forwarded: %q", dst.String())
	}
	if len(seen) != 1 || seen[0] != `{"ok":true}` {
		t.Errorf("blank lines should not be observed: %v", seen)
	}
}
