package proxy

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"

	"mcptap/internal/format"
	"mcptap/internal/model"
)

// Proxy spawns the child MCP server and bridges stdio in both directions.
// Protocol bytes are forwarded unmodified; each complete line is also handed
// to the formatter for observation. The two directions interleave, so
// formatter access is serialized behind one mutex.
type Proxy struct {
	Command   []string
	Formatter *format.Formatter

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	mu sync.Mutex
}

// Run starts the child and pumps all three streams until the child exits or
// ctx is cancelled. The child's exit error is returned as-is.
func (p *Proxy) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)

	childIn, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	childOut, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	childErr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", p.Command[0], err)
	}

	// Client → server. Closing the child's stdin on client EOF lets the
	// child shut down on its own terms.
	go func() {
		defer childIn.Close()
		if err := pumpLines(p.Stdin, childIn, p.observer(model.ClientToServer)); err != nil {
			log.Printf("proxy: client stream: %v", err)
		}
	}()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := pumpLines(childOut, p.Stdout, p.observer(model.ServerToClient)); err != nil {
			log.Printf("proxy: server stream: %v", err)
		}
	}()

	go func() {
		defer wg.Done()
		p.forwardStderr(childErr)
	}()

	wg.Wait()
	return cmd.Wait()
}

// observer returns a serialized line callback for one direction.
func (p *Proxy) observer(dir model.Direction) func(string) {
	return func(line string) {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Formatter.Line(dir, line)
	}
}

// forwardStderr passes the child's stderr through with each line also
// recorded in the session log under the stderr prefix.
func (p *Proxy) forwardStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(p.Stderr, line)
		p.mu.Lock()
		p.Formatter.Stderr(line)
		p.mu.Unlock()
	}
	if err := scanner.Err(); err != nil {
		log.Printf("proxy: stderr stream: %v", err)
	}
}

// pumpLines copies src to dst byte-for-byte, handing every complete
// newline-delimited record (terminator stripped) to onLine. Blank lines are
// forwarded but not observed.
func pumpLines(src io.Reader, dst io.Writer, onLine func(string)) error {
	r := bufio.NewReader(src)
	for {
		chunk, err := r.ReadBytes('\n')
		if len(chunk) > 0 {
			if _, werr := dst.Write(chunk); werr != nil {
				return werr
			}
			line := strings.TrimSuffix(string(chunk), "\n")
			line = strings.TrimSuffix(line, "\r")
			if strings.TrimSpace(line) != "" {
				onLine(line)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
