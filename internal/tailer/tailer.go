package tailer

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"mcptap/internal/colorize"
)

// DefaultPattern selects session log files inside a log directory.
const DefaultPattern = "*.log"

const (
	defaultPollInterval   = 200 * time.Millisecond
	defaultWaitInterval   = 1000 * time.Millisecond
	defaultSwitchInterval = 2000 * time.Millisecond
)

// Options configures a Tailer.
type Options struct {
	// Path is an explicit file to tail. Empty means discover the newest
	// match in Dir first.
	Path string
	// Dir enables auto-switching: the directory is re-checked periodically
	// and the tail jumps to a newer file when one appears.
	Dir string
	// Pattern is the filename glob matched against directory entries
	// (DefaultPattern when empty).
	Pattern string
	// Colors enables ANSI highlighting of emitted lines.
	Colors bool
	// Out receives highlighted lines (os.Stdout when nil).
	Out io.Writer

	PollInterval   time.Duration
	WaitInterval   time.Duration
	SwitchInterval time.Duration
}

// Tailer streams a growing log file to a display writer, following appends
// and rotation. All state (open handle, offset, partial line) is touched
// only from the single Run goroutine; the timers are multiplexed through
// one select loop so no two callbacks ever overlap.
type Tailer struct {
	opts    Options
	path    string
	file    *os.File
	offset  int64
	partial string
}

// New returns a Tailer with defaults filled in.
func New(opts Options) *Tailer {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = defaultWaitInterval
	}
	if opts.SwitchInterval <= 0 {
		opts.SwitchInterval = defaultSwitchInterval
	}
	return &Tailer{opts: opts, path: opts.Path}
}

// FindLatestLog returns the path under dir whose name matches pattern and
// whose modification time is greatest. Filenames carry no meaning here;
// only mtime decides, and ties fall arbitrarily to enumeration order.
func FindLatestLog(dir, pattern string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var (
		best     string
		bestTime time.Time
		found    bool
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := doublestar.Match(pattern, e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(bestTime) {
			best = filepath.Join(dir, e.Name())
			bestTime = info.ModTime()
			found = true
		}
	}
	return best, found
}

// Run streams the target until ctx is cancelled. It never returns an error
// for missing files or directories; those put it into a wait state instead.
func (t *Tailer) Run(ctx context.Context) error {
	defer t.close()

	if t.path == "" {
		path, err := t.awaitTarget(ctx)
		if err != nil {
			return nil
		}
		t.path = path
	}

	if err := t.open(); err != nil {
		if err := t.rediscover(ctx); err != nil {
			return nil
		}
	}

	content := time.NewTicker(t.opts.PollInterval)
	defer content.Stop()

	var switchC <-chan time.Time
	if t.opts.Dir != "" {
		sw := time.NewTicker(t.opts.SwitchInterval)
		defer sw.Stop()
		switchC = sw.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-content.C:
			if err := t.poll(ctx); err != nil {
				return nil
			}
		case <-switchC:
			t.checkSwitch()
		}
	}
}

// open reads the target's current content in one pass, emitting every
// complete line and carrying the trailing unterminated fragment.
func (t *Tailer) open() error {
	f, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.path, err)
	}
	t.file = f
	t.offset = 0
	t.partial = ""
	t.announce("tailing %s", t.path)

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", t.path, err)
	}
	t.offset = int64(len(data))
	t.emitChunk(data)
	return nil
}

// poll checks the target for growth and reads only the appended bytes. A
// failed stat means the file is gone; the tailer then rediscovers a target
// rather than terminating.
func (t *Tailer) poll(ctx context.Context) error {
	info, err := os.Stat(t.path)
	if err != nil {
		t.closeFile()
		return t.rediscover(ctx)
	}
	if t.file == nil {
		// A previous open lost a race with the file; retry from scratch.
		if err := t.open(); err != nil {
			log.Printf("tail: %v", err)
		}
		return nil
	}
	if fi, err := t.file.Stat(); err != nil || !os.SameFile(info, fi) {
		// Replaced at the same path between polls: restart on the new file.
		t.closeFile()
		if err := t.open(); err != nil {
			log.Printf("tail: %v", err)
		}
		return nil
	}

	size := info.Size()
	switch {
	case size == t.offset:
		return nil
	case size < t.offset:
		// Truncated in place: start over from the top.
		t.offset = 0
		t.partial = ""
	}

	buf := make([]byte, size-t.offset)
	n, err := t.file.ReadAt(buf, t.offset)
	if err != nil && err != io.EOF {
		log.Printf("tail: read %s: %v", t.path, err)
		return nil
	}
	t.offset += int64(n)
	t.emitChunk(buf[:n])
	return nil
}

// checkSwitch re-resolves the newest file in the watched directory and, if
// it differs from the current target, flushes the carried partial line and
// restarts the stream on the new file.
func (t *Tailer) checkSwitch() {
	latest, ok := FindLatestLog(t.opts.Dir, t.opts.Pattern)
	if !ok || latest == t.path {
		return
	}
	t.flushPartial()
	t.closeFile()
	t.announce("log rotated, switching to %s", latest)
	t.path = latest
	if err := t.open(); err != nil {
		log.Printf("tail: %v", err)
	}
}

// rediscover finds a new target after the current one disappeared. With a
// watched directory any matching file qualifies; otherwise it waits for the
// original path to come back.
func (t *Tailer) rediscover(ctx context.Context) error {
	if t.opts.Dir != "" {
		if latest, ok := FindLatestLog(t.opts.Dir, t.opts.Pattern); ok && latest != t.path {
			t.path = latest
			if err := t.open(); err == nil {
				return nil
			}
		}
	}
	path, err := t.awaitTarget(ctx)
	if err != nil {
		return err
	}
	t.path = path
	if err := t.open(); err != nil {
		log.Printf("tail: %v", err)
	}
	return nil
}

// awaitTarget blocks until a target file exists or ctx is cancelled. The
// wait is a bounded poll; fsnotify directory events only wake it earlier
// when the directory can be watched.
func (t *Tailer) awaitTarget(ctx context.Context) (string, error) {
	dir := t.opts.Dir
	if dir == "" {
		dir = filepath.Dir(t.path)
	}
	t.announce("waiting for a log file in %s", dir)

	var events <-chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(dir); err == nil {
			events = w.Events
		}
	}

	ticker := time.NewTicker(t.opts.WaitInterval)
	defer ticker.Stop()

	for {
		if path, ok := t.resolveTarget(); ok {
			return path, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		case <-events:
		}
	}
}

// resolveTarget reports the file the tailer should stream right now.
func (t *Tailer) resolveTarget() (string, bool) {
	if t.opts.Dir != "" {
		return FindLatestLog(t.opts.Dir, t.opts.Pattern)
	}
	if _, err := os.Stat(t.path); err != nil {
		return "", false
	}
	return t.path, true
}

// emitChunk joins the carried partial line with freshly read bytes and
// emits every complete line, keeping the new trailing fragment.
func (t *Tailer) emitChunk(data []byte) {
	if len(data) == 0 {
		return
	}
	text := t.partial + string(data)
	lines := strings.Split(text, "\n")
	t.partial = lines[len(lines)-1]
	for _, line := range lines[:len(lines)-1] {
		t.emit(line)
	}
}

func (t *Tailer) flushPartial() {
	if t.partial != "" {
		t.emit(t.partial)
		t.partial = ""
	}
}

func (t *Tailer) emit(line string) {
	fmt.Fprintln(t.opts.Out, colorize.Line(line, t.opts.Colors))
}

func (t *Tailer) announce(format string, args ...any) {
	fmt.Fprintf(t.opts.Out, "==> "+format+"\n", args...)
}

func (t *Tailer) closeFile() {
	if t.file != nil {
		t.file.Close()
		t.file = nil
	}
}

func (t *Tailer) close() {
	t.closeFile()
}
