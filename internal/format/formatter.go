package format

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"mcptap/internal/colorize"
	"mcptap/internal/model"
)

const (
	detailIndent  = "    "
	maxParamsLen  = 200
	maxRawLineLen = 200
)

// Sink receives every formatted record in both renderings. The plain line
// is what gets persisted; the styled line is for interactive display.
type Sink interface {
	Emit(styled, plain string)
}

// Formatter turns raw JSON-RPC lines into human-readable records and feeds
// them to a sink. It never modifies the traffic it observes and never fails
// on malformed input. Lines must be dispatched serially; the correlation
// table is not locked.
type Formatter struct {
	session *model.Session
	sink    Sink
	color   bool
	now     func() time.Time
	observe func(model.Direction, model.Kind)
}

// New creates a Formatter around the given correlation session and sink.
func New(session *model.Session, sink Sink, color bool) *Formatter {
	return &Formatter{
		session: session,
		sink:    sink,
		color:   color,
		now:     time.Now,
	}
}

// SetObserver installs a callback invoked once per classified line, used
// for session counters. Must be set before the first Line call.
func (f *Formatter) SetObserver(fn func(model.Direction, model.Kind)) {
	f.observe = fn
}

// Line classifies and formats one raw protocol line.
func (f *Formatter) Line(dir model.Direction, line string) {
	now := f.now()
	head := fmt.Sprintf("%s %s %s", Timestamp(now), dir.Arrow(), dir.Actor())

	var msg model.Message
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		f.record(dir, model.KindUnparsable)
		f.emit(fmt.Sprintf("%s  [raw] %s", head, Truncate(strings.TrimSpace(line), maxRawLineLen)))
		return
	}

	f.record(dir, msg.Classify())
	switch msg.Classify() {
	case model.KindNotification:
		f.notification(head, &msg)
	case model.KindRequest:
		f.request(head, &msg, now)
	case model.KindResponse:
		f.response(head, &msg, now)
	default:
		f.emit(fmt.Sprintf("%s  %s", head, Truncate(compactLine(line), maxRawLineLen)))
	}
}

// Stderr records one line of the child process's stderr output.
func (f *Formatter) Stderr(line string) {
	f.emit(colorize.StderrPrefix + " " + line)
}

func (f *Formatter) notification(head string, msg *model.Message) {
	f.emit(fmt.Sprintf("%s  notification  %s", head, msg.Method))
	if p := paramsSummary(msg.Params); p != "" {
		f.detail(p)
	}
}

func (f *Formatter) request(head string, msg *model.Message, now time.Time) {
	id := msg.IDKey()

	var toolName string
	var arguments json.RawMessage
	if msg.Method == MethodToolsCall {
		var callParams struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(msg.Params, &callParams); err == nil {
			toolName = callParams.Name
			arguments = callParams.Arguments
		}
	}

	f.session.Track(id, model.Pending{Method: msg.Method, ToolName: toolName, Timestamp: now})

	if toolName != "" {
		f.emit(fmt.Sprintf("%s  request  %s  %s  #%s", head, msg.Method, toolName, id))
	} else {
		f.emit(fmt.Sprintf("%s  request  %s  #%s", head, msg.Method, id))
	}

	if len(arguments) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, arguments, "", "  "); err == nil {
			for _, line := range strings.Split(buf.String(), "\n") {
				f.detail(line)
			}
			return
		}
	}
	if p := paramsSummary(msg.Params); p != "" {
		f.detail(p)
	}
}

func (f *Formatter) response(head string, msg *model.Message, now time.Time) {
	id := msg.IDKey()
	entry, found := f.session.Resolve(id)

	reqMethod := "unknown"
	elapsed := ""
	if found {
		reqMethod = entry.Method
		elapsed = fmt.Sprintf("  %dms", now.Sub(entry.Timestamp).Milliseconds())
	}

	if msg.Error != nil {
		f.emit(fmt.Sprintf("%s  ERROR  (%s #%s)%s", head, reqMethod, id, elapsed))
		code := "?"
		if msg.Error.Code != nil {
			code = fmt.Sprintf("%d", *msg.Error.Code)
		}
		message := msg.Error.Message
		if message == "" {
			message = "Unknown error"
		}
		f.detail(fmt.Sprintf("[%s] %s", code, message))
		return
	}

	f.emit(fmt.Sprintf("%s  response  %s  #%s%s", head, reqMethod, id, elapsed))
	summarizeResult(reqMethod, msg.Result, f.detail)
}

func (f *Formatter) record(dir model.Direction, kind model.Kind) {
	if f.observe != nil {
		f.observe(dir, kind)
	}
}

// emit pushes one record to the sink in styled and plain form. The styled
// rendering is the colorizer applied to the plain line; the text content of
// both is identical.
func (f *Formatter) emit(plain string) {
	f.sink.Emit(colorize.Line(plain, f.color), plain)
}

// detail emits a continuation record, indented under the previous primary one.
func (f *Formatter) detail(line string) {
	f.emit(detailIndent + line)
}

// paramsSummary renders non-empty params on one truncated line; empty or
// missing params produce nothing.
func paramsSummary(raw json.RawMessage) string {
	s := compactLine(string(raw))
	if s == "" || s == "{}" || s == "null" {
		return ""
	}
	return Truncate(s, maxParamsLen)
}

// compactLine re-serializes a JSON document without insignificant
// whitespace, falling back to trimming when compaction fails.
func compactLine(raw string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return strings.TrimSpace(raw)
	}
	return buf.String()
}
