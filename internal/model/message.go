package model

import (
	"encoding/json"
	"strconv"
	"time"
)

// Direction says which way a protocol line was travelling.
type Direction int

const (
	ClientToServer Direction = iota
	ServerToClient
)

// Arrow returns the presentational direction marker.
func (d Direction) Arrow() string {
	if d == ClientToServer {
		return "→"
	}
	return "←"
}

// Actor returns the label of the side that produced the line.
func (d Direction) Actor() string {
	if d == ClientToServer {
		return "CLIENT"
	}
	return "SERVER"
}

// Label returns the lowercase wire-direction name used in counters.
func (d Direction) Label() string {
	if d == ClientToServer {
		return "client"
	}
	return "server"
}

// Message is one decoded JSON-RPC line. Fields are best-effort; no schema
// validation happens beyond decoding.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error member of a JSON-RPC response.
type RPCError struct {
	Code    *int   `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Kind classifies a message by the presence of its method and id fields.
type Kind int

const (
	KindUnparsable Kind = iota // neither a call nor a response
	KindNotification
	KindRequest
	KindResponse
)

// String names the kind for counters and logs.
func (k Kind) String() string {
	switch k {
	case KindNotification:
		return "notification"
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	default:
		return "raw"
	}
}

// Classify applies the JSON-RPC shape rules: a method without an id is a
// notification, a method with an id is a request, an id without a method is
// a response, anything else is unparsable.
func (m *Message) Classify() Kind {
	hasID := m.ID != nil
	hasMethod := m.Method != ""
	switch {
	case hasMethod && !hasID:
		return KindNotification
	case hasMethod && hasID:
		return KindRequest
	case hasID:
		return KindResponse
	default:
		return KindUnparsable
	}
}

// IDKey renders the id as a correlation key. JSON numbers decode as float64;
// integral values print without a fraction so "1" and 1 collide the way the
// wire intends.
func (m *Message) IDKey() string {
	switch v := m.ID.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Pending correlates an outstanding request id with its method, optional
// tool name, and start time. Entries live in a Session until the matching
// response arrives; an id reused before its response silently overwrites.
type Pending struct {
	Method    string
	ToolName  string
	Timestamp time.Time
}

// Session holds the correlation table for one proxy session. It is an
// explicit object rather than package state so tests and multiple sessions
// stay isolated. Callers dispatch lines serially per direction; the table
// itself does no locking.
type Session struct {
	pending map[string]Pending
}

// NewSession returns an empty correlation table.
func NewSession() *Session {
	return &Session{pending: make(map[string]Pending)}
}

// Track registers a pending request under its id key.
func (s *Session) Track(id string, p Pending) {
	s.pending[id] = p
}

// Resolve removes and returns the pending entry for id, if any.
func (s *Session) Resolve(id string) (Pending, bool) {
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return p, ok
}

// Outstanding reports how many requests are still awaiting a response.
func (s *Session) Outstanding() int {
	return len(s.pending)
}
