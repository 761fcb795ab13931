package format

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	// MethodToolsCall is the call-type method whose params carry a tool name
	// and whose results carry content blocks.
	MethodToolsCall = "tools/call"

	maxArrayItems  = 3
	maxStringLen   = 100
	maxURILen      = 200
	maxBlockLen    = 200
	maxGenericLen  = 300
	maxListInline  = 8
	listHeadLength = 6
)

// summarizeResult emits zero or more human-readable detail lines for a
// response result, keyed by the method that produced it. An absent result
// emits nothing. Shape mismatches fall through to a generic truncated
// rendering; nothing here is fatal.
func summarizeResult(method string, raw json.RawMessage, emit func(line string)) {
	if len(raw) == 0 {
		return
	}
	var result any
	if err := json.Unmarshal(raw, &result); err != nil {
		return
	}

	switch method {
	case "tools/list":
		if summarizeList(result, "tools", "tools", false, emit) {
			return
		}
	case "resources/list":
		if summarizeList(result, "resources", "resources", true, emit) {
			return
		}
	case "prompts/list":
		if summarizeList(result, "prompts", "prompts", false, emit) {
			return
		}
	case MethodToolsCall:
		if summarizeContent(result, emit) {
			return
		}
	case "initialize":
		if summarizeInitialize(result, emit) {
			return
		}
	}

	// Generic fallback: the whole result on one line, skipping results that
	// stringify to nothing more than an empty object.
	s := compactJSON(result)
	if len(s) > len("{}") {
		emit(Truncate(s, maxGenericLen))
	}
}

// summarizeList renders "(<count> <kind>: <names>)" for a result carrying an
// array under field. With more than maxListInline entries only the first
// listHeadLength names are joined, followed by a "+N more" marker.
func summarizeList(result any, field, kind string, uriFallback bool, emit func(string)) bool {
	obj, ok := result.(map[string]any)
	if !ok {
		return false
	}
	arr, ok := obj[field].([]any)
	if !ok {
		return false
	}

	names := make([]string, 0, len(arr))
	for _, el := range arr {
		name := "?"
		if m, ok := el.(map[string]any); ok {
			if s, ok := m["name"].(string); ok && s != "" {
				name = s
			} else if uriFallback {
				if s, ok := m["uri"].(string); ok && s != "" {
					name = s
				}
			}
		}
		names = append(names, name)
	}

	joined := strings.Join(names, ", ")
	if len(names) > maxListInline {
		joined = fmt.Sprintf("%s +%d more",
			strings.Join(names[:listHeadLength], ", "), len(names)-listHeadLength)
	}
	emit(fmt.Sprintf("(%d %s: %s)", len(names), kind, joined))
	return true
}

// summarizeContent walks a tool result's content blocks in order, one or
// more lines per block, with a trailing "(isError: true)" line when the
// result is flagged as an error.
func summarizeContent(result any, emit func(string)) bool {
	obj, ok := result.(map[string]any)
	if !ok {
		return false
	}
	blocks, ok := obj["content"].([]any)
	if !ok {
		return false
	}

	for _, el := range blocks {
		block, ok := el.(map[string]any)
		if !ok {
			emit("[?] " + Truncate(compactJSON(el), maxBlockLen))
			continue
		}
		blockType, _ := block["type"].(string)
		switch blockType {
		case "text":
			text, _ := block["text"].(string)
			summarizeText(text, emit)
		case "image":
			emit(summarizeImage(block))
		case "resource":
			emit("[resource] " + Truncate(resourceURI(block), maxURILen))
		default:
			if blockType == "" {
				blockType = "?"
			}
			emit("[" + blockType + "] " + Truncate(compactJSON(block), maxBlockLen))
		}
	}

	if truthy(obj["isError"]) {
		emit("(isError: true)")
	}
	return true
}

// summarizeText handles a text content block. Text that parses as a JSON
// object is de-noised, truncated, and pretty-printed across several lines
// under a "[text]" label; anything else is emitted line by line.
func summarizeText(text string, emit func(string)) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		if obj, ok := v.(map[string]any); ok {
			trimmed := TruncateArrays(any(obj), maxArrayItems)
			trimmed = RemoveNoiseFields(trimmed)
			trimmed = TruncateStrings(trimmed, maxStringLen)
			if pretty, err := json.MarshalIndent(trimmed, "", "  "); err == nil {
				emit("[text]")
				for _, line := range strings.Split(string(pretty), "\n") {
					emit(line)
				}
				return
			}
		}
	}
	for _, line := range strings.Split(text, "\n") {
		emit("[text] " + line)
	}
}

// summarizeImage reports the mime type and the decoded payload size, derived
// from the base64 length and rounded to the nearest KB.
func summarizeImage(block map[string]any) string {
	mime, _ := block["mimeType"].(string)
	if mime == "" {
		mime = "?"
	}
	data, _ := block["data"].(string)
	if data == "" {
		return fmt.Sprintf("[image %s] ?", mime)
	}
	kb := int(math.Round(float64(len(data)) * 3 / 4 / 1024))
	return fmt.Sprintf("[image %s] %dKB", mime, kb)
}

// resourceURI digs the uri out of a resource block, looking both at the
// embedded resource object and at the block itself.
func resourceURI(block map[string]any) string {
	if res, ok := block["resource"].(map[string]any); ok {
		if s, ok := res["uri"].(string); ok && s != "" {
			return s
		}
	}
	if s, ok := block["uri"].(string); ok && s != "" {
		return s
	}
	return "?"
}

// summarizeInitialize renders the server identity and its capability keys.
func summarizeInitialize(result any, emit func(string)) bool {
	obj, ok := result.(map[string]any)
	if !ok {
		return false
	}
	caps, ok := obj["capabilities"].(map[string]any)
	if !ok {
		return false
	}

	name, version := "?", "?"
	if info, ok := obj["serverInfo"].(map[string]any); ok {
		if s, ok := info["name"].(string); ok && s != "" {
			name = s
		}
		if s, ok := info["version"].(string); ok && s != "" {
			version = s
		}
	}

	keys := make([]string, 0, len(caps))
	for k := range caps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	emit(fmt.Sprintf("%s v%s  capabilities: %s", name, version, strings.Join(keys, ", ")))
	return true
}

// truthy mirrors loose boolean coercion for flag-like result fields.
func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	default:
		return true
	}
}
