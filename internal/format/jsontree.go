package format

import (
	"encoding/json"
	"fmt"
)

// rewrite walks a decoded JSON value depth-first, handing each node to fn
// along with whether the node sits directly inside an array. fn returns the
// node's replacement; rewrite then recurses into the replacement's children.
// All three tree transforms below are specializations of this one walker.
func rewrite(v any, inArray bool, fn func(node any, inArray bool) any) any {
	v = fn(v, inArray)
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = rewrite(e, false, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = rewrite(e, true, fn)
		}
		return out
	default:
		return v
	}
}

// TruncateArrays caps every array in v (at any depth) at maxItems elements.
// Excess elements collapse into one trailing "...+N more" string where N is
// the number removed, so the result never exceeds maxItems+1 elements.
func TruncateArrays(v any, maxItems int) any {
	return rewrite(v, false, func(node any, _ bool) any {
		arr, ok := node.([]any)
		if !ok || len(arr) <= maxItems {
			return node
		}
		out := make([]any, 0, maxItems+1)
		out = append(out, arr[:maxItems]...)
		out = append(out, fmt.Sprintf("...+%d more", len(arr)-maxItems))
		return out
	})
}

// RemoveNoiseFields strips "id" and "timestamp" keys, and "graphql" keys
// whose value is an empty object, from objects that are direct array
// elements. Identical keys at the top level or nested inside a non-array
// container are kept.
func RemoveNoiseFields(v any) any {
	return rewrite(v, false, func(node any, inArray bool) any {
		obj, ok := node.(map[string]any)
		if !ok || !inArray {
			return node
		}
		out := make(map[string]any, len(obj))
		for k, e := range obj {
			switch k {
			case "id", "timestamp":
				continue
			case "graphql":
				if m, ok := e.(map[string]any); ok && len(m) == 0 {
					continue
				}
			}
			out[k] = e
		}
		return out
	})
}

// TruncateStrings caps every string value in v at maxLen characters,
// appending "..." per Truncate when a value exceeds the cap.
func TruncateStrings(v any, maxLen int) any {
	return rewrite(v, false, func(node any, _ bool) any {
		if s, ok := node.(string); ok {
			return Truncate(s, maxLen)
		}
		return node
	})
}

// TryFormatJSON pretty-prints text with 2-space indentation when it parses
// as JSON with an object or array at the top level. Primitives and invalid
// text report false.
func TryFormatJSON(text string) (string, bool) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return "", false
	}
	switch v.(type) {
	case map[string]any, []any:
	default:
		return "", false
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", false
	}
	return string(pretty), true
}

// compactJSON renders v on one line; the empty string means v could not be
// marshalled at all.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
