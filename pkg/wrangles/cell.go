package wrangles

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Normalize folds Go values into the cell representations a Frame holds.
func Normalize(v any) any {
	switch t := v.(type) {
	case int:
		return int64(t)
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case uint:
		return int64(t)
	case uint8:
		return int64(t)
	case uint16:
		return int64(t)
	case uint32:
		return int64(t)
	case uint64:
		return int64(t)
	case float32:
		return float64(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[String(k)] = Normalize(x)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	}
	return v
}

// KindOf reports the logical kind of a non-nil cell.
func KindOf(v any) Kind {
	switch Normalize(v).(type) {
	case bool:
		return KindBool
	case int64:
		return KindInt
	case float64:
		return KindFloat
	case string:
		return KindString
	case time.Time:
		return KindTime
	case []any:
		return KindList
	case map[string]any:
		return KindMap
	}
	return KindMixed
}

// String renders a cell as text. Null is "", lists and maps are JSON.
func String(v any) string {
	switch t := Normalize(v).(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if math.IsNaN(t) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case []byte:
		return string(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// IsEmpty is true for null cells and empty strings.
func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	if f, ok := v.(float64); ok {
		return math.IsNaN(f)
	}
	return false
}

// Float converts numeric cells and numeric strings.
func Float(v any) (float64, bool) {
	switch t := Normalize(v).(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, !math.IsNaN(t)
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		x, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return x, err == nil
	}
	return 0, false
}

// List returns list cells, decoding JSON array strings.
func List(v any) ([]any, bool) {
	switch t := Normalize(v).(type) {
	case []any:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			var out []any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out, true
			}
		}
	}
	return nil, false
}

// Map returns map cells, decoding JSON object strings.
func Map(v any) (map[string]any, bool) {
	switch t := Normalize(v).(type) {
	case map[string]any:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			var out map[string]any
			if err := json.Unmarshal([]byte(s), &out); err == nil {
				return out, true
			}
		}
	}
	return nil, false
}

// Compare orders two cells: nulls first, numbers numerically, then text.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	ta, aok := Normalize(a).(time.Time)
	tb, bok := Normalize(b).(time.Time)
	if aok && bok {
		return ta.Compare(tb)
	}
	_, aStr := a.(string)
	_, bStr := b.(string)
	if !aStr && !bStr {
		fa, ok1 := Float(a)
		fb, ok2 := Float(b)
		if ok1 && ok2 {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(String(a), String(b))
}
