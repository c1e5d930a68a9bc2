// Package serix is the runtime support package imported by generated
// codec code. It provides typed accessors over decoded JSON objects
// (map[string]any) with the loose numeric coercion rules JSON requires:
// numbers may arrive as float64, int, int64, or json.Number depending on
// the decoder, and the accessors normalize all of them.
//
// Generated code never inspects maps directly; every field read goes
// through one of these accessors so decode behavior stays in one place.
package serix

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
)

// Raw returns the raw value stored under key, or nil if absent.
func Raw(m map[string]any, key string) any {
	return m[key]
}

// Has reports whether key is present in the object.
func Has(m map[string]any, key string) bool {
	_, ok := m[key]
	return ok
}

// String returns the string value under key. A missing key yields "".
func String(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", NewCoercionError(key, "string", v)
	}
	return s, nil
}

// Bool returns the bool value under key. A missing key yields false.
func Bool(m map[string]any, key string) (bool, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, NewCoercionError(key, "bool", v)
	}
	return b, nil
}

// Int returns the int value under key. A missing key yields 0.
// Fractional float input is rejected rather than truncated.
func Int(m map[string]any, key string) (int, error) {
	n, err := Int64(m, key)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Int64 returns the int64 value under key. A missing key yields 0.
func Int64(m map[string]any, key string) (int64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, NewCoercionError(key, "int64", v)
		}
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, NewCoercionError(key, "int64", v)
		}
		return i, nil
	default:
		return 0, NewCoercionError(key, "int64", v)
	}
}

// Float64 returns the float64 value under key. A missing key yields 0.
func Float64(m map[string]any, key string) (float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, NewCoercionError(key, "float64", v)
		}
		return f, nil
	default:
		return 0, NewCoercionError(key, "float64", v)
	}
}

// Time returns the time.Time value under key, parsed from an RFC 3339
// string. A missing key yields the zero time.
func Time(m map[string]any, key string) (time.Time, error) {
	s, err := String(m, key)
	if err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, NewCoercionError(key, "time.Time", s)
	}
	return t, nil
}

// UUID returns the uuid.UUID value under key, parsed from its string
// form. A missing key yields uuid.Nil.
func UUID(m map[string]any, key string) (uuid.UUID, error) {
	s, err := String(m, key)
	if err != nil {
		return uuid.Nil, err
	}
	if s == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, NewCoercionError(key, "uuid.UUID", s)
	}
	return id, nil
}

// Object returns the nested object under key. A missing key yields nil.
func Object(m map[string]any, key string) (map[string]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	sub, ok := v.(map[string]any)
	if !ok {
		return nil, NewCoercionError(key, "object", v)
	}
	return sub, nil
}

// StringSlice returns the []string value under key. A missing key
// yields nil.
func StringSlice(m map[string]any, key string) ([]string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch s := v.(type) {
	case []string:
		return s, nil
	case []any:
		out := make([]string, len(s))
		for i, e := range s {
			es, ok := e.(string)
			if !ok {
				return nil, NewCoercionError(key, "[]string", e)
			}
			out[i] = es
		}
		return out, nil
	default:
		return nil, NewCoercionError(key, "[]string", v)
	}
}

// AnySlice returns the []any value under key. A missing key yields nil.
func AnySlice(m map[string]any, key string) ([]any, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, NewCoercionError(key, "[]any", v)
	}
	return s, nil
}
