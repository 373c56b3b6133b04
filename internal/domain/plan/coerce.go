package plan

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Object is a decoded JSON object whose members are read leniently: a value
// of the wrong type reads as absent instead of failing the whole payload.
type Object map[string]json.RawMessage

// AsObject decodes raw as an object, reporting false for any other JSON kind.
func AsObject(raw json.RawMessage) (Object, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj Object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// Has reports whether key is present with a truthy value: not null, false,
// zero, or the empty string.
func (o Object) Has(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	switch v := decodeAny(raw).(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}

// String returns the first key holding a non-empty string.
func (o Object) String(keys ...string) string {
	for _, key := range keys {
		if s, ok := o.str(key); ok && s != "" {
			return s
		}
	}
	return ""
}

func (o Object) str(key string) (string, bool) {
	raw, ok := o[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Number returns the first key holding a JSON number.
func (o Object) Number(keys ...string) (float64, bool) {
	for _, key := range keys {
		var f float64
		if raw, ok := o[key]; ok && json.Unmarshal(raw, &f) == nil {
			return f, true
		}
	}
	return 0, false
}

// Coerce returns the first key whose value converts to a finite number,
// accepting numeric strings.
func (o Object) Coerce(keys ...string) (float64, bool) {
	for _, key := range keys {
		if raw, ok := o[key]; ok {
			if f, ok := CoerceNumber(raw); ok {
				return f, true
			}
		}
	}
	return 0, false
}

// Strings returns the string members of an array value, or nil.
func (o Object) Strings(key string) []string {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// CoerceNumber converts a JSON number, numeric string or boolean to a finite
// float. A blank string reads as zero; null and unparsable values report false.
func CoerceNumber(raw json.RawMessage) (float64, bool) {
	switch v := decodeAny(raw).(type) {
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func decodeAny(raw json.RawMessage) interface{} {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
