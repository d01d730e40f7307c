// Package jsonutil decodes JSON written by language models, which is looser than the
// shapes it was asked for.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotArray is returned by UnwrapArray when no array can be found.
var ErrNotArray = errors.New("JSON value is not an array")

// FlexibleStringValue converts a json.RawMessage to a string, accepting numbers and
// booleans where a string was expected. Null and empty input give "".
func FlexibleStringValue(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return strconv.FormatInt(int64(numVal), 10)
		}
		return strconv.FormatFloat(numVal, 'g', -1, 64)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return strconv.FormatBool(boolVal)
	}

	// Objects and arrays are kept as their JSON text.
	return string(raw)
}

// FlexibleString is a string field that also accepts JSON numbers, booleans and null.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

// String returns the decoded value.
func (s FlexibleString) String() string {
	return string(s)
}

// UnwrapArray returns raw when it is a JSON array. When raw is an object holding an array
// under one of keys, that array is returned; an object with a single array member is
// accepted whatever its key.
func UnwrapArray(raw []byte, keys ...string) ([]byte, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, ErrNotArray
	}
	switch raw[0] {
	case '[':
		return raw, nil
	case '{':
	default:
		return nil, ErrNotArray
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}

	for _, key := range keys {
		if v, ok := obj[key]; ok && isArray(v) {
			return bytes.TrimSpace(v), nil
		}
	}

	var only []byte
	for _, v := range obj {
		if isArray(v) {
			if only != nil {
				return nil, fmt.Errorf("%w: object holds more than one array", ErrNotArray)
			}
			only = bytes.TrimSpace(v)
		}
	}
	if only == nil {
		return nil, ErrNotArray
	}
	return only, nil
}

func isArray(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}
