package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
)

// Unmarshal decodes a single JSON value, keeping numbers as json.Number.
// Trailing data after the value is an error.
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

// CoerceID accepts a non-blank string (trimmed) or a finite number.
func CoerceID(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case json.Number:
		return formatNumber(x)
	case float64:
		return formatFloat(x)
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	}
	return "", false
}

// CoerceString follows the same rule as CoerceID.
func CoerceString(v any) (string, bool) {
	return CoerceID(v)
}

// CoerceRoute returns nil for an absent, blank or non-scalar route.
func CoerceRoute(v any) *string {
	s, ok := CoerceString(v)
	if !ok {
		return nil
	}
	return &s
}

// CoerceBool maps booleans, boolean-like strings and numbers to a bool.
// Unrecognised values are false.
func CoerceBool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1", "yes", "y", "on":
			return true
		}
		return false
	case json.Number:
		f, err := x.Float64()
		if err != nil || math.IsNaN(f) {
			return false
		}
		return f != 0
	case float64:
		return !math.IsNaN(x) && x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	}
	return false
}

func formatNumber(n json.Number) (string, bool) {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return strconv.FormatInt(i, 10), true
	}
	f, err := n.Float64()
	if err != nil {
		return "", false
	}
	return formatFloat(f)
}

func formatFloat(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), true
}

// lookup returns the value of the first key present in obj, null included.
func lookup(obj map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok {
			return v, true
		}
	}
	return nil, false
}

// lookupValue returns the first non-null value among keys.
func lookupValue(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v := obj[k]; v != nil {
			return v
		}
	}
	return nil
}
