package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// ErrNotAnObject is returned by Decode for valid JSON whose top level is
// not an object (arrays, bare scalars, null).
var ErrNotAnObject = errors.New("payload must be a JSON object")

// ErrTrailingData is returned by Decode when bytes follow the first
// JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON payload")

// Payload is one decoded webhook body. The companion app sends a loosely
// structured document; every accessor tolerates missing or mistyped keys.
type Payload map[string]any

// Decode parses a webhook body. It fails on invalid JSON and on bodies
// whose top level is not an object.
func Decode(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	// json.Decoder stops after one value; the whole body must be it.
	if err := dec.Decode(new(any)); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, ErrNotAnObject
	}
	return Payload(obj), nil
}

// Lookup walks a dot-separated path ("sleep.info.score") and reports
// whether the full path exists. A found nil value counts as found.
func (p Payload) Lookup(path string) (any, bool) {
	var value any = map[string]any(p)
	for _, key := range strings.Split(path, ".") {
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		value, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return value, true
}

// Number resolves a path to a float64. Unparsable values are treated as
// absent rather than errors.
func (p Payload) Number(path string) (float64, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

// Int resolves a path to an int, truncating fractional values.
func (p Payload) Int(path string) (int, bool) {
	f, ok := p.Number(path)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// String resolves a path to a string.
func (p Payload) String(path string) (string, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Section returns a top-level object ("device", "user", ...) or an empty
// map when absent or not an object.
func (p Payload) Section(name string) map[string]any {
	v, ok := p[name]
	if !ok {
		return map[string]any{}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return obj
}

// List resolves a path to a slice of objects, skipping non-object elements.
func (p Payload) List(path string) []map[string]any {
	v, ok := p.Lookup(path)
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, el := range raw {
		if obj, ok := el.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
