package fieldmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// absent is the type of Absent.
type absent struct{}

// MarshalJSON encodes Absent as null.
func (absent) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

func (absent) String() string { return "<absent>" }

// Absent is stored by Transform for a target whose source field does not exist in the
// source record. It keeps the target key present in the result (one key per mapping entry)
// while staying distinguishable from an explicit null. Encodes as JSON null.
var Absent any = absent{}

// IsAbsent reports whether v is the Absent marker.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Record is an insertion-ordered set of fields: text key to arbitrary value
// (string, number, bool, nil, nested object, sequence, or Absent). Decoded records hold numbers
// as json.Number and nested objects as *Record.
// The zero value is an empty record ready to use. A Record is not safe for concurrent writes.
type Record struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{fields: orderedmap.New[string, any]()}
}

// RecordOf builds a Record from alternating key/value arguments, e.g. RecordOf("a", 1, "b", "x").
// It panics on an odd argument count or a non-string key; intended for literals and tests.
func RecordOf(kv ...any) *Record {
	if len(kv)%2 != 0 {
		panic("fieldmap: RecordOf requires key/value pairs")
	}
	r := NewRecord()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("fieldmap: RecordOf key %v is not a string", kv[i]))
		}
		r.Set(key, kv[i+1])
	}
	return r
}

func (r *Record) init() {
	if r.fields == nil {
		r.fields = orderedmap.New[string, any]()
	}
}

// Set stores value under key. A new key is appended; an existing key keeps its position.
func (r *Record) Set(key string, value any) {
	r.init()
	r.fields.Set(key, value)
}

// Get returns the value stored under key and whether the key is present.
func (r *Record) Get(key string) (any, bool) {
	if r == nil || r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Len returns the number of fields.
func (r *Record) Len() int {
	if r == nil || r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// Keys returns field names in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	for k := range r.All() {
		keys = append(keys, k)
	}
	return keys
}

// All iterates fields in insertion order.
func (r *Record) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r == nil || r.fields == nil {
			return
		}
		for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Map returns the fields as a plain map. Values are shared, not copied.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, r.Len())
	for k, v := range r.All() {
		m[k] = v
	}
	return m
}

// MarshalJSON encodes the record as a JSON object with keys in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.fields == nil {
		return []byte("{}"), nil
	}
	return r.fields.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object, keeping key order. Anything other than an object is an error.
// Values are decoded losslessly: numbers become json.Number, nested objects become *Record
// (so their key order survives too) and arrays become []any of the same.
func (r *Record) UnmarshalJSON(data []byte) error {
	fields, err := decodeRecord(data)
	if err != nil {
		return fmt.Errorf("record: %w", err)
	}
	r.fields = fields
	return nil
}

func decodeRecord(data []byte) (*orderedmap.OrderedMap[string, any], error) {
	raw := orderedmap.New[string, json.RawMessage]()
	if err := unmarshalObject(data, raw.UnmarshalJSON); err != nil {
		return nil, err
	}
	fields := orderedmap.New[string, any](raw.Len())
	for pair := raw.Oldest(); pair != nil; pair = pair.Next() {
		v, err := decodeValue(pair.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", pair.Key, err)
		}
		fields.Set(pair.Key, v)
	}
	return fields, nil
}

func decodeValue(data json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}
	switch trimmed[0] {
	case '{':
		fields, err := decodeRecord(trimmed)
		if err != nil {
			return nil, err
		}
		return &Record{fields: fields}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := decodeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// unmarshalObject rejects non-object JSON before handing data to decode.
func unmarshalObject(data []byte, decode func([]byte) error) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("expected JSON object, got %s", jsonKind(trimmed))
	}
	return decode(trimmed)
}

func jsonKind(data []byte) string {
	if len(data) == 0 {
		return "empty input"
	}
	switch data[0] {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		if json.Valid(data) {
			return "number"
		}
		return "invalid JSON"
	}
}
