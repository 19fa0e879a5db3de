package fieldmap

import (
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FieldMapping declares target field name -> source field name rules, in insertion order.
// Source names are plain keys; "address.city" names a field literally called "address.city".
// The zero value is an empty mapping ready to use.
type FieldMapping struct {
	rules *orderedmap.OrderedMap[string, string]
}

// NewFieldMapping returns an empty FieldMapping.
func NewFieldMapping() *FieldMapping {
	return &FieldMapping{rules: orderedmap.New[string, string]()}
}

// MappingOf builds a FieldMapping from alternating target/source pairs,
// e.g. MappingOf("name", "first_name", "years", "age"). It panics on an odd argument count.
func MappingOf(pairs ...string) *FieldMapping {
	if len(pairs)%2 != 0 {
		panic("fieldmap: MappingOf requires target/source pairs")
	}
	m := NewFieldMapping()
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// Set declares that target is read from source.
func (m *FieldMapping) Set(target, source string) {
	if m.rules == nil {
		m.rules = orderedmap.New[string, string]()
	}
	m.rules.Set(target, source)
}

// Source returns the source field for target.
func (m *FieldMapping) Source(target string) (string, bool) {
	if m == nil || m.rules == nil {
		return "", false
	}
	return m.rules.Get(target)
}

// Len returns the number of rules.
func (m *FieldMapping) Len() int {
	if m == nil || m.rules == nil {
		return 0
	}
	return m.rules.Len()
}

// All iterates (target, source) pairs in insertion order.
func (m *FieldMapping) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil || m.rules == nil {
			return
		}
		for pair := m.rules.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// MarshalJSON encodes the mapping as a JSON object in rule order.
func (m *FieldMapping) MarshalJSON() ([]byte, error) {
	if m == nil || m.rules == nil {
		return []byte("{}"), nil
	}
	return m.rules.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object whose values are strings.
func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	rules := orderedmap.New[string, string]()
	if err := unmarshalObject(data, rules.UnmarshalJSON); err != nil {
		return fmt.Errorf("field mapping: %w", err)
	}
	m.rules = rules
	return nil
}
