package params

import (
	"fmt"
	"sort"
)

// Set holds the typed values parsed from a parameter file.
type Set struct {
	values map[string]any
}

func NewSet() *Set {
	return &Set{values: make(map[string]any)}
}

func (s *Set) put(key string, v any) {
	s.values[key] = v
}

func (s *Set) SetString(key, v string)      { s.put(key, v) }
func (s *Set) SetUint(key string, v uint64) { s.put(key, v) }
func (s *Set) SetBool(key string, v bool)   { s.put(key, v) }
func (s *Set) SetFloats(key string, v []float64) {
	cp := make([]float64, len(v))
	copy(cp, v)
	s.put(key, cp)
}

func (s *Set) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *Set) Len() int {
	return len(s.values)
}

func (s *Set) String(key string) (string, bool) {
	v, ok := s.values[key].(string)
	return v, ok
}

func (s *Set) Uint(key string) (uint64, bool) {
	v, ok := s.values[key].(uint64)
	return v, ok
}

func (s *Set) Bool(key string) (bool, bool) {
	v, ok := s.values[key].(bool)
	return v, ok
}

// Floats returns a copy of the list stored under key.
func (s *Set) Floats(key string) ([]float64, bool) {
	v, ok := s.values[key].([]float64)
	if !ok {
		return nil, false
	}
	cp := make([]float64, len(v))
	copy(cp, v)
	return cp, true
}

// Value returns the raw stored value.
func (s *Set) Value(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the present keys in sorted order.
func (s *Set) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a shallow copy of the values, suitable for encoding.
func (s *Set) Map() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Strings renders every value in file syntax, without rounding. Unlike Map
// the result holds non-finite floats as NaN, +Inf and -Inf.
func (s *Set) Strings() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		text, err := FormatValue(v, -1)
		if err != nil {
			text = fmt.Sprint(v)
		}
		out[k] = text
	}
	return out
}
