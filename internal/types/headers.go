package types

import (
	"encoding/json"
	"strings"
)

// Header is a single name/value pair. Two headers are equal when both fields are.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (h Header) String() string {
	return h.Name + ": " + h.Value
}

// Headers is an ordered multi-map with case-insensitive names.
// The zero value is empty and ready to use.
type Headers struct {
	entries []Header
}

// NewHeaders builds a Headers value from pairs, keeping their order
func NewHeaders(pairs ...Header) Headers {
	h := Headers{entries: make([]Header, 0, len(pairs))}
	for _, p := range pairs {
		h.Add(p.Name, p.Value)
	}
	return h
}

// Add appends a value for name after any existing values
func (h *Headers) Add(name, value string) {
	h.entries = append(h.entries, Header{Name: name, Value: value})
}

// Get returns the first value for name, or ""
func (h Headers) Get(name string) string {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return e.Value
		}
	}
	return ""
}

// Values returns every value for name in insertion order
func (h Headers) Values(name string) []string {
	var values []string
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			values = append(values, e.Value)
		}
	}
	return values
}

// Has reports whether name carries at least one value
func (h Headers) Has(name string) bool {
	for _, e := range h.entries {
		if strings.EqualFold(e.Name, name) {
			return true
		}
	}
	return false
}

// Names returns each distinct name once, spelled as first seen, in insertion order
func (h Headers) Names() []string {
	seen := make(map[string]bool, len(h.entries))
	names := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		key := strings.ToLower(e.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, e.Name)
	}
	return names
}

// All returns a copy of every pair in insertion order
func (h Headers) All() []Header {
	out := make([]Header, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of pairs
func (h Headers) Len() int {
	return len(h.entries)
}

// Map groups values by lower-cased name
func (h Headers) Map() map[string][]string {
	m := make(map[string][]string, len(h.entries))
	for _, e := range h.entries {
		key := strings.ToLower(e.Name)
		m[key] = append(m[key], e.Value)
	}
	return m
}

// MarshalJSON encodes the pairs as an ordered list
func (h Headers) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.All())
}

// UnmarshalJSON decodes an ordered list of pairs
func (h *Headers) UnmarshalJSON(data []byte) error {
	var pairs []Header
	if err := json.Unmarshal(data, &pairs); err != nil {
		return err
	}
	*h = NewHeaders(pairs...)
	return nil
}
