package topology

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FallbackColor is used for any health status missing from the color map.
const FallbackColor = "gray"

// HealthColorMap maps health statuses to display colors.
//
// Unlike a Go map it remembers insertion order, so legends list statuses in
// the order the backend sent them. The zero value is an empty map; a nil
// *HealthColorMap is also safe to query.
type HealthColorMap struct {
	keys   []string
	colors map[string]string
}

// NewHealthColorMap builds a map from alternating status, color pairs.
// It panics on an odd number of arguments.
func NewHealthColorMap(pairs ...string) *HealthColorMap {
	if len(pairs)%2 != 0 {
		panic("topology: NewHealthColorMap needs status/color pairs")
	}
	m := &HealthColorMap{}
	for i := 0; i < len(pairs); i += 2 {
		m.Set(pairs[i], pairs[i+1])
	}
	return m
}

// DefaultHealthColors returns the palette the backend ships with.
func DefaultHealthColors() *HealthColorMap {
	return NewHealthColorMap(
		"healthy", "green",
		"degraded", "orange",
		"critical", "red",
		"unknown", "gray",
	)
}

// Set assigns color to status. Re-setting a status keeps its position.
func (m *HealthColorMap) Set(status, color string) {
	if m.colors == nil {
		m.colors = make(map[string]string)
	}
	if _, ok := m.colors[status]; !ok {
		m.keys = append(m.keys, status)
	}
	m.colors[status] = color
}

// Get returns the color for status and whether it was present.
func (m *HealthColorMap) Get(status string) (string, bool) {
	if m == nil {
		return "", false
	}
	c, ok := m.colors[status]
	return c, ok
}

// Lookup returns the color for status, or [FallbackColor] when the status is
// unknown or maps to an empty color.
func (m *HealthColorMap) Lookup(status string) string {
	if c, ok := m.Get(status); ok && c != "" {
		return c
	}
	return FallbackColor
}

// Len returns the number of statuses.
func (m *HealthColorMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Statuses returns the statuses in insertion order.
func (m *HealthColorMap) Statuses() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Each calls fn for every status in insertion order.
func (m *HealthColorMap) Each(fn func(status, color string)) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		fn(k, m.colors[k])
	}
}

// MarshalJSON writes the map as a JSON object in insertion order.
func (m HealthColorMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(m.colors[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping key order. Non-string values
// are kept as their literal JSON text.
func (m *HealthColorMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("health_color_map: expected object, got %v", tok)
	}

	*m = HealthColorMap{colors: make(map[string]string)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("health_color_map: expected string key, got %v", tok)
		}
		var val lenientText
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("health_color_map[%q]: %w", key, err)
		}
		m.Set(key, string(val))
	}
	_, err = dec.Token()
	return err
}
