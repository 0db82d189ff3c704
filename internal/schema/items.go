package schema

import (
	"bytes"
	"encoding/json"
	"iter"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Items is a name-keyed mapping of Items that remembers insertion order.
// Setting an existing name replaces the Item in place.
type Items struct {
	keys   []string
	byName map[string]*Item
}

// NewItems returns an empty mapping.
func NewItems() *Items {
	return &Items{byName: make(map[string]*Item)}
}

// Set inserts or replaces the Item stored under name.
func (m *Items) Set(name string, it *Item) {
	if m.byName == nil {
		m.byName = make(map[string]*Item)
	}
	if _, ok := m.byName[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.byName[name] = it
}

// Get returns the Item stored under name.
func (m *Items) Get(name string) (*Item, bool) {
	if m == nil {
		return nil, false
	}
	it, ok := m.byName[name]
	return it, ok
}

// Len returns the number of entries.
func (m *Items) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the names in insertion order.
func (m *Items) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// All iterates over the entries in insertion order.
func (m *Items) All() iter.Seq2[string, *Item] {
	return func(yield func(string, *Item) bool) {
		if m == nil {
			return
		}
		for _, k := range m.keys {
			if !yield(k, m.byName[k]) {
				return
			}
		}
	}
}

// Merge copies every entry of other into m. Entries of other win.
func (m *Items) Merge(other *Items) {
	for k, it := range other.All() {
		m.Set(k, it)
	}
}

// Filter returns a new mapping holding the entries keep accepts.
func (m *Items) Filter(keep func(name string, it *Item) (bool, error)) (*Items, error) {
	out := NewItems()
	for k, it := range m.All() {
		ok, err := keep(k, it)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Set(k, it)
		}
	}
	return out, nil
}

// MarshalJSON encodes the mapping as a JSON object in insertion order.
func (m *Items) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(m.byName[k]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the order of its keys.
func (m *Items) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.Errorf("schema: items: expected object, got %v", tok)
	}
	*m = Items{byName: make(map[string]*Item)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("schema: items: expected key, got %v", tok)
		}
		var it Item
		if err := dec.Decode(&it); err != nil {
			return errors.Errorf("schema: items: %s: %w", key, err)
		}
		m.Set(key, &it)
	}
	_, err = dec.Token()
	return err
}

// MarshalYAML encodes the mapping as an ordered YAML mapping.
func (m *Items) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for k, it := range m.All() {
		var val yaml.Node
		if err := val.Encode(it); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: k}, &val)
	}
	return node, nil
}

// UnmarshalYAML decodes an ordered YAML mapping.
func (m *Items) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return errors.Errorf("schema: items: expected mapping at line %d", value.Line)
	}
	*m = Items{byName: make(map[string]*Item)}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var it Item
		if err := value.Content[i+1].Decode(&it); err != nil {
			return err
		}
		m.Set(value.Content[i].Value, &it)
	}
	return nil
}
