package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// propEntry is one key/value pair inside a Properties bag.
type propEntry struct {
	key   string
	value Value
}

// Properties is an insertion-ordered mapping from string keys to typed
// values. Keys are unique; setting an existing key overwrites its value
// in place and keeps the original position. Keys that are format-private
// extensions rather than core vocabulary are namespaced by convention
// ("bibtex:entrytype").
//
// The zero value is an empty bag ready for use.
type Properties struct {
	entries []propEntry
}

// Set inserts or overwrites a key.
func (p *Properties) Set(key string, v Value) {
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries[i].value = v
			return
		}
	}
	p.entries = append(p.entries, propEntry{key: key, value: v})
}

// SetString sets a string property.
func (p *Properties) SetString(key, v string) { p.Set(key, StringValue(v)) }

// SetInt sets an integer property.
func (p *Properties) SetInt(key string, v int64) { p.Set(key, IntValue(v)) }

// SetFloat sets a float property.
func (p *Properties) SetFloat(key string, v float64) { p.Set(key, FloatValue(v)) }

// SetBool sets a boolean property.
func (p *Properties) SetBool(key string, v bool) { p.Set(key, BoolValue(v)) }

// SetList sets a list property.
func (p *Properties) SetList(key string, vs ...Value) { p.Set(key, ListValue(vs...)) }

// Get returns the value for a key and true if present.
func (p *Properties) Get(key string) (Value, bool) {
	for i := range p.entries {
		if p.entries[i].key == key {
			return p.entries[i].value, true
		}
	}
	return Value{}, false
}

// GetString returns the string value for a key. A missing key and a
// value of a different kind both report false.
func (p *Properties) GetString(key string) (string, bool) {
	v, ok := p.Get(key)
	if !ok {
		return "", false
	}
	return v.Str()
}

// GetInt returns the integer value for a key.
func (p *Properties) GetInt(key string) (int64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.Int()
}

// GetFloat returns the float value for a key. Integer values are
// readable as floats.
func (p *Properties) GetFloat(key string) (float64, bool) {
	v, ok := p.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float()
}

// GetBool returns the boolean value for a key.
func (p *Properties) GetBool(key string) (bool, bool) {
	v, ok := p.Get(key)
	if !ok {
		return false, false
	}
	return v.Bool()
}

// GetList returns the list value for a key.
func (p *Properties) GetList(key string) ([]Value, bool) {
	v, ok := p.Get(key)
	if !ok {
		return nil, false
	}
	return v.List()
}

// Has returns true if the key is present, regardless of its value kind.
func (p *Properties) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

// Delete removes a key and returns true if it was present.
func (p *Properties) Delete(key string) bool {
	for i := range p.entries {
		if p.entries[i].key == key {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of keys.
func (p *Properties) Len() int { return len(p.entries) }

// IsZero returns true if the bag is empty. Used by encoding/json for
// the omitzero tag option.
func (p Properties) IsZero() bool { return len(p.entries) == 0 }

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	keys := make([]string, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.key
	}
	return keys
}

// Iterate calls fn for each key/value pair in insertion order. Iteration
// stops early if fn returns false.
func (p *Properties) Iterate(fn func(key string, v Value) bool) {
	for _, e := range p.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Clone returns a deep copy of the bag.
func (p *Properties) Clone() Properties {
	if len(p.entries) == 0 {
		return Properties{}
	}
	entries := make([]propEntry, len(p.entries))
	for i, e := range p.entries {
		entries[i] = propEntry{key: e.key, value: e.value.Clone()}
	}
	return Properties{entries: entries}
}

// Equal reports whether two bags hold the same keys in the same order
// with equal values.
func (p *Properties) Equal(o *Properties) bool {
	if len(p.entries) != len(o.entries) {
		return false
	}
	for i := range p.entries {
		if p.entries[i].key != o.entries[i].key {
			return false
		}
		if !p.entries[i].value.Equal(o.entries[i].value) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the bag as a JSON object whose members appear in
// insertion order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range p.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(e.value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving member order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("properties: expected JSON object, got %v", tok)
	}
	p.entries = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("properties: expected string key, got %v", keyTok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("properties: key %q: %w", key, err)
		}
		p.Set(key, v)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
