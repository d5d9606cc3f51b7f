package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Documents maps document keys to text and remembers insertion order.
// The zero value is empty and ready to use.
type Documents struct {
	keys  []string
	texts map[string]string
}

// Set stores text under key. A new key is appended to the order; an
// existing key keeps its position.
func (d *Documents) Set(key, text string) {
	if d.texts == nil {
		d.texts = make(map[string]string)
	}
	if _, ok := d.texts[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.texts[key] = text
}

// Get returns the text stored under key.
func (d Documents) Get(key string) (string, bool) {
	text, ok := d.texts[key]
	return text, ok
}

// Keys returns the keys in insertion order.
func (d Documents) Keys() []string {
	return append([]string(nil), d.keys...)
}

// Len returns the number of documents.
func (d Documents) Len() int {
	return len(d.keys)
}

// Each calls fn for every document in insertion order.
func (d Documents) Each(fn func(key, text string)) {
	for _, k := range d.keys {
		fn(k, d.texts[k])
	}
}

// Clone returns an independent copy.
func (d Documents) Clone() Documents {
	var out Documents
	d.Each(out.Set)
	return out
}

// Equal reports whether both hold the same documents in the same order.
func (d Documents) Equal(other Documents) bool {
	if len(d.keys) != len(other.keys) {
		return false
	}
	for i, k := range d.keys {
		if other.keys[i] != k || other.texts[k] != d.texts[k] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the documents as a JSON object in insertion order.
func (d Documents) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range d.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(d.texts[k])
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

// UnmarshalJSON decodes a JSON object, keeping the key order of the input.
func (d *Documents) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*d = Documents{}
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("documents: expected JSON object, got %v", tok)
	}
	*d = Documents{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("documents: expected string key, got %v", tok)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return err
		}
		d.Set(key, text)
	}
	_, err = dec.Token()
	return err
}
