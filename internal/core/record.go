package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Record is one row of a table: an ordered list of values, optionally keyed
// by field names.
//
// A Record built with names is associative, even when the names look like
// numbers. A Record built with Positional has no names; its keys are the
// natural indices "0".."n-1".
//
// When names repeat, Get and Set address the first occurrence.
type Record struct {
	keys   []string
	values []string
}

// NewRecord builds an associative record. values is padded with empty
// strings or truncated to match len(keys).
func NewRecord(keys []string, values []string) Record {
	r := Record{
		keys:   slices.Clone(keys),
		values: make([]string, len(keys)),
	}
	if r.keys == nil {
		r.keys = []string{}
	}
	copy(r.values, values)
	return r
}

// Positional builds a record without field names.
func Positional(values ...string) Record {
	return Record{values: slices.Clone(values)}
}

// Pairs builds an associative record from alternating key, value arguments.
// A trailing key without a value gets the empty string.
func Pairs(kv ...string) Record {
	r := Record{keys: []string{}}
	for i := 0; i < len(kv); i += 2 {
		v := ""
		if i+1 < len(kv) {
			v = kv[i+1]
		}
		r.keys = append(r.keys, kv[i])
		r.values = append(r.values, v)
	}
	return r
}

// IsPositional reports whether the record has no field names.
func (r Record) IsPositional() bool {
	return r.keys == nil
}

// Len returns the number of fields.
func (r Record) Len() int {
	return len(r.values)
}

// Keys returns the field names, or the positional indices as strings.
func (r Record) Keys() []string {
	if r.keys != nil {
		return slices.Clone(r.keys)
	}
	keys := make([]string, len(r.values))
	for i := range keys {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

// Values returns a copy of the values in field order.
func (r Record) Values() []string {
	return slices.Clone(r.values)
}

// Index returns the position of key, or -1. For positional records key
// must be a decimal index in range.
func (r Record) Index(key string) int {
	if r.keys == nil {
		i, err := strconv.Atoi(key)
		if err != nil || i < 0 || i >= len(r.values) {
			return -1
		}
		return i
	}
	return slices.Index(r.keys, key)
}

// Get returns the value stored under key.
func (r Record) Get(key string) (string, bool) {
	i := r.Index(key)
	if i < 0 {
		return "", false
	}
	return r.values[i], true
}

// At returns the value at position i, or "" when i is out of range.
func (r Record) At(i int) string {
	if i < 0 || i >= len(r.values) {
		return ""
	}
	return r.values[i]
}

// Set stores value under key. Unknown keys are appended to associative
// records and ignored on positional ones.
func (r *Record) Set(key, value string) {
	if i := r.Index(key); i >= 0 {
		r.values[i] = value
		return
	}
	if r.keys == nil {
		return
	}
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
}

// SetAt replaces the value at position i. Out of range positions are ignored.
func (r *Record) SetAt(i int, value string) {
	if i >= 0 && i < len(r.values) {
		r.values[i] = value
	}
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	c := Record{values: slices.Clone(r.values)}
	if r.keys != nil {
		c.keys = slices.Clone(r.keys)
	}
	return c
}

// Equal reports whether both records have the same kind, keys and values.
func (r Record) Equal(o Record) bool {
	if r.IsPositional() != o.IsPositional() {
		return false
	}
	return slices.Equal(r.keys, o.keys) && slices.Equal(r.values, o.values)
}

// ValuesFor returns the record's values laid out in header order. Names
// missing from the record become empty strings. Positional records are
// returned as is.
func (r Record) ValuesFor(header []string) []string {
	if r.keys == nil || header == nil || slices.Equal(r.keys, header) {
		return slices.Clone(r.values)
	}
	out := make([]string, len(header))
	for i, name := range header {
		out[i], _ = r.Get(name)
	}
	return out
}

func (r Record) String() string {
	if r.keys == nil {
		return fmt.Sprint(r.values)
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%q", k, r.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

// MarshalJSON encodes associative records as objects with keys in field
// order and positional records as arrays.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.keys == nil {
		if r.values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(r.values)
	}
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// UnmarshalJSON accepts an object (associative, key order preserved) or an
// array (positional). Values must be strings or null; null becomes "".
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch tok {
	case json.Delim('['):
		var values []string
		for dec.More() {
			v, err := stringToken(dec)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		*r = Positional(values...)
		if r.values == nil {
			r.values = []string{}
		}
		return nil

	case json.Delim('{'):
		rec := Record{keys: []string{}}
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return err
			}
			key, _ := kt.(string)
			v, err := stringToken(dec)
			if err != nil {
				return err
			}
			rec.Set(key, v)
		}
		*r = rec
		return nil
	}
	return fmt.Errorf("record: expected object or array, got %v", tok)
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	switch v := tok.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	}
	return "", fmt.Errorf("record: field values must be strings, got %v", tok)
}
