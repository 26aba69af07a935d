// Copyright 2024 The Transmog Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Object is the ordered mapping form every record's objects are
// normalized to before the flattener walks them (spec.md §3: "Mapping
// key order is preserved for deterministic column order"). Values
// read token-by-token off a JSON stream keep their source order;
// values built from a plain Go map[string]any — which the language
// itself does not order — fall back to a sorted key order so that
// column order is at least stable across runs rather than random.
type Object struct {
	keys []string
	vals map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{vals: make(map[string]any)}
}

// Set assigns value to key, appending key to the iteration order the
// first time it's written.
func (o *Object) Set(key string, value any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = value
}

// Get returns the value at key and whether it is present.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the field names in iteration order.
func (o *Object) Keys() []string {
	return o.keys
}

// MarshalJSON renders the object with its fields in iteration order,
// which encoding/json cannot do for a plain map[string]any.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(o.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ToRecord normalizes an arbitrary Go value into the tree shape the
// flattener expects: *Object for mappings (sorted by key when the
// source was a plain map[string]any), []any for sequences, and
// scalars unchanged.
func ToRecord(v any) any {
	switch t := v.(type) {
	case *Object:
		return t
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Set(k, ToRecord(t[k]))
		}
		return o
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = ToRecord(e)
		}
		return out
	default:
		return v
	}
}

// DecodeJSON parses one JSON value from r, preserving object key
// order exactly as it appears in the source (spec.md §3), and using
// json.Number for numeric literals so the flattener can distinguish
// integers from floats (spec.md §4.7.2's "mixed int+float -> float64"
// rule needs that distinction).
func DecodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	return v, nil
}

// DecodeJSONBytes is DecodeJSON over an in-memory buffer.
func DecodeJSONBytes(data []byte) (any, error) {
	return DecodeJSON(bytes.NewReader(data))
}

// DecodeJSONValue reads one JSON value off an already-open decoder,
// preserving object key order the same way DecodeJSON does. It lets a
// caller streaming a larger document (a top-level array, for example)
// decode each element through the order-preserving path without
// starting a fresh decoder per element.
func DecodeJSONValue(dec *json.Decoder) (any, error) {
	return decodeValue(dec)
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeFromToken(dec, tok)
}

func decodeFromToken(dec *json.Decoder, tok json.Token) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", t)
		}
	default:
		return tok, nil
	}
}

func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	// consume the closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	var arr []any
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		arr = append(arr, val)
	}
	// consume the closing ']'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return arr, nil
}
