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

// Package columnar holds the type-inference and schema-locking logic
// shared by the Parquet and ORC backends (spec.md §4.7.2): both lock
// a column set and a type per column from the first non-empty batch
// and reject unseen columns in a later batch (ORC's writer can't add
// columns mid-file; Parquet is locked the same way here for symmetry
// — spec.md §9 allows either behavior).
package columnar

import (
	"encoding/json"
	"fmt"

	"github.com/scottdraper8/transmog/internal/engine"
)

// Kind is the inferred storage type of one column.
type Kind int

const (
	KindString Kind = iota
	KindInt64
	KindFloat64
	KindBool
)

// Column is one locked column: its name, inferred kind, and whether
// any observed value was null (which makes the column nullable).
type Column struct {
	Name     string
	Kind     Kind
	Nullable bool
}

// InferSchema unions the column names across rows (first-seen order)
// and infers each one's Kind: all-int -> Int64, int+float mixed ->
// Float64, all-bool -> Bool, anything else (strings, JSON-encoded
// complex values, mixed types) -> String (spec.md §4.7.2).
func InferSchema(rows []engine.FlatRow) []Column {
	order := make([]string, 0)
	seen := make(map[string]bool)
	sawInt := make(map[string]bool)
	sawFloat := make(map[string]bool)
	sawBool := make(map[string]bool)
	sawOther := make(map[string]bool)
	sawNull := make(map[string]bool)

	for _, row := range rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
			v, _ := row.Get(k)
			switch v.(type) {
			case nil:
				sawNull[k] = true
			case int64, int, int32:
				sawInt[k] = true
			case float64:
				sawFloat[k] = true
			case bool:
				sawBool[k] = true
			default:
				sawOther[k] = true
			}
		}
	}

	cols := make([]Column, 0, len(order))
	for _, k := range order {
		var kind Kind
		switch {
		case sawOther[k] || (sawBool[k] && (sawInt[k] || sawFloat[k])):
			kind = KindString
		case sawBool[k]:
			kind = KindBool
		case sawFloat[k]:
			kind = KindFloat64
		case sawInt[k]:
			kind = KindInt64
		default:
			kind = KindString
		}
		cols = append(cols, Column{Name: k, Kind: kind, Nullable: sawNull[k]})
	}
	return cols
}

// Coerce renders v (possibly nil) as the Go type matching kind,
// falling back to a JSON/string rendering when v's native type
// doesn't match a numeric/bool column — this only happens for mixed
// columns inferred as String.
func Coerce(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindInt64:
		switch t := v.(type) {
		case int64:
			return t
		case int:
			return int64(t)
		case int32:
			return int64(t)
		case float64:
			return int64(t)
		}
	case KindFloat64:
		switch t := v.(type) {
		case float64:
			return t
		case int64:
			return float64(t)
		case int:
			return float64(t)
		case int32:
			return float64(t)
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return stringify(v)
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any, map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", t)
	}
}
