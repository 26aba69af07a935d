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

// Package engine is the flattener + array extractor + id generator +
// batch assembler core: a single recursive traversal turns one
// semi-structured record into a main-table row plus zero or more
// child-table batches.
package engine

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/scottdraper8/transmog/internal/xerrors"
)

// Stats accumulates counters a caller can inspect after a run — the
// only one specified is the depth-exceeded count (spec.md §4.3).
type Stats struct {
	DepthExceeded int
}

// Flattener drives the recursive walk for one Flatten/FlattenStream
// run. It is not safe for concurrent use; each pipeline run owns one.
type Flattener struct {
	cfg   Config
	ids   *idGenerator
	now   string
	Stats Stats
}

// NewFlattener builds a Flattener for cfg. now is the single
// wall-clock reading every row in the run shares for its _timestamp
// column (SPEC_FULL.md §3); pass "" to disable even when cfg.TimeField
// is set.
func NewFlattener(cfg Config, now string) *Flattener {
	return &Flattener{cfg: cfg, ids: newIDGenerator(cfg), now: now}
}

// tableName renders the display/lookup name for a table ancestry
// path, applying the table-name deep-nesting rule (spec.md §4.1).
func (f *Flattener) tableName(tablePath []string) string {
	return Join(tablePath, f.cfg.Separator, f.cfg.DeepNestingThreshold, TablePath)
}

// Flatten walks one record for the named main table, returning its
// flat row and every child-table batch extracted from it. record must
// be a map at the top level.
func (f *Flattener) Flatten(record any, entityName string) (FlatRow, *FlushGroup, error) {
	obj, ok := ToRecord(record).(*Object)
	if !ok {
		return FlatRow{}, nil, xerrors.Validation(
			fmt.Sprintf("top-level record for table %q must be an object, got %T", entityName, record), nil)
	}

	group := NewFlushGroup()
	row, err := f.processRecord(obj, []string{entityName}, "", false, group)
	if err != nil {
		return FlatRow{}, nil, err
	}
	return row, group, nil
}

// processRecord is the recursive unit of work for one object destined
// for one row: it walks obj's own fields (descending into nested
// objects, inlining or queuing arrays per policy), assigns this row's
// id/parent/time metadata, then — now that the row's own id exists —
// extracts any queued arrays into child-table rows appended to group.
// tablePath is the ancestry of table-name components this row's table
// was derived from; parentID/hasParent carry the enclosing row's id
// down for child rows (spec.md §4.4 step 3).
func (f *Flattener) processRecord(obj *Object, tablePath []string, parentID string, hasParent bool, group *FlushGroup) (FlatRow, error) {
	data, extractions, err := f.walkFields(obj, nil, 0, tablePath)
	if err != nil {
		return FlatRow{}, err
	}

	table := f.tableName(tablePath)
	row, id, err := f.assignMetadata(table, data, parentID, hasParent)
	if err != nil {
		return FlatRow{}, err
	}

	for _, ext := range extractions {
		if err := f.extractArray(ext, tablePath, id, group); err != nil {
			return FlatRow{}, err
		}
	}

	return row, nil
}

// pendingExtraction is an array whose elements will become child-table
// rows once the enclosing row's id is known.
type pendingExtraction struct {
	path     []string
	elements []any
}

// walkFields recurses over one object's own fields, writing primitive
// leaves and Smart/Inline-encoded arrays directly into the returned
// row, and collecting arrays destined for child tables (Separate
// mode, or Smart mode over an array of objects) for the caller to
// extract once this row has an id. depth is the nesting depth of obj
// itself (0 at the root of a table); tablePath is unaffected by
// nested-object depth — it only grows across array extraction.
func (f *Flattener) walkFields(obj *Object, path []string, depth int, tablePath []string) (FlatRow, []pendingExtraction, error) {
	row := NewFlatRow()
	if depth > f.cfg.MaxDepth {
		f.Stats.DepthExceeded++
		return row, nil, nil
	}

	var extractions []pendingExtraction
	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		childPath := append(append([]string{}, path...), key)

		switch v := val.(type) {
		case *Object:
			if depth+1 > f.cfg.MaxDepth {
				f.Stats.DepthExceeded++
				continue
			}
			sub, subExt, err := f.walkFields(v, childPath, depth+1, tablePath)
			if err != nil {
				return row, nil, err
			}
			for _, k := range sub.Keys() {
				sv, _ := sub.Get(k)
				row.Set(k, sv)
			}
			extractions = append(extractions, subExt...)

		case []any:
			ext, err := f.handleArray(v, childPath, &row)
			if err != nil {
				return row, nil, err
			}
			if ext != nil {
				extractions = append(extractions, *ext)
			}

		default:
			f.writeLeaf(&row, childPath, v)
		}
	}
	return row, extractions, nil
}

// handleArray applies the configured ArrayMode to one array field. It
// either writes directly into row (Smart-inline, Inline, Skip) and
// returns nil, or returns a pendingExtraction for the caller to queue
// (Separate, or Smart over a non-primitive array).
func (f *Flattener) handleArray(arr []any, path []string, row *FlatRow) (*pendingExtraction, error) {
	switch f.cfg.ArrayMode {
	case ArraySkip:
		return nil, nil

	case ArrayInline:
		encoded, err := encodeJSON(arr)
		if err != nil {
			return nil, xerrors.Processing("unable to JSON-encode array for inline mode", err)
		}
		name := Join(path, f.cfg.Separator, f.cfg.DeepNestingThreshold, ColumnPath)
		if name != "" {
			row.Set(name, encoded)
		}
		return nil, nil

	case ArraySeparate:
		return &pendingExtraction{path: path, elements: arr}, nil

	default: // ArraySmart
		if allPrimitive(arr) {
			name := Join(path, f.cfg.Separator, f.cfg.DeepNestingThreshold, ColumnPath)
			if name != "" {
				row.Set(name, convertPrimitiveSlice(arr, f.cfg.StringifyValues))
			}
			return nil, nil
		}
		return &pendingExtraction{path: path, elements: arr}, nil
	}
}

// allPrimitive reports whether every element of arr is a scalar
// (neither an object nor a nested array) — the Smart-mode test for
// "inline vs. extract".
func allPrimitive(arr []any) bool {
	for _, e := range arr {
		switch e.(type) {
		case *Object, []any:
			return false
		}
	}
	return true
}

// convertPrimitiveSlice normalizes each element the way a leaf would
// be (numeric normalization, optional stringify) for a Smart-inlined
// native sequence. Null elements are kept in place — dropping them
// would corrupt the array's positional meaning, unlike a null leaf
// column, which simply doesn't exist.
func convertPrimitiveSlice(arr []any, stringifyValues bool) []any {
	out := make([]any, len(arr))
	for i, e := range arr {
		if e == nil {
			out[i] = nil
			continue
		}
		if stringifyValues {
			out[i] = stringify(e)
		} else {
			out[i] = normalizeScalar(e)
		}
	}
	return out
}

// writeLeaf applies the null/empty/stringify policies and writes one
// scalar leaf at path into row.
func (f *Flattener) writeLeaf(row *FlatRow, path []string, val any) {
	name := Join(path, f.cfg.Separator, f.cfg.DeepNestingThreshold, ColumnPath)
	if name == "" {
		return
	}

	isNull := val == nil
	isEmptyString := false
	if s, ok := val.(string); ok && s == "" {
		isEmptyString = true
	}

	if (isNull || isEmptyString) && !f.cfg.IncludeNulls {
		return
	}

	if f.cfg.StringifyValues && !isNull {
		row.Set(name, stringify(val))
		return
	}
	row.Set(name, normalizeScalar(val))
}

// stringify renders a scalar in its public string form. Booleans
// render as "True"/"False" — a pinned, tested contract (spec.md §9).
func stringify(val any) string {
	switch v := val.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// normalizeScalar leaves strings/bools/nil and native Go numbers
// (int, float64, ... from an in-memory record) as-is, and collapses a
// json.Number from decoded JSON to int64 when it parses as an integer,
// else to float64.
func normalizeScalar(val any) any {
	n, ok := val.(json.Number)
	if !ok {
		return val
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if fl, err := n.Float64(); err == nil {
		return fl
	}
	return n.String()
}

// encodeJSON marshals v (an *Object / []any / scalar tree) to a JSON
// string, preserving *Object field order via its MarshalJSON method.
func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// assignMetadata injects id_field, parent_field, and time_field ahead
// of the data columns, honoring the "user data wins" tie-break
// (spec.md §3, §4.4): a column already present under one of those
// names is left untouched, and no id is generated/parent recorded
// over it. It returns the finished row and the id value assigned (or
// inherited), which the caller uses as the parent id for this row's
// own extracted arrays.
func (f *Flattener) assignMetadata(table string, data FlatRow, parentID string, hasParent bool) (FlatRow, string, error) {
	idField := f.cfg.IDFieldFor(table)

	out := NewFlatRow()

	var id string
	if v, ok := data.Get(idField); ok && v != nil {
		id = fmt.Sprintf("%v", v)
		out.Set(idField, v)
	} else {
		gen, err := f.ids.generate(table, data)
		if err != nil {
			return FlatRow{}, "", err
		}
		id = gen
		out.Set(idField, gen)
	}

	if hasParent {
		if v, ok := data.Get(f.cfg.ParentField); ok && v != nil {
			out.Set(f.cfg.ParentField, v)
		} else {
			out.Set(f.cfg.ParentField, parentID)
		}
	}

	if f.cfg.TimeField != "" {
		if v, ok := data.Get(f.cfg.TimeField); ok && v != nil {
			out.Set(f.cfg.TimeField, v)
		} else if f.now != "" {
			out.Set(f.cfg.TimeField, f.now)
		}
	}

	for _, k := range data.Keys() {
		if k == idField || k == f.cfg.ParentField || k == f.cfg.TimeField {
			continue
		}
		v, _ := data.Get(k)
		out.Set(k, v)
	}

	return out, id, nil
}
