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

// FlatRow is an ordered column-name -> cell mapping. Order is
// insertion order of first write (spec.md §4.3): re-setting an
// existing key updates its value in place without moving it.
type FlatRow struct {
	keys   []string
	values map[string]any
}

// NewFlatRow returns an empty row ready for Set calls.
func NewFlatRow() FlatRow {
	return FlatRow{values: make(map[string]any)}
}

// Set assigns value to key, appending key to the column order the
// first time it is written.
func (r *FlatRow) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Get returns the value at key and whether it is present.
func (r FlatRow) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the column names in insertion order.
func (r FlatRow) Keys() []string {
	return r.keys
}

// Len reports the number of columns.
func (r FlatRow) Len() int {
	return len(r.keys)
}

// Map returns a plain map view of the row, for hashing and
// JSON-encoding callers that don't need column order.
func (r FlatRow) Map() map[string]any {
	out := make(map[string]any, len(r.values))
	for k, v := range r.values {
		out[k] = v
	}
	return out
}

// Batch is an ordered list of rows destined for one table.
type Batch []FlatRow

// FlushGroup is the set of per-table batches produced together when a
// batch boundary triggers, or at end-of-input. TableOrder preserves
// first-seen table ordering (main table first, then each child table
// in the order its array was first encountered) so writers that care
// about table discovery order (e.g. directory listing) stay
// deterministic.
type FlushGroup struct {
	TableOrder []string
	Tables     map[string]Batch
}

// NewFlushGroup returns an empty flush group.
func NewFlushGroup() *FlushGroup {
	return &FlushGroup{Tables: make(map[string]Batch)}
}

// Append adds row to table's batch, registering the table in
// TableOrder the first time it's seen.
func (g *FlushGroup) Append(table string, row FlatRow) {
	if _, ok := g.Tables[table]; !ok {
		g.TableOrder = append(g.TableOrder, table)
	}
	g.Tables[table] = append(g.Tables[table], row)
}

// Len returns the total row count across every table in the group.
func (g *FlushGroup) Len() int {
	n := 0
	for _, b := range g.Tables {
		n += len(b)
	}
	return n
}

// Empty reports whether every table's batch in the group is empty.
func (g *FlushGroup) Empty() bool {
	return g.Len() == 0
}
