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

// Assembler accumulates per-record FlushGroups into a single
// insertion-ordered table->rows map and reports when a table's batch
// has reached batch_size (spec.md §4.5). A child row is only ever
// merged in alongside the rest of the record it came from, so the
// parent-first ordering within one flush group is preserved for free.
type Assembler struct {
	batchSize  int
	tableOrder []string
	tables     map[string]Batch
}

// NewAssembler returns an empty assembler for cfg.BatchSize.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{batchSize: cfg.BatchSize, tables: make(map[string]Batch)}
}

// Add merges one record's flattener output into the assembler, then
// reports whether a batch boundary was crossed. When triggered is
// true, ready holds every table's accumulated rows (atomically, per
// the §4.5 invariant) and the assembler's internal state is cleared;
// the caller must hand ready to the writer before calling Add again.
func (a *Assembler) Add(group *FlushGroup) (ready *FlushGroup, triggered bool) {
	if group == nil {
		return nil, false
	}

	for _, table := range group.TableOrder {
		if _, ok := a.tables[table]; !ok {
			a.tableOrder = append(a.tableOrder, table)
		}
		a.tables[table] = append(a.tables[table], group.Tables[table]...)
	}

	for _, table := range a.tableOrder {
		if len(a.tables[table]) >= a.batchSize {
			return a.drain(), true
		}
	}
	return nil, false
}

// Flush returns any rows remaining at end-of-input (spec.md §4.5,
// "on end-of-input, any non-empty tables are flushed"), or nil if the
// assembler is empty.
func (a *Assembler) Flush() *FlushGroup {
	if len(a.tableOrder) == 0 {
		return nil
	}
	return a.drain()
}

// drain snapshots the current state into a FlushGroup and resets the
// assembler for the next batch.
func (a *Assembler) drain() *FlushGroup {
	out := &FlushGroup{
		TableOrder: a.tableOrder,
		Tables:     a.tables,
	}
	a.tableOrder = nil
	a.tables = make(map[string]Batch)
	return out
}
